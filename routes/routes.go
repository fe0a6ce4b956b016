package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/Dosada05/chess-tournament/docs"
	"github.com/Dosada05/chess-tournament/handlers"
	"github.com/Dosada05/chess-tournament/metrics"
	"github.com/Dosada05/chess-tournament/middleware"
	"github.com/Dosada05/chess-tournament/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Club        *handlers.ClubHandler
	Player      *handlers.PlayerHandler
	Membership  *handlers.MembershipHandler
	Ranking     *handlers.RankingHandler
	Sponsor     *handlers.SponsorHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Match       *handlers.MatchHandler
	Standing    *handlers.StandingHandler
	View        *handlers.ViewHandler
	Dashboard   *handlers.DashboardHandler
	WebSocket   *handlers.WebSocketHandler
}

// Pinger reports database reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Tokens         middleware.TokenParser
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	DB             Pinger
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.Tokens)
	// Изменять данные могут admin и arbiter, управлять операторами только admin.
	writers := middleware.Authorize(models.RoleAdmin, models.RoleArbiter)
	admins := middleware.Authorize(models.RoleAdmin)

	router.Get("/health", healthHandler(opts.DB))
	router.Handle("/metrics", opts.Metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Post("/auth/login", h.Auth.Login)

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate, admins)
		r.Get("/", h.User.List)
		r.Post("/", h.User.Create)
		r.Get("/{userID}", h.User.Get)
		r.Patch("/{userID}", h.User.Update)
		r.Delete("/{userID}", h.User.Delete)
	})

	router.Get("/dashboard", h.Dashboard.Stats)

	router.Route("/clubs", func(r chi.Router) {
		r.Get("/", h.Club.List)
		r.Get("/{clubID}", h.Club.Get)
		r.Get("/{clubID}/members", h.Club.Members)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, writers)
			r.Post("/", h.Club.Create)
			r.Patch("/{clubID}", h.Club.Update)
			r.Delete("/{clubID}", h.Club.Delete)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/", h.Player.List)
		r.Get("/top", h.Player.Top)
		r.Route("/{playerID}", func(r chi.Router) {
			r.Get("/", h.Player.Get)
			r.Get("/memberships", h.Player.Memberships)
			r.Get("/rankings", h.Player.Rankings)
			r.Get("/matches", h.Player.Matches)
			r.Get("/statistics", h.Player.Statistics)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, writers)
				r.Patch("/", h.Player.Update)
				r.Delete("/", h.Player.Delete)
				r.Post("/memberships", h.Player.AddMembership)
				r.Post("/transfer", h.Player.Transfer)
				r.Post("/rankings", h.Player.RecordRanking)
				r.Post("/rating", h.Player.RatingChange)
			})
		})

		r.With(authenticate, writers).Post("/", h.Player.Create)
	})

	router.Route("/memberships/{membershipID}", func(r chi.Router) {
		r.Get("/", h.Membership.Get)
		r.With(authenticate, writers).Patch("/", h.Membership.Update)
		r.With(authenticate, writers).Delete("/", h.Membership.Delete)
	})

	router.Route("/sponsors", func(r chi.Router) {
		r.Get("/", h.Sponsor.List)
		r.Get("/{sponsorID}", h.Sponsor.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, writers)
			r.Post("/", h.Sponsor.Create)
			r.Patch("/{sponsorID}", h.Sponsor.Update)
			r.Delete("/{sponsorID}", h.Sponsor.Delete)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Get("/code/{code}", h.Tournament.GetByCode)
		r.With(authenticate, writers).Post("/", h.Tournament.Create)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.Get)
			r.Get("/details", h.View.TournamentDetailsByID)
			r.Get("/statistics", h.Tournament.Statistics)
			r.Get("/sponsors", h.Tournament.ListSponsors)
			r.Get("/participants", h.Participant.List)
			r.Get("/participants/{playerID}", h.Participant.Get)
			r.Get("/matches", h.Match.ListByTournament)
			r.Get("/standings", h.Standing.List)
			r.Get("/standings/{playerID}", h.Standing.Get)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, writers)
				r.Patch("/", h.Tournament.Update)
				r.Delete("/", h.Tournament.Delete)
				r.Patch("/status", h.Tournament.UpdateStatus)

				r.Post("/sponsors", h.Tournament.AddSponsor)
				r.Patch("/sponsors/{sponsorID}", h.Tournament.UpdateSponsorship)
				r.Delete("/sponsors/{sponsorID}", h.Tournament.RemoveSponsor)

				r.Post("/participants", h.Participant.Register)
				r.Patch("/participants/{playerID}", h.Participant.Update)
				r.Post("/participants/{playerID}/withdraw", h.Participant.Withdraw)
				r.Delete("/participants/{playerID}", h.Participant.Remove)

				r.Post("/matches", h.Match.Create)

				r.Post("/standings/recalculate", h.Standing.Recalculate)
				r.Patch("/standings/{playerID}", h.Standing.Update)

				r.Post("/archive", h.Tournament.Archive)
				r.Delete("/archive", h.Tournament.DeleteArchive)
			})
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", h.Match.Get)
		r.Group(func(r chi.Router) {
			r.Use(authenticate, writers)
			r.Patch("/", h.Match.Update)
			r.Delete("/", h.Match.Delete)
			r.Post("/result", h.Match.RecordResult)
		})
	})

	router.Route("/rankings/{rankingID}", func(r chi.Router) {
		r.Get("/", h.Ranking.Get)
		r.With(authenticate, writers).Patch("/", h.Ranking.Update)
		r.With(authenticate, writers).Delete("/", h.Ranking.Delete)
	})

	router.Route("/views", func(r chi.Router) {
		r.Get("/active-memberships", h.View.ActiveMemberships)
		r.Get("/tournament-details", h.View.TournamentDetails)
		r.Get("/match-results", h.View.MatchResults)
	})
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}` + "\n"))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}` + "\n"))
	}
}
