package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/Dosada05/chess-tournament/realtime"
	"github.com/Dosada05/chess-tournament/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub               *realtime.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
	errs              *ErrorResponder
	logger            *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an empty
// list allows any origin.
func NewWebSocketHandler(hub *realtime.Hub, ts services.TournamentService, allowedOrigins []string, errs *ErrorResponder, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		errs:   errs,
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[u.Scheme+"://"+u.Host]
	}
}

// ServeWs подписывает клиента на события турнира: /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		h.errs.badRequest(w, r, err)
		return
	}
	if _, err := h.tournamentService.GetTournament(r.Context(), tournamentID); err != nil {
		h.errs.mapServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("Websocket upgrade failed", slog.Int64("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, services.TournamentRoom(tournamentID))
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
