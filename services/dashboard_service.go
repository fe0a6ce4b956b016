package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	clubRepo       repositories.ClubRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	membershipRepo repositories.MembershipRepository
}

func NewDashboardService(
	clubRepo repositories.ClubRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	membershipRepo repositories.MembershipRepository,
) DashboardService {
	return &dashboardService{
		clubRepo:       clubRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		membershipRepo: membershipRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	inProgress := models.StatusInProgress

	g, gCtx := errgroup.WithContext(ctx)
	count := func(name string, dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gCtx)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}
	count("clubs", &stats.ClubsTotal, func(ctx context.Context) (int, error) {
		return s.clubRepo.Count(ctx, nil)
	})
	count("players", &stats.PlayersTotal, func(ctx context.Context) (int, error) {
		return s.playerRepo.Count(ctx, nil)
	})
	count("tournaments", &stats.TournamentsTotal, func(ctx context.Context) (int, error) {
		return s.tournamentRepo.Count(ctx, nil, nil)
	})
	count("active tournaments", &stats.ActiveTournaments, func(ctx context.Context) (int, error) {
		return s.tournamentRepo.Count(ctx, nil, &inProgress)
	})
	count("matches", &stats.MatchesTotal, func(ctx context.Context) (int, error) {
		return s.matchRepo.Count(ctx, nil, nil, nil)
	})
	count("active memberships", &stats.ActiveMemberships, func(ctx context.Context) (int, error) {
		return s.membershipRepo.CountActive(ctx, nil)
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	return stats, nil
}
