package services

import (
	"context"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

// ViewService отдаёт строки производных представлений. Представления вычисляются
// при чтении и всегда отражают текущее состояние таблиц.
type ViewService interface {
	ActiveMemberships(ctx context.Context, clubID *int64) ([]models.ActiveMembershipView, error)
	TournamentDetails(ctx context.Context, status *models.TournamentStatus) ([]models.TournamentDetailsView, error)
	TournamentDetailsByID(ctx context.Context, tournamentID int64) (*models.TournamentDetailsView, error)
	MatchResults(ctx context.Context, input MatchResultsInput) ([]models.MatchResultView, error)
}

type MatchResultsInput struct {
	TournamentID *int64
	PlayerID     *int64
	Limit        int
}

type viewService struct {
	viewRepo repositories.ViewRepository
}

func NewViewService(viewRepo repositories.ViewRepository) ViewService {
	return &viewService{viewRepo: viewRepo}
}

func (s *viewService) ActiveMemberships(ctx context.Context, clubID *int64) ([]models.ActiveMembershipView, error) {
	return s.viewRepo.ActiveMemberships(ctx, nil, clubID)
}

func (s *viewService) TournamentDetails(ctx context.Context, status *models.TournamentStatus) ([]models.TournamentDetailsView, error) {
	if status != nil && !status.Valid() {
		return nil, enumError("status", *status)
	}
	return s.viewRepo.TournamentDetails(ctx, nil, status)
}

func (s *viewService) TournamentDetailsByID(ctx context.Context, tournamentID int64) (*models.TournamentDetailsView, error) {
	return s.viewRepo.TournamentDetailsByID(ctx, nil, tournamentID)
}

func (s *viewService) MatchResults(ctx context.Context, input MatchResultsInput) ([]models.MatchResultView, error) {
	return s.viewRepo.MatchResults(ctx, nil, repositories.MatchResultsFilter{
		TournamentID: input.TournamentID,
		PlayerID:     input.PlayerID,
		Limit:        normalizeLimit(input.Limit, 100, 1000),
	})
}
