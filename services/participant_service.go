package services

import (
	"context"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

// ParticipantService управляет регистрацией шахматистов в турнирах.
type ParticipantService interface {
	// RegisterPlayer records the player's current rating as the initial rating.
	// Registration is refused once the tournament is finished or full.
	RegisterPlayer(ctx context.Context, tournamentID int64, input RegisterParticipantInput) (*models.TournamentParticipant, error)
	GetParticipant(ctx context.Context, tournamentID, playerID int64) (*models.TournamentParticipant, error)
	ListParticipants(ctx context.Context, tournamentID int64, confirmedOnly bool) ([]models.TournamentParticipant, error)
	UpdateParticipant(ctx context.Context, tournamentID, playerID int64, input UpdateParticipantInput) (*models.TournamentParticipant, error)
	Withdraw(ctx context.Context, tournamentID, playerID int64) (*models.TournamentParticipant, error)
	RemoveParticipant(ctx context.Context, tournamentID, playerID int64) error
}

type RegisterParticipantInput struct {
	PlayerID         int64                     `json:"player_id"`
	SeedNumber       *int                      `json:"seed_number,omitempty"`
	RegistrationDate *time.Time                `json:"registration_date,omitempty"`
	Status           *models.ParticipantStatus `json:"status,omitempty"`
}

type UpdateParticipantInput struct {
	SeedNumber    *int                      `json:"seed_number,omitempty"`
	InitialRating *int                      `json:"initial_rating,omitempty"`
	Status        *models.ParticipantStatus `json:"status,omitempty"`
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	playerRepo      repositories.PlayerRepository
	tx              repositories.Transactor
	now             Clock
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	tx repositories.Transactor,
	clock Clock,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		playerRepo:      playerRepo,
		tx:              tx,
		now:             clock.orSystem(),
	}
}

func validateParticipant(p *models.TournamentParticipant) error {
	if !p.Status.Valid() {
		return enumError("status", p.Status)
	}
	if p.SeedNumber != nil {
		if err := checkPositive("seed_number", *p.SeedNumber); err != nil {
			return err
		}
	}
	if p.InitialRating != nil {
		if err := checkNonNegative("initial_rating", *p.InitialRating); err != nil {
			return err
		}
	}
	return nil
}

// claimSeat locks the tournament row and checks that one more counted
// participant fits. Every write that adds a counted participant goes through it.
func (s *participantService) claimSeat(ctx context.Context, exec repositories.SQLExecutor, tournamentID int64) error {
	t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, repositories.ForUpdate)
	if err != nil {
		return err
	}
	if t.Status.Closed() {
		return models.ErrTournamentClosed
	}
	count, err := s.participantRepo.CountActive(ctx, exec, tournamentID)
	if err != nil {
		return err
	}
	if count >= t.MaxParticipants {
		return models.ErrTournamentFull
	}
	return nil
}

func (s *participantService) RegisterPlayer(ctx context.Context, tournamentID int64, input RegisterParticipantInput) (*models.TournamentParticipant, error) {
	now := s.now()
	p := &models.TournamentParticipant{
		TournamentID:     tournamentID,
		PlayerID:         input.PlayerID,
		RegistrationDate: now,
		SeedNumber:       input.SeedNumber,
		Status:           models.ParticipantRegistered,
	}
	if input.RegistrationDate != nil {
		p.RegistrationDate = *input.RegistrationDate
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	if err := validateParticipant(p); err != nil {
		return nil, err
	}
	p.RegistrationDate = p.RegistrationDate.UTC().Truncate(time.Microsecond)
	p.MarkCreated(now)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if p.Status.Counted() {
			if err := s.claimSeat(ctx, exec, tournamentID); err != nil {
				return err
			}
		} else if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, repositories.NoLock); err != nil {
			return err
		}

		player, err := s.playerRepo.GetByID(ctx, exec, input.PlayerID, repositories.NoLock)
		if err != nil {
			return asReference(err, repositories.ErrPlayerNotFound, "tournament_participants_player_id_fkey", "player_id", input.PlayerID)
		}
		rating := player.Rating
		p.InitialRating = &rating
		p.Player = player
		return s.participantRepo.Create(ctx, exec, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *participantService) GetParticipant(ctx context.Context, tournamentID, playerID int64) (*models.TournamentParticipant, error) {
	return s.participantRepo.Get(ctx, nil, tournamentID, playerID, repositories.NoLock)
}

func (s *participantService) ListParticipants(ctx context.Context, tournamentID int64, confirmedOnly bool) ([]models.TournamentParticipant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByTournament(ctx, nil, tournamentID, confirmedOnly)
}

func (s *participantService) UpdateParticipant(ctx context.Context, tournamentID, playerID int64, input UpdateParticipantInput) (*models.TournamentParticipant, error) {
	var p *models.TournamentParticipant
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Tournament lock before participant lock, the same order RegisterPlayer takes.
		peek, err := s.participantRepo.Get(ctx, exec, tournamentID, playerID, repositories.NoLock)
		if err != nil {
			return err
		}
		if input.Status != nil && input.Status.Counted() && !peek.Status.Counted() {
			if err := s.claimSeat(ctx, exec, tournamentID); err != nil {
				return err
			}
		}

		p, err = s.participantRepo.Get(ctx, exec, tournamentID, playerID, repositories.ForUpdate)
		if err != nil {
			return err
		}
		if input.SeedNumber != nil {
			p.SeedNumber = input.SeedNumber
		}
		if input.InitialRating != nil {
			p.InitialRating = input.InitialRating
		}
		if input.Status != nil {
			p.Status = *input.Status
		}
		if err := validateParticipant(p); err != nil {
			return err
		}
		p.MarkUpdated(s.now())
		return s.participantRepo.Update(ctx, exec, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *participantService) Withdraw(ctx context.Context, tournamentID, playerID int64) (*models.TournamentParticipant, error) {
	status := models.ParticipantWithdrawn
	return s.UpdateParticipant(ctx, tournamentID, playerID, UpdateParticipantInput{Status: &status})
}

func (s *participantService) RemoveParticipant(ctx context.Context, tournamentID, playerID int64) error {
	return s.participantRepo.Delete(ctx, nil, tournamentID, playerID)
}
