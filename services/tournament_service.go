package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int64) (*models.Tournament, error)
	GetTournamentByCode(ctx context.Context, code string) (*models.Tournament, error)
	ListTournaments(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id int64, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id int64, status models.TournamentStatus) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int64) error

	AddSponsor(ctx context.Context, tournamentID int64, input SponsorshipInput) (*models.TournamentSponsor, error)
	UpdateSponsorship(ctx context.Context, tournamentID, sponsorID int64, input UpdateSponsorshipInput) (*models.TournamentSponsor, error)
	RemoveSponsor(ctx context.Context, tournamentID, sponsorID int64) error
	ListSponsors(ctx context.Context, tournamentID int64) ([]models.TournamentSponsor, error)

	GetStatistics(ctx context.Context, id int64) (*models.TournamentStatistics, error)
	// AutoUpdateTournamentStatusesByDates moves Registration Open tournaments that
	// have started to In Progress and In Progress ones that have ended to Completed.
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type CreateTournamentInput struct {
	ID              int64                    `json:"tournament_id,omitempty"`
	Code            string                   `json:"tournament_code"`
	Name            string                   `json:"tournament_name"`
	HostingClubID   *int64                   `json:"hosting_club_id,omitempty"`
	StartDate       models.Date              `json:"start_date"`
	EndDate         models.Date              `json:"end_date"`
	Location        *string                  `json:"location,omitempty"`
	EntryFee        *float64                 `json:"entry_fee,omitempty"`
	PrizePool       *float64                 `json:"prize_pool,omitempty"`
	MaxParticipants *int                     `json:"max_participants,omitempty"`
	Type            *models.TournamentType   `json:"tournament_type,omitempty"`
	TimeControl     *string                  `json:"time_control,omitempty"`
	Status          *models.TournamentStatus `json:"status,omitempty"`
	Description     *string                  `json:"description,omitempty"`
}

type UpdateTournamentInput struct {
	Code            *string                  `json:"tournament_code,omitempty"`
	Name            *string                  `json:"tournament_name,omitempty"`
	HostingClubID   *int64                   `json:"hosting_club_id,omitempty"`
	StartDate       *models.Date             `json:"start_date,omitempty"`
	EndDate         *models.Date             `json:"end_date,omitempty"`
	Location        *string                  `json:"location,omitempty"`
	EntryFee        *float64                 `json:"entry_fee,omitempty"`
	PrizePool       *float64                 `json:"prize_pool,omitempty"`
	MaxParticipants *int                     `json:"max_participants,omitempty"`
	Type            *models.TournamentType   `json:"tournament_type,omitempty"`
	TimeControl     *string                  `json:"time_control,omitempty"`
	Status          *models.TournamentStatus `json:"status,omitempty"`
	Description     *string                  `json:"description,omitempty"`
}

type ListTournamentsInput struct {
	Status        *models.TournamentStatus
	Type          *models.TournamentType
	HostingClubID *int64
	Year          *int
	// Upcoming keeps tournaments starting today or later.
	Upcoming bool
	Limit    int
	Offset   int
}

type SponsorshipInput struct {
	SponsorID    int64                   `json:"sponsor_id"`
	Amount       float64                 `json:"sponsorship_amount"`
	Type         *models.SponsorshipType `json:"sponsorship_type,omitempty"`
	ContractDate *models.Date            `json:"contract_date,omitempty"`
}

type UpdateSponsorshipInput struct {
	Amount       *float64                `json:"sponsorship_amount,omitempty"`
	Type         *models.SponsorshipType `json:"sponsorship_type,omitempty"`
	ContractDate *models.Date            `json:"contract_date,omitempty"`
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	clubRepo        repositories.ClubRepository
	sponsorRepo     repositories.SponsorRepository
	sponsorshipRepo repositories.TournamentSponsorRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	rankingRepo     repositories.RankingRepository
	tx              repositories.Transactor
	now             Clock
	logger          *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	clubRepo repositories.ClubRepository,
	sponsorRepo repositories.SponsorRepository,
	sponsorshipRepo repositories.TournamentSponsorRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	rankingRepo repositories.RankingRepository,
	tx repositories.Transactor,
	clock Clock,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		clubRepo:        clubRepo,
		sponsorRepo:     sponsorRepo,
		sponsorshipRepo: sponsorshipRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		rankingRepo:     rankingRepo,
		tx:              tx,
		now:             clock.orSystem(),
		logger:          logger,
	}
}

var allowedStatusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusPlanned:          {models.StatusRegistrationOpen, models.StatusInProgress, models.StatusCancelled},
	models.StatusRegistrationOpen: {models.StatusPlanned, models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:       {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:        {},
	models.StatusCancelled:        {},
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	for _, allowed := range allowedStatusTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func validateTournament(t *models.Tournament) error {
	var err error
	if t.Code, err = requireText("tournament_code", t.Code, 20); err != nil {
		return err
	}
	if t.Name, err = requireText("tournament_name", t.Name, 150); err != nil {
		return err
	}
	if t.Location, err = optionalText("location", t.Location, 200); err != nil {
		return err
	}
	if t.TimeControl, err = optionalText("time_control", t.TimeControl, 50); err != nil {
		return err
	}
	t.Description = trimOptional(t.Description)

	if t.StartDate.IsZero() {
		return models.NewConstraintError(models.RuleNotNull, "start_date", "value is required")
	}
	if t.EndDate.IsZero() {
		return models.NewConstraintError(models.RuleNotNull, "end_date", "value is required")
	}
	t.StartDate = dateOnly(t.StartDate)
	t.EndDate = dateOnly(t.EndDate)
	if t.EndDate.Before(t.StartDate) {
		return models.ErrTournamentDates
	}

	if err := checkMoney("entry_fee", t.EntryFee, 10); err != nil {
		return err
	}
	if err := checkMoney("prize_pool", t.PrizePool, 12); err != nil {
		return err
	}
	if err := checkPositive("max_participants", t.MaxParticipants); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return enumError("tournament_type", t.Type)
	}
	if !t.Status.Valid() {
		return enumError("status", t.Status)
	}
	return nil
}

func (s *tournamentService) ensureClub(ctx context.Context, exec repositories.SQLExecutor, clubID *int64) error {
	if clubID == nil {
		return nil
	}
	_, err := s.clubRepo.GetByID(ctx, exec, *clubID, repositories.NoLock)
	return asReference(err, repositories.ErrClubNotFound, "tournaments_hosting_club_id_fkey", "hosting_club_id", *clubID)
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{
		ID:              input.ID,
		Code:            input.Code,
		Name:            input.Name,
		HostingClubID:   input.HostingClubID,
		StartDate:       input.StartDate.Time,
		EndDate:         input.EndDate.Time,
		Location:        input.Location,
		MaxParticipants: models.DefaultMaxParticipants,
		Type:            models.TypeSwiss,
		TimeControl:     input.TimeControl,
		Status:          models.StatusPlanned,
		Description:     input.Description,
	}
	if input.EntryFee != nil {
		t.EntryFee = *input.EntryFee
	}
	if input.PrizePool != nil {
		t.PrizePool = *input.PrizePool
	}
	if input.MaxParticipants != nil {
		t.MaxParticipants = *input.MaxParticipants
	}
	if input.Type != nil {
		t.Type = *input.Type
	}
	if input.Status != nil {
		t.Status = *input.Status
	}
	if err := validateTournament(t); err != nil {
		return nil, err
	}
	t.MarkCreated(s.now())

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ensureClub(ctx, exec, t.HostingClubID); err != nil {
			return err
		}
		return s.tournamentRepo.Create(ctx, exec, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int64) (*models.Tournament, error) {
	return s.tournamentRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *tournamentService) GetTournamentByCode(ctx context.Context, code string) (*models.Tournament, error) {
	return s.tournamentRepo.GetByCode(ctx, nil, code)
}

func (s *tournamentService) ListTournaments(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, enumError("status", *input.Status)
	}
	if input.Type != nil && !input.Type.Valid() {
		return nil, enumError("tournament_type", *input.Type)
	}
	filter := repositories.ListTournamentsFilter{
		Status:        input.Status,
		Type:          input.Type,
		HostingClubID: input.HostingClubID,
		Year:          input.Year,
		Limit:         input.Limit,
		Offset:        input.Offset,
	}
	if input.Upcoming {
		today := dateOnly(s.now())
		filter.StartsFrom = &today
	}
	tournaments, err := s.tournamentRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int64, input UpdateTournamentInput) (*models.Tournament, error) {
	var t *models.Tournament
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		t, err = s.tournamentRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
		if err != nil {
			return err
		}

		if input.Code != nil {
			t.Code = *input.Code
		}
		if input.Name != nil {
			t.Name = *input.Name
		}
		if input.HostingClubID != nil {
			t.HostingClubID = input.HostingClubID
		}
		if input.StartDate != nil {
			t.StartDate = input.StartDate.Time
		}
		if input.EndDate != nil {
			t.EndDate = input.EndDate.Time
		}
		if input.Location != nil {
			t.Location = input.Location
		}
		if input.EntryFee != nil {
			t.EntryFee = *input.EntryFee
		}
		if input.PrizePool != nil {
			t.PrizePool = *input.PrizePool
		}
		if input.MaxParticipants != nil {
			t.MaxParticipants = *input.MaxParticipants
		}
		if input.Type != nil {
			t.Type = *input.Type
		}
		if input.TimeControl != nil {
			t.TimeControl = input.TimeControl
		}
		if input.Description != nil {
			t.Description = input.Description
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return enumError("status", *input.Status)
			}
			if !isValidStatusTransition(t.Status, *input.Status) {
				return statusTransitionError(t.Status, *input.Status)
			}
			t.Status = *input.Status
		}
		if err := validateTournament(t); err != nil {
			return err
		}
		if err := s.ensureClub(ctx, exec, input.HostingClubID); err != nil {
			return err
		}
		t.MarkUpdated(s.now())
		return s.tournamentRepo.Update(ctx, exec, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func statusTransitionError(from, to models.TournamentStatus) error {
	return &models.ViolationError{
		Kind:    models.KindDomainRule,
		Rule:    models.RuleTournamentStatusTransition,
		Field:   "status",
		Message: fmt.Sprintf("cannot change status from %q to %q", from, to),
	}
}

func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id int64, status models.TournamentStatus) (*models.Tournament, error) {
	return s.UpdateTournament(ctx, id, UpdateTournamentInput{Status: &status})
}

// DeleteTournament cascades to registrations, games, sponsorships and standings;
// rating history entries keep their rows and lose the tournament reference.
func (s *tournamentService) DeleteTournament(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.rankingRepo.DetachTournament(ctx, exec, id, stampNow(s.now)); err != nil {
			return fmt.Errorf("failed to detach rating history: %w", err)
		}
		return s.tournamentRepo.Delete(ctx, exec, id)
	})
}

func validateSponsorship(ts *models.TournamentSponsor) error {
	if err := checkMoney("sponsorship_amount", ts.Amount, 10); err != nil {
		return err
	}
	if !ts.Type.Valid() {
		return enumError("sponsorship_type", ts.Type)
	}
	ts.ContractDate = dateOnlyPtr(ts.ContractDate)
	return nil
}

func (s *tournamentService) AddSponsor(ctx context.Context, tournamentID int64, input SponsorshipInput) (*models.TournamentSponsor, error) {
	ts := &models.TournamentSponsor{
		TournamentID: tournamentID,
		SponsorID:    input.SponsorID,
		Amount:       input.Amount,
		Type:         models.SponsorshipSupporting,
		ContractDate: input.ContractDate.TimePtr(),
	}
	if input.Type != nil {
		ts.Type = *input.Type
	}
	if err := validateSponsorship(ts); err != nil {
		return nil, err
	}
	ts.MarkCreated(s.now())

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, repositories.NoLock); err != nil {
			return err
		}
		sp, err := s.sponsorRepo.GetByID(ctx, exec, input.SponsorID, repositories.NoLock)
		if err != nil {
			return asReference(err, repositories.ErrSponsorNotFound, "tournament_sponsors_sponsor_id_fkey", "sponsor_id", input.SponsorID)
		}
		ts.Sponsor = sp
		return s.sponsorshipRepo.Create(ctx, exec, ts)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *tournamentService) UpdateSponsorship(ctx context.Context, tournamentID, sponsorID int64, input UpdateSponsorshipInput) (*models.TournamentSponsor, error) {
	var ts *models.TournamentSponsor
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		ts, err = s.sponsorshipRepo.Get(ctx, exec, tournamentID, sponsorID, repositories.ForUpdate)
		if err != nil {
			return err
		}
		if input.Amount != nil {
			ts.Amount = *input.Amount
		}
		if input.Type != nil {
			ts.Type = *input.Type
		}
		if input.ContractDate != nil {
			ts.ContractDate = input.ContractDate.TimePtr()
		}
		if err := validateSponsorship(ts); err != nil {
			return err
		}
		ts.MarkUpdated(s.now())
		return s.sponsorshipRepo.Update(ctx, exec, ts)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *tournamentService) RemoveSponsor(ctx context.Context, tournamentID, sponsorID int64) error {
	return s.sponsorshipRepo.Delete(ctx, nil, tournamentID, sponsorID)
}

func (s *tournamentService) ListSponsors(ctx context.Context, tournamentID int64) ([]models.TournamentSponsor, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.sponsorshipRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *tournamentService) GetStatistics(ctx context.Context, id int64) (*models.TournamentStatistics, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id, repositories.NoLock)
	if err != nil {
		return nil, err
	}
	stats := &models.TournamentStatistics{
		TournamentID:   t.ID,
		TournamentName: t.Name,
		PrizePool:      t.PrizePool,
		Status:         t.Status,
	}

	completed := models.MatchCompleted
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.participantRepo.CountActive(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		stats.ParticipantCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.matchRepo.Count(gCtx, nil, &id, nil)
		if err != nil {
			return fmt.Errorf("failed to count matches: %w", err)
		}
		stats.TotalMatches = n
		return nil
	})
	g.Go(func() error {
		n, err := s.matchRepo.Count(gCtx, nil, &id, &completed)
		if err != nil {
			return fmt.Errorf("failed to count completed matches: %w", err)
		}
		stats.CompletedMatches = n
		return nil
	})
	g.Go(func() error {
		n, err := s.matchRepo.MaxRound(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to read round count: %w", err)
		}
		stats.TotalRounds = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.TotalMatches > 0 {
		pct := float64(stats.CompletedMatches) / float64(stats.TotalMatches) * 100
		stats.ProgressPercentage = math.Round(pct*100) / 100
	}
	return stats, nil
}

func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	today := dateOnly(s.now())
	tournaments, err := s.tournamentRepo.GetTournamentsForAutoStatusUpdate(ctx, nil, today)
	if err != nil {
		return err
	}

	var updated int
	for _, candidate := range tournaments {
		var next models.TournamentStatus
		switch candidate.Status {
		case models.StatusRegistrationOpen:
			next = models.StatusInProgress
		case models.StatusInProgress:
			next = models.StatusCompleted
		default:
			continue
		}

		err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
			t, err := s.tournamentRepo.GetByID(ctx, exec, candidate.ID, repositories.ForUpdate)
			if err != nil {
				return err
			}
			// Someone may have moved it since the candidate list was read.
			if t.Status != candidate.Status {
				return nil
			}
			t.Status = next
			t.MarkUpdated(s.now())
			return s.tournamentRepo.Update(ctx, exec, t)
		})
		if err != nil {
			s.logger.Error("Auto status update failed",
				slog.Int64("tournament_id", candidate.ID),
				slog.String("to", string(next)),
				slog.Any("error", err))
			continue
		}
		updated++
		s.logger.Info("Tournament status updated by schedule",
			slog.Int64("tournament_id", candidate.ID),
			slog.String("from", string(candidate.Status)),
			slog.String("to", string(next)))
	}
	if updated > 0 {
		s.logger.Info("Auto status update finished", slog.Int("updated", updated), slog.Int("candidates", len(tournaments)))
	}
	return nil
}
