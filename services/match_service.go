package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

// Типы событий, рассылаемых подписчикам комнаты турнира.
const (
	EventMatchUpdated     = "MATCH_UPDATED"
	EventStandingsUpdated = "STANDINGS_UPDATED"
)

// Broadcaster delivers tournament events to realtime subscribers.
type Broadcaster interface {
	BroadcastToRoom(roomID string, eventType string, payload interface{})
}

// TournamentRoom names the realtime room of a tournament.
func TournamentRoom(tournamentID int64) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

type MatchService interface {
	CreateMatch(ctx context.Context, tournamentID int64, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id int64) (*models.Match, error)
	ListTournamentMatches(ctx context.Context, tournamentID int64, round *int, status *models.MatchStatus) ([]models.Match, error)
	ListPlayerMatches(ctx context.Context, playerID int64, year *int, limit, offset int) ([]models.Match, error)
	UpdateMatch(ctx context.Context, id int64, input UpdateMatchInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int64) error
	// RecordResult completes the game and recomputes the tournament's standings
	// in the same transaction.
	RecordResult(ctx context.Context, id int64, input RecordResultInput) (*models.Match, error)
	GetPlayerStatistics(ctx context.Context, playerID int64, year *int) (*models.PlayerStatistics, error)
}

type CreateMatchInput struct {
	ID              int64               `json:"match_id,omitempty"`
	RoundNumber     int                 `json:"round_number"`
	BoardNumber     *int                `json:"board_number,omitempty"`
	WhitePlayerID   int64               `json:"white_player_id"`
	BlackPlayerID   int64               `json:"black_player_id"`
	ScheduledTime   *time.Time          `json:"scheduled_time,omitempty"`
	ActualStartTime *time.Time          `json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time          `json:"actual_end_time,omitempty"`
	Result          *models.MatchResult `json:"result,omitempty"`
	MovesPGN        *string             `json:"moves_pgn,omitempty"`
	TimeControlUsed *string             `json:"time_control_used,omitempty"`
	Arbiter         *string             `json:"arbiter,omitempty"`
	Status          *models.MatchStatus `json:"status,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
}

type UpdateMatchInput struct {
	RoundNumber     *int                `json:"round_number,omitempty"`
	BoardNumber     *int                `json:"board_number,omitempty"`
	WhitePlayerID   *int64              `json:"white_player_id,omitempty"`
	BlackPlayerID   *int64              `json:"black_player_id,omitempty"`
	ScheduledTime   *time.Time          `json:"scheduled_time,omitempty"`
	ActualStartTime *time.Time          `json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time          `json:"actual_end_time,omitempty"`
	Result          *models.MatchResult `json:"result,omitempty"`
	MovesPGN        *string             `json:"moves_pgn,omitempty"`
	TimeControlUsed *string             `json:"time_control_used,omitempty"`
	Arbiter         *string             `json:"arbiter,omitempty"`
	Status          *models.MatchStatus `json:"status,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
}

type RecordResultInput struct {
	Result          models.MatchResult `json:"result"`
	MovesPGN        *string            `json:"moves_pgn,omitempty"`
	ActualStartTime *time.Time         `json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time         `json:"actual_end_time,omitempty"`
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	tournamentRepo  repositories.TournamentRepository
	playerRepo      repositories.PlayerRepository
	participantRepo repositories.ParticipantRepository
	standingRepo    repositories.StandingRepository
	tally           *standingsTally
	tx              repositories.Transactor
	broadcaster     Broadcaster
	now             Clock
	logger          *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	participantRepo repositories.ParticipantRepository,
	standingRepo repositories.StandingRepository,
	tx repositories.Transactor,
	broadcaster Broadcaster,
	clock Clock,
	logger *slog.Logger,
) MatchService {
	clock = clock.orSystem()
	return &matchService{
		matchRepo:       matchRepo,
		tournamentRepo:  tournamentRepo,
		playerRepo:      playerRepo,
		participantRepo: participantRepo,
		standingRepo:    standingRepo,
		tally: &standingsTally{
			participantRepo: participantRepo,
			matchRepo:       matchRepo,
			standingRepo:    standingRepo,
			now:             clock,
		},
		tx:          tx,
		broadcaster: broadcaster,
		now:         clock,
		logger:      logger,
	}
}

func validateMatch(m *models.Match) error {
	if err := checkPositive("round_number", m.RoundNumber); err != nil {
		return err
	}
	if m.BoardNumber != nil {
		if err := checkPositive("board_number", *m.BoardNumber); err != nil {
			return err
		}
	}
	if m.WhitePlayerID == m.BlackPlayerID {
		return models.ErrSamePlayer
	}
	if m.ActualStartTime != nil && m.ActualEndTime != nil && m.ActualEndTime.Before(*m.ActualStartTime) {
		return models.ErrMatchTimes
	}
	if !m.Result.Valid() {
		return enumError("result", m.Result)
	}
	if !m.Status.Valid() {
		return enumError("status", m.Status)
	}
	var err error
	if m.TimeControlUsed, err = optionalText("time_control_used", m.TimeControlUsed, 50); err != nil {
		return err
	}
	if m.Arbiter, err = optionalText("arbiter", m.Arbiter, 100); err != nil {
		return err
	}
	m.Notes = trimOptional(m.Notes)
	return nil
}

func (s *matchService) ensurePlayer(ctx context.Context, exec repositories.SQLExecutor, playerID int64, colour string) error {
	_, err := s.playerRepo.GetByID(ctx, exec, playerID, repositories.NoLock)
	return asReference(err, repositories.ErrPlayerNotFound, "matches_"+colour+"_player_id_fkey", colour+"_player_id", playerID)
}

func (s *matchService) CreateMatch(ctx context.Context, tournamentID int64, input CreateMatchInput) (*models.Match, error) {
	m := &models.Match{
		ID:              input.ID,
		TournamentID:    tournamentID,
		RoundNumber:     input.RoundNumber,
		BoardNumber:     input.BoardNumber,
		WhitePlayerID:   input.WhitePlayerID,
		BlackPlayerID:   input.BlackPlayerID,
		ScheduledTime:   input.ScheduledTime,
		ActualStartTime: input.ActualStartTime,
		ActualEndTime:   input.ActualEndTime,
		Result:          models.ResultUnfinished,
		MovesPGN:        input.MovesPGN,
		TimeControlUsed: input.TimeControlUsed,
		Arbiter:         input.Arbiter,
		Status:          models.MatchScheduled,
		Notes:           input.Notes,
	}
	if input.Result != nil {
		m.Result = *input.Result
	}
	if input.Status != nil {
		m.Status = *input.Status
	}
	if err := validateMatch(m); err != nil {
		return nil, err
	}
	m.MarkCreated(s.now())

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, repositories.ForUpdate); err != nil {
			return err
		}
		if err := s.ensurePlayer(ctx, exec, m.WhitePlayerID, "white"); err != nil {
			return err
		}
		if err := s.ensurePlayer(ctx, exec, m.BlackPlayerID, "black"); err != nil {
			return err
		}
		if err := s.matchRepo.Create(ctx, exec, m); err != nil {
			return err
		}
		if m.Decided() {
			return s.tally.recompute(ctx, exec, tournamentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, m, m.Decided())
	return m, nil
}

func (s *matchService) GetMatch(ctx context.Context, id int64) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *matchService) ListTournamentMatches(ctx context.Context, tournamentID int64, round *int, status *models.MatchStatus) ([]models.Match, error) {
	if status != nil && !status.Valid() {
		return nil, enumError("status", *status)
	}
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.matchRepo.List(ctx, nil, repositories.ListMatchesFilter{
		TournamentID: &tournamentID,
		Round:        round,
		Status:       status,
	})
}

func (s *matchService) ListPlayerMatches(ctx context.Context, playerID int64, year *int, limit, offset int) ([]models.Match, error) {
	if _, err := s.playerRepo.GetByID(ctx, nil, playerID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.matchRepo.List(ctx, nil, repositories.ListMatchesFilter{
		PlayerID: &playerID,
		Year:     year,
		Limit:    normalizeLimit(limit, 50, 500),
		Offset:   offset,
	})
}

// lockForWrite takes the tournament lock and then the match lock. Writers that
// touch standings serialize on the tournament row.
func (s *matchService) lockForWrite(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Match, error) {
	peek, err := s.matchRepo.GetByID(ctx, exec, id, repositories.NoLock)
	if err != nil {
		return nil, err
	}
	if _, err := s.tournamentRepo.GetByID(ctx, exec, peek.TournamentID, repositories.ForUpdate); err != nil {
		return nil, err
	}
	return s.matchRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
}

func (s *matchService) UpdateMatch(ctx context.Context, id int64, input UpdateMatchInput) (*models.Match, error) {
	var (
		m        *models.Match
		rescored bool
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		m, err = s.lockForWrite(ctx, exec, id)
		if err != nil {
			return err
		}
		before := *m

		if input.RoundNumber != nil {
			m.RoundNumber = *input.RoundNumber
		}
		if input.BoardNumber != nil {
			m.BoardNumber = input.BoardNumber
		}
		if input.WhitePlayerID != nil {
			m.WhitePlayerID = *input.WhitePlayerID
		}
		if input.BlackPlayerID != nil {
			m.BlackPlayerID = *input.BlackPlayerID
		}
		if input.ScheduledTime != nil {
			m.ScheduledTime = input.ScheduledTime
		}
		if input.ActualStartTime != nil {
			m.ActualStartTime = input.ActualStartTime
		}
		if input.ActualEndTime != nil {
			m.ActualEndTime = input.ActualEndTime
		}
		if input.Result != nil {
			m.Result = *input.Result
		}
		if input.MovesPGN != nil {
			m.MovesPGN = input.MovesPGN
		}
		if input.TimeControlUsed != nil {
			m.TimeControlUsed = input.TimeControlUsed
		}
		if input.Arbiter != nil {
			m.Arbiter = input.Arbiter
		}
		if input.Status != nil {
			m.Status = *input.Status
		}
		if input.Notes != nil {
			m.Notes = input.Notes
		}
		if err := validateMatch(m); err != nil {
			return err
		}
		if input.WhitePlayerID != nil {
			if err := s.ensurePlayer(ctx, exec, m.WhitePlayerID, "white"); err != nil {
				return err
			}
		}
		if input.BlackPlayerID != nil {
			if err := s.ensurePlayer(ctx, exec, m.BlackPlayerID, "black"); err != nil {
				return err
			}
		}
		m.MarkUpdated(s.now())
		if err := s.matchRepo.Update(ctx, exec, m); err != nil {
			return err
		}

		rescored = affectsStandings(&before, m)
		if rescored {
			return s.tally.recompute(ctx, exec, m.TournamentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, m, rescored)
	return m, nil
}

// affectsStandings reports whether an edit can change any score.
func affectsStandings(before, after *models.Match) bool {
	if !before.Decided() && !after.Decided() {
		return false
	}
	return before.Decided() != after.Decided() ||
		before.Result != after.Result ||
		before.WhitePlayerID != after.WhitePlayerID ||
		before.BlackPlayerID != after.BlackPlayerID
}

func (s *matchService) DeleteMatch(ctx context.Context, id int64) error {
	var m *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		m, err = s.lockForWrite(ctx, exec, id)
		if err != nil {
			return err
		}
		if err := s.matchRepo.Delete(ctx, exec, id); err != nil {
			return err
		}
		if m.Decided() {
			return s.tally.recompute(ctx, exec, m.TournamentID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if m.Decided() {
		s.notifyStandings(ctx, m.TournamentID)
	}
	return nil
}

func (s *matchService) RecordResult(ctx context.Context, id int64, input RecordResultInput) (*models.Match, error) {
	if input.Result == models.ResultUnfinished {
		return nil, models.NewConstraintError(models.RuleEnum, "result", "a finished game needs %q, %q or %q",
			models.ResultWhiteWins, models.ResultBlackWins, models.ResultDraw)
	}
	if !input.Result.Valid() {
		return nil, enumError("result", input.Result)
	}

	var m *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		m, err = s.lockForWrite(ctx, exec, id)
		if err != nil {
			return err
		}
		now := s.now()
		m.Result = input.Result
		m.Status = models.MatchCompleted
		if input.MovesPGN != nil {
			m.MovesPGN = input.MovesPGN
		}
		if input.ActualStartTime != nil {
			m.ActualStartTime = input.ActualStartTime
		}
		if input.ActualEndTime != nil {
			m.ActualEndTime = input.ActualEndTime
		} else if m.ActualEndTime == nil {
			end := now.UTC()
			m.ActualEndTime = &end
		}
		if err := validateMatch(m); err != nil {
			return err
		}
		m.MarkUpdated(now)
		if err := s.matchRepo.Update(ctx, exec, m); err != nil {
			return err
		}
		return s.tally.recompute(ctx, exec, m.TournamentID)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, m, true)
	return m, nil
}

// notify runs after commit. Delivery failures are logged and never fail the write.
func (s *matchService) notify(ctx context.Context, m *models.Match, standingsChanged bool) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(TournamentRoom(m.TournamentID), EventMatchUpdated, m)
	if standingsChanged {
		s.notifyStandings(ctx, m.TournamentID)
	}
}

func (s *matchService) notifyStandings(ctx context.Context, tournamentID int64) {
	if s.broadcaster == nil {
		return
	}
	standings, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Failed to load standings for broadcast",
				slog.Int64("tournament_id", tournamentID), slog.Any("error", err))
		}
		return
	}
	s.broadcaster.BroadcastToRoom(TournamentRoom(tournamentID), EventStandingsUpdated, standings)
}

func (s *matchService) GetPlayerStatistics(ctx context.Context, playerID int64, year *int) (*models.PlayerStatistics, error) {
	var (
		player      *models.Player
		matches     []models.Match
		tournaments int
	)
	completed := models.MatchCompleted

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		player, err = s.playerRepo.GetByID(gCtx, nil, playerID, repositories.NoLock)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.List(gCtx, nil, repositories.ListMatchesFilter{
			PlayerID: &playerID,
			Status:   &completed,
			Year:     year,
		})
		if err != nil {
			return fmt.Errorf("failed to list games of player %d: %w", playerID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tournaments, err = s.participantRepo.CountTournamentsByPlayer(gCtx, nil, playerID, year)
		if err != nil {
			return fmt.Errorf("failed to count tournaments of player %d: %w", playerID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sc := tallyScores([]int64{playerID}, matches)[playerID]
	stats := &models.PlayerStatistics{
		PlayerID:          player.ID,
		PlayerName:        player.Name,
		CurrentRating:     player.Rating,
		Title:             player.Title,
		TotalGames:        sc.games,
		Wins:              sc.wins,
		Draws:             sc.draws,
		Losses:            sc.losses,
		TotalPoints:       sc.points,
		TournamentsPlayed: tournaments,
	}
	if sc.games > 0 {
		stats.WinRate = math.Round(float64(sc.wins)/float64(sc.games)*10000) / 100
	}
	return stats, nil
}
