package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

type StandingService interface {
	ListStandings(ctx context.Context, tournamentID int64) ([]models.TournamentStanding, error)
	GetStanding(ctx context.Context, tournamentID, playerID int64) (*models.TournamentStanding, error)
	// UpdateStanding sets the columns a recalculation never touches: tie-break
	// scores, final rank and prize.
	UpdateStanding(ctx context.Context, tournamentID, playerID int64, input UpdateStandingInput) (*models.TournamentStanding, error)
	RecalculateStandings(ctx context.Context, tournamentID int64) ([]models.TournamentStanding, error)
}

type UpdateStandingInput struct {
	BuchholzScore   *float64 `json:"buchholz_score,omitempty"`
	SonnebornBerger *float64 `json:"sonneborn_berger,omitempty"`
	FinalRank       *int     `json:"final_rank,omitempty"`
	PrizeAmount     *float64 `json:"prize_amount,omitempty"`
}

// standingsTally rebuilds the score columns of a tournament's standings from its
// games. Callers hold the tournament row lock.
type standingsTally struct {
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	standingRepo    repositories.StandingRepository
	now             Clock
}

type score struct {
	points              float64
	games               int
	wins, draws, losses int
}

// tallyScores counts decided games per player. Every id in playerIDs gets an
// entry even without games; players seen only in games are added too.
func tallyScores(playerIDs []int64, matches []models.Match) map[int64]*score {
	scores := make(map[int64]*score, len(playerIDs))
	for _, id := range playerIDs {
		scores[id] = &score{}
	}
	add := func(playerID int64, m *models.Match) {
		sc, ok := scores[playerID]
		if !ok {
			sc = &score{}
			scores[playerID] = sc
		}
		p := m.PointsFor(playerID)
		sc.points += p
		sc.games++
		switch p {
		case 1:
			sc.wins++
		case 0.5:
			sc.draws++
		default:
			sc.losses++
		}
	}
	for i := range matches {
		m := &matches[i]
		if !m.Decided() {
			continue
		}
		add(m.WhitePlayerID, m)
		add(m.BlackPlayerID, m)
	}
	return scores
}

func (t *standingsTally) recompute(ctx context.Context, exec repositories.SQLExecutor, tournamentID int64) error {
	participants, err := t.participantRepo.ListByTournament(ctx, exec, tournamentID, false)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}
	matches, err := t.matchRepo.List(ctx, exec, repositories.ListMatchesFilter{TournamentID: &tournamentID})
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}
	existing, err := t.standingRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list standings: %w", err)
	}

	ids := make([]int64, 0, len(participants)+len(existing))
	for _, p := range participants {
		ids = append(ids, p.PlayerID)
	}
	current := make(map[int64]models.TournamentStanding, len(existing))
	for _, st := range existing {
		current[st.PlayerID] = st
		ids = append(ids, st.PlayerID)
	}

	scores := tallyScores(ids, matches)
	playerIDs := make([]int64, 0, len(scores))
	for id := range scores {
		playerIDs = append(playerIDs, id)
	}
	sort.Slice(playerIDs, func(i, j int) bool { return playerIDs[i] < playerIDs[j] })

	now := t.now()
	for _, playerID := range playerIDs {
		sc := scores[playerID]
		st, ok := current[playerID]
		if ok && st.Points == sc.points && st.GamesPlayed == sc.games &&
			st.Wins == sc.wins && st.Draws == sc.draws && st.Losses == sc.losses {
			continue
		}
		if !ok {
			st = models.TournamentStanding{TournamentID: tournamentID, PlayerID: playerID}
			st.MarkCreated(now)
		} else {
			st.MarkUpdated(now)
		}
		st.Points = sc.points
		st.GamesPlayed = sc.games
		st.Wins = sc.wins
		st.Draws = sc.draws
		st.Losses = sc.losses
		if err := t.standingRepo.Upsert(ctx, exec, &st); err != nil {
			return fmt.Errorf("failed to write standing of player %d: %w", playerID, err)
		}
	}
	return nil
}

type standingService struct {
	standingRepo   repositories.StandingRepository
	tournamentRepo repositories.TournamentRepository
	tally          *standingsTally
	tx             repositories.Transactor
	now            Clock
}

func NewStandingService(
	standingRepo repositories.StandingRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	clock Clock,
) StandingService {
	clock = clock.orSystem()
	return &standingService{
		standingRepo:   standingRepo,
		tournamentRepo: tournamentRepo,
		tally: &standingsTally{
			participantRepo: participantRepo,
			matchRepo:       matchRepo,
			standingRepo:    standingRepo,
			now:             clock,
		},
		tx:  tx,
		now: clock,
	}
}

func (s *standingService) ListStandings(ctx context.Context, tournamentID int64) ([]models.TournamentStanding, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.standingRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *standingService) GetStanding(ctx context.Context, tournamentID, playerID int64) (*models.TournamentStanding, error) {
	return s.standingRepo.Get(ctx, nil, tournamentID, playerID, repositories.NoLock)
}

func (s *standingService) UpdateStanding(ctx context.Context, tournamentID, playerID int64, input UpdateStandingInput) (*models.TournamentStanding, error) {
	var st *models.TournamentStanding
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		st, err = s.standingRepo.Get(ctx, exec, tournamentID, playerID, repositories.ForUpdate)
		if err != nil {
			return err
		}
		if input.BuchholzScore != nil {
			st.BuchholzScore = *input.BuchholzScore
		}
		if input.SonnebornBerger != nil {
			st.SonnebornBerger = *input.SonnebornBerger
		}
		if input.FinalRank != nil {
			st.FinalRank = input.FinalRank
		}
		if input.PrizeAmount != nil {
			st.PrizeAmount = *input.PrizeAmount
		}

		if err := checkHalfPoints("buchholz_score", st.BuchholzScore, 5); err != nil {
			return err
		}
		if err := checkHalfPoints("sonneborn_berger", st.SonnebornBerger, 5); err != nil {
			return err
		}
		if st.FinalRank != nil {
			if err := checkPositive("final_rank", *st.FinalRank); err != nil {
				return err
			}
		}
		if err := checkMoney("prize_amount", st.PrizeAmount, 10); err != nil {
			return err
		}
		st.MarkUpdated(s.now())
		return s.standingRepo.Update(ctx, exec, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *standingService) RecalculateStandings(ctx context.Context, tournamentID int64) ([]models.TournamentStanding, error) {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID, repositories.ForUpdate); err != nil {
			return err
		}
		return s.tally.recompute(ctx, exec, tournamentID)
	})
	if err != nil {
		return nil, err
	}
	return s.standingRepo.ListByTournament(ctx, nil, tournamentID)
}
