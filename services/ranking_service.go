package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

type RankingService interface {
	// RecordRanking inserts a history entry and refreshes the player's cached
	// rating when the entry is not older than the player's latest one.
	RecordRanking(ctx context.Context, input RecordRankingInput) (*models.PlayerRanking, error)
	GetRanking(ctx context.Context, id int64) (*models.PlayerRanking, error)
	ListPlayerRankings(ctx context.Context, playerID int64) ([]models.PlayerRanking, error)
	// UpdateRanking rewrites a history entry in place. The player's cached rating
	// follows only when the new ranking date is not earlier than the prior one.
	UpdateRanking(ctx context.Context, id int64, input UpdateRankingInput) (*models.PlayerRanking, error)
	// DeleteRanking leaves the cached rating as it is.
	DeleteRanking(ctx context.Context, id int64) error
	// RecordRatingChange sets the player's rating to newRating and logs the
	// delta in today's history entry, creating or extending it.
	RecordRatingChange(ctx context.Context, playerID int64, input RatingChangeInput) (*models.PlayerRanking, error)
}

type RecordRankingInput struct {
	ID           int64       `json:"ranking_id,omitempty"`
	PlayerID     int64       `json:"player_id"`
	Rating       int         `json:"rating"`
	RankingDate  models.Date `json:"ranking_date"`
	TournamentID *int64      `json:"tournament_id,omitempty"`
	RatingChange int         `json:"rating_change"`
	GamesPlayed  int         `json:"games_played"`
}

type UpdateRankingInput struct {
	Rating       *int         `json:"rating,omitempty"`
	RankingDate  *models.Date `json:"ranking_date,omitempty"`
	TournamentID *int64       `json:"tournament_id,omitempty"`
	RatingChange *int         `json:"rating_change,omitempty"`
	GamesPlayed  *int         `json:"games_played,omitempty"`
}

type RatingChangeInput struct {
	NewRating    int    `json:"new_rating"`
	TournamentID *int64 `json:"tournament_id,omitempty"`
	GamesPlayed  int    `json:"games_played"`
}

type rankingService struct {
	rankingRepo    repositories.RankingRepository
	playerRepo     repositories.PlayerRepository
	tournamentRepo repositories.TournamentRepository
	tx             repositories.Transactor
	now            Clock
}

func NewRankingService(
	rankingRepo repositories.RankingRepository,
	playerRepo repositories.PlayerRepository,
	tournamentRepo repositories.TournamentRepository,
	tx repositories.Transactor,
	clock Clock,
) RankingService {
	return &rankingService{
		rankingRepo:    rankingRepo,
		playerRepo:     playerRepo,
		tournamentRepo: tournamentRepo,
		tx:             tx,
		now:            clock.orSystem(),
	}
}

// shouldPropagateRating decides whether a history write moves the player's cached
// rating: only when the written date is on or after the prior date. A nil prior
// means there was nothing to compare against.
func shouldPropagateRating(prior *time.Time, written time.Time) bool {
	if prior == nil {
		return true
	}
	return !dateOnly(written).Before(dateOnly(*prior))
}

func validateRanking(r *models.PlayerRanking) error {
	if err := checkNonNegative("rating", r.Rating); err != nil {
		return err
	}
	if err := checkNonNegative("games_played", r.GamesPlayed); err != nil {
		return err
	}
	if r.RankingDate.IsZero() {
		return models.NewConstraintError(models.RuleNotNull, "ranking_date", "value is required")
	}
	r.RankingDate = dateOnly(r.RankingDate)
	return nil
}

func (s *rankingService) ensureTournament(ctx context.Context, exec repositories.SQLExecutor, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.tournamentRepo.GetByID(ctx, exec, *id, repositories.NoLock)
	return asReference(err, repositories.ErrTournamentNotFound, "player_rankings_tournament_id_fkey", "tournament_id", *id)
}

// propagate writes rating into the player's cached field. The player row must
// already be locked by the caller's transaction.
func (s *rankingService) propagate(ctx context.Context, exec repositories.SQLExecutor, player *models.Player, rating int) error {
	if player.Rating == rating {
		return nil
	}
	player.Rating = rating
	player.MarkUpdated(s.now())
	if err := s.playerRepo.Update(ctx, exec, player); err != nil {
		return fmt.Errorf("failed to propagate rating to player %d: %w", player.ID, err)
	}
	return nil
}

func (s *rankingService) lockPlayer(ctx context.Context, exec repositories.SQLExecutor, playerID int64) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, exec, playerID, repositories.ForUpdate)
	if err != nil {
		return nil, asReference(err, repositories.ErrPlayerNotFound, "player_rankings_player_id_fkey", "player_id", playerID)
	}
	return player, nil
}

func (s *rankingService) RecordRanking(ctx context.Context, input RecordRankingInput) (*models.PlayerRanking, error) {
	ranking := &models.PlayerRanking{
		ID:           input.ID,
		PlayerID:     input.PlayerID,
		Rating:       input.Rating,
		RankingDate:  input.RankingDate.Time,
		TournamentID: input.TournamentID,
		RatingChange: input.RatingChange,
		GamesPlayed:  input.GamesPlayed,
	}
	if err := validateRanking(ranking); err != nil {
		return nil, err
	}
	ranking.MarkCreated(s.now())

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		player, err := s.lockPlayer(ctx, exec, ranking.PlayerID)
		if err != nil {
			return err
		}
		if err := s.ensureTournament(ctx, exec, ranking.TournamentID); err != nil {
			return err
		}
		latest, err := s.rankingRepo.LatestDate(ctx, exec, ranking.PlayerID)
		if err != nil {
			return fmt.Errorf("failed to read latest ranking date: %w", err)
		}
		if err := s.rankingRepo.Create(ctx, exec, ranking); err != nil {
			return err
		}
		if shouldPropagateRating(latest, ranking.RankingDate) {
			return s.propagate(ctx, exec, player, ranking.Rating)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranking, nil
}

func (s *rankingService) GetRanking(ctx context.Context, id int64) (*models.PlayerRanking, error) {
	return s.rankingRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *rankingService) ListPlayerRankings(ctx context.Context, playerID int64) ([]models.PlayerRanking, error) {
	if _, err := s.playerRepo.GetByID(ctx, nil, playerID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.rankingRepo.ListByPlayer(ctx, nil, playerID)
}

func (s *rankingService) UpdateRanking(ctx context.Context, id int64, input UpdateRankingInput) (*models.PlayerRanking, error) {
	var ranking *models.PlayerRanking
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Player row first, history row second: the lock order RecordRanking and
		// RecordRatingChange use as well.
		peek, err := s.rankingRepo.GetByID(ctx, exec, id, repositories.NoLock)
		if err != nil {
			return err
		}
		player, err := s.lockPlayer(ctx, exec, peek.PlayerID)
		if err != nil {
			return err
		}
		ranking, err = s.rankingRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
		if err != nil {
			return err
		}
		prior := ranking.RankingDate

		if input.Rating != nil {
			ranking.Rating = *input.Rating
		}
		if input.RankingDate != nil {
			ranking.RankingDate = input.RankingDate.Time
		}
		if input.TournamentID != nil {
			ranking.TournamentID = input.TournamentID
		}
		if input.RatingChange != nil {
			ranking.RatingChange = *input.RatingChange
		}
		if input.GamesPlayed != nil {
			ranking.GamesPlayed = *input.GamesPlayed
		}
		if err := validateRanking(ranking); err != nil {
			return err
		}
		if err := s.ensureTournament(ctx, exec, input.TournamentID); err != nil {
			return err
		}
		ranking.MarkUpdated(s.now())

		if err := s.rankingRepo.Update(ctx, exec, ranking); err != nil {
			return err
		}
		if !shouldPropagateRating(&prior, ranking.RankingDate) {
			return nil
		}
		return s.propagate(ctx, exec, player, ranking.Rating)
	})
	if err != nil {
		return nil, err
	}
	return ranking, nil
}

func (s *rankingService) DeleteRanking(ctx context.Context, id int64) error {
	return s.rankingRepo.Delete(ctx, nil, id)
}

func (s *rankingService) RecordRatingChange(ctx context.Context, playerID int64, input RatingChangeInput) (*models.PlayerRanking, error) {
	if err := checkNonNegative("new_rating", input.NewRating); err != nil {
		return nil, err
	}
	if err := checkNonNegative("games_played", input.GamesPlayed); err != nil {
		return nil, err
	}

	var ranking *models.PlayerRanking
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		player, err := s.lockPlayer(ctx, exec, playerID)
		if err != nil {
			return err
		}
		if err := s.ensureTournament(ctx, exec, input.TournamentID); err != nil {
			return err
		}
		now := s.now()
		today := dateOnly(now)
		delta := input.NewRating - player.Rating

		ranking, err = s.rankingRepo.GetByPlayerDate(ctx, exec, playerID, today, repositories.ForUpdate)
		switch {
		case errors.Is(err, repositories.ErrRankingNotFound):
			ranking = &models.PlayerRanking{
				PlayerID:     playerID,
				Rating:       input.NewRating,
				RankingDate:  today,
				TournamentID: input.TournamentID,
				RatingChange: delta,
				GamesPlayed:  input.GamesPlayed,
			}
			ranking.MarkCreated(now)
			if err := s.rankingRepo.Create(ctx, exec, ranking); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			ranking.Rating = input.NewRating
			ranking.RatingChange += delta
			ranking.GamesPlayed += input.GamesPlayed
			if input.TournamentID != nil {
				ranking.TournamentID = input.TournamentID
			}
			ranking.MarkUpdated(now)
			if err := s.rankingRepo.Update(ctx, exec, ranking); err != nil {
				return err
			}
		}

		latest, err := s.rankingRepo.LatestDate(ctx, exec, playerID)
		if err != nil {
			return fmt.Errorf("failed to read latest ranking date: %w", err)
		}
		if shouldPropagateRating(latest, today) {
			return s.propagate(ctx, exec, player, input.NewRating)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ranking, nil
}
