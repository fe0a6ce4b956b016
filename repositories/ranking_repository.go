package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrRankingNotFound = notFound("ranking")

type RankingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, ranking *models.PlayerRanking) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.PlayerRanking, error)
	GetByPlayerDate(ctx context.Context, exec SQLExecutor, playerID int64, date time.Time, lock LockMode) (*models.PlayerRanking, error)
	// ListByPlayer returns the rating history, most recent first.
	ListByPlayer(ctx context.Context, exec SQLExecutor, playerID int64) ([]models.PlayerRanking, error)
	// LatestDate returns nil when the player has no history.
	LatestDate(ctx context.Context, exec SQLExecutor, playerID int64) (*time.Time, error)
	Update(ctx context.Context, exec SQLExecutor, ranking *models.PlayerRanking) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	// DetachTournament clears tournament_id on history entries of the tournament
	// and stamps updated_at.
	DetachTournament(ctx context.Context, exec SQLExecutor, tournamentID int64, at time.Time) (int64, error)
}

type postgresRankingRepository struct {
	baseRepository
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{baseRepository{db: db}}
}

const rankingColumns = `ranking_id, player_id, rating, ranking_date, tournament_id, rating_change, games_played,
	created_at, updated_at`

func scanRanking(row rowScanner, pr *models.PlayerRanking) error {
	return row.Scan(&pr.ID, &pr.PlayerID, &pr.Rating, &pr.RankingDate, &pr.TournamentID, &pr.RatingChange,
		&pr.GamesPlayed, &pr.CreatedAt, &pr.UpdatedAt)
}

func (r *postgresRankingRepository) Create(ctx context.Context, exec SQLExecutor, pr *models.PlayerRanking) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_rankings (ranking_id, player_id, rating, ranking_date, tournament_id, rating_change,
		                             games_played, created_at, updated_at)
		VALUES (` + nextIdentity("player_rankings", "ranking_id") + `, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ranking_id`

	explicit := pr.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(pr.ID), pr.PlayerID, pr.Rating, pr.RankingDate, pr.TournamentID, pr.RatingChange,
		pr.GamesPlayed, pr.CreatedAt, pr.UpdatedAt,
	).Scan(&pr.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "player_rankings", "ranking_id", pr.ID)
	}
	return nil
}

func (r *postgresRankingRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.PlayerRanking, error) {
	query := `SELECT ` + rankingColumns + ` FROM player_rankings WHERE ranking_id = $1` + lock.suffix()
	pr := &models.PlayerRanking{}
	if err := scanRanking(r.getExecutor(exec).QueryRowContext(ctx, query, id), pr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return pr, nil
}

func (r *postgresRankingRepository) GetByPlayerDate(ctx context.Context, exec SQLExecutor, playerID int64, date time.Time, lock LockMode) (*models.PlayerRanking, error) {
	query := `SELECT ` + rankingColumns + ` FROM player_rankings WHERE player_id = $1 AND ranking_date = $2` + lock.suffix()
	pr := &models.PlayerRanking{}
	if err := scanRanking(r.getExecutor(exec).QueryRowContext(ctx, query, playerID, date), pr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return pr, nil
}

func (r *postgresRankingRepository) ListByPlayer(ctx context.Context, exec SQLExecutor, playerID int64) ([]models.PlayerRanking, error) {
	query := `SELECT ` + rankingColumns + ` FROM player_rankings WHERE player_id = $1 ORDER BY ranking_date DESC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]models.PlayerRanking, 0)
	for rows.Next() {
		var pr models.PlayerRanking
		if err := scanRanking(rows, &pr); err != nil {
			return nil, err
		}
		history = append(history, pr)
	}
	return history, rows.Err()
}

func (r *postgresRankingRepository) LatestDate(ctx context.Context, exec SQLExecutor, playerID int64) (*time.Time, error) {
	var latest sql.NullTime
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT MAX(ranking_date) FROM player_rankings WHERE player_id = $1`, playerID).Scan(&latest)
	if err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

func (r *postgresRankingRepository) Update(ctx context.Context, exec SQLExecutor, pr *models.PlayerRanking) error {
	query := `
		UPDATE player_rankings
		SET rating = $1, ranking_date = $2, tournament_id = $3, rating_change = $4, games_played = $5,
		    updated_at = $6
		WHERE ranking_id = $7`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		pr.Rating, pr.RankingDate, pr.TournamentID, pr.RatingChange, pr.GamesPlayed, pr.UpdatedAt, pr.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrRankingNotFound)
}

func (r *postgresRankingRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM player_rankings WHERE ranking_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrRankingNotFound)
}

func (r *postgresRankingRepository) DetachTournament(ctx context.Context, exec SQLExecutor, tournamentID int64, at time.Time) (int64, error) {
	query := `
		UPDATE player_rankings
		SET tournament_id = NULL, updated_at = GREATEST($2, updated_at + INTERVAL '1 microsecond')
		WHERE tournament_id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, at)
	if err != nil {
		return 0, translateError(err)
	}
	return result.RowsAffected()
}
