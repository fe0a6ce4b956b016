package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrMatchNotFound = notFound("match")

type ListMatchesFilter struct {
	TournamentID *int64
	// PlayerID matches games where the player had either colour.
	PlayerID *int64
	Round    *int
	Status   *models.MatchStatus
	Year     *int
	Limit    int
	Offset   int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Match, error)
	// List orders by round and board; player listings are most recent first.
	List(ctx context.Context, exec SQLExecutor, filter ListMatchesFilter) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	Count(ctx context.Context, exec SQLExecutor, tournamentID *int64, status *models.MatchStatus) (int, error)
	MaxRound(ctx context.Context, exec SQLExecutor, tournamentID int64) (int, error)
}

type postgresMatchRepository struct {
	baseRepository
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{baseRepository{db: db}}
}

const matchColumns = `m.match_id, m.tournament_id, m.round_number, m.board_number, m.white_player_id, m.black_player_id,
	m.scheduled_time, m.actual_start_time, m.actual_end_time, m.result, m.moves_pgn, m.time_control_used,
	m.arbiter, m.status, m.notes, m.created_at, m.updated_at`

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(&m.ID, &m.TournamentID, &m.RoundNumber, &m.BoardNumber, &m.WhitePlayerID, &m.BlackPlayerID,
		&m.ScheduledTime, &m.ActualStartTime, &m.ActualEndTime, &m.Result, &m.MovesPGN, &m.TimeControlUsed,
		&m.Arbiter, &m.Status, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			match_id, tournament_id, round_number, board_number, white_player_id, black_player_id,
			scheduled_time, actual_start_time, actual_end_time, result, moves_pgn, time_control_used,
			arbiter, status, notes, created_at, updated_at
		) VALUES (` + nextIdentity("matches", "match_id") + `, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING match_id`

	explicit := m.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(m.ID), m.TournamentID, m.RoundNumber, m.BoardNumber, m.WhitePlayerID, m.BlackPlayerID,
		m.ScheduledTime, m.ActualStartTime, m.ActualEndTime, m.Result, m.MovesPGN, m.TimeControlUsed,
		m.Arbiter, m.Status, m.Notes, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "matches", "match_id", m.ID)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m WHERE m.match_id = $1` + lock.suffix()
	m := &models.Match{}
	if err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor, filter ListMatchesFilter) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches m`
	if filter.Year != nil {
		query += ` JOIN tournaments t ON t.tournament_id = m.tournament_id`
	}
	query += ` WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND m.tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}
	if filter.PlayerID != nil {
		query += fmt.Sprintf(" AND (m.white_player_id = $%d OR m.black_player_id = $%d)", argID, argID)
		args = append(args, *filter.PlayerID)
		argID++
	}
	if filter.Round != nil {
		query += fmt.Sprintf(" AND m.round_number = $%d", argID)
		args = append(args, *filter.Round)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND m.status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Year != nil {
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM t.start_date) = $%d", argID)
		args = append(args, *filter.Year)
		argID++
	}

	if filter.PlayerID != nil && filter.TournamentID == nil {
		query += " ORDER BY m.scheduled_time DESC NULLS LAST, m.match_id DESC"
	} else {
		query += " ORDER BY m.round_number, m.board_number NULLS LAST, m.match_id"
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		UPDATE matches
		SET round_number = $1, board_number = $2, white_player_id = $3, black_player_id = $4,
		    scheduled_time = $5, actual_start_time = $6, actual_end_time = $7, result = $8, moves_pgn = $9,
		    time_control_used = $10, arbiter = $11, status = $12, notes = $13, updated_at = $14
		WHERE match_id = $15`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.RoundNumber, m.BoardNumber, m.WhitePlayerID, m.BlackPlayerID,
		m.ScheduledTime, m.ActualStartTime, m.ActualEndTime, m.Result, m.MovesPGN,
		m.TimeControlUsed, m.Arbiter, m.Status, m.Notes, m.UpdatedAt, m.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE match_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Count(ctx context.Context, exec SQLExecutor, tournamentID *int64, status *models.MatchStatus) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE 1=1`
	args := []interface{}{}
	if tournamentID != nil {
		args = append(args, *tournamentID)
		query += fmt.Sprintf(" AND tournament_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *postgresMatchRepository) MaxRound(ctx context.Context, exec SQLExecutor, tournamentID int64) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round_number), 0) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&n)
	return n, err
}
