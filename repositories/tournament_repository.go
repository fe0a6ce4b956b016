package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrTournamentNotFound = notFound("tournament")

type ListTournamentsFilter struct {
	Status        *models.TournamentStatus
	Type          *models.TournamentType
	HostingClubID *int64
	Year          *int
	// StartsFrom keeps only tournaments starting on or after the date.
	StartsFrom *time.Time
	Limit      int
	Offset     int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Tournament, error)
	GetByCode(ctx context.Context, exec SQLExecutor, code string) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	// DetachHostingClub clears hosting_club_id on the club's tournaments and stamps
	// updated_at, returning the number of rows changed.
	DetachHostingClub(ctx context.Context, exec SQLExecutor, clubID int64, at time.Time) (int64, error)
	Count(ctx context.Context, exec SQLExecutor, status *models.TournamentStatus) (int, error)
	GetTournamentsForAutoStatusUpdate(ctx context.Context, exec SQLExecutor, today time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	baseRepository
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{baseRepository{db: db}}
}

const tournamentColumns = `tournament_id, tournament_code, tournament_name, hosting_club_id, start_date, end_date,
	location, entry_fee, prize_pool, max_participants, tournament_type, time_control, status, description,
	created_at, updated_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(&t.ID, &t.Code, &t.Name, &t.HostingClubID, &t.StartDate, &t.EndDate,
		&t.Location, &t.EntryFee, &t.PrizePool, &t.MaxParticipants, &t.Type, &t.TimeControl, &t.Status,
		&t.Description, &t.CreatedAt, &t.UpdatedAt)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			tournament_id, tournament_code, tournament_name, hosting_club_id, start_date, end_date,
			location, entry_fee, prize_pool, max_participants, tournament_type, time_control, status,
			description, created_at, updated_at
		) VALUES (` + nextIdentity("tournaments", "tournament_id") + `, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING tournament_id`

	explicit := t.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(t.ID), t.Code, t.Name, t.HostingClubID, t.StartDate, t.EndDate,
		t.Location, t.EntryFee, t.PrizePool, t.MaxParticipants, t.Type, t.TimeControl, t.Status,
		t.Description, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "tournaments", "tournament_id", t.ID)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE tournament_id = $1` + lock.suffix()
	return r.getOne(ctx, exec, query, id)
}

func (r *postgresTournamentRepository) GetByCode(ctx context.Context, exec SQLExecutor, code string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE tournament_code = $1`
	return r.getOne(ctx, exec, query, code)
}

func (r *postgresTournamentRepository) getOne(ctx context.Context, exec SQLExecutor, query string, arg interface{}) (*models.Tournament, error) {
	t := &models.Tournament{}
	if err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, arg), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Type != nil {
		query += fmt.Sprintf(" AND tournament_type = $%d", argID)
		args = append(args, *filter.Type)
		argID++
	}
	if filter.HostingClubID != nil {
		query += fmt.Sprintf(" AND hosting_club_id = $%d", argID)
		args = append(args, *filter.HostingClubID)
		argID++
	}
	if filter.Year != nil {
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM start_date) = $%d", argID)
		args = append(args, *filter.Year)
		argID++
	}
	if filter.StartsFrom != nil {
		query += fmt.Sprintf(" AND start_date >= $%d", argID)
		args = append(args, *filter.StartsFrom)
		argID++
	}

	query += " ORDER BY start_date DESC, tournament_id DESC"
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

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET tournament_code = $1, tournament_name = $2, hosting_club_id = $3, start_date = $4, end_date = $5,
		    location = $6, entry_fee = $7, prize_pool = $8, max_participants = $9, tournament_type = $10,
		    time_control = $11, status = $12, description = $13, updated_at = $14
		WHERE tournament_id = $15`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		t.Code, t.Name, t.HostingClubID, t.StartDate, t.EndDate,
		t.Location, t.EntryFee, t.PrizePool, t.MaxParticipants, t.Type,
		t.TimeControl, t.Status, t.Description, t.UpdatedAt, t.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournaments WHERE tournament_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) DetachHostingClub(ctx context.Context, exec SQLExecutor, clubID int64, at time.Time) (int64, error) {
	query := `
		UPDATE tournaments
		SET hosting_club_id = NULL, updated_at = GREATEST($2, updated_at + INTERVAL '1 microsecond')
		WHERE hosting_club_id = $1`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, clubID, at)
	if err != nil {
		return 0, translateError(err)
	}
	return result.RowsAffected()
}

func (r *postgresTournamentRepository) Count(ctx context.Context, exec SQLExecutor, status *models.TournamentStatus) (int, error) {
	var n int
	var err error
	if status != nil {
		err = r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments WHERE status = $1`, *status).Scan(&n)
	} else {
		err = r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM tournaments`).Scan(&n)
	}
	return n, err
}

// GetTournamentsForAutoStatusUpdate returns tournaments whose status lags behind
// the calendar: open for registration but already started, or running but past
// their end date.
func (r *postgresTournamentRepository) GetTournamentsForAutoStatusUpdate(ctx context.Context, exec SQLExecutor, today time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE (status = $1 AND start_date <= $3)
		   OR (status = $2 AND end_date < $3)
		ORDER BY tournament_id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query,
		models.StatusRegistrationOpen, models.StatusInProgress, today)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto status update: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t := &models.Tournament{}
		if err := scanTournament(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto status update: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
