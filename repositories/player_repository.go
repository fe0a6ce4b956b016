package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrPlayerNotFound = notFound("player")

type ListPlayersFilter struct {
	Name        string
	Nationality string
	Title       string
	MinRating   *int
	MaxRating   *int
	// ByRating orders by rating descending instead of by name.
	ByRating bool
	Limit    int
	Offset   int
}

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Player, error)
	List(ctx context.Context, exec SQLExecutor, filter ListPlayersFilter) ([]models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresPlayerRepository struct {
	baseRepository
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{baseRepository{db: db}}
}

const playerColumns = `player_id, player_name, address, phone, email, birth_date, nationality, gender,
	rating, title, created_at, updated_at`

func scanPlayer(row rowScanner, p *models.Player) error {
	return row.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.Email, &p.BirthDate, &p.Nationality, &p.Gender,
		&p.Rating, &p.Title, &p.CreatedAt, &p.UpdatedAt)
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO players (player_id, player_name, address, phone, email, birth_date, nationality, gender,
		                     rating, title, created_at, updated_at)
		VALUES (` + nextIdentity("players", "player_id") + `, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING player_id`

	explicit := p.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(p.ID), p.Name, p.Address, p.Phone, p.Email, p.BirthDate, p.Nationality, p.Gender,
		p.Rating, p.Title, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "players", "player_id", p.ID)
	}
	return nil
}

// GetByID with ForUpdate serializes writers on the player row; membership
// activation and rating propagation both rely on it.
func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1` + lock.suffix()

	p := &models.Player{}
	if err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, exec SQLExecutor, filter ListPlayersFilter) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Name != "" {
		query += fmt.Sprintf(" AND player_name ILIKE $%d", argID)
		args = append(args, "%"+filter.Name+"%")
		argID++
	}
	if filter.Nationality != "" {
		query += fmt.Sprintf(" AND nationality = $%d", argID)
		args = append(args, filter.Nationality)
		argID++
	}
	if filter.Title != "" {
		query += fmt.Sprintf(" AND title = $%d", argID)
		args = append(args, filter.Title)
		argID++
	}
	if filter.MinRating != nil {
		query += fmt.Sprintf(" AND rating >= $%d", argID)
		args = append(args, *filter.MinRating)
		argID++
	}
	if filter.MaxRating != nil {
		query += fmt.Sprintf(" AND rating <= $%d", argID)
		args = append(args, *filter.MaxRating)
		argID++
	}

	if filter.ByRating {
		query += " ORDER BY rating DESC, player_id"
	} else {
		query += " ORDER BY player_name, player_id"
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

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, p *models.Player) error {
	query := `
		UPDATE players
		SET player_name = $1, address = $2, phone = $3, email = $4, birth_date = $5, nationality = $6,
		    gender = $7, rating = $8, title = $9, updated_at = $10
		WHERE player_id = $11`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		p.Name, p.Address, p.Phone, p.Email, p.BirthDate, p.Nationality, p.Gender, p.Rating, p.Title,
		p.UpdatedAt, p.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players WHERE player_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}
