package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrClubNotFound = notFound("club")

type ListClubsFilter struct {
	Name   string
	Limit  int
	Offset int
}

type ClubRepository interface {
	Create(ctx context.Context, exec SQLExecutor, club *models.Club) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Club, error)
	List(ctx context.Context, exec SQLExecutor, filter ListClubsFilter) ([]models.Club, error)
	Update(ctx context.Context, exec SQLExecutor, club *models.Club) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	Count(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresClubRepository struct {
	baseRepository
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{baseRepository{db: db}}
}

const clubColumns = `club_id, club_name, address, phone, email, established_date, description, created_at, updated_at`

func scanClub(row rowScanner, c *models.Club) error {
	return row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.EstablishedDate, &c.Description,
		&c.CreatedAt, &c.UpdatedAt)
}

func (r *postgresClubRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Club) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO clubs (club_id, club_name, address, phone, email, established_date, description, created_at, updated_at)
		VALUES (` + nextIdentity("clubs", "club_id") + `, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING club_id`

	explicit := c.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(c.ID), c.Name, c.Address, c.Phone, c.Email, c.EstablishedDate, c.Description,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "clubs", "club_id", c.ID)
	}
	return nil
}

func (r *postgresClubRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE club_id = $1` + lock.suffix()

	c := &models.Club{}
	if err := scanClub(r.getExecutor(exec).QueryRowContext(ctx, query, id), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresClubRepository) List(ctx context.Context, exec SQLExecutor, filter ListClubsFilter) ([]models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Name != "" {
		query += fmt.Sprintf(" AND club_name ILIKE $%d", argID)
		args = append(args, "%"+filter.Name+"%")
		argID++
	}
	query += " ORDER BY club_name, club_id"
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

	clubs := make([]models.Club, 0)
	for rows.Next() {
		var c models.Club
		if err := scanClub(rows, &c); err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

func (r *postgresClubRepository) Update(ctx context.Context, exec SQLExecutor, c *models.Club) error {
	query := `
		UPDATE clubs
		SET club_name = $1, address = $2, phone = $3, email = $4, established_date = $5,
		    description = $6, updated_at = $7
		WHERE club_id = $8`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		c.Name, c.Address, c.Phone, c.Email, c.EstablishedDate, c.Description, c.UpdatedAt, c.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrClubNotFound)
}

func (r *postgresClubRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM clubs WHERE club_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrClubNotFound)
}

func (r *postgresClubRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM clubs`).Scan(&n)
	return n, err
}
