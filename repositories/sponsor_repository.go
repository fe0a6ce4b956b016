package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrSponsorNotFound = notFound("sponsor")

type SponsorRepository interface {
	Create(ctx context.Context, exec SQLExecutor, sponsor *models.Sponsor) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Sponsor, error)
	List(ctx context.Context, exec SQLExecutor, sponsorType *models.SponsorType, limit, offset int) ([]models.Sponsor, error)
	Update(ctx context.Context, exec SQLExecutor, sponsor *models.Sponsor) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
}

type postgresSponsorRepository struct {
	baseRepository
}

func NewPostgresSponsorRepository(db *sql.DB) SponsorRepository {
	return &postgresSponsorRepository{baseRepository{db: db}}
}

const sponsorColumns = `sponsor_id, sponsor_name, sponsor_type, contact_person, phone, email, address, website,
	created_at, updated_at`

func scanSponsor(row rowScanner, s *models.Sponsor) error {
	return row.Scan(&s.ID, &s.Name, &s.Type, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.Website,
		&s.CreatedAt, &s.UpdatedAt)
}

func (r *postgresSponsorRepository) Create(ctx context.Context, exec SQLExecutor, s *models.Sponsor) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO sponsors (sponsor_id, sponsor_name, sponsor_type, contact_person, phone, email, address,
		                      website, created_at, updated_at)
		VALUES (` + nextIdentity("sponsors", "sponsor_id") + `, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING sponsor_id`

	explicit := s.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(s.ID), s.Name, s.Type, s.ContactPerson, s.Phone, s.Email, s.Address, s.Website,
		s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "sponsors", "sponsor_id", s.ID)
	}
	return nil
}

func (r *postgresSponsorRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors WHERE sponsor_id = $1` + lock.suffix()
	s := &models.Sponsor{}
	if err := scanSponsor(r.getExecutor(exec).QueryRowContext(ctx, query, id), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSponsorNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSponsorRepository) List(ctx context.Context, exec SQLExecutor, sponsorType *models.SponsorType, limit, offset int) ([]models.Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if sponsorType != nil {
		query += fmt.Sprintf(" AND sponsor_type = $%d", argID)
		args = append(args, *sponsorType)
		argID++
	}
	query += " ORDER BY sponsor_name, sponsor_id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sponsors := make([]models.Sponsor, 0)
	for rows.Next() {
		var s models.Sponsor
		if err := scanSponsor(rows, &s); err != nil {
			return nil, err
		}
		sponsors = append(sponsors, s)
	}
	return sponsors, rows.Err()
}

func (r *postgresSponsorRepository) Update(ctx context.Context, exec SQLExecutor, s *models.Sponsor) error {
	query := `
		UPDATE sponsors
		SET sponsor_name = $1, sponsor_type = $2, contact_person = $3, phone = $4, email = $5,
		    address = $6, website = $7, updated_at = $8
		WHERE sponsor_id = $9`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		s.Name, s.Type, s.ContactPerson, s.Phone, s.Email, s.Address, s.Website, s.UpdatedAt, s.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrSponsorNotFound)
}

func (r *postgresSponsorRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM sponsors WHERE sponsor_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrSponsorNotFound)
}
