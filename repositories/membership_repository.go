package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrMembershipNotFound = notFound("membership")

type MembershipRepository interface {
	Create(ctx context.Context, exec SQLExecutor, membership *models.Membership) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Membership, error)
	// FindActiveByPlayer returns ErrMembershipNotFound when the player has no Active membership.
	FindActiveByPlayer(ctx context.Context, exec SQLExecutor, playerID int64) (*models.Membership, error)
	ListByPlayer(ctx context.Context, exec SQLExecutor, playerID int64) ([]models.Membership, error)
	ListByClub(ctx context.Context, exec SQLExecutor, clubID int64, activeOnly bool) ([]models.Membership, error)
	Update(ctx context.Context, exec SQLExecutor, membership *models.Membership) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	CountActive(ctx context.Context, exec SQLExecutor) (int, error)
}

type postgresMembershipRepository struct {
	baseRepository
}

func NewPostgresMembershipRepository(db *sql.DB) MembershipRepository {
	return &postgresMembershipRepository{baseRepository{db: db}}
}

const membershipColumns = `membership_id, player_id, club_id, join_date, membership_type, status, created_at, updated_at`

func scanMembership(row rowScanner, m *models.Membership) error {
	return row.Scan(&m.ID, &m.PlayerID, &m.ClubID, &m.JoinDate, &m.Type, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

func (r *postgresMembershipRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Membership) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO memberships (membership_id, player_id, club_id, join_date, membership_type, status, created_at, updated_at)
		VALUES (` + nextIdentity("memberships", "membership_id") + `, $2, $3, $4, $5, $6, $7, $8)
		RETURNING membership_id`

	explicit := m.ID > 0
	err := executor.QueryRowContext(ctx, query,
		explicitID(m.ID), m.PlayerID, m.ClubID, m.JoinDate, m.Type, m.Status, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return translateError(err)
	}
	if explicit {
		return syncIdentity(ctx, executor, "memberships", "membership_id", m.ID)
	}
	return nil
}

func (r *postgresMembershipRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64, lock LockMode) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE membership_id = $1` + lock.suffix()
	m := &models.Membership{}
	if err := scanMembership(r.getExecutor(exec).QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMembershipRepository) FindActiveByPlayer(ctx context.Context, exec SQLExecutor, playerID int64) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE player_id = $1 AND status = $2`
	m := &models.Membership{}
	err := scanMembership(r.getExecutor(exec).QueryRowContext(ctx, query, playerID, models.MembershipActive), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMembershipRepository) ListByPlayer(ctx context.Context, exec SQLExecutor, playerID int64) ([]models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE player_id = $1 ORDER BY join_date DESC, membership_id DESC`
	return r.list(ctx, exec, query, playerID)
}

func (r *postgresMembershipRepository) ListByClub(ctx context.Context, exec SQLExecutor, clubID int64, activeOnly bool) ([]models.Membership, error) {
	if activeOnly {
		query := `SELECT ` + membershipColumns + ` FROM memberships WHERE club_id = $1 AND status = $2 ORDER BY join_date, membership_id`
		return r.list(ctx, exec, query, clubID, models.MembershipActive)
	}
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE club_id = $1 ORDER BY join_date, membership_id`
	return r.list(ctx, exec, query, clubID)
}

func (r *postgresMembershipRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Membership, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := scanMembership(rows, &m); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *postgresMembershipRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Membership) error {
	query := `
		UPDATE memberships
		SET club_id = $1, join_date = $2, membership_type = $3, status = $4, updated_at = $5
		WHERE membership_id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.ClubID, m.JoinDate, m.Type, m.Status, m.UpdatedAt, m.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM memberships WHERE membership_id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrMembershipNotFound)
}

func (r *postgresMembershipRepository) CountActive(ctx context.Context, exec SQLExecutor) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE status = $1`, models.MembershipActive).Scan(&n)
	return n, err
}
