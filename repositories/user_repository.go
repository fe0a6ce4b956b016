package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-tournament/models"
)

var (
	ErrUserNotFound = notFound("user")
	// ErrUserEmailConflict matches the translated users_email_key violation.
	ErrUserEmailConflict = &models.ViolationError{
		Kind: models.KindConstraint, Rule: "users_email_key", Field: "email", Message: "email already registered",
	}
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error)
	List(ctx context.Context, exec SQLExecutor) ([]models.User, error)
	Update(ctx context.Context, exec SQLExecutor, user *models.User) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
	CountByRole(ctx context.Context, exec SQLExecutor, role models.UserRole) (int, error)
}

type postgresUserRepository struct {
	baseRepository
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{baseRepository{db: db}}
}

const userColumns = `user_id, email, display_name, role, password_hash, created_at, updated_at`

func scanUser(row rowScanner, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, u *models.User) error {
	query := `
		INSERT INTO users (email, display_name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		u.Email, u.DisplayName, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	return translateError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.User, error) {
	return r.getOne(ctx, exec, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error) {
	return r.getOne(ctx, exec, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *postgresUserRepository) getOne(ctx context.Context, exec SQLExecutor, query string, arg interface{}) (*models.User, error) {
	u := &models.User{}
	if err := scanUser(r.getExecutor(exec).QueryRowContext(ctx, query, arg), u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) List(ctx context.Context, exec SQLExecutor) ([]models.User, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) Update(ctx context.Context, exec SQLExecutor, u *models.User) error {
	query := `
		UPDATE users
		SET email = $1, display_name = $2, role = $3, password_hash = $4, updated_at = $5
		WHERE user_id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		u.Email, u.DisplayName, u.Role, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) CountByRole(ctx context.Context, exec SQLExecutor, role models.UserRole) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}
