package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// LockMode selects whether a read takes a row lock (SELECT ... FOR UPDATE).
// Locking reads are only meaningful inside a transaction.
type LockMode bool

const (
	NoLock    LockMode = false
	ForUpdate LockMode = true
)

func (l LockMode) suffix() string {
	if l {
		return " FOR UPDATE"
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// baseRepository carries the shared *sql.DB fallback used when no executor is passed.
type baseRepository struct {
	db *sql.DB
}

func (r baseRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// explicitID returns nil for a zero id so that COALESCE($n, nextval(...)) picks
// the next identity value.
func explicitID(id int64) interface{} {
	if id > 0 {
		return id
	}
	return nil
}

func nextIdentity(table, column string) string {
	return fmt.Sprintf("COALESCE($1, nextval(pg_get_serial_sequence('%s', '%s')))", table, column)
}

// identityCatchUp bounds how far syncIdentity walks the sequence with nextval.
// Larger gaps jump with setval.
const identityCatchUp = 10000

// syncIdentity moves the identity sequence past an explicitly supplied id so that
// generated ids never collide with it. The sequence only moves forward: nextval
// is taken first and nothing is written when it is already past id; small gaps
// are consumed with nextval so a concurrent allocation can never be handed out twice.
func syncIdentity(ctx context.Context, exec SQLExecutor, table, column string, id int64) error {
	query := fmt.Sprintf(`
		WITH cur AS (SELECT nextval(pg_get_serial_sequence('%[1]s', '%[2]s')) AS n)
		SELECT CASE
			WHEN n >= $1::bigint THEN n
			WHEN $1::bigint - n <= $2::bigint THEN (
				SELECT MAX(nextval(pg_get_serial_sequence('%[1]s', '%[2]s')))
				FROM generate_series(1, $1::bigint - n))
			ELSE setval(pg_get_serial_sequence('%[1]s', '%[2]s'), $1::bigint)
		END
		FROM cur`, table, column)
	var last int64
	if err := exec.QueryRowContext(ctx, query, id, identityCatchUp).Scan(&last); err != nil {
		return fmt.Errorf("failed to sync %s identity: %w", table, err)
	}
	return nil
}

// Transactor runs fn inside one database transaction; fn's error rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type postgresTransactor struct {
	db   *sql.DB
	opts *sql.TxOptions
}

func NewPostgresTransactor(db *sql.DB) Transactor {
	return &postgresTransactor{db: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

func (t *postgresTransactor) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) (err error) {
	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// translateError maps PostgreSQL constraint failures onto the domain violation
// taxonomy. Errors that are not constraint failures are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		if pqErr.Constraint == models.RuleMembershipExclusivity {
			return models.ErrActiveMembershipExists
		}
		return models.NewConstraintError(pqErr.Constraint, uniqueField(pqErr.Constraint), "value already exists")
	case "23503": // foreign_key_violation
		return models.NewReferenceError(pqErr.Constraint, foreignKeyField(pqErr.Table, pqErr.Constraint),
			"referenced row does not exist")
	case "23514": // check_violation
		switch pqErr.Constraint {
		case models.RuleTournamentDates:
			return models.ErrTournamentDates
		case models.RuleMatchPlayers:
			return models.ErrSamePlayer
		case models.RuleMatchTimes:
			return models.ErrMatchTimes
		}
		return models.NewConstraintError(pqErr.Constraint, "", "check constraint failed")
	case "23502": // not_null_violation
		return models.NewConstraintError(models.RuleNotNull, pqErr.Column, "value is required")
	case "22001": // string_data_right_truncation
		return models.NewConstraintError(models.RuleMaxLength, pqErr.Column, "value too long")
	case "22P02": // invalid_text_representation
		return models.NewConstraintError(models.RuleSyntax, pqErr.Column, "value has invalid format")
	case "22003": // numeric_value_out_of_range
		return models.NewConstraintError(models.RuleRange, pqErr.Column, "numeric value out of range")
	}
	return err
}

var uniqueFields = map[string]string{
	"tournaments_tournament_code_key": "tournament_code",
	"unique_player_date":              "ranking_date",
	"users_email_key":                 "email",
	"tournament_participants_pkey":    "player_id",
	"tournament_sponsors_pkey":        "sponsor_id",
	"tournament_standings_pkey":       "player_id",
}

func uniqueField(constraint string) string {
	if f, ok := uniqueFields[constraint]; ok {
		return f
	}
	if strings.HasSuffix(constraint, "_pkey") {
		return "id"
	}
	return ""
}

// foreignKeyField derives the column from the <table>_<column>_fkey naming convention.
func foreignKeyField(table, constraint string) string {
	field := strings.TrimSuffix(constraint, "_fkey")
	if table != "" {
		field = strings.TrimPrefix(field, table+"_")
	}
	return field
}

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, models.ErrNotFound)
}
