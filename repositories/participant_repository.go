package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrParticipantNotFound = notFound("participant")

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.TournamentParticipant) error
	Get(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64, lock LockMode) (*models.TournamentParticipant, error)
	// ListByTournament returns participants with Player populated, ordered by seed (unseeded last).
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64, confirmedOnly bool) ([]models.TournamentParticipant, error)
	Update(ctx context.Context, exec SQLExecutor, participant *models.TournamentParticipant) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64) error
	// CountActive counts Registered and Confirmed participants of a tournament.
	CountActive(ctx context.Context, exec SQLExecutor, tournamentID int64) (int, error)
	// CountTournamentsByPlayer counts distinct tournaments the player is registered in.
	CountTournamentsByPlayer(ctx context.Context, exec SQLExecutor, playerID int64, year *int) (int, error)
}

type postgresParticipantRepository struct {
	baseRepository
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{baseRepository{db: db}}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.TournamentParticipant) error {
	query := `
		INSERT INTO tournament_participants (tournament_id, player_id, registration_date, seed_number,
		                                     initial_rating, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		p.TournamentID, p.PlayerID, p.RegistrationDate, p.SeedNumber, p.InitialRating, p.Status,
		p.CreatedAt, p.UpdatedAt)
	return translateError(err)
}

func (r *postgresParticipantRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64, lock LockMode) (*models.TournamentParticipant, error) {
	query := `
		SELECT tournament_id, player_id, registration_date, seed_number, initial_rating, status, created_at, updated_at
		FROM tournament_participants
		WHERE tournament_id = $1 AND player_id = $2` + lock.suffix()

	p := &models.TournamentParticipant{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, playerID).Scan(
		&p.TournamentID, &p.PlayerID, &p.RegistrationDate, &p.SeedNumber, &p.InitialRating, &p.Status,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64, confirmedOnly bool) ([]models.TournamentParticipant, error) {
	query := `
		SELECT tp.tournament_id, tp.player_id, tp.registration_date, tp.seed_number, tp.initial_rating, tp.status,
		       tp.created_at, tp.updated_at,
		       p.player_id, p.player_name, p.address, p.phone, p.email, p.birth_date, p.nationality, p.gender,
		       p.rating, p.title, p.created_at, p.updated_at
		FROM tournament_participants tp
		JOIN players p ON p.player_id = tp.player_id
		WHERE tp.tournament_id = $1`
	args := []interface{}{tournamentID}
	if confirmedOnly {
		query += ` AND tp.status = $2`
		args = append(args, models.ParticipantConfirmed)
	}
	query += ` ORDER BY tp.seed_number NULLS LAST, p.rating DESC, tp.player_id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.TournamentParticipant, 0)
	for rows.Next() {
		var tp models.TournamentParticipant
		pl := &models.Player{}
		if err := rows.Scan(
			&tp.TournamentID, &tp.PlayerID, &tp.RegistrationDate, &tp.SeedNumber, &tp.InitialRating, &tp.Status,
			&tp.CreatedAt, &tp.UpdatedAt,
			&pl.ID, &pl.Name, &pl.Address, &pl.Phone, &pl.Email, &pl.BirthDate, &pl.Nationality, &pl.Gender,
			&pl.Rating, &pl.Title, &pl.CreatedAt, &pl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tp.Player = pl
		participants = append(participants, tp)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) Update(ctx context.Context, exec SQLExecutor, p *models.TournamentParticipant) error {
	query := `
		UPDATE tournament_participants
		SET seed_number = $1, initial_rating = $2, status = $3, updated_at = $4
		WHERE tournament_id = $5 AND player_id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		p.SeedNumber, p.InitialRating, p.Status, p.UpdatedAt, p.TournamentID, p.PlayerID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM tournament_participants WHERE tournament_id = $1 AND player_id = $2`, tournamentID, playerID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) CountActive(ctx context.Context, exec SQLExecutor, tournamentID int64) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tournament_participants
		WHERE tournament_id = $1 AND status IN ($2, $3)`,
		tournamentID, models.ParticipantRegistered, models.ParticipantConfirmed,
	).Scan(&n)
	return n, err
}

func (r *postgresParticipantRepository) CountTournamentsByPlayer(ctx context.Context, exec SQLExecutor, playerID int64, year *int) (int, error) {
	var n int
	var err error
	if year != nil {
		err = r.getExecutor(exec).QueryRowContext(ctx, `
			SELECT COUNT(DISTINCT tp.tournament_id)
			FROM tournament_participants tp
			JOIN tournaments t ON t.tournament_id = tp.tournament_id
			WHERE tp.player_id = $1 AND EXTRACT(YEAR FROM t.start_date) = $2`, playerID, *year).Scan(&n)
	} else {
		err = r.getExecutor(exec).QueryRowContext(ctx,
			`SELECT COUNT(DISTINCT tournament_id) FROM tournament_participants WHERE player_id = $1`, playerID).Scan(&n)
	}
	return n, err
}
