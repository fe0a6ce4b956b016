package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrTournamentSponsorNotFound = notFound("tournament sponsor")

type TournamentSponsorRepository interface {
	Create(ctx context.Context, exec SQLExecutor, ts *models.TournamentSponsor) error
	Get(ctx context.Context, exec SQLExecutor, tournamentID, sponsorID int64, lock LockMode) (*models.TournamentSponsor, error)
	// ListByTournament returns sponsorships with the Sponsor populated, largest amount first.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]models.TournamentSponsor, error)
	Update(ctx context.Context, exec SQLExecutor, ts *models.TournamentSponsor) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, sponsorID int64) error
}

type postgresTournamentSponsorRepository struct {
	baseRepository
}

func NewPostgresTournamentSponsorRepository(db *sql.DB) TournamentSponsorRepository {
	return &postgresTournamentSponsorRepository{baseRepository{db: db}}
}

func (r *postgresTournamentSponsorRepository) Create(ctx context.Context, exec SQLExecutor, ts *models.TournamentSponsor) error {
	query := `
		INSERT INTO tournament_sponsors (tournament_id, sponsor_id, sponsorship_amount, sponsorship_type,
		                                 contract_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		ts.TournamentID, ts.SponsorID, ts.Amount, ts.Type, ts.ContractDate, ts.CreatedAt, ts.UpdatedAt)
	return translateError(err)
}

func (r *postgresTournamentSponsorRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, sponsorID int64, lock LockMode) (*models.TournamentSponsor, error) {
	query := `
		SELECT tournament_id, sponsor_id, sponsorship_amount, sponsorship_type, contract_date, created_at, updated_at
		FROM tournament_sponsors
		WHERE tournament_id = $1 AND sponsor_id = $2` + lock.suffix()

	ts := &models.TournamentSponsor{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, sponsorID).Scan(
		&ts.TournamentID, &ts.SponsorID, &ts.Amount, &ts.Type, &ts.ContractDate, &ts.CreatedAt, &ts.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentSponsorNotFound
		}
		return nil, err
	}
	return ts, nil
}

func (r *postgresTournamentSponsorRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]models.TournamentSponsor, error) {
	query := `
		SELECT ts.tournament_id, ts.sponsor_id, ts.sponsorship_amount, ts.sponsorship_type, ts.contract_date,
		       ts.created_at, ts.updated_at,
		       s.sponsor_id, s.sponsor_name, s.sponsor_type, s.contact_person, s.phone, s.email, s.address,
		       s.website, s.created_at, s.updated_at
		FROM tournament_sponsors ts
		JOIN sponsors s ON s.sponsor_id = ts.sponsor_id
		WHERE ts.tournament_id = $1
		ORDER BY ts.sponsorship_amount DESC, ts.sponsor_id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.TournamentSponsor, 0)
	for rows.Next() {
		var ts models.TournamentSponsor
		s := &models.Sponsor{}
		if err := rows.Scan(
			&ts.TournamentID, &ts.SponsorID, &ts.Amount, &ts.Type, &ts.ContractDate, &ts.CreatedAt, &ts.UpdatedAt,
			&s.ID, &s.Name, &s.Type, &s.ContactPerson, &s.Phone, &s.Email, &s.Address, &s.Website,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ts.Sponsor = s
		result = append(result, ts)
	}
	return result, rows.Err()
}

func (r *postgresTournamentSponsorRepository) Update(ctx context.Context, exec SQLExecutor, ts *models.TournamentSponsor) error {
	query := `
		UPDATE tournament_sponsors
		SET sponsorship_amount = $1, sponsorship_type = $2, contract_date = $3, updated_at = $4
		WHERE tournament_id = $5 AND sponsor_id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		ts.Amount, ts.Type, ts.ContractDate, ts.UpdatedAt, ts.TournamentID, ts.SponsorID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrTournamentSponsorNotFound)
}

func (r *postgresTournamentSponsorRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, sponsorID int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM tournament_sponsors WHERE tournament_id = $1 AND sponsor_id = $2`, tournamentID, sponsorID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrTournamentSponsorNotFound)
}
