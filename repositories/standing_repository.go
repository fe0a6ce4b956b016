package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/chess-tournament/models"
)

var ErrStandingNotFound = notFound("standing")

type StandingRepository interface {
	// Upsert writes the score columns (points, games, W/D/L). Tie-break scores,
	// final rank and prize are left untouched on an existing row.
	Upsert(ctx context.Context, exec SQLExecutor, standing *models.TournamentStanding) error
	Get(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64, lock LockMode) (*models.TournamentStanding, error)
	// ListByTournament orders by points, then Buchholz, both descending, with Player populated.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]models.TournamentStanding, error)
	Update(ctx context.Context, exec SQLExecutor, standing *models.TournamentStanding) error
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64) error
}

type postgresStandingRepository struct {
	baseRepository
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{baseRepository{db: db}}
}

func (r *postgresStandingRepository) Upsert(ctx context.Context, exec SQLExecutor, s *models.TournamentStanding) error {
	query := `
		INSERT INTO tournament_standings (tournament_id, player_id, points, games_played, wins, draws, losses,
		                                  buchholz_score, sonneborn_berger, final_rank, prize_amount,
		                                  created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tournament_id, player_id) DO UPDATE
		SET points = EXCLUDED.points,
		    games_played = EXCLUDED.games_played,
		    wins = EXCLUDED.wins,
		    draws = EXCLUDED.draws,
		    losses = EXCLUDED.losses,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		s.TournamentID, s.PlayerID, s.Points, s.GamesPlayed, s.Wins, s.Draws, s.Losses,
		s.BuchholzScore, s.SonnebornBerger, s.FinalRank, s.PrizeAmount, s.CreatedAt, s.UpdatedAt)
	return translateError(err)
}

func (r *postgresStandingRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64, lock LockMode) (*models.TournamentStanding, error) {
	query := `
		SELECT tournament_id, player_id, points, games_played, wins, draws, losses, buchholz_score,
		       sonneborn_berger, final_rank, prize_amount, created_at, updated_at
		FROM tournament_standings
		WHERE tournament_id = $1 AND player_id = $2` + lock.suffix()

	s := &models.TournamentStanding{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, playerID).Scan(
		&s.TournamentID, &s.PlayerID, &s.Points, &s.GamesPlayed, &s.Wins, &s.Draws, &s.Losses, &s.BuchholzScore,
		&s.SonnebornBerger, &s.FinalRank, &s.PrizeAmount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int64) ([]models.TournamentStanding, error) {
	query := `
		SELECT s.tournament_id, s.player_id, s.points, s.games_played, s.wins, s.draws, s.losses,
		       s.buchholz_score, s.sonneborn_berger, s.final_rank, s.prize_amount, s.created_at, s.updated_at,
		       p.player_id, p.player_name, p.address, p.phone, p.email, p.birth_date, p.nationality, p.gender,
		       p.rating, p.title, p.created_at, p.updated_at
		FROM tournament_standings s
		JOIN players p ON p.player_id = s.player_id
		WHERE s.tournament_id = $1
		ORDER BY s.points DESC, s.buchholz_score DESC, s.player_id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]models.TournamentStanding, 0)
	for rows.Next() {
		var s models.TournamentStanding
		pl := &models.Player{}
		if err := rows.Scan(
			&s.TournamentID, &s.PlayerID, &s.Points, &s.GamesPlayed, &s.Wins, &s.Draws, &s.Losses,
			&s.BuchholzScore, &s.SonnebornBerger, &s.FinalRank, &s.PrizeAmount, &s.CreatedAt, &s.UpdatedAt,
			&pl.ID, &pl.Name, &pl.Address, &pl.Phone, &pl.Email, &pl.BirthDate, &pl.Nationality, &pl.Gender,
			&pl.Rating, &pl.Title, &pl.CreatedAt, &pl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.Player = pl
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresStandingRepository) Update(ctx context.Context, exec SQLExecutor, s *models.TournamentStanding) error {
	query := `
		UPDATE tournament_standings
		SET points = $1, games_played = $2, wins = $3, draws = $4, losses = $5, buchholz_score = $6,
		    sonneborn_berger = $7, final_rank = $8, prize_amount = $9, updated_at = $10
		WHERE tournament_id = $11 AND player_id = $12`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		s.Points, s.GamesPlayed, s.Wins, s.Draws, s.Losses, s.BuchholzScore,
		s.SonnebornBerger, s.FinalRank, s.PrizeAmount, s.UpdatedAt, s.TournamentID, s.PlayerID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, playerID int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM tournament_standings WHERE tournament_id = $1 AND player_id = $2`, tournamentID, playerID)
	if err != nil {
		return translateError(err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}
