package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
)

type MatchResultsFilter struct {
	TournamentID *int64
	PlayerID     *int64
	Limit        int
}

// ViewRepository reads the derived views. Views are recomputed by PostgreSQL on
// every query.
type ViewRepository interface {
	ActiveMemberships(ctx context.Context, exec SQLExecutor, clubID *int64) ([]models.ActiveMembershipView, error)
	TournamentDetails(ctx context.Context, exec SQLExecutor, status *models.TournamentStatus) ([]models.TournamentDetailsView, error)
	TournamentDetailsByID(ctx context.Context, exec SQLExecutor, tournamentID int64) (*models.TournamentDetailsView, error)
	MatchResults(ctx context.Context, exec SQLExecutor, filter MatchResultsFilter) ([]models.MatchResultView, error)
}

type postgresViewRepository struct {
	baseRepository
}

func NewPostgresViewRepository(db *sql.DB) ViewRepository {
	return &postgresViewRepository{baseRepository{db: db}}
}

func (r *postgresViewRepository) ActiveMemberships(ctx context.Context, exec SQLExecutor, clubID *int64) ([]models.ActiveMembershipView, error) {
	query := `
		SELECT membership_id, player_id, player_name, rating, title, club_id, club_name, join_date, membership_type
		FROM active_memberships`
	args := []interface{}{}
	if clubID != nil {
		query += ` WHERE club_id = $1`
		args = append(args, *clubID)
	}
	query += ` ORDER BY club_name, rating DESC, player_id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.ActiveMembershipView, 0)
	for rows.Next() {
		var v models.ActiveMembershipView
		if err := rows.Scan(&v.MembershipID, &v.PlayerID, &v.PlayerName, &v.Rating, &v.Title,
			&v.ClubID, &v.ClubName, &v.JoinDate, &v.MembershipType); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

const tournamentDetailsColumns = `tournament_id, tournament_code, tournament_name, start_date, end_date, location,
	tournament_type, status, prize_pool, max_participants, hosting_club_id, hosting_club_name, participant_count`

func scanTournamentDetails(row rowScanner, v *models.TournamentDetailsView) error {
	return row.Scan(&v.TournamentID, &v.Code, &v.Name, &v.StartDate, &v.EndDate, &v.Location,
		&v.Type, &v.Status, &v.PrizePool, &v.MaxParticipants, &v.HostingClubID, &v.HostingClubName,
		&v.ParticipantCount)
}

func (r *postgresViewRepository) TournamentDetails(ctx context.Context, exec SQLExecutor, status *models.TournamentStatus) ([]models.TournamentDetailsView, error) {
	query := `SELECT ` + tournamentDetailsColumns + ` FROM tournament_details`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY start_date DESC, tournament_id DESC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.TournamentDetailsView, 0)
	for rows.Next() {
		var v models.TournamentDetailsView
		if err := scanTournamentDetails(rows, &v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *postgresViewRepository) TournamentDetailsByID(ctx context.Context, exec SQLExecutor, tournamentID int64) (*models.TournamentDetailsView, error) {
	query := `SELECT ` + tournamentDetailsColumns + ` FROM tournament_details WHERE tournament_id = $1`
	v := &models.TournamentDetailsView{}
	if err := scanTournamentDetails(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID), v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *postgresViewRepository) MatchResults(ctx context.Context, exec SQLExecutor, filter MatchResultsFilter) ([]models.MatchResultView, error) {
	query := `
		SELECT match_id, tournament_id, tournament_code, tournament_name, round_number, board_number,
		       white_player_id, white_player_name, white_rating, black_player_id, black_player_name, black_rating,
		       result, status, scheduled_time, actual_end_time, moves_pgn, white_entry_rating, black_entry_rating
		FROM match_results
		WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.TournamentID != nil {
		query += fmt.Sprintf(" AND tournament_id = $%d", argID)
		args = append(args, *filter.TournamentID)
		argID++
	}
	if filter.PlayerID != nil {
		query += fmt.Sprintf(" AND (white_player_id = $%d OR black_player_id = $%d)", argID, argID)
		args = append(args, *filter.PlayerID)
		argID++
	}
	query += " ORDER BY tournament_id, round_number, board_number NULLS LAST, match_id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.MatchResultView, 0)
	for rows.Next() {
		var v models.MatchResultView
		if err := rows.Scan(&v.MatchID, &v.TournamentID, &v.TournamentCode, &v.TournamentName, &v.RoundNumber,
			&v.BoardNumber, &v.WhitePlayerID, &v.WhitePlayerName, &v.WhiteRating, &v.BlackPlayerID,
			&v.BlackPlayerName, &v.BlackRating, &v.Result, &v.Status, &v.ScheduledTime, &v.ActualEndTime,
			&v.MovesPGN, &v.WhiteEntryRating, &v.BlackEntryRating); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
