package models

import "time"

// ActiveMembershipView is a row of the active_memberships view.
type ActiveMembershipView struct {
	MembershipID   int64          `json:"membership_id"`
	PlayerID       int64          `json:"player_id"`
	PlayerName     string         `json:"player_name"`
	Rating         int            `json:"rating"`
	Title          *string        `json:"title,omitempty"`
	ClubID         int64          `json:"club_id"`
	ClubName       string         `json:"club_name"`
	JoinDate       time.Time      `json:"join_date"`
	MembershipType MembershipType `json:"membership_type"`
}

// TournamentDetailsView is a row of the tournament_details view.
// ParticipantCount counts Registered and Confirmed participants only.
type TournamentDetailsView struct {
	TournamentID     int64            `json:"tournament_id"`
	Code             string           `json:"tournament_code"`
	Name             string           `json:"tournament_name"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	Location         *string          `json:"location,omitempty"`
	Type             TournamentType   `json:"tournament_type"`
	Status           TournamentStatus `json:"status"`
	PrizePool        float64          `json:"prize_pool"`
	MaxParticipants  int              `json:"max_participants"`
	HostingClubID    *int64           `json:"hosting_club_id,omitempty"`
	HostingClubName  *string          `json:"hosting_club_name,omitempty"`
	ParticipantCount int              `json:"participant_count"`
}

// MatchResultView is a row of the match_results view.
type MatchResultView struct {
	MatchID         int64       `json:"match_id"`
	TournamentID    int64       `json:"tournament_id"`
	TournamentCode  string      `json:"tournament_code"`
	TournamentName  string      `json:"tournament_name"`
	RoundNumber     int         `json:"round_number"`
	BoardNumber     *int        `json:"board_number,omitempty"`
	WhitePlayerID   int64       `json:"white_player_id"`
	WhitePlayerName string      `json:"white_player_name"`
	WhiteRating     int         `json:"white_rating"`
	BlackPlayerID   int64       `json:"black_player_id"`
	BlackPlayerName string      `json:"black_player_name"`
	BlackRating     int         `json:"black_rating"`
	Result          MatchResult `json:"result"`
	Status          MatchStatus `json:"status"`
	ScheduledTime   *time.Time  `json:"scheduled_time,omitempty"`
	ActualEndTime   *time.Time  `json:"actual_end_time,omitempty"`
	MovesPGN        *string     `json:"moves_pgn,omitempty"`
	// Entry ratings come from the registrations; they differ from the cached
	// ratings once a player's rating has moved.
	WhiteEntryRating int `json:"white_entry_rating"`
	BlackEntryRating int `json:"black_entry_rating"`
}
