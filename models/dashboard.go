package models

type DashboardStats struct {
	ClubsTotal        int `json:"clubs_total"`
	PlayersTotal      int `json:"players_total"`
	TournamentsTotal  int `json:"tournaments_total"`
	ActiveTournaments int `json:"active_tournaments"`
	MatchesTotal      int `json:"matches_total"`
	ActiveMemberships int `json:"active_memberships"`
}

type TournamentStatistics struct {
	TournamentID       int64            `json:"tournament_id"`
	TournamentName     string           `json:"tournament_name"`
	ParticipantCount   int              `json:"participant_count"`
	TotalMatches       int              `json:"total_matches"`
	CompletedMatches   int              `json:"completed_matches"`
	ProgressPercentage float64          `json:"progress_percentage"`
	TotalRounds        int              `json:"total_rounds"`
	PrizePool          float64          `json:"prize_pool"`
	Status             TournamentStatus `json:"status"`
}

type PlayerStatistics struct {
	PlayerID          int64   `json:"player_id"`
	PlayerName        string  `json:"player_name"`
	CurrentRating     int     `json:"current_rating"`
	Title             *string `json:"title,omitempty"`
	TotalGames        int     `json:"total_games"`
	Wins              int     `json:"wins"`
	Draws             int     `json:"draws"`
	Losses            int     `json:"losses"`
	TotalPoints       float64 `json:"total_points"`
	WinRate           float64 `json:"win_rate"`
	TournamentsPlayed int     `json:"tournaments_played"`
}
