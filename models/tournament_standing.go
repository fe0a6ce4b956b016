package models

// TournamentStanding is identified by (TournamentID, PlayerID).
// Points and tie-break scores have half-point granularity.
type TournamentStanding struct {
	TournamentID    int64   `json:"tournament_id"`
	PlayerID        int64   `json:"player_id"`
	Points          float64 `json:"points"`
	GamesPlayed     int     `json:"games_played"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	Losses          int     `json:"losses"`
	BuchholzScore   float64 `json:"buchholz_score"`
	SonnebornBerger float64 `json:"sonneborn_berger"`
	FinalRank       *int    `json:"final_rank,omitempty"`
	PrizeAmount     float64 `json:"prize_amount"`
	Timestamps

	Player *Player `json:"player,omitempty"`
}
