package models

import "time"

// PlayerRanking is one entry of a player's rating history. At most one entry
// exists per (PlayerID, RankingDate).
type PlayerRanking struct {
	ID           int64     `json:"ranking_id"`
	PlayerID     int64     `json:"player_id"`
	Rating       int       `json:"rating"`
	RankingDate  time.Time `json:"ranking_date"`
	TournamentID *int64    `json:"tournament_id,omitempty"`
	RatingChange int       `json:"rating_change"`
	GamesPlayed  int       `json:"games_played"`
	Timestamps
}
