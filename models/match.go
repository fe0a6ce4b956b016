package models

import "time"

// MatchResult values are stored verbatim.
type MatchResult string

const (
	ResultWhiteWins  MatchResult = "1-0"
	ResultBlackWins  MatchResult = "0-1"
	ResultDraw       MatchResult = "1/2-1/2"
	ResultUnfinished MatchResult = "*"
)

func (r MatchResult) Valid() bool {
	switch r {
	case ResultWhiteWins, ResultBlackWins, ResultDraw, ResultUnfinished:
		return true
	}
	return false
}

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "Scheduled"
	MatchInProgress MatchStatus = "In Progress"
	MatchCompleted  MatchStatus = "Completed"
	MatchPostponed  MatchStatus = "Postponed"
	MatchForfeited  MatchStatus = "Forfeited"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchInProgress, MatchCompleted, MatchPostponed, MatchForfeited:
		return true
	}
	return false
}

type Match struct {
	ID              int64       `json:"match_id"`
	TournamentID    int64       `json:"tournament_id"`
	RoundNumber     int         `json:"round_number"`
	BoardNumber     *int        `json:"board_number,omitempty"`
	WhitePlayerID   int64       `json:"white_player_id"`
	BlackPlayerID   int64       `json:"black_player_id"`
	ScheduledTime   *time.Time  `json:"scheduled_time,omitempty"`
	ActualStartTime *time.Time  `json:"actual_start_time,omitempty"`
	ActualEndTime   *time.Time  `json:"actual_end_time,omitempty"`
	Result          MatchResult `json:"result"`
	MovesPGN        *string     `json:"moves_pgn,omitempty"`
	TimeControlUsed *string     `json:"time_control_used,omitempty"`
	Arbiter         *string     `json:"arbiter,omitempty"`
	Status          MatchStatus `json:"status"`
	Notes           *string     `json:"notes,omitempty"`
	Timestamps
}

// Involves reports whether the player had either colour in the match.
func (m *Match) Involves(playerID int64) bool {
	return m.WhitePlayerID == playerID || m.BlackPlayerID == playerID
}

// PointsFor returns the score the player earned: 1, 0.5 or 0. Unfinished games score 0.
func (m *Match) PointsFor(playerID int64) float64 {
	switch m.Result {
	case ResultDraw:
		return 0.5
	case ResultWhiteWins:
		if playerID == m.WhitePlayerID {
			return 1
		}
	case ResultBlackWins:
		if playerID == m.BlackPlayerID {
			return 1
		}
	}
	return 0
}

// Decided reports whether the match counts towards standings.
func (m *Match) Decided() bool {
	return m.Status == MatchCompleted && m.Result != ResultUnfinished
}
