package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие CHECK в БД.
type TournamentStatus string

const (
	StatusPlanned          TournamentStatus = "Planned"
	StatusRegistrationOpen TournamentStatus = "Registration Open"
	StatusInProgress       TournamentStatus = "In Progress"
	StatusCompleted        TournamentStatus = "Completed"
	StatusCancelled        TournamentStatus = "Cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusRegistrationOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Closed reports whether the tournament is in a terminal state.
func (s TournamentStatus) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type TournamentType string

const (
	TypeSwiss      TournamentType = "Swiss"
	TypeRoundRobin TournamentType = "Round Robin"
	TypeKnockout   TournamentType = "Knockout"
	TypeArena      TournamentType = "Arena"
)

func (t TournamentType) Valid() bool {
	switch t {
	case TypeSwiss, TypeRoundRobin, TypeKnockout, TypeArena:
		return true
	}
	return false
}

// DefaultMaxParticipants is used when a tournament is created without a capacity.
const DefaultMaxParticipants = 100

// Tournament представляет турнир.
type Tournament struct {
	ID              int64            `json:"tournament_id"`
	Code            string           `json:"tournament_code"`
	Name            string           `json:"tournament_name"`
	HostingClubID   *int64           `json:"hosting_club_id,omitempty"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Location        *string          `json:"location,omitempty"`
	EntryFee        float64          `json:"entry_fee"`
	PrizePool       float64          `json:"prize_pool"`
	MaxParticipants int              `json:"max_participants"`
	Type            TournamentType   `json:"tournament_type"`
	TimeControl     *string          `json:"time_control,omitempty"`
	Status          TournamentStatus `json:"status"`
	Description     *string          `json:"description,omitempty"`
	Timestamps
}
