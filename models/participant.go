package models

import "time"

type ParticipantStatus string

const (
	ParticipantRegistered   ParticipantStatus = "Registered"
	ParticipantConfirmed    ParticipantStatus = "Confirmed"
	ParticipantWithdrawn    ParticipantStatus = "Withdrawn"
	ParticipantDisqualified ParticipantStatus = "Disqualified"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantRegistered, ParticipantConfirmed, ParticipantWithdrawn, ParticipantDisqualified:
		return true
	}
	return false
}

// Counted reports whether a participant in this status occupies a seat.
func (s ParticipantStatus) Counted() bool {
	return s == ParticipantRegistered || s == ParticipantConfirmed
}

// TournamentParticipant is identified by (TournamentID, PlayerID).
// InitialRating is the player's rating at registration time.
type TournamentParticipant struct {
	TournamentID     int64             `json:"tournament_id"`
	PlayerID         int64             `json:"player_id"`
	RegistrationDate time.Time         `json:"registration_date"`
	SeedNumber       *int              `json:"seed_number,omitempty"`
	InitialRating    *int              `json:"initial_rating,omitempty"`
	Status           ParticipantStatus `json:"status"`
	Timestamps

	Player *Player `json:"player,omitempty"`
}
