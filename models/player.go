package models

import "time"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// DefaultRating is assigned to players created without an explicit rating.
const DefaultRating = 1200

// Player описывает шахматиста. Rating is a cached copy of the latest rating history entry.
type Player struct {
	ID          int64      `json:"player_id"`
	Name        string     `json:"player_name"`
	Address     *string    `json:"address,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Nationality *string    `json:"nationality,omitempty"`
	Gender      *Gender    `json:"gender,omitempty"`
	Rating      int        `json:"rating"`
	Title       *string    `json:"title,omitempty"`
	Timestamps
}
