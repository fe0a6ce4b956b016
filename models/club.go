package models

import "time"

// Club описывает шахматный клуб. Владеет членствами и может принимать турниры.
type Club struct {
	ID              int64      `json:"club_id"`
	Name            string     `json:"club_name"`
	Address         *string    `json:"address,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Email           *string    `json:"email,omitempty"`
	EstablishedDate *time.Time `json:"established_date,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Timestamps
}
