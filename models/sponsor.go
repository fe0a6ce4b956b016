package models

import "time"

type SponsorType string

const (
	SponsorCorporate    SponsorType = "Corporate"
	SponsorGovernment   SponsorType = "Government"
	SponsorIndividual   SponsorType = "Individual"
	SponsorOrganization SponsorType = "Organization"
)

func (t SponsorType) Valid() bool {
	switch t {
	case SponsorCorporate, SponsorGovernment, SponsorIndividual, SponsorOrganization:
		return true
	}
	return false
}

type Sponsor struct {
	ID            int64       `json:"sponsor_id"`
	Name          string      `json:"sponsor_name"`
	Type          SponsorType `json:"sponsor_type"`
	ContactPerson *string     `json:"contact_person,omitempty"`
	Phone         *string     `json:"phone,omitempty"`
	Email         *string     `json:"email,omitempty"`
	Address       *string     `json:"address,omitempty"`
	Website       *string     `json:"website,omitempty"`
	Timestamps
}

type SponsorshipType string

const (
	SponsorshipTitle      SponsorshipType = "Title"
	SponsorshipMain       SponsorshipType = "Main"
	SponsorshipSupporting SponsorshipType = "Supporting"
	SponsorshipMedia      SponsorshipType = "Media"
)

func (t SponsorshipType) Valid() bool {
	switch t {
	case SponsorshipTitle, SponsorshipMain, SponsorshipSupporting, SponsorshipMedia:
		return true
	}
	return false
}

// TournamentSponsor is identified by (TournamentID, SponsorID).
type TournamentSponsor struct {
	TournamentID int64           `json:"tournament_id"`
	SponsorID    int64           `json:"sponsor_id"`
	Amount       float64         `json:"sponsorship_amount"`
	Type         SponsorshipType `json:"sponsorship_type"`
	ContractDate *time.Time      `json:"contract_date,omitempty"`
	Timestamps

	Sponsor *Sponsor `json:"sponsor,omitempty"`
}
