package models

import "time"

type MembershipType string

const (
	MembershipRegular  MembershipType = "Regular"
	MembershipPremium  MembershipType = "Premium"
	MembershipHonorary MembershipType = "Honorary"
)

func (t MembershipType) Valid() bool {
	switch t {
	case MembershipRegular, MembershipPremium, MembershipHonorary:
		return true
	}
	return false
}

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "Active"
	MembershipInactive  MembershipStatus = "Inactive"
	MembershipSuspended MembershipStatus = "Suspended"
)

func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipActive, MembershipInactive, MembershipSuspended:
		return true
	}
	return false
}

// Membership links a player to a club. A player has at most one Active membership.
type Membership struct {
	ID       int64            `json:"membership_id"`
	PlayerID int64            `json:"player_id"`
	ClubID   int64            `json:"club_id"`
	JoinDate time.Time        `json:"join_date"`
	Type     MembershipType   `json:"membership_type"`
	Status   MembershipStatus `json:"status"`
	Timestamps
}
