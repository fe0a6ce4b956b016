package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every repository "not found" error.
var ErrNotFound = errors.New("not found")

// ViolationKind classifies a rejected write.
type ViolationKind string

const (
	KindConstraint ViolationKind = "constraint"
	KindReference  ViolationKind = "reference"
	KindDomainRule ViolationKind = "domain_rule"
)

// Rule names. Where the rule is also enforced by the schema the name equals the
// PostgreSQL constraint name, so a violation caught by the database and one caught
// before the statement is issued are indistinguishable to callers.
const (
	RuleMembershipExclusivity      = "ux_memberships_one_active"
	RuleTournamentDates            = "chk_tournaments_dates"
	RuleMatchPlayers               = "chk_matches_players"
	RuleMatchTimes                 = "chk_matches_times"
	RuleTournamentStatusTransition = "tournament_status_transition"
	RuleTournamentClosed           = "tournament_closed"
	RuleTournamentFull             = "tournament_full"
	RuleTransferSameClub           = "transfer_same_club"

	RuleNotNull   = "not_null"
	RuleMaxLength = "max_length"
	RuleRange     = "range"
	RulePrecision = "precision"
	RuleEnum      = "enum"
	RuleSyntax    = "invalid_text_representation"
)

// ViolationError describes a write rejected by a constraint, a reference or a
// business rule. It carries enough detail for a client-facing message.
type ViolationError struct {
	Kind    ViolationKind `json:"kind"`
	Rule    string        `json:"rule,omitempty"`
	Field   string        `json:"field,omitempty"`
	Message string        `json:"message"`
}

func (e *ViolationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " violation"
	}
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Rule != "" {
		return fmt.Sprintf("%s [%s]", msg, e.Rule)
	}
	return msg
}

// Is reports whether target is a ViolationError of the same kind and, when
// target names a rule, of the same rule. Field and message are ignored.
func (e *ViolationError) Is(target error) bool {
	t, ok := target.(*ViolationError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Rule == "" || t.Rule == e.Rule
}

var (
	ErrConstraint = &ViolationError{Kind: KindConstraint}
	ErrReference  = &ViolationError{Kind: KindReference}
	ErrDomainRule = &ViolationError{Kind: KindDomainRule}

	ErrActiveMembershipExists = &ViolationError{
		Kind: KindDomainRule, Rule: RuleMembershipExclusivity,
		Message: "player already holds an active membership",
	}
	ErrTournamentDates = &ViolationError{
		Kind: KindDomainRule, Rule: RuleTournamentDates, Field: "end_date",
		Message: "tournament end date must not be before start date",
	}
	ErrSamePlayer = &ViolationError{
		Kind: KindDomainRule, Rule: RuleMatchPlayers, Field: "black_player_id",
		Message: "white and black must be different players",
	}
	ErrMatchTimes = &ViolationError{
		Kind: KindDomainRule, Rule: RuleMatchTimes, Field: "actual_end_time",
		Message: "match end time must not be before start time",
	}
	ErrStatusTransition = &ViolationError{
		Kind: KindDomainRule, Rule: RuleTournamentStatusTransition, Field: "status",
		Message: "tournament status transition not allowed",
	}
	ErrTournamentClosed = &ViolationError{
		Kind: KindDomainRule, Rule: RuleTournamentClosed,
		Message: "tournament no longer accepts registrations",
	}
	ErrTournamentFull = &ViolationError{
		Kind: KindDomainRule, Rule: RuleTournamentFull,
		Message: "tournament has reached max participants",
	}
	ErrTransferSameClub = &ViolationError{
		Kind: KindDomainRule, Rule: RuleTransferSameClub, Field: "club_id",
		Message: "player is already an active member of this club",
	}
)

func NewConstraintError(rule, field, format string, args ...any) *ViolationError {
	return &ViolationError{Kind: KindConstraint, Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NewReferenceError(rule, field, format string, args ...any) *ViolationError {
	return &ViolationError{Kind: KindReference, Rule: rule, Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsViolation extracts the ViolationError from err, if any.
func AsViolation(err error) (*ViolationError, bool) {
	var v *ViolationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
