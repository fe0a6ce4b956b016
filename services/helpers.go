package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/chess-tournament/models"
)

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }

// stampNow reads the clock at the precision updated_at is stored with.
func stampNow(c Clock) time.Time {
	return c().UTC().Truncate(time.Microsecond)
}

func (c Clock) orSystem() Clock {
	if c == nil {
		return SystemClock
	}
	return c
}

// dateOnly drops the time of day; DATE columns carry no zone.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOnly(*t)
	return &d
}

// trimOptional trims s and turns an empty result into nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func requireText(field, value string, maxLen int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", models.NewConstraintError(models.RuleNotNull, field, "value is required")
	}
	if utf8.RuneCountInString(v) > maxLen {
		return "", models.NewConstraintError(models.RuleMaxLength, field, "must be at most %d characters", maxLen)
	}
	return v, nil
}

func optionalText(field string, value *string, maxLen int) (*string, error) {
	v := trimOptional(value)
	if v != nil && maxLen > 0 && utf8.RuneCountInString(*v) > maxLen {
		return nil, models.NewConstraintError(models.RuleMaxLength, field, "must be at most %d characters", maxLen)
	}
	return v, nil
}

func enumError(field string, value interface{}) error {
	return models.NewConstraintError(models.RuleEnum, field, "unsupported value %q", fmt.Sprint(value))
}

// checkMoney validates a NUMERIC(precision, 2) amount: non-negative, at most two
// decimals and within the column's range.
func checkMoney(field string, v float64, precision int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return models.NewConstraintError(models.RuleRange, field, "must be a non-negative amount")
	}
	cents := v * 100
	if math.Abs(cents-math.Round(cents)) > 1e-6 {
		return models.NewConstraintError(models.RulePrecision, field, "must have at most 2 decimal places")
	}
	if v >= math.Pow10(precision-2) {
		return models.NewConstraintError(models.RuleRange, field, "must be less than %.0f", math.Pow10(precision-2))
	}
	return nil
}

// checkHalfPoints validates a NUMERIC(precision, 1) score with half-point granularity.
func checkHalfPoints(field string, v float64, precision int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return models.NewConstraintError(models.RuleRange, field, "must be a non-negative score")
	}
	if v*2 != math.Trunc(v*2) {
		return models.NewConstraintError(models.RulePrecision, field, "must be a multiple of 0.5")
	}
	if v >= math.Pow10(precision-1) {
		return models.NewConstraintError(models.RuleRange, field, "must be less than %.0f", math.Pow10(precision-1))
	}
	return nil
}

func checkPositive(field string, v int) error {
	if v <= 0 {
		return models.NewConstraintError(models.RuleRange, field, "must be positive")
	}
	return nil
}

func checkNonNegative(field string, v int) error {
	if v < 0 {
		return models.NewConstraintError(models.RuleRange, field, "must not be negative")
	}
	return nil
}

// asReference turns a lookup miss on a referenced row into a reference violation
// carrying the same constraint name PostgreSQL would report.
func asReference(err error, notFound error, constraint, field string, id int64) error {
	if errors.Is(err, notFound) {
		return models.NewReferenceError(constraint, field, "referenced row %d does not exist", id)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

func normalizeLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
