package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// KindPlanned marks a budget allocation for a period.
	KindPlanned Kind = "PLANNED"
	// KindActual marks a real, incurred cost.
	KindActual Kind = "ACTUAL"
)

// DateLayout is the calendar-date format used everywhere a transaction date
// travels as a string (API payloads, CSV, snapshots). No time component.
const DateLayout = "2006-01-02"

type (
	Kind string

	// Transaction is a single planned or actual money record. The Date is kept
	// as an ISO string rather than a time.Time: imported and restored data may
	// carry malformed dates, and those records must stay visible in listings
	// while being excluded from aggregation.
	Transaction struct {
		ID          string `json:"id"`
		Date        string `json:"date"` // YYYY-MM-DD
		Category    string `json:"category"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Kind        Kind   `json:"type"`
		CreatedBy   string `json:"createdBy,omitempty"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrEmptyCategory   = errors.New("empty category")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// ParseDate parses an ISO calendar date. The second result reports whether the
// value was well formed; callers in the aggregation path skip records instead
// of failing.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (k Kind) Valid() bool {
	return k == KindPlanned || k == KindActual
}

// Validate checks a transaction at the entry boundary. Category existence in
// the configured set is deliberately not checked here: unknown categories are
// a tolerated soft reference.
func (t Transaction) Validate() error {
	if _, ok := ParseDate(t.Date); !ok {
		return ErrInvalidDate
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionSize
	}
	return nil
}

// inPeriod reports whether the transaction's date falls in the given year and,
// when month > 0, in that calendar month. Malformed dates are never in any period.
func (t Transaction) inPeriod(year, month int) bool {
	d, ok := ParseDate(t.Date)
	if !ok {
		return false
	}
	if d.Year() != year {
		return false
	}
	return month == 0 || int(d.Month()) == month
}
