/*
Package schedule provides the core medicine scheduling engine.

PURPOSE:
  This package contains the types and algorithms for rule-governed medicine
  consumption: recurrence rules (fixed interval or specific weekdays),
  projection of due dose slots across a query window, reconciliation of
  projected slots against recorded consumptions, and validation of new
  consumption records against a medicine's rule.

KEY CONCEPTS IN THIS FILE (types.go):
  - Medicine: A prescribed treatment with an optional recurrence rule
  - Consumption: A dose slot, either projected (consumed=false) or recorded
  - ClockTime: A time-of-day in 24-hour HH:MM form
  - Weekday: ISO weekday (1=Monday .. 7=Sunday)

DESIGN PRINCIPLES:
  1. Purity: projection and reconciliation are computations over bounded
     windows; persistence stays behind the Store interfaces
  2. Naive time: all dates and slot times are timezone-naive (UTC wall clock)
  3. Minute keys: a consumption is identified by (medicine, scheduled minute)
  4. Precision: dose amounts use decimal.Decimal, never float64

SEE ALSO:
  - rule.go: Recurrence variants and date-sequence generation
  - projector.go: Due-slot expansion
  - reconciler.go: Projected-vs-recorded merge
  - validator.go: Medicine and consumption validation
*/
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MedicineID string
type UserID string

// =============================================================================
// CLOCK TIME - Time-of-day in 24-hour HH:MM form
// =============================================================================

type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a strict 24-hour "HH:MM" value.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return ClockTime{}, &HourFormatError{Hour: s}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return ClockTime{}, &HourFormatError{Hour: s}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return ClockTime{}, &HourFormatError{Hour: s}
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// OnDate combines a calendar date with this time-of-day into a slot time.
func (c ClockTime) OnDate(d Date) SlotTime {
	return SlotTime{Time: time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, time.UTC)}
}

// =============================================================================
// WEEKDAY - ISO weekday (1=Monday .. 7=Sunday)
// =============================================================================

type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// ISOWeekday converts a time.Weekday (0=Sunday) to the ISO numbering.
func ISOWeekday(wd time.Weekday) Weekday {
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(int(wd))
}

// =============================================================================
// MEDICINE - A prescribed treatment owned by exactly one user
// =============================================================================

// Medicine describes a treatment and its dosing rule.
//
// INVARIANT: Interval and Days are mutually exclusive. If either is set,
// Hours must be non-empty and every hour must parse as 24-hour HH:MM.
// A medicine with neither set and no hours is an as-needed medicine with
// no projected schedule. ValidateMedicine enforces this at the boundary;
// the engine assumes validated medicines.
type Medicine struct {
	ID     MedicineID
	UserID UserID
	Name   string

	// Active range. StartDate is date-only; EndDate is inclusive,
	// nil for open-ended treatments.
	StartDate Date
	EndDate   *Date
	Active    bool

	// Frequency: exactly one of Interval (days between doses) or
	// Days (ISO weekdays) for rule-governed medicines, neither for
	// as-needed medicines.
	Interval *int
	Days     []Weekday

	// Dosing times-of-day, "HH:MM". Empty for as-needed medicines.
	Hours []string

	// Stock tracking is opt-in: nil Stock disables it.
	Stock        *int
	StockWarning *int

	// Display fields, opaque to the engine.
	Presentation string
	DoseUnit     string
	DoseAmount   decimal.Decimal
	Instructions string
}

// Recurrence returns the medicine's rule as a tagged variant.
// Assumes the medicine passed ValidateMedicine; if both frequency fields
// are somehow set, Interval wins (the validator rejects that state earlier).
func (m Medicine) Recurrence() Recurrence {
	switch {
	case m.Interval != nil:
		return Interval{Start: m.StartDate, End: m.EndDate, EveryDays: *m.Interval}
	case len(m.Days) > 0:
		return Weekdays{Start: m.StartDate, End: m.EndDate, Days: m.Days}
	default:
		return AsNeeded{}
	}
}

// AsNeeded reports whether the medicine has no dosing times configured,
// meaning consumptions are unconstrained.
func (m Medicine) AsNeeded() bool {
	return len(m.Hours) == 0
}

// DoseTimes returns the parsed dosing times in configured order.
// Returns HourFormatError for any malformed hour.
func (m Medicine) DoseTimes() ([]ClockTime, error) {
	if len(m.Hours) == 0 {
		return nil, nil
	}
	times := make([]ClockTime, 0, len(m.Hours))
	for _, h := range m.Hours {
		ct, err := ParseClockTime(h)
		if err != nil {
			return nil, err
		}
		times = append(times, ct)
	}
	return times, nil
}

// ActiveIn reports whether the medicine's active range intersects the
// window. This is the shallow existence check for period listings; a
// medicine can be active in a window yet have zero due slots in it.
func (m Medicine) ActiveIn(w Window) bool {
	if m.StartDate.After(w.End) {
		return false
	}
	return m.EndDate == nil || !m.EndDate.Before(w.Start)
}

// =============================================================================
// CONSUMPTION - A dose slot, projected or recorded
// =============================================================================

// Consumption is a single dose slot for a medicine. The projector emits
// synthetic slots with Consumed=false and no ID; persisted records carry
// an ID, Consumed=true, and the real consumption timestamp.
//
// Identity of a persisted record is (MedicineID, ScheduledAt), with
// ScheduledAt truncated to the minute.
type Consumption struct {
	ID          string
	MedicineID  MedicineID
	ScheduledAt SlotTime
	RealAt      time.Time
	Consumed    bool
}
