package schedule

import (
	"time"
)

// =============================================================================
// DATE - Calendar date, no time-of-day (rule boundary granularity)
// =============================================================================

// Date is a timezone-naive calendar date. Rule boundaries (start/end) and
// due-date arithmetic always work at this granularity.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the time-of-day from a timestamp.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a "YYYY-MM-DD" value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) Weekday() Weekday  { return ISOWeekday(d.Time.Weekday()) }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// MinDate / MaxDate pick window boundaries.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// SLOT TIME - Minute-truncated date-time (consumption key granularity)
// =============================================================================

// SlotTime is the scheduled timestamp of a dose slot, truncated to the
// minute. It is the natural key component for consumption records.
type SlotTime struct {
	Time time.Time
}

// SlotTimeOf truncates a timestamp to the minute.
func SlotTimeOf(t time.Time) SlotTime {
	return SlotTime{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)}
}

// ParseSlotTime parses a "YYYY-MM-DD HH:MM" value.
func ParseSlotTime(s string) (SlotTime, error) {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		return SlotTime{}, err
	}
	return SlotTimeOf(t), nil
}

// Comparison
func (st SlotTime) Before(other SlotTime) bool { return st.Time.Before(other.Time) }
func (st SlotTime) Equal(other SlotTime) bool  { return st.Time.Equal(other.Time) }
func (st SlotTime) After(other SlotTime) bool  { return st.Time.After(other.Time) }

// Decomposition
func (st SlotTime) Date() Date { return DateOf(st.Time) }
func (st SlotTime) Clock() ClockTime {
	return ClockTime{Hour: st.Time.Hour(), Minute: st.Time.Minute()}
}

func (st SlotTime) IsZero() bool { return st.Time.IsZero() }

// String renders the minute-truncated form, also used as lookup key.
func (st SlotTime) String() string { return st.Time.Format("2006-01-02 15:04") }
