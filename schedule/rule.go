/*
rule.go - Recurrence rules for rule-governed medicines

PURPOSE:
  Computes the calendar dates on which a medicine is due. A rule is a
  tagged variant rather than a virtual-dispatch hierarchy: the three
  shapes are closed, and every consumer switches exhaustively.

VARIANTS:
  Interval:  due every N days from the start date
  Weekdays:  due on specific ISO weekdays from the start date
  AsNeeded:  no scheduled dates at all (distinct from an error)

BOUNDARIES:
  Rule boundaries are date-only. The sequence runs over
  [start, end] when bounded, [start, +inf) when End is nil.
  Window restriction is inclusive on both sides: a due date equal to
  the window start or end counts.

MEMBERSHIP:
  DueOn answers "is this date due?" in O(1) for interval rules and O(1)
  for weekday rules - no sequence expansion. The validator depends on
  this for off-schedule checks.

SEE ALSO:
  - projector.go: Expands due dates into (date, hour) slots
  - validator.go: Uses DueOn for consumption validation
*/
package schedule

// =============================================================================
// RECURRENCE - Tagged variant over the three rule shapes
// =============================================================================

// Recurrence is a closed set of rule shapes. Consumers type-switch over
// Interval, Weekdays, and AsNeeded; there are no other implementations.
type Recurrence interface {
	isRecurrence()
}

// Interval is a fixed daily stride: start, start+N, start+2N, ...
type Interval struct {
	Start     Date
	End       *Date // inclusive, nil = open-ended
	EveryDays int
}

// Weekdays selects every date whose ISO weekday is in Days,
// from Start onward.
type Weekdays struct {
	Start Date
	End   *Date // inclusive, nil = open-ended
	Days  []Weekday
}

// AsNeeded produces no scheduled dates.
type AsNeeded struct{}

func (Interval) isRecurrence() {}
func (Weekdays) isRecurrence() {}
func (AsNeeded) isRecurrence() {}

// =============================================================================
// DATE SEQUENCE GENERATION
// =============================================================================

// DatesBetween returns the rule's due dates restricted to the window,
// in ascending order. Boundaries are inclusive: a due date equal to
// w.Start or w.End is included.
func DatesBetween(r Recurrence, w Window) []Date {
	switch rule := r.(type) {
	case Interval:
		return rule.datesBetween(w)
	case Weekdays:
		return rule.datesBetween(w)
	case AsNeeded:
		return nil
	default:
		return nil
	}
}

// DueOn reports whether the rule produces the given date.
func DueOn(r Recurrence, d Date) bool {
	switch rule := r.(type) {
	case Interval:
		if !rule.inRange(d) {
			return false
		}
		return DaysBetween(rule.Start, d)%rule.EveryDays == 0
	case Weekdays:
		if !rule.inRange(d) {
			return false
		}
		for _, wd := range rule.Days {
			if d.Weekday() == wd {
				return true
			}
		}
		return false
	case AsNeeded:
		return false
	default:
		return false
	}
}

func (r Interval) inRange(d Date) bool {
	if d.Before(r.Start) {
		return false
	}
	return r.End == nil || d.BeforeOrEqual(*r.End)
}

func (r Weekdays) inRange(d Date) bool {
	if d.Before(r.Start) {
		return false
	}
	return r.End == nil || d.BeforeOrEqual(*r.End)
}

func (r Interval) datesBetween(w Window) []Date {
	if r.EveryDays <= 0 {
		return nil
	}

	end := w.End
	if r.End != nil {
		end = MinDate(end, *r.End)
	}

	// First stride-aligned date at or after the window start.
	first := r.Start
	if offset := DaysBetween(r.Start, w.Start); offset > 0 {
		strides := offset / r.EveryDays
		if offset%r.EveryDays != 0 {
			strides++
		}
		first = r.Start.AddDays(strides * r.EveryDays)
	}

	var dates []Date
	for current := first; current.BeforeOrEqual(end); current = current.AddDays(r.EveryDays) {
		dates = append(dates, current)
	}
	return dates
}

func (r Weekdays) datesBetween(w Window) []Date {
	if len(r.Days) == 0 {
		return nil
	}

	end := w.End
	if r.End != nil {
		end = MinDate(end, *r.End)
	}

	members := make(map[Weekday]bool, len(r.Days))
	for _, wd := range r.Days {
		members[wd] = true
	}

	var dates []Date
	for current := MaxDate(r.Start, w.Start); current.BeforeOrEqual(end); current = current.AddDays(1) {
		if members[current.Weekday()] {
			dates = append(dates, current)
		}
	}
	return dates
}
