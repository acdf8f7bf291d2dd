package schedule

// =============================================================================
// WINDOW - The queried date range for projection and reconciliation
// =============================================================================

// Window is an inclusive calendar date range [Start, End]. Projection and
// reconciliation are always computed for a window, never open-ended;
// callers bound windows to reasonable spans.
type Window struct {
	Start Date
	End   Date
}

// NewWindow builds a window, rejecting end-before-start.
func NewWindow(start, end Date) (Window, error) {
	if end.Before(start) {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// Contains returns true if the date is within [Start, End].
func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// ContainsSlot returns true if the slot's calendar date is within the window.
func (w Window) ContainsSlot(st SlotTime) bool {
	return w.Contains(st.Date())
}

// Clip intersects the window with a medicine's active range. The second
// return value is false when the ranges do not intersect.
func (w Window) Clip(start Date, end *Date) (Window, bool) {
	clipped := Window{Start: MaxDate(w.Start, start), End: w.End}
	if end != nil {
		clipped.End = MinDate(w.End, *end)
	}
	if clipped.End.Before(clipped.Start) {
		return Window{}, false
	}
	return clipped, true
}

// Days returns every date in the window.
func (w Window) Days() []Date {
	var days []Date
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
