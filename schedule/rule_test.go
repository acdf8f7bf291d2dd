package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/medtrack-engine/schedule"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y, m, d int) schedule.Date {
	return schedule.NewDate(y, time.Month(m), d)
}

func window(t *testing.T, start, end schedule.Date) schedule.Window {
	t.Helper()
	w, err := schedule.NewWindow(start, end)
	require.NoError(t, err)
	return w
}

func intPtr(n int) *int { return &n }

// =============================================================================
// INTERVAL RULE TESTS
// =============================================================================

func TestInterval_EveryTwoDays_ThreeWeekWindow(t *testing.T) {
	// GIVEN: A dose every 2 days starting 2024-01-01
	// WHEN: Expanding over 2024-01-01 .. 2024-01-21
	// THEN: 11 dates, 2 days apart, boundaries included

	rule := schedule.Interval{Start: date(2024, 1, 1), EveryDays: 2}
	w := window(t, date(2024, 1, 1), date(2024, 1, 21))

	dates := schedule.DatesBetween(rule, w)

	require.Len(t, dates, 11)
	assert.True(t, dates[0].Equal(date(2024, 1, 1)))
	assert.True(t, dates[10].Equal(date(2024, 1, 21)))
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 2, schedule.DaysBetween(dates[i-1], dates[i]))
	}
}

func TestInterval_WindowStartsMidStride(t *testing.T) {
	// GIVEN: A dose every 2 days starting 2024-01-01
	// WHEN: The window starts on an off day (2024-01-02)
	// THEN: The first emitted date is the next stride-aligned day

	rule := schedule.Interval{Start: date(2024, 1, 1), EveryDays: 2}
	w := window(t, date(2024, 1, 2), date(2024, 1, 7))

	dates := schedule.DatesBetween(rule, w)

	require.Len(t, dates, 3)
	assert.True(t, dates[0].Equal(date(2024, 1, 3)))
	assert.True(t, dates[1].Equal(date(2024, 1, 5)))
	assert.True(t, dates[2].Equal(date(2024, 1, 7)))
}

func TestInterval_RuleEndClampsWindow(t *testing.T) {
	end := date(2024, 1, 5)
	rule := schedule.Interval{Start: date(2024, 1, 1), End: &end, EveryDays: 2}

	w := window(t, date(2024, 1, 1), date(2024, 1, 31))
	dates := schedule.DatesBetween(rule, w)

	require.Len(t, dates, 3)
	assert.True(t, dates[2].Equal(date(2024, 1, 5)))
}

func TestInterval_WindowBeforeStart_Empty(t *testing.T) {
	rule := schedule.Interval{Start: date(2024, 6, 1), EveryDays: 1}
	w := window(t, date(2024, 1, 1), date(2024, 1, 31))

	assert.Empty(t, schedule.DatesBetween(rule, w))
}

func TestInterval_NonPositiveStride_Empty(t *testing.T) {
	rule := schedule.Interval{Start: date(2024, 1, 1), EveryDays: 0}
	w := window(t, date(2024, 1, 1), date(2024, 1, 31))

	assert.Empty(t, schedule.DatesBetween(rule, w))
}

// =============================================================================
// WEEKDAY RULE TESTS
// =============================================================================

func TestWeekdays_MondayWednesday_TwoWeeks(t *testing.T) {
	// GIVEN: Doses on Monday and Wednesday, starting Monday 2024-01-01
	// WHEN: Expanding over two weeks
	// THEN: 4 dates, all on the selected weekdays

	rule := schedule.Weekdays{
		Start: date(2024, 1, 1),
		Days:  []schedule.Weekday{schedule.Monday, schedule.Wednesday},
	}
	w := window(t, date(2024, 1, 1), date(2024, 1, 14))

	dates := schedule.DatesBetween(rule, w)

	require.Len(t, dates, 4)
	assert.True(t, dates[0].Equal(date(2024, 1, 1)))
	assert.True(t, dates[1].Equal(date(2024, 1, 3)))
	assert.True(t, dates[2].Equal(date(2024, 1, 8)))
	assert.True(t, dates[3].Equal(date(2024, 1, 10)))
	for _, d := range dates {
		assert.Contains(t, []schedule.Weekday{schedule.Monday, schedule.Wednesday}, d.Weekday())
	}
}

func TestWeekdays_NoDaysSelected_Empty(t *testing.T) {
	rule := schedule.Weekdays{Start: date(2024, 1, 1)}
	w := window(t, date(2024, 1, 1), date(2024, 1, 31))

	assert.Empty(t, schedule.DatesBetween(rule, w))
}

func TestAsNeeded_NoDates(t *testing.T) {
	w := window(t, date(2024, 1, 1), date(2024, 12, 31))
	assert.Empty(t, schedule.DatesBetween(schedule.AsNeeded{}, w))
}

// =============================================================================
// MEMBERSHIP TESTS
// =============================================================================

func TestDueOn_Interval(t *testing.T) {
	end := date(2024, 1, 10)
	rule := schedule.Interval{Start: date(2024, 1, 1), End: &end, EveryDays: 3}

	assert.True(t, schedule.DueOn(rule, date(2024, 1, 1)))
	assert.True(t, schedule.DueOn(rule, date(2024, 1, 4)))
	assert.True(t, schedule.DueOn(rule, date(2024, 1, 7)))
	assert.False(t, schedule.DueOn(rule, date(2024, 1, 2)), "off-stride date")
	assert.False(t, schedule.DueOn(rule, date(2023, 12, 31)), "before start")
	assert.False(t, schedule.DueOn(rule, date(2024, 1, 13)), "after end")
}

func TestDueOn_Weekdays(t *testing.T) {
	rule := schedule.Weekdays{
		Start: date(2024, 1, 1),
		Days:  []schedule.Weekday{schedule.Friday},
	}

	assert.True(t, schedule.DueOn(rule, date(2024, 1, 5)))
	assert.False(t, schedule.DueOn(rule, date(2024, 1, 6)))
}

func TestDueOn_AsNeeded_NeverDue(t *testing.T) {
	assert.False(t, schedule.DueOn(schedule.AsNeeded{}, date(2024, 1, 1)))
}

// DatesBetween and DueOn must agree on every day of the window.
func TestDueOn_ConsistentWithDatesBetween(t *testing.T) {
	rule := schedule.Interval{Start: date(2024, 1, 3), EveryDays: 5}
	w := window(t, date(2024, 1, 1), date(2024, 3, 1))

	expanded := make(map[string]bool)
	for _, d := range schedule.DatesBetween(rule, w) {
		expanded[d.String()] = true
	}

	for _, d := range w.Days() {
		assert.Equal(t, expanded[d.String()], schedule.DueOn(rule, d), "date %s", d)
	}
}
