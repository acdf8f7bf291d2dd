package schedule_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/medtrack-engine/schedule"
	"github.com/warp/medtrack-engine/schedule/store"
)

// =============================================================================
// MEDICINE VALIDATION TESTS
// =============================================================================

func TestValidateMedicine_IntervalAndDays_Rejected(t *testing.T) {
	m := schedule.Medicine{
		ID:        "med-1",
		StartDate: date(2024, 1, 1),
		Interval:  intPtr(2),
		Days:      []schedule.Weekday{schedule.Monday},
		Hours:     []string{"08:00"},
	}
	assert.ErrorIs(t, schedule.ValidateMedicine(m), schedule.ErrIntervalAndDays)
}

func TestValidateMedicine_NonPositiveInterval_Rejected(t *testing.T) {
	// A zero stride would divide by zero in the due-date membership
	// check; the boundary must never let it through.
	for _, interval := range []int{0, -2} {
		m := schedule.Medicine{
			ID:        "med-1",
			StartDate: date(2024, 1, 1),
			Interval:  intPtr(interval),
			Hours:     []string{"08:00"},
		}
		assert.ErrorIs(t, schedule.ValidateMedicine(m), schedule.ErrNonPositiveInterval,
			"interval %d", interval)
	}
}

func TestValidateMedicine_WeekdayOutOfRange_Rejected(t *testing.T) {
	for _, day := range []schedule.Weekday{0, 8, -1} {
		m := schedule.Medicine{
			ID:        "med-1",
			StartDate: date(2024, 1, 1),
			Days:      []schedule.Weekday{day},
			Hours:     []string{"08:00"},
		}
		assert.ErrorIs(t, schedule.ValidateMedicine(m), schedule.ErrInvalidWeekday,
			"day %d", day)
	}
}

func TestValidateMedicine_RuleWithoutHours_Rejected(t *testing.T) {
	m := schedule.Medicine{
		ID:        "med-1",
		StartDate: date(2024, 1, 1),
		Interval:  intPtr(2),
	}
	assert.ErrorIs(t, schedule.ValidateMedicine(m), schedule.ErrNoHourSelected)
}

func TestValidateMedicine_MalformedHour_Rejected(t *testing.T) {
	m := schedule.Medicine{
		ID:        "med-1",
		StartDate: date(2024, 1, 1),
		Interval:  intPtr(2),
		Hours:     []string{"08:00", "8:00"},
	}

	err := schedule.ValidateMedicine(m)
	assert.ErrorIs(t, err, schedule.ErrIncorrectHourFormat)

	var hourErr *schedule.HourFormatError
	require.True(t, errors.As(err, &hourErr))
	assert.Equal(t, "8:00", hourErr.Hour)
}

func TestValidateMedicine_AsNeeded_OK(t *testing.T) {
	m := schedule.Medicine{ID: "med-prn", StartDate: date(2024, 1, 1)}
	assert.NoError(t, schedule.ValidateMedicine(m))
}

func TestValidateMedicine_WeekdayRule_OK(t *testing.T) {
	m := schedule.Medicine{
		ID:        "med-1",
		StartDate: date(2024, 1, 1),
		Days:      []schedule.Weekday{schedule.Monday, schedule.Friday},
		Hours:     []string{"09:30"},
	}
	assert.NoError(t, schedule.ValidateMedicine(m))
}

// =============================================================================
// CONSUMPTION VALIDATION TESTS
// =============================================================================

// Every-3-days at 08:00, starting 2024-01-01. Due: Jan 1, 4, 7, ...
func everyThreeDays() schedule.Medicine {
	return schedule.Medicine{
		ID:        "med-1",
		UserID:    "user-1",
		StartDate: date(2024, 1, 1),
		Active:    true,
		Interval:  intPtr(3),
		Hours:     []string{"08:00"},
	}
}

func TestValidateConsumption_OffScheduleDate_Rejected(t *testing.T) {
	// GIVEN: A dose every 3 days from 2024-01-01
	// WHEN: Recording on 2024-01-02 08:00 (not a due date)
	// THEN: Rejected with the invalid-date reason

	v := schedule.NewValidator(store.NewMemory())
	err := v.ValidateConsumption(context.Background(), everyThreeDays(), slotAt(2024, 1, 2, 8, 0))

	assert.ErrorIs(t, err, schedule.ErrInvalidDate)
	var offErr *schedule.OffScheduleError
	require.True(t, errors.As(err, &offErr))
	assert.Equal(t, schedule.MedicineID("med-1"), offErr.MedicineID)
}

func TestValidateConsumption_OffScheduleHour_Rejected(t *testing.T) {
	// GIVEN: The date is due but 09:00 is not a dosing hour
	v := schedule.NewValidator(store.NewMemory())
	err := v.ValidateConsumption(context.Background(), everyThreeDays(), slotAt(2024, 1, 4, 9, 0))

	assert.ErrorIs(t, err, schedule.ErrInvalidHour)
}

func TestValidateConsumption_OnSchedule_OK(t *testing.T) {
	v := schedule.NewValidator(store.NewMemory())
	err := v.ValidateConsumption(context.Background(), everyThreeDays(), slotAt(2024, 1, 4, 8, 0))
	assert.NoError(t, err)
}

func TestValidateConsumption_Duplicate_Rejected(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	m := everyThreeDays()
	at := slotAt(2024, 1, 4, 8, 0)

	require.NoError(t, mem.InsertConsumption(ctx, recordAt("c-1", m.ID, at)))

	v := schedule.NewValidator(mem)
	err := v.ValidateConsumption(ctx, m, at)

	assert.ErrorIs(t, err, schedule.ErrConsumptionExists)
}

func TestValidateConsumption_AsNeeded_Bypasses(t *testing.T) {
	// As-needed medicines accept any timestamp, even one already
	// recorded: the store's unique key is the only duplicate gate.

	ctx := context.Background()
	mem := store.NewMemory()
	m := schedule.Medicine{ID: "med-prn", StartDate: date(2024, 1, 1), Active: true}
	at := slotAt(2024, 1, 2, 3, 45)

	require.NoError(t, mem.InsertConsumption(ctx, recordAt("c-1", m.ID, at)))

	v := schedule.NewValidator(mem)
	assert.NoError(t, v.ValidateConsumption(ctx, m, at))
}

func TestValidateConsumption_BeforeStartDate_Rejected(t *testing.T) {
	v := schedule.NewValidator(store.NewMemory())
	err := v.ValidateConsumption(context.Background(), everyThreeDays(), slotAt(2023, 12, 29, 8, 0))
	assert.ErrorIs(t, err, schedule.ErrInvalidDate)
}
