package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/medtrack-engine/schedule"
)

func dailyMedicine(hours ...string) schedule.Medicine {
	return schedule.Medicine{
		ID:        "med-1",
		UserID:    "user-1",
		Name:      "Amoxicillin",
		StartDate: date(2024, 1, 1),
		Active:    true,
		Interval:  intPtr(1),
		Hours:     hours,
	}
}

func TestProject_DateByHourExpansion(t *testing.T) {
	// GIVEN: A daily medicine dosed at 08:00 and 20:00
	// WHEN: Projecting over three days
	// THEN: 6 slots in chronological order, all unconsumed

	m := dailyMedicine("08:00", "20:00")
	w := window(t, date(2024, 1, 1), date(2024, 1, 3))

	slots, err := schedule.Project(m, w)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	assert.Equal(t, "2024-01-01 08:00", slots[0].ScheduledAt.String())
	assert.Equal(t, "2024-01-01 20:00", slots[1].ScheduledAt.String())
	assert.Equal(t, "2024-01-03 20:00", slots[5].ScheduledAt.String())
	for i, s := range slots {
		assert.False(t, s.Consumed)
		assert.Equal(t, m.ID, s.MedicineID)
		if i > 0 {
			assert.True(t, slots[i-1].ScheduledAt.Before(s.ScheduledAt))
		}
	}
}

func TestProject_UnorderedHours_SlotsStillChronological(t *testing.T) {
	m := dailyMedicine("20:00", "08:00", "12:30")
	w := window(t, date(2024, 1, 1), date(2024, 1, 1))

	slots, err := schedule.Project(m, w)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "2024-01-01 08:00", slots[0].ScheduledAt.String())
	assert.Equal(t, "2024-01-01 12:30", slots[1].ScheduledAt.String())
	assert.Equal(t, "2024-01-01 20:00", slots[2].ScheduledAt.String())
}

func TestProject_WindowClippedToMedicineRange(t *testing.T) {
	// GIVEN: A medicine active 2024-01-05 .. 2024-01-07
	// WHEN: Projecting over a wider window
	// THEN: Slots only inside the medicine's own range

	end := date(2024, 1, 7)
	m := dailyMedicine("08:00")
	m.StartDate = date(2024, 1, 5)
	m.EndDate = &end

	w := window(t, date(2024, 1, 1), date(2024, 1, 31))
	slots, err := schedule.Project(m, w)
	require.NoError(t, err)

	require.Len(t, slots, 3)
	assert.Equal(t, "2024-01-05 08:00", slots[0].ScheduledAt.String())
	assert.Equal(t, "2024-01-07 08:00", slots[2].ScheduledAt.String())
}

func TestProject_NoIntersection_NoSlots(t *testing.T) {
	m := dailyMedicine("08:00")
	m.StartDate = date(2024, 6, 1)

	w := window(t, date(2024, 1, 1), date(2024, 1, 31))
	slots, err := schedule.Project(m, w)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestProject_NoHours_NoSlots(t *testing.T) {
	// As-needed medicines have no projected schedule.
	m := schedule.Medicine{
		ID:        "med-prn",
		StartDate: date(2024, 1, 1),
		Active:    true,
	}

	w := window(t, date(2024, 1, 1), date(2024, 1, 31))
	slots, err := schedule.Project(m, w)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestProject_MalformedHour_Error(t *testing.T) {
	m := dailyMedicine("8:00")
	w := window(t, date(2024, 1, 1), date(2024, 1, 3))

	_, err := schedule.Project(m, w)
	assert.ErrorIs(t, err, schedule.ErrIncorrectHourFormat)
}
