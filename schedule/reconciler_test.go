package schedule_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/medtrack-engine/schedule"
	"github.com/warp/medtrack-engine/schedule/store"
)

func slotAt(y, m, d, hh, mm int) schedule.SlotTime {
	return schedule.ClockTime{Hour: hh, Minute: mm}.OnDate(date(y, m, d))
}

func recordAt(id string, medID schedule.MedicineID, at schedule.SlotTime) schedule.Consumption {
	return schedule.Consumption{
		ID:          id,
		MedicineID:  medID,
		ScheduledAt: at,
		RealAt:      at.Time,
		Consumed:    true,
	}
}

func TestMerge_RecordSupersedesSlot(t *testing.T) {
	// GIVEN: Three projected slots, one already recorded
	// WHEN: Merging
	// THEN: Same length, the recorded slot carries its ID and Consumed=true

	slots := []schedule.Consumption{
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 1, 8, 0)},
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 2, 8, 0)},
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 3, 8, 0)},
	}
	recorded := []schedule.Consumption{
		recordAt("c-1", "med-1", slotAt(2024, 1, 2, 8, 0)),
	}

	merged := schedule.Merge(slots, recorded)

	require.Len(t, merged, 3)
	assert.False(t, merged[0].Consumed)
	assert.True(t, merged[1].Consumed)
	assert.Equal(t, "c-1", merged[1].ID)
	assert.False(t, merged[2].Consumed)
}

func TestMerge_AdHocRecordKept(t *testing.T) {
	// A record with no matching slot (as-needed dose, or a slot orphaned
	// by a rule change) is preserved in chronological position.

	slots := []schedule.Consumption{
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 1, 8, 0)},
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 2, 8, 0)},
	}
	recorded := []schedule.Consumption{
		recordAt("c-adhoc", "med-1", slotAt(2024, 1, 1, 14, 30)),
	}

	merged := schedule.Merge(slots, recorded)

	require.Len(t, merged, 3)
	assert.Equal(t, "c-adhoc", merged[1].ID)
	assert.True(t, merged[1].Consumed)
}

func TestMerge_NoScheduledTimeAppearsTwice(t *testing.T) {
	slots := []schedule.Consumption{
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 1, 8, 0)},
		{MedicineID: "med-1", ScheduledAt: slotAt(2024, 1, 1, 8, 0)},
	}
	recorded := []schedule.Consumption{
		recordAt("c-1", "med-1", slotAt(2024, 1, 1, 8, 0)),
	}

	merged := schedule.Merge(slots, recorded)

	seen := make(map[string]bool)
	for _, c := range merged {
		key := c.ScheduledAt.String()
		assert.False(t, seen[key], "duplicate scheduled time %s", key)
		seen[key] = true
	}
}

func TestReconciler_Schedule_EndToEnd(t *testing.T) {
	// GIVEN: A daily 08:00 medicine with one dose recorded mid-window
	// WHEN: Asking for the reconciled schedule
	// THEN: Every due slot appears once; the recorded day is consumed

	ctx := context.Background()
	mem := store.NewMemory()

	m := dailyMedicine("08:00")
	w := window(t, date(2024, 1, 1), date(2024, 1, 5))

	require.NoError(t, mem.InsertConsumption(ctx,
		recordAt("c-1", m.ID, slotAt(2024, 1, 3, 8, 0))))

	reconciler := schedule.NewReconciler(mem)
	entries, err := reconciler.Schedule(ctx, m, w)
	require.NoError(t, err)

	require.Len(t, entries, 5)
	for i, e := range entries {
		if i == 2 {
			assert.True(t, e.Consumed)
			assert.Equal(t, "c-1", e.ID)
			continue
		}
		assert.False(t, e.Consumed)
	}
}

func TestReconciler_AsNeededMedicine_OnlyRecords(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	m := schedule.Medicine{ID: "med-prn", StartDate: date(2024, 1, 1), Active: true}
	w := window(t, date(2024, 1, 1), date(2024, 1, 7))

	require.NoError(t, mem.InsertConsumption(ctx,
		recordAt("c-1", m.ID, slotAt(2024, 1, 2, 22, 15))))

	reconciler := schedule.NewReconciler(mem)
	entries, err := reconciler.Schedule(ctx, m, w)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.True(t, entries[0].Consumed)
}
