package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/medtrack-engine/schedule"
	"github.com/warp/medtrack-engine/schedule/store"
)

func testDate(y, m, d int) schedule.Date {
	return schedule.NewDate(y, time.Month(m), d)
}

func testSlot(y, m, d, hh, mm int) schedule.SlotTime {
	return schedule.ClockTime{Hour: hh, Minute: mm}.OnDate(testDate(y, m, d))
}

func testRecord(id string, medID schedule.MedicineID, at schedule.SlotTime) schedule.Consumption {
	return schedule.Consumption{
		ID: id, MedicineID: medID, ScheduledAt: at, RealAt: at.Time, Consumed: true,
	}
}

func TestMemory_DuplicateSlot_Rejected(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	at := testSlot(2024, 1, 4, 8, 0)

	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-1", "med-1", at)))

	err := mem.InsertConsumption(ctx, testRecord("c-2", "med-1", at))
	assert.ErrorIs(t, err, schedule.ErrConsumptionExists)

	var dupErr *schedule.DuplicateConsumptionError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, at, dupErr.ScheduledAt)
}

func TestMemory_SameSlotDifferentMedicines_OK(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	at := testSlot(2024, 1, 4, 8, 0)

	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-1", "med-1", at)))
	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-2", "med-2", at)))
}

func TestMemory_DeleteMissingConsumption_NotFound(t *testing.T) {
	mem := store.NewMemory()
	err := mem.DeleteConsumption(context.Background(), "med-1", testSlot(2024, 1, 4, 8, 0))
	assert.ErrorIs(t, err, schedule.ErrConsumptionNotFound)
}

func TestMemory_DeleteMedicine_CascadesHistory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	med := schedule.Medicine{ID: "med-1", UserID: "user-1", StartDate: testDate(2024, 1, 1)}
	require.NoError(t, mem.SaveMedicine(ctx, med))
	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-1", med.ID, testSlot(2024, 1, 4, 8, 0))))

	require.NoError(t, mem.DeleteMedicine(ctx, med.ID))

	w, _ := schedule.NewWindow(testDate(2024, 1, 1), testDate(2024, 12, 31))
	records, err := mem.LoadConsumptions(ctx, med.ID, w)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemory_LoadConsumptions_WindowFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	// Inserted out of order, one outside the window.
	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-3", "med-1", testSlot(2024, 1, 5, 8, 0))))
	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-1", "med-1", testSlot(2024, 1, 2, 8, 0))))
	require.NoError(t, mem.InsertConsumption(ctx, testRecord("c-out", "med-1", testSlot(2024, 2, 1, 8, 0))))

	w, _ := schedule.NewWindow(testDate(2024, 1, 1), testDate(2024, 1, 31))
	records, err := mem.LoadConsumptions(ctx, "med-1", w)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "c-1", records[0].ID)
	assert.Equal(t, "c-3", records[1].ID)
}

func TestMemory_UpdateStock(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	stock := 10
	med := schedule.Medicine{ID: "med-1", UserID: "user-1", StartDate: testDate(2024, 1, 1), Stock: &stock}
	require.NoError(t, mem.SaveMedicine(ctx, med))

	require.NoError(t, mem.UpdateStock(ctx, med.ID, 7))

	got, err := mem.GetMedicine(ctx, med.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Stock)
	assert.Equal(t, 7, *got.Stock)

	assert.ErrorIs(t, mem.UpdateStock(ctx, "missing", 1), schedule.ErrMedicineNotFound)
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	// GIVEN: A transaction inserting a record and updating stock
	// WHEN: The function returns an error after the writes
	// THEN: Neither write is visible

	ctx := context.Background()
	mem := store.NewTxMemory()

	stock := 5
	med := schedule.Medicine{ID: "med-1", UserID: "user-1", StartDate: testDate(2024, 1, 1), Stock: &stock}
	require.NoError(t, mem.SaveMedicine(ctx, med))

	boom := errors.New("boom")
	err := mem.WithTx(ctx, func(tx schedule.Store) error {
		if err := tx.InsertConsumption(ctx, testRecord("c-1", med.ID, testSlot(2024, 1, 4, 8, 0))); err != nil {
			return err
		}
		if err := tx.UpdateStock(ctx, med.ID, 4); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := mem.GetMedicine(ctx, med.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *got.Stock)

	has, err := mem.HasConsumption(ctx, med.ID, testSlot(2024, 1, 4, 8, 0))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTxMemory_CommitOnNil(t *testing.T) {
	ctx := context.Background()
	mem := store.NewTxMemory()

	med := schedule.Medicine{ID: "med-1", UserID: "user-1", StartDate: testDate(2024, 1, 1)}
	require.NoError(t, mem.SaveMedicine(ctx, med))

	err := mem.WithTx(ctx, func(tx schedule.Store) error {
		return tx.InsertConsumption(ctx, testRecord("c-1", med.ID, testSlot(2024, 1, 4, 8, 0)))
	})
	require.NoError(t, err)

	has, err := mem.HasConsumption(ctx, med.ID, testSlot(2024, 1, 4, 8, 0))
	require.NoError(t, err)
	assert.True(t, has)
}
