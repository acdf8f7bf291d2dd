// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/medtrack-engine/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	medicines    map[schedule.MedicineID]schedule.Medicine
	consumptions map[schedule.MedicineID][]schedule.Consumption
}

func NewMemory() *Memory {
	return &Memory{
		medicines:    make(map[schedule.MedicineID]schedule.Medicine),
		consumptions: make(map[schedule.MedicineID][]schedule.Consumption),
	}
}

// =============================================================================
// MEDICINE STORE
// =============================================================================

func (m *Memory) SaveMedicine(_ context.Context, med schedule.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.medicines[med.ID] = med
	return nil
}

func (m *Memory) GetMedicine(_ context.Context, id schedule.MedicineID) (*schedule.Medicine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	med, ok := m.medicines[id]
	if !ok {
		return nil, schedule.ErrMedicineNotFound
	}
	return &med, nil
}

func (m *Memory) ListMedicines(_ context.Context, userID schedule.UserID) ([]schedule.Medicine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Medicine
	for _, med := range m.medicines {
		if med.UserID == userID {
			result = append(result, med)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteMedicine(_ context.Context, id schedule.MedicineID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.medicines[id]; !ok {
		return schedule.ErrMedicineNotFound
	}
	delete(m.medicines, id)
	delete(m.consumptions, id) // cascade
	return nil
}

func (m *Memory) UpdateStock(_ context.Context, id schedule.MedicineID, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.medicines[id]
	if !ok {
		return schedule.ErrMedicineNotFound
	}
	med.Stock = &stock
	m.medicines[id] = med
	return nil
}

// =============================================================================
// CONSUMPTION STORE
// =============================================================================

func (m *Memory) InsertConsumption(_ context.Context, c schedule.Consumption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(c)
}

func (m *Memory) insertLocked(c schedule.Consumption) error {
	records := m.consumptions[c.MedicineID]
	for _, existing := range records {
		if existing.ScheduledAt.Equal(c.ScheduledAt) {
			return &schedule.DuplicateConsumptionError{MedicineID: c.MedicineID, ScheduledAt: c.ScheduledAt}
		}
	}

	// Binary search for insertion point to keep records ordered.
	i := sort.Search(len(records), func(i int) bool {
		return records[i].ScheduledAt.After(c.ScheduledAt)
	})
	records = append(records, schedule.Consumption{})
	copy(records[i+1:], records[i:])
	records[i] = c
	m.consumptions[c.MedicineID] = records
	return nil
}

func (m *Memory) DeleteConsumption(_ context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(medicineID, scheduledAt)
}

func (m *Memory) deleteLocked(medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) error {
	records := m.consumptions[medicineID]
	for i, c := range records {
		if c.ScheduledAt.Equal(scheduledAt) {
			m.consumptions[medicineID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return schedule.ErrConsumptionNotFound
}

func (m *Memory) LoadConsumptions(_ context.Context, medicineID schedule.MedicineID, w schedule.Window) ([]schedule.Consumption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Consumption
	for _, c := range m.consumptions[medicineID] {
		if w.ContainsSlot(c.ScheduledAt) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *Memory) HasConsumption(_ context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.consumptions[medicineID] {
		if c.ScheduledAt.Equal(scheduledAt) {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot + rollback on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(_ context.Context, fn func(schedule.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	medicines    map[schedule.MedicineID]schedule.Medicine
	consumptions map[schedule.MedicineID][]schedule.Consumption
}

func (tm *TxMemory) snapshot() memorySnapshot {
	meds := make(map[schedule.MedicineID]schedule.Medicine, len(tm.medicines))
	for k, v := range tm.medicines {
		meds[k] = v
	}
	cons := make(map[schedule.MedicineID][]schedule.Consumption, len(tm.consumptions))
	for k, v := range tm.consumptions {
		cons[k] = append([]schedule.Consumption{}, v...)
	}
	return memorySnapshot{medicines: meds, consumptions: cons}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.medicines = s.medicines
	tm.consumptions = s.consumptions
}

// txMemoryView operates on the parent without re-locking; the parent's
// mutex is held for the duration of WithTx.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) SaveMedicine(_ context.Context, med schedule.Medicine) error {
	tv.parent.medicines[med.ID] = med
	return nil
}

func (tv *txMemoryView) GetMedicine(_ context.Context, id schedule.MedicineID) (*schedule.Medicine, error) {
	med, ok := tv.parent.medicines[id]
	if !ok {
		return nil, schedule.ErrMedicineNotFound
	}
	return &med, nil
}

func (tv *txMemoryView) ListMedicines(_ context.Context, userID schedule.UserID) ([]schedule.Medicine, error) {
	var result []schedule.Medicine
	for _, med := range tv.parent.medicines {
		if med.UserID == userID {
			result = append(result, med)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txMemoryView) DeleteMedicine(_ context.Context, id schedule.MedicineID) error {
	if _, ok := tv.parent.medicines[id]; !ok {
		return schedule.ErrMedicineNotFound
	}
	delete(tv.parent.medicines, id)
	delete(tv.parent.consumptions, id)
	return nil
}

func (tv *txMemoryView) UpdateStock(_ context.Context, id schedule.MedicineID, stock int) error {
	med, ok := tv.parent.medicines[id]
	if !ok {
		return schedule.ErrMedicineNotFound
	}
	med.Stock = &stock
	tv.parent.medicines[id] = med
	return nil
}

func (tv *txMemoryView) InsertConsumption(_ context.Context, c schedule.Consumption) error {
	return tv.parent.insertLocked(c)
}

func (tv *txMemoryView) DeleteConsumption(_ context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) error {
	return tv.parent.deleteLocked(medicineID, scheduledAt)
}

func (tv *txMemoryView) LoadConsumptions(_ context.Context, medicineID schedule.MedicineID, w schedule.Window) ([]schedule.Consumption, error) {
	var result []schedule.Consumption
	for _, c := range tv.parent.consumptions[medicineID] {
		if w.ContainsSlot(c.ScheduledAt) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (tv *txMemoryView) HasConsumption(_ context.Context, medicineID schedule.MedicineID, scheduledAt schedule.SlotTime) (bool, error) {
	for _, c := range tv.parent.consumptions[medicineID] {
		if c.ScheduledAt.Equal(scheduledAt) {
			return true, nil
		}
	}
	return false, nil
}
