/*
store.go - Persistence interfaces for medicines and consumption records

PURPOSE:
  Defines the interface between the engine and the database. The engine
  consumes an abstract record store; implementations use SQLite or
  in-memory storage.

KEY INTERFACES:
  MedicineStore:    Medicine persistence (save, get, list, delete)
  ConsumptionStore: Consumption record persistence
  Store:            Both together
  TxStore:          Atomic multi-write operations

ATOMICITY:
  Consumption create is three effects - duplicate check, record insert,
  stock decrement - that must commit together or not at all. TxStore's
  WithTx provides that unit; implementations additionally carry a unique
  index on (medicine_id, scheduled_at) so concurrent duplicate inserts
  are rejected at the database level.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - schedule/store: In-memory for testing

SEE ALSO:
  - reconciler.go: Reads consumption records through ConsumptionStore
  - medicine/service.go: Drives writes through TxStore
*/
package schedule

import "context"

// =============================================================================
// MEDICINE STORE
// =============================================================================

type MedicineStore interface {
	// SaveMedicine inserts or fully replaces a medicine.
	SaveMedicine(ctx context.Context, m Medicine) error

	// GetMedicine returns the medicine or ErrMedicineNotFound.
	GetMedicine(ctx context.Context, id MedicineID) (*Medicine, error)

	// ListMedicines returns all medicines owned by the user.
	ListMedicines(ctx context.Context, userID UserID) ([]Medicine, error)

	// DeleteMedicine removes the medicine and cascades to its consumption
	// records. Stock effects of discarded history are NOT re-applied.
	DeleteMedicine(ctx context.Context, id MedicineID) error

	// UpdateStock sets the medicine's current stock counter.
	UpdateStock(ctx context.Context, id MedicineID, stock int) error
}

// =============================================================================
// CONSUMPTION STORE
// =============================================================================

type ConsumptionStore interface {
	// InsertConsumption persists a record. Returns ErrConsumptionExists if
	// the (medicine, scheduled minute) pair is already recorded.
	InsertConsumption(ctx context.Context, c Consumption) error

	// DeleteConsumption removes a record by its natural key.
	// Returns ErrConsumptionNotFound if absent.
	DeleteConsumption(ctx context.Context, medicineID MedicineID, scheduledAt SlotTime) error

	// LoadConsumptions returns the medicine's records whose scheduled
	// date falls inside the window, ordered by scheduled time.
	LoadConsumptions(ctx context.Context, medicineID MedicineID, w Window) ([]Consumption, error)

	// HasConsumption checks existence of the exact (medicine, minute) pair.
	HasConsumption(ctx context.Context, medicineID MedicineID, scheduledAt SlotTime) (bool, error)
}

// =============================================================================
// COMBINED / TRANSACTIONAL STORE
// =============================================================================

type Store interface {
	MedicineStore
	ConsumptionStore
}

// TxStore wraps Store with transaction support. WithTx executes fn within
// a transaction: error rolls back, nil commits.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
