/*
service.go - Medicine and consumption orchestration

PURPOSE:
  Wraps the scheduling engine with the write-path rules: medicine
  create/update validation, atomic consumption create/delete with stock
  effects, schedule queries, and the per-user calendar aggregation.

WRITE ATOMICITY:
  A consumption create is (duplicate check, record insert, stock
  decrement). All three run inside one store transaction; the store's
  unique key on (medicine, scheduled minute) backstops concurrent
  duplicate inserts. Consumption delete pairs the record removal with the
  stock increment the same way.

NOTIFICATIONS:
  Low-stock signals are published after the transaction commits, to the
  owner and to each of the owner's supervisors. Publishing is fire and
  forget: a full queue or failed delivery never surfaces to the caller.

CALENDAR:
  The per-user calendar fans out across the user's medicines as
  independent read-only reconciliations, then flattens chronologically.

SEE ALSO:
  - schedule/validator.go: The gates this service invokes
  - stock.go: Stock arithmetic
  - notify/notify.go: Dispatch contract
*/
package medicine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/medtrack-engine/notify"
	"github.com/warp/medtrack-engine/schedule"
)

// Publisher is the slice of the notification dispatcher the service needs.
type Publisher interface {
	Publish(e notify.Event) bool
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store     schedule.TxStore
	directory Directory
	publisher Publisher
	log       zerolog.Logger
	stock     StockLedger
}

func NewService(store schedule.TxStore, directory Directory, publisher Publisher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		publisher: publisher,
		log:       log,
	}
}

// =============================================================================
// MEDICINE OPERATIONS
// =============================================================================

// CreateMedicine validates the configuration contract and persists.
func (s *Service) CreateMedicine(ctx context.Context, m schedule.Medicine) error {
	if err := schedule.ValidateMedicine(m); err != nil {
		return err
	}
	return s.store.SaveMedicine(ctx, m)
}

// UpdateMedicine replaces all fields of an existing medicine after
// revalidation.
func (s *Service) UpdateMedicine(ctx context.Context, m schedule.Medicine) error {
	if _, err := s.store.GetMedicine(ctx, m.ID); err != nil {
		return err
	}
	if err := schedule.ValidateMedicine(m); err != nil {
		return err
	}
	return s.store.SaveMedicine(ctx, m)
}

// DeleteMedicine removes the medicine and its consumption history.
func (s *Service) DeleteMedicine(ctx context.Context, id schedule.MedicineID) error {
	return s.store.DeleteMedicine(ctx, id)
}

func (s *Service) GetMedicine(ctx context.Context, id schedule.MedicineID) (*schedule.Medicine, error) {
	return s.store.GetMedicine(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, userID schedule.UserID) ([]schedule.Medicine, error) {
	return s.store.ListMedicines(ctx, userID)
}

// =============================================================================
// SCHEDULE QUERIES
// =============================================================================

// GetSchedule returns the reconciled schedule of one medicine in the window.
func (s *Service) GetSchedule(ctx context.Context, id schedule.MedicineID, w schedule.Window) ([]schedule.Consumption, error) {
	m, err := s.store.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}
	reconciler := schedule.NewReconciler(s.store)
	return reconciler.Schedule(ctx, *m, w)
}

// Calendar is the merged view of a user's medicines over a window.
type Calendar struct {
	// Active lists medicines whose active range intersects the window,
	// independent of whether they have due slots in it.
	Active []schedule.Medicine

	// Entries is the flattened, chronologically ordered union of every
	// medicine's reconciled schedule.
	Entries []schedule.Consumption
}

// GetCalendar aggregates reconciled schedules across all the user's
// medicines. Each medicine's reconciliation is independent, so they run
// concurrently.
func (s *Service) GetCalendar(ctx context.Context, userID schedule.UserID, w schedule.Window) (*Calendar, error) {
	medicines, err := s.store.ListMedicines(ctx, userID)
	if err != nil {
		return nil, err
	}

	cal := &Calendar{}
	reconciler := schedule.NewReconciler(s.store)

	perMedicine := make([][]schedule.Consumption, len(medicines))
	errs := make([]error, len(medicines))
	var wg sync.WaitGroup

	for i, m := range medicines {
		if !m.Active || !m.ActiveIn(w) {
			continue
		}
		cal.Active = append(cal.Active, m)

		wg.Add(1)
		go func(i int, m schedule.Medicine) {
			defer wg.Done()
			perMedicine[i], errs[i] = reconciler.Schedule(ctx, m, w)
		}(i, m)
	}
	wg.Wait()

	for i := range medicines {
		if errs[i] != nil {
			return nil, errs[i]
		}
		cal.Entries = append(cal.Entries, perMedicine[i]...)
	}

	sort.SliceStable(cal.Entries, func(i, j int) bool {
		return cal.Entries[i].ScheduledAt.Before(cal.Entries[j].ScheduledAt)
	})
	return cal, nil
}

// =============================================================================
// CONSUMPTION OPERATIONS
// =============================================================================

// CreateConsumption records a dose as taken. scheduledAt and realAt are
// truncated to the minute. On success the persisted record is returned;
// a low-stock crossing additionally emits notification events.
func (s *Service) CreateConsumption(ctx context.Context, id schedule.MedicineID, scheduledAt, realAt time.Time) (*schedule.Consumption, error) {
	m, err := s.store.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}

	slot := schedule.SlotTimeOf(scheduledAt)

	validator := schedule.NewValidator(s.store)
	if err := validator.ValidateConsumption(ctx, *m, slot); err != nil {
		return nil, err
	}

	record := schedule.Consumption{
		ID:          uuid.NewString(),
		MedicineID:  m.ID,
		ScheduledAt: slot,
		RealAt:      schedule.SlotTimeOf(realAt).Time,
		Consumed:    true,
	}

	// Stock is re-read inside the transaction: the snapshot loaded for
	// validation can be stale under concurrent creates.
	var newStock int
	var tracked, low bool
	err = s.store.WithTx(ctx, func(tx schedule.Store) error {
		if err := tx.InsertConsumption(ctx, record); err != nil {
			return err
		}
		fresh, err := tx.GetMedicine(ctx, m.ID)
		if err != nil {
			return err
		}
		newStock, tracked, low = s.stock.Consume(*fresh)
		if tracked {
			return tx.UpdateStock(ctx, m.ID, newStock)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if low {
		s.emitLowStock(ctx, *m, newStock)
	}
	return &record, nil
}

// DeleteConsumption retracts a recorded dose and reverses its stock effect.
func (s *Service) DeleteConsumption(ctx context.Context, id schedule.MedicineID, scheduledAt time.Time) error {
	m, err := s.store.GetMedicine(ctx, id)
	if err != nil {
		return err
	}

	slot := schedule.SlotTimeOf(scheduledAt)

	return s.store.WithTx(ctx, func(tx schedule.Store) error {
		if err := tx.DeleteConsumption(ctx, m.ID, slot); err != nil {
			return err
		}
		fresh, err := tx.GetMedicine(ctx, m.ID)
		if err != nil {
			return err
		}
		if newStock, tracked := s.stock.Restock(*fresh); tracked {
			return tx.UpdateStock(ctx, m.ID, newStock)
		}
		return nil
	})
}

// =============================================================================
// LOW-STOCK SIGNALLING
// =============================================================================

// EmitLowStock publishes low-stock events for the medicine to its owner
// and the owner's supervisors. Exported for the background stock sweep.
func (s *Service) EmitLowStock(ctx context.Context, m schedule.Medicine, stock int) {
	s.emitLowStock(ctx, m, stock)
}

func (s *Service) emitLowStock(ctx context.Context, m schedule.Medicine, stock int) {
	owner, err := s.directory.GetUser(ctx, m.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", string(m.UserID)).Msg("low stock: owner lookup failed")
	}

	ownerName := string(m.UserID)
	if owner != nil {
		ownerName = owner.Name
	}

	body := fmt.Sprintf("%s is running low: %d left", m.Name, stock)
	meta := map[string]string{
		"medicine_id": string(m.ID),
		"medicine":    m.Name,
		"stock":       fmt.Sprintf("%d", stock),
	}

	s.publisher.Publish(notify.NewEvent(notify.KindLowStock, string(m.UserID), "Medicine running low", body, meta))

	supervisors, err := s.directory.Supervisors(ctx, m.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", string(m.UserID)).Msg("low stock: supervisor lookup failed")
		return
	}
	for _, sup := range supervisors {
		// Supervisors watch several users; the owner's name disambiguates.
		supMeta := map[string]string{
			"medicine_id": string(m.ID),
			"medicine":    m.Name,
			"stock":       fmt.Sprintf("%d", stock),
			"owner":       ownerName,
		}
		supBody := fmt.Sprintf("%s's %s is running low: %d left", ownerName, m.Name, stock)
		s.publisher.Publish(notify.NewEvent(notify.KindLowStock, string(sup.ID), "Supervised medicine running low", supBody, supMeta))
	}
}
