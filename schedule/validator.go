/*
validator.go - Medicine and consumption validation

PURPOSE:
  Two gates with different lifecycles:

  ValidateMedicine runs at medicine create/update, never at consumption
  time. It enforces the configuration contract: interval XOR days, a
  positive interval stride, ISO weekday values, and hours present and
  well-formed whenever a frequency mode is set.

  ValidateConsumption runs before a consumption record is persisted.
  As-needed medicines bypass it entirely; for rule-governed medicines the
  proposed slot must land on a due date and a configured hour, and must
  not already be recorded.

CHECK ORDER (consumption):
  1. As-needed -> pass unconditionally
  2. Calendar date due per the rule       -> else InvalidDate
  3. Time-of-day in the medicine's hours  -> else InvalidHour
  4. Not already recorded                 -> else ConsumptionAlreadyExists

The validator has no side effects; the caller persists and adjusts stock
afterwards, inside one store transaction.

SEE ALSO:
  - rule.go: DueOn membership check
  - errors.go: The error taxonomy raised here
*/
package schedule

import "context"

// =============================================================================
// MEDICINE-LEVEL VALIDATION (create/update boundary)
// =============================================================================

// ValidateMedicine enforces the medicine configuration contract.
func ValidateMedicine(m Medicine) error {
	if m.Interval != nil && len(m.Days) > 0 {
		return ErrIntervalAndDays
	}

	// The engine assumes these ranges downstream; DueOn divides by the
	// interval stride.
	if m.Interval != nil && *m.Interval < 1 {
		return ErrNonPositiveInterval
	}
	for _, d := range m.Days {
		if d < Monday || d > Sunday {
			return ErrInvalidWeekday
		}
	}

	hasRule := m.Interval != nil || len(m.Days) > 0
	if hasRule && len(m.Hours) == 0 {
		return ErrNoHourSelected
	}

	for _, h := range m.Hours {
		if _, err := ParseClockTime(h); err != nil {
			return err // *HourFormatError, unwraps to ErrIncorrectHourFormat
		}
	}
	return nil
}

// =============================================================================
// CONSUMPTION-LEVEL VALIDATION (pre-persist gate)
// =============================================================================

// Validator checks proposed consumption records against a medicine's rule
// and the already-recorded history.
type Validator struct {
	Consumptions ConsumptionStore
}

func NewValidator(store ConsumptionStore) *Validator {
	return &Validator{Consumptions: store}
}

// ValidateConsumption gates a proposed record. scheduledAt must already be
// minute-truncated (SlotTimeOf does that for callers).
func (v *Validator) ValidateConsumption(ctx context.Context, m Medicine, scheduledAt SlotTime) error {
	if m.AsNeeded() {
		// Unconstrained: any timestamp is acceptable. Duplicates are still
		// rejected by the store's unique key at insert time.
		return nil
	}

	if !DueOn(m.Recurrence(), scheduledAt.Date()) {
		return &OffScheduleError{MedicineID: m.ID, At: scheduledAt, Reason: ErrInvalidDate}
	}

	if !v.hourConfigured(m, scheduledAt.Clock()) {
		return &OffScheduleError{MedicineID: m.ID, At: scheduledAt, Reason: ErrInvalidHour}
	}

	exists, err := v.Consumptions.HasConsumption(ctx, m.ID, scheduledAt)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateConsumptionError{MedicineID: m.ID, ScheduledAt: scheduledAt}
	}
	return nil
}

func (v *Validator) hourConfigured(m Medicine, clock ClockTime) bool {
	for _, h := range m.Hours {
		ct, err := ParseClockTime(h)
		if err != nil {
			continue // hour format is enforced at the medicine boundary
		}
		if ct == clock {
			return true
		}
	}
	return false
}
