/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All engine errors in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; the HTTP layer maps the
  categories onto status codes.

ERROR CATEGORIES:
  1. Configuration errors - invalid medicine rule, raised at create/update
  2. Scheduling violations - consumption does not match the rule
  3. Conflict errors - duplicate create, delete of a missing record
  4. Not-found errors - referenced medicine is absent

All errors here are synchronous, recoverable-by-the-caller failures.
Nothing in the engine retries.

SEE ALSO:
  - validator.go: Raises configuration and scheduling errors
  - store.go: Raises conflict and not-found errors
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIntervalAndDays is returned when a medicine sets both frequency
	// modes. The two are mutually exclusive.
	ErrIntervalAndDays = errors.New("interval and days are mutually exclusive")

	// ErrNonPositiveInterval is returned when a medicine's interval is
	// zero or negative. The stride must be at least one day.
	ErrNonPositiveInterval = errors.New("interval must be at least one day")

	// ErrInvalidWeekday is returned when a medicine selects a weekday
	// outside ISO 1..7.
	ErrInvalidWeekday = errors.New("weekday out of range")

	// ErrNoHourSelected is returned when a medicine has a frequency mode
	// but no dosing hours.
	ErrNoHourSelected = errors.New("no dosing hour selected")

	// ErrIncorrectHourFormat is returned when a dosing hour does not parse
	// as 24-hour HH:MM.
	ErrIncorrectHourFormat = errors.New("incorrect hour format")

	// ErrInvalidDate is returned when a proposed consumption falls on a
	// calendar date the medicine's rule never produces.
	ErrInvalidDate = errors.New("date not in medicine schedule")

	// ErrInvalidHour is returned when a proposed consumption's time-of-day
	// is not one of the medicine's dosing hours.
	ErrInvalidHour = errors.New("hour not in medicine schedule")

	// ErrConsumptionExists is returned when a consumption for the same
	// (medicine, scheduled minute) is already recorded.
	ErrConsumptionExists = errors.New("consumption already exists")

	// ErrConsumptionNotFound is returned when deleting a consumption that
	// was never recorded.
	ErrConsumptionNotFound = errors.New("consumption does not exist")

	// ErrMedicineNotFound is returned when the referenced medicine is
	// absent. Ownership checks live with the caller; an absent medicine
	// is a first-class failure here, never a crash.
	ErrMedicineNotFound = errors.New("medicine not found")

	// ErrInvalidWindow is returned for a query window with end before start.
	ErrInvalidWindow = errors.New("invalid window: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// HourFormatError reports which configured hour failed to parse.
type HourFormatError struct {
	Hour string
}

func (e *HourFormatError) Error() string {
	return fmt.Sprintf("incorrect hour format: %q (want HH:MM)", e.Hour)
}

func (e *HourFormatError) Unwrap() error { return ErrIncorrectHourFormat }

// OffScheduleError reports a consumption that does not match the rule.
type OffScheduleError struct {
	MedicineID MedicineID
	At         SlotTime
	Reason     error // ErrInvalidDate or ErrInvalidHour
}

func (e *OffScheduleError) Error() string {
	return fmt.Sprintf("consumption %s for medicine %s: %v", e.At, e.MedicineID, e.Reason)
}

func (e *OffScheduleError) Unwrap() error { return e.Reason }

// DuplicateConsumptionError reports a duplicate (medicine, minute) pair.
type DuplicateConsumptionError struct {
	MedicineID  MedicineID
	ScheduledAt SlotTime
}

func (e *DuplicateConsumptionError) Error() string {
	return fmt.Sprintf("consumption already recorded: medicine %s at %s", e.MedicineID, e.ScheduledAt)
}

func (e *DuplicateConsumptionError) Unwrap() error { return ErrConsumptionExists }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIntervalAndDays) ||
		errors.Is(err, ErrNonPositiveInterval) ||
		errors.Is(err, ErrInvalidWeekday) ||
		errors.Is(err, ErrNoHourSelected) ||
		errors.Is(err, ErrIncorrectHourFormat) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidHour) ||
		errors.Is(err, ErrInvalidWindow)
}

// IsConflict returns true for duplicate-create and delete-missing failures.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConsumptionExists) ||
		errors.Is(err, ErrConsumptionNotFound)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMedicineNotFound)
}
