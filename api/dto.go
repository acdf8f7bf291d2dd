/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATE FORMATS:
  Dates are "2006-01-02", schedule slots are "2006-01-02 15:04". Dose
  hours are "HH:MM" strings, validated by the domain layer.

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs. DTOs
  are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/types.go: Domain model these map to
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/medtrack-engine/schedule"
)

// =============================================================================
// MEDICINE TYPES
// =============================================================================

// MedicineRequest is the create/update body for a medicine.
type MedicineRequest struct {
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date,omitempty"`
	Active       *bool    `json:"active,omitempty"`
	Interval     *int     `json:"interval,omitempty"`
	Days         []int    `json:"days,omitempty"`
	Hours        []string `json:"hours,omitempty"`
	Stock        *int     `json:"stock,omitempty"`
	StockWarning *int     `json:"stock_warning,omitempty"`
	Presentation string   `json:"presentation,omitempty"`
	DoseUnit     string   `json:"dose_unit,omitempty"`
	DoseAmount   string   `json:"dose_amount,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// MedicineDTO represents a medicine in API responses.
type MedicineDTO struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	StartDate    string   `json:"start_date"`
	EndDate      *string  `json:"end_date,omitempty"`
	Active       bool     `json:"active"`
	Interval     *int     `json:"interval,omitempty"`
	Days         []int    `json:"days,omitempty"`
	Hours        []string `json:"hours,omitempty"`
	Stock        *int     `json:"stock,omitempty"`
	StockWarning *int     `json:"stock_warning,omitempty"`
	Presentation string   `json:"presentation,omitempty"`
	DoseUnit     string   `json:"dose_unit,omitempty"`
	DoseAmount   string   `json:"dose_amount,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	AsNeeded     bool     `json:"as_needed"`
}

// toMedicine converts the request body to the domain model. Date parsing
// errors surface as client errors; rule-shape errors are left to the
// domain validator.
func (r MedicineRequest) toMedicine(id schedule.MedicineID) (schedule.Medicine, error) {
	start, err := schedule.ParseDate(r.StartDate)
	if err != nil {
		return schedule.Medicine{}, err
	}

	m := schedule.Medicine{
		ID:           id,
		UserID:       schedule.UserID(r.UserID),
		Name:         r.Name,
		StartDate:    start,
		Active:       true,
		Interval:     r.Interval,
		Hours:        r.Hours,
		Stock:        r.Stock,
		StockWarning: r.StockWarning,
		Presentation: r.Presentation,
		DoseUnit:     r.DoseUnit,
		Instructions: r.Instructions,
	}
	if r.Active != nil {
		m.Active = *r.Active
	}
	if r.EndDate != nil {
		end, err := schedule.ParseDate(*r.EndDate)
		if err != nil {
			return schedule.Medicine{}, err
		}
		m.EndDate = &end
	}
	for _, d := range r.Days {
		m.Days = append(m.Days, schedule.Weekday(d))
	}
	if r.DoseAmount != "" {
		amount, err := decimal.NewFromString(r.DoseAmount)
		if err != nil {
			return schedule.Medicine{}, err
		}
		m.DoseAmount = amount
	}
	return m, nil
}

func toMedicineDTO(m schedule.Medicine) MedicineDTO {
	dto := MedicineDTO{
		ID:           string(m.ID),
		UserID:       string(m.UserID),
		Name:         m.Name,
		StartDate:    m.StartDate.String(),
		Active:       m.Active,
		Interval:     m.Interval,
		Hours:        m.Hours,
		Stock:        m.Stock,
		StockWarning: m.StockWarning,
		Presentation: m.Presentation,
		DoseUnit:     m.DoseUnit,
		Instructions: m.Instructions,
		AsNeeded:     m.AsNeeded(),
	}
	if m.EndDate != nil {
		s := m.EndDate.String()
		dto.EndDate = &s
	}
	for _, d := range m.Days {
		dto.Days = append(dto.Days, int(d))
	}
	if !m.DoseAmount.IsZero() {
		dto.DoseAmount = m.DoseAmount.String()
	}
	return dto
}

// =============================================================================
// CONSUMPTION TYPES
// =============================================================================

// ConsumptionRequest is the body for recording a dose.
type ConsumptionRequest struct {
	// ScheduledAt is the slot being fulfilled, "2006-01-02 15:04".
	ScheduledAt string `json:"scheduled_at"`
	// RealAt is when the dose was actually taken. Defaults to now.
	RealAt string `json:"real_at,omitempty"`
}

// ConsumptionDTO represents one schedule entry: either a projected slot
// (consumed=false, no id) or a recorded consumption.
type ConsumptionDTO struct {
	ID          string `json:"id,omitempty"`
	MedicineID  string `json:"medicine_id"`
	ScheduledAt string `json:"scheduled_at"`
	RealAt      string `json:"real_at,omitempty"`
	Consumed    bool   `json:"consumed"`
}

func toConsumptionDTO(c schedule.Consumption) ConsumptionDTO {
	dto := ConsumptionDTO{
		ID:          c.ID,
		MedicineID:  string(c.MedicineID),
		ScheduledAt: c.ScheduledAt.String(),
		Consumed:    c.Consumed,
	}
	if c.Consumed {
		dto.RealAt = schedule.SlotTimeOf(c.RealAt).String()
	}
	return dto
}

func toConsumptionDTOs(entries []schedule.Consumption) []ConsumptionDTO {
	dtos := make([]ConsumptionDTO, len(entries))
	for i, c := range entries {
		dtos[i] = toConsumptionDTO(c)
	}
	return dtos
}

// =============================================================================
// CALENDAR TYPES
// =============================================================================

// CalendarDTO is the merged per-user view over a window.
type CalendarDTO struct {
	From    string           `json:"from"`
	To      string           `json:"to"`
	Active  []MedicineDTO    `json:"active_medicines"`
	Entries []ConsumptionDTO `json:"entries"`
}

// =============================================================================
// USER TYPES
// =============================================================================

// UserRequest is the create/update body for a user record.
type UserRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SupervisorRequest links a supervisor to a user.
type SupervisorRequest struct {
	SupervisorID string `json:"supervisor_id"`
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
