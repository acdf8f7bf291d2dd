/*
handlers.go - HTTP API handlers for the medication tracking engine

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Medicines:
    GET    /api/medicines?user_id=         List a user's medicines
    POST   /api/medicines                  Create medicine
    GET    /api/medicines/{id}             Get medicine details
    PUT    /api/medicines/{id}             Update medicine
    DELETE /api/medicines/{id}             Delete medicine and history
    GET    /api/medicines/{id}/schedule    Reconciled schedule over a window
    POST   /api/medicines/{id}/consumptions   Record a dose
    DELETE /api/medicines/{id}/consumptions   Retract a recorded dose

  Users:
    POST   /api/users                      Register a user record
    POST   /api/users/{id}/supervisors     Link a supervisor
    GET    /api/users/{id}/calendar        Merged calendar over a window

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (service, reconciler, validator)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate consumption)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - medicine/service.go: Domain logic behind these handlers
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/medtrack-engine/medicine"
	"github.com/warp/medtrack-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// UserStore is the write side of the user directory.
type UserStore interface {
	SaveUser(ctx context.Context, u medicine.User) error
	AddSupervisor(ctx context.Context, userID, supervisorID schedule.UserID) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *medicine.Service
	Users   UserStore
	Log     zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *medicine.Service, users UserStore, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Users: users, Log: log}
}

// =============================================================================
// MEDICINE HANDLERS
// =============================================================================

// ListMedicines returns all medicines for a user.
// GET /api/medicines?user_id=u1
func (h *Handler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	medicines, err := h.Service.ListMedicines(r.Context(), schedule.UserID(userID))
	if err != nil {
		h.writeDomainError(w, "Failed to list medicines", err)
		return
	}

	dtos := make([]MedicineDTO, len(medicines))
	for i, m := range medicines {
		dtos[i] = toMedicineDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMedicine creates a new medicine.
// POST /api/medicines
func (h *Handler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	var req MedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "user_id and name are required", nil)
		return
	}

	m, err := req.toMedicine(schedule.MedicineID(uuid.NewString()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid medicine", err)
		return
	}

	if err := h.Service.CreateMedicine(r.Context(), m); err != nil {
		h.writeDomainError(w, "Failed to create medicine", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMedicineDTO(m))
}

// GetMedicine returns a single medicine.
// GET /api/medicines/{id}
func (h *Handler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	id := schedule.MedicineID(chi.URLParam(r, "id"))

	m, err := h.Service.GetMedicine(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get medicine", err)
		return
	}
	writeJSON(w, http.StatusOK, toMedicineDTO(*m))
}

// UpdateMedicine replaces an existing medicine's configuration.
// PUT /api/medicines/{id}
func (h *Handler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	id := schedule.MedicineID(chi.URLParam(r, "id"))

	var req MedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "user_id and name are required", nil)
		return
	}

	m, err := req.toMedicine(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid medicine", err)
		return
	}

	if err := h.Service.UpdateMedicine(r.Context(), m); err != nil {
		h.writeDomainError(w, "Failed to update medicine", err)
		return
	}
	writeJSON(w, http.StatusOK, toMedicineDTO(m))
}

// DeleteMedicine removes a medicine and its consumption history.
// DELETE /api/medicines/{id}
func (h *Handler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	id := schedule.MedicineID(chi.URLParam(r, "id"))

	if err := h.Service.DeleteMedicine(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete medicine", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule returns the reconciled schedule for one medicine.
// GET /api/medicines/{id}/schedule?from=2024-01-01&to=2024-01-07
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := schedule.MedicineID(chi.URLParam(r, "id"))

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window", err)
		return
	}

	entries, err := h.Service.GetSchedule(r.Context(), id, window)
	if err != nil {
		h.writeDomainError(w, "Failed to build schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toConsumptionDTOs(entries))
}

// =============================================================================
// CONSUMPTION HANDLERS
// =============================================================================

// CreateConsumption records a dose as taken.
// POST /api/medicines/{id}/consumptions
func (h *Handler) CreateConsumption(w http.ResponseWriter, r *http.Request) {
	id := schedule.MedicineID(chi.URLParam(r, "id"))

	var req ConsumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scheduledAt, err := schedule.ParseSlotTime(req.ScheduledAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled_at", err)
		return
	}

	realAt := time.Now().UTC()
	if req.RealAt != "" {
		slot, err := schedule.ParseSlotTime(req.RealAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid real_at", err)
			return
		}
		realAt = slot.Time
	}

	record, err := h.Service.CreateConsumption(r.Context(), id, scheduledAt.Time, realAt)
	if err != nil {
		h.writeDomainError(w, "Failed to record consumption", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConsumptionDTO(*record))
}

// DeleteConsumption retracts a recorded dose.
// DELETE /api/medicines/{id}/consumptions?scheduled_at=2024-01-04+08:00
func (h *Handler) DeleteConsumption(w http.ResponseWriter, r *http.Request) {
	id := schedule.MedicineID(chi.URLParam(r, "id"))

	scheduledAt, err := schedule.ParseSlotTime(r.URL.Query().Get("scheduled_at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled_at", err)
		return
	}

	if err := h.Service.DeleteConsumption(r.Context(), id, scheduledAt.Time); err != nil {
		h.writeDomainError(w, "Failed to delete consumption", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser registers or updates a user record.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	u := medicine.User{ID: schedule.UserID(req.ID), Name: req.Name}
	if err := h.Users.SaveUser(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// AddSupervisor links a supervisor to a user.
// POST /api/users/{id}/supervisors
func (h *Handler) AddSupervisor(w http.ResponseWriter, r *http.Request) {
	userID := schedule.UserID(chi.URLParam(r, "id"))

	var req SupervisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SupervisorID == "" {
		writeError(w, http.StatusBadRequest, "supervisor_id is required", nil)
		return
	}

	if err := h.Users.AddSupervisor(r.Context(), userID, schedule.UserID(req.SupervisorID)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add supervisor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCalendar returns the merged schedule across a user's medicines.
// GET /api/users/{id}/calendar?from=2024-01-01&to=2024-01-07
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	userID := schedule.UserID(chi.URLParam(r, "id"))

	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window", err)
		return
	}

	cal, err := h.Service.GetCalendar(r.Context(), userID, window)
	if err != nil {
		h.writeDomainError(w, "Failed to build calendar", err)
		return
	}

	dto := CalendarDTO{
		From:    window.Start.String(),
		To:      window.End.String(),
		Active:  make([]MedicineDTO, len(cal.Active)),
		Entries: toConsumptionDTOs(cal.Entries),
	}
	for i, m := range cal.Active {
		dto.Active[i] = toMedicineDTO(m)
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseWindow reads the from/to query params. Defaults to the week
// starting today.
func parseWindow(r *http.Request) (schedule.Window, error) {
	from := schedule.Today()
	to := from.AddDays(6)

	if raw := r.URL.Query().Get("from"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			return schedule.Window{}, err
		}
		from = d
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			return schedule.Window{}, err
		}
		to = d
	}
	return schedule.NewWindow(from, to)
}

// writeDomainError maps domain errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case schedule.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case schedule.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
