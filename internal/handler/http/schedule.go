package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	ListByEmployee(w http.ResponseWriter, r *http.Request)
	GetEffective(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
	loc             *time.Location
}

func NewScheduleHandler(scheduleService schedule.ScheduleService, loc *time.Location) ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &scheduleHandlerImpl{scheduleService: scheduleService, loc: loc}
}

// Create handles POST /schedules
func (h *scheduleHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req schedule.CreateWorkScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.scheduleService.Create(r.Context(), act, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Work schedule created", result)
}

// ListByEmployee handles GET /schedules/employees/{employeeID}
func (h *scheduleHandlerImpl) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if !validator.IsValidUUID(employeeID) {
		response.BadRequest(w, "Invalid employee ID", nil)
		return
	}

	result, err := h.scheduleService.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEffective handles GET /schedules/employees/{employeeID}/effective?date=YYYY-MM-DD.
// Without a date it resolves today in the configured timezone.
func (h *scheduleHandlerImpl) GetEffective(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if !validator.IsValidUUID(employeeID) {
		response.BadRequest(w, "Invalid employee ID", nil)
		return
	}

	date := time.Now().In(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, ok := validator.IsValidDate(raw)
		if !ok {
			response.ValidationError(w, map[string]string{"date": "must be in YYYY-MM-DD format"})
			return
		}
		date = parsed
	}
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ws, err := h.scheduleService.Resolve(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, schedule.ToResponse(ws))
}
