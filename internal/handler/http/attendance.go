package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	GetAttendance(w http.ResponseWriter, r *http.Request)
	ListAttendance(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{attendanceService: attendanceService}
}

// ClockIn handles POST /attendance/clock-in
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req attendance.ClockInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Employees may omit their own id.
	if req.EmployeeID == "" && act.EmployeeID != nil {
		req.EmployeeID = *act.EmployeeID
	}

	result, err := h.attendanceService.ClockIn(r.Context(), act, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clocked in successfully", result)
}

// ClockOut handles POST /attendance/clock-out
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	var req attendance.ClockOutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EmployeeID == "" && act.EmployeeID != nil {
		req.EmployeeID = *act.EmployeeID
	}

	result, err := h.attendanceService.ClockOut(r.Context(), act, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clocked out successfully", result)
}

// GetAttendance handles GET /attendance/{id}
func (h *attendanceHandlerImpl) GetAttendance(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Attendance ID is required", nil)
		return
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), act, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListAttendance handles GET /attendance. Employees only see their own records.
func (h *attendanceHandlerImpl) ListAttendance(w http.ResponseWriter, r *http.Request) {
	act, ok := requestActor(w, r)
	if !ok {
		return
	}

	filter := attendance.AttendanceFilter{
		EmployeeID: queryString(r, "employee_id"),
		StartDate:  queryString(r, "start_date"),
		EndDate:    queryString(r, "end_date"),
		Status:     queryString(r, "status"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
		SortBy:     r.URL.Query().Get("sort_by"),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}
	if !act.IsAdministrative() {
		if act.Role != actor.RoleEmployee || act.EmployeeID == nil {
			response.HandleError(w, actor.ErrForbidden)
			return
		}
		filter.EmployeeID = act.EmployeeID
	}

	result, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
