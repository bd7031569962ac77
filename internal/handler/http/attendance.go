package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	GetDays(w http.ResponseWriter, r *http.Request)
	ListDays(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// GetDays implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetDays(w http.ResponseWriter, r *http.Request) {
	filter := attendance.DayAggregateFilter{
		EmployeeID: chi.URLParam(r, "employeeID"),
		StartDate:  r.URL.Query().Get("start_date"),
		EndDate:    r.URL.Query().Get("end_date"),
	}

	result, err := h.attendanceService.GetDayAggregates(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListDays implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDays(w http.ResponseWriter, r *http.Request) {
	var req attendance.BulkDayAggregateFilter
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.ListDayAggregates(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
