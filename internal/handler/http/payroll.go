package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/presence-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Cycle
	Preview(w http.ResponseWriter, r *http.Request)
	Commit(w http.ResponseWriter, r *http.Request)

	// Profile
	UpsertProfile(w http.ResponseWriter, r *http.Request)
	GetProfile(w http.ResponseWriter, r *http.Request)

	// Advances
	CreateAdvance(w http.ResponseWriter, r *http.Request)
	ListAdvances(w http.ResponseWriter, r *http.Request)
	SettleAdvance(w http.ResponseWriter, r *http.Request)
	ReopenAdvance(w http.ResponseWriter, r *http.Request)

	// Slips
	ListSlips(w http.ResponseWriter, r *http.Request)
	GetSlip(w http.ResponseWriter, r *http.Request)
	MarkSlipPaid(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// audit records an admin mutation with the caller that made it.
func audit(r *http.Request, action string, args ...any) {
	args = append([]any{"action", action, "actor", middleware.UserID(r.Context())}, args...)
	slog.Info("Payroll admin action", args...)
}

// ========== CYCLE ==========

func (h *payrollHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	result, err := h.payrollService.Preview(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Commit(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	// The body is optional: an empty request commits a draft with no adjustment.
	var req payroll.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.Commit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	audit(r, "commit", "employee_id", employeeID, "slip_id", result.ID, "period_end", result.PeriodEnd)
	response.Created(w, "Payroll slip committed", result)
}

// ========== PROFILE ==========

func (h *payrollHandlerImpl) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	var req payroll.UpsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.UpsertProfile(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	audit(r, "upsert_profile", "employee_id", employeeID)
	response.SuccessWithMessage(w, "Payroll profile saved", result)
}

func (h *payrollHandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	result, err := h.payrollService.GetProfile(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== ADVANCES ==========

func (h *payrollHandlerImpl) CreateAdvance(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	var req payroll.CreateAdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = employeeID

	result, err := h.payrollService.CreateAdvance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	audit(r, "create_advance", "employee_id", employeeID, "advance_id", result.ID, "amount", result.Amount.String())
	response.Created(w, "Advance created", result)
}

func (h *payrollHandlerImpl) ListAdvances(w http.ResponseWriter, r *http.Request) {
	filter := payroll.AdvanceFilter{
		EmployeeID: chi.URLParam(r, "employeeID"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	result, err := h.payrollService.ListAdvances(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) SettleAdvance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Advance ID is required", nil)
		return
	}

	result, err := h.payrollService.SettleAdvance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	audit(r, "settle_advance", "advance_id", id)
	response.SuccessWithMessage(w, "Advance settled", result)
}

func (h *payrollHandlerImpl) ReopenAdvance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Advance ID is required", nil)
		return
	}

	result, err := h.payrollService.ReopenAdvance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	audit(r, "reopen_advance", "advance_id", id)
	response.SuccessWithMessage(w, "Advance reopened", result)
}

// ========== SLIPS ==========

func (h *payrollHandlerImpl) ListSlips(w http.ResponseWriter, r *http.Request) {
	filter := payroll.SlipFilter{
		EmployeeID: chi.URLParam(r, "employeeID"),
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	result, err := h.payrollService.ListSlips(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *payrollHandlerImpl) GetSlip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Slip ID is required", nil)
		return
	}

	result, err := h.payrollService.GetSlip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	// Another employee's slip is reported as missing rather than forbidden.
	if !middleware.IsAdmin(r.Context()) && result.EmployeeID != middleware.UserID(r.Context()) {
		response.NotFound(w, "Payroll slip not found")
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) MarkSlipPaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Slip ID is required", nil)
		return
	}

	result, err := h.payrollService.MarkSlipPaid(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	audit(r, "mark_slip_paid", "slip_id", id)
	response.SuccessWithMessage(w, "Payroll slip marked as paid", result)
}
