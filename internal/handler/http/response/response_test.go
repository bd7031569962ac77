package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/presence-payroll-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeta(t *testing.T) {
	assert.Equal(t, &Meta{Page: 2, Limit: 20, TotalItems: 41, TotalPages: 3}, NewMeta(2, 20, 41))
	assert.Equal(t, 0, NewMeta(1, 0, 10).TotalPages)
	assert.Equal(t, 0, NewMeta(1, 20, 0).TotalPages)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "employee_id", Message: "is required"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"range too large", fmt.Errorf("%w: 120 days", attendance.ErrRangeTooLarge), http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid period", payroll.ErrInvalidPeriod, http.StatusBadRequest, "BAD_REQUEST"},
		{"profile missing", payroll.ErrProfileNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"commit conflict", payroll.ErrCommitConflict, http.StatusConflict, "CONFLICT"},
		{"period mismatch", fmt.Errorf("%w: next period ends 2024-02-29", payroll.ErrPeriodMismatch), http.StatusConflict, "CONFLICT"},
		{"invariant", payroll.ErrInvariantViolation, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestHandleError_UnknownErrorIsNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
}
