package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, retryable: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, retryable: true},
		{name: "unique violation", err: fmt.Errorf("insert slip: %w", &pgconn.PgError{Code: "23505"}), retryable: true},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}},
		{name: "already mapped", err: ErrSerializationConflict, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))

			mapped := MapError(tt.err)
			assert.Equal(t, tt.retryable, errors.Is(mapped, ErrSerializationConflict))
			if tt.err != nil {
				assert.ErrorIs(t, mapped, tt.err)
			} else {
				assert.NoError(t, mapped)
			}
		})
	}
}
