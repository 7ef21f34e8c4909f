package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"nil":          {nil, StatusInternalServerError},
		"invalid":      {NewInvalidRequestError("bad", nil), StatusBadRequest},
		"unauthorized": {NewUnauthorizedError("no", nil), StatusUnauthorized},
		"conflict":     {NewConflictError("dup", nil), StatusConflict},
		"database":     {NewDatabaseError("db", errors.New("boom")), StatusInternalServerError},
		"unavailable":  {NewUnavailableError("down", nil), StatusServiceUnavailable},
		"plain":        {errors.New("boom"), StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestGetErrorType_OutermostWins(t *testing.T) {
	inner := NewConflictError("duplicate", nil)
	outer := NewInvalidRequestError("already registered", inner)

	assert.Equal(t, ErrorTypeInvalidRequest, GetErrorType(outer))
	assert.Equal(t, "already registered", GetHumanReadableMessage(outer))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(errors.New("plain")))
}

func TestGetHumanReadableMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(errors.New("pq: connection refused")))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_email_key" (SQLSTATE 23505)`)))
	assert.True(t, IsDuplicateKeyError(errors.New("UNIQUE constraint failed: waitlist_entries.email_key")))
	assert.True(t, IsDuplicateKeyError(NewConflictError("dup", nil)))
	assert.False(t, IsDuplicateKeyError(errors.New("connection reset")))
	assert.False(t, IsDuplicateKeyError(nil))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(fmt.Errorf("load: %w", context.DeadlineExceeded)))
	assert.False(t, IsTimeout(context.Canceled))
}
