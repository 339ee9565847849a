package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrScheduleNotFound, "")
	assert.ErrorIs(t, err, ErrScheduleNotFound)
	assert.Equal(t, "Exam schedule not found", err.Message)
	assert.NotSame(t, ErrScheduleNotFound, err)

	custom := Clone(ErrValidation, "session required")
	assert.Equal(t, "session required", custom.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.False(t, errors.Is(custom, ErrNotFound))
}

func TestWrapAsKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapAs(cause, ErrStoreUnavailable, "")

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.Equal(t, ErrStoreUnavailable.Message, err.Message)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "refused")

	assert.Equal(t, ErrInternal.Code, WrapAs(cause, nil, "x").Code)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("ledger: %w", Clone(ErrConflict, "duplicate exam"))
	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, "CONFLICT", got.Code)
	assert.Equal(t, "duplicate exam", got.Message)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, ErrInternal.Message, plain.Message)
}
