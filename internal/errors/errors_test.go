package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Is_MatchesByCode(t *testing.T) {
	err := SeekUnavailable("duration not known yet")

	assert.True(t, Is(err, ErrSeekUnavailable))
	assert.False(t, Is(err, ErrAdapter))
	assert.False(t, Is(err, ErrNotFound))
}

func TestError_WrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodePersistence, "save checkpoint")

	require.Error(t, err)
	assert.True(t, Is(err, ErrPersistence))
	assert.Equal(t, cause, Unwrap(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestError_WithCause_ThroughSentinel(t *testing.T) {
	cause := fmt.Errorf("engine exploded")
	err := ErrAdapter.WithCause(cause)

	assert.True(t, Is(err, ErrAdapter))
	assert.Contains(t, err.Error(), "engine exploded")
	// Sentinel itself must stay untouched.
	assert.Nil(t, Unwrap(ErrAdapter))
}

func TestError_WithDetails(t *testing.T) {
	err := Validation("bad rate").WithDetails(map[string]any{"rate": 3.5})

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.NotNil(t, domainErr.Details)
}
