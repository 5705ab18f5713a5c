package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("location coordinates are required")
	assert.Equal(t, "VALIDATION: location coordinates are required", err.Error())

	wrapped := NewUnavailableError("provider directory unavailable", fmt.Errorf("REQUEST_DENIED"))
	assert.Equal(t, "UNAVAILABLE: provider directory unavailable: REQUEST_DENIED", wrapped.Error())
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	inner := NewUnavailableError("provider directory unavailable", nil).WithKind("DIRECTORY_UNAVAILABLE")
	err := fmt.Errorf("search failed: %w", inner)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeUnavailable, appErr.Type)
	assert.Equal(t, "DIRECTORY_UNAVAILABLE", appErr.Kind)
	assert.True(t, IsType(err, ErrorTypeUnavailable))
	assert.False(t, IsType(err, ErrorTypeValidation))
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(fmt.Errorf("boom"))
	assert.False(t, ok)
	assert.False(t, IsType(nil, ErrorTypeInternal))
}
