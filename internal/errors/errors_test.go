package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackdropError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("permission denied")

	// When: wrapping with BackdropError
	be := New(ErrCodeRecordUnreadable, "metadata for \"x\" is unreadable", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, be)
	assert.Equal(t, originalErr, errors.Unwrap(be))
	assert.True(t, errors.Is(be, originalErr))
}

func TestBackdropError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "catalog missing",
			code:     ErrCodeCatalogUnavailable,
			message:  "catalog not found",
			expected: "[ERR_201_CATALOG_UNAVAILABLE] catalog not found",
		},
		{
			name:     "move target exists",
			code:     ErrCodeMoveTargetExists,
			message:  "folder exists",
			expected: "[ERR_402_MOVE_TARGET_EXISTS] folder exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestBackdropError_Is_MatchesSentinelByCode(t *testing.T) {
	err := CatalogCorrupt("/tmp/catalog.json", "backgrounds is not an object", nil)
	wrapped := fmt.Errorf("reindex: %w", err)

	assert.True(t, errors.Is(wrapped, ErrCatalogCorrupt))
	assert.False(t, errors.Is(wrapped, ErrCatalogUnavailable))
}

func TestSeverityAndCategory_DerivedFromCode(t *testing.T) {
	tests := []struct {
		code     string
		severity Severity
		category Category
	}{
		{ErrCodeCatalogUnavailable, SeverityFatal, CategoryStorage},
		{ErrCodeCatalogCorrupt, SeverityFatal, CategoryStorage},
		{ErrCodeRecordUnreadable, SeverityWarning, CategoryStorage},
		{ErrCodeCleanupRetryExhausted, SeverityWarning, CategoryStorage},
		{ErrCodeMoveSourceMissing, SeverityError, CategoryRelocation},
		{ErrCodeConfigInvalid, SeverityError, CategoryConfig},
		{ErrCodePassInFlight, SeverityError, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(CatalogUnavailable("/x", nil)))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", CatalogCorrupt("/x", "bad", nil))))
	assert.False(t, IsFatal(RecordUnreadable("a", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeRecordUnreadable, GetCode(RecordUnreadable("a", nil)))
	assert.Equal(t, ErrCodeRecordUnreadable, GetCode(fmt.Errorf("x: %w", RecordUnreadable("a", nil))))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeMoveTargetRootUnknown, "no such root", nil).
		WithDetail("root", "ext:3").
		WithSuggestion("Add the root first")

	assert.Equal(t, "ext:3", err.Details["root"])
	assert.Equal(t, "Add the root first", err.Suggestion)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
