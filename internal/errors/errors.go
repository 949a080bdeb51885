package errors

import (
	stderrors "errors"
	"fmt"
)

// BackdropError is the structured error type for backdrops.
// It carries enough context for logging, CLI presentation and errors.Is checks.
type BackdropError struct {
	// Code is the unique error code (e.g., "ERR_202_CATALOG_CORRUPT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category.
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is checks. Matching is by code, so any BackdropError
// carrying the same code matches regardless of message or cause.
var (
	ErrCatalogUnavailable    = &BackdropError{Code: ErrCodeCatalogUnavailable}
	ErrCatalogCorrupt        = &BackdropError{Code: ErrCodeCatalogCorrupt}
	ErrRecordUnreadable      = &BackdropError{Code: ErrCodeRecordUnreadable}
	ErrCleanupRetryExhausted = &BackdropError{Code: ErrCodeCleanupRetryExhausted}
	ErrMoveSourceMissing     = &BackdropError{Code: ErrCodeMoveSourceMissing}
	ErrMoveTargetExists      = &BackdropError{Code: ErrCodeMoveTargetExists}
	ErrMoveTargetRootUnknown = &BackdropError{Code: ErrCodeMoveTargetRootUnknown}
	ErrPassInFlight          = &BackdropError{Code: ErrCodePassInFlight}
	ErrDecisionPending       = &BackdropError{Code: ErrCodeDecisionPending}
	ErrConfigInvalid         = &BackdropError{Code: ErrCodeConfigInvalid}
)

// Error implements the error interface.
func (e *BackdropError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BackdropError) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is(err, ErrCatalogCorrupt) works.
func (e *BackdropError) Is(target error) bool {
	if t, ok := target.(*BackdropError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *BackdropError) WithDetail(key, value string) *BackdropError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *BackdropError) WithSuggestion(suggestion string) *BackdropError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BackdropError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *BackdropError {
	return &BackdropError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a BackdropError from an existing error.
func Wrap(code string, err error) *BackdropError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CatalogUnavailable reports a missing catalog file.
func CatalogUnavailable(path string, cause error) *BackdropError {
	return New(ErrCodeCatalogUnavailable, fmt.Sprintf("catalog not found at %s", path), cause).
		WithDetail("path", path).
		WithSuggestion("Run 'backdrops init' to create an empty catalog")
}

// CatalogCorrupt reports a catalog file that cannot be used.
func CatalogCorrupt(path, reason string, cause error) *BackdropError {
	return New(ErrCodeCatalogCorrupt, fmt.Sprintf("catalog at %s is corrupt: %s", path, reason), cause).
		WithDetail("path", path).
		WithSuggestion("Restore catalog.json from a backup; it was left untouched")
}

// RecordUnreadable reports a metadata record that could not be read or parsed.
func RecordUnreadable(id string, cause error) *BackdropError {
	return New(ErrCodeRecordUnreadable, fmt.Sprintf("metadata for %q is unreadable", id), cause).
		WithDetail("id", id)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var be *BackdropError
	if stderrors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current operation with no write.
func IsFatal(err error) bool {
	var be *BackdropError
	if stderrors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a BackdropError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var be *BackdropError
	if stderrors.As(err, &be) {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category from a BackdropError anywhere in the chain.
func GetCategory(err error) Category {
	var be *BackdropError
	if stderrors.As(err, &be) {
		return be.Category
	}
	return ""
}
