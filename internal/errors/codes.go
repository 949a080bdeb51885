// Package errors provides structured error handling for backdrops.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (catalog, metadata records, folders)
//   - 4XX: Relocation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates settings-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates catalog, record and folder errors.
	CategoryStorage Category = "STORAGE"
	// CategoryRelocation indicates errors returned by a background move.
	CategoryRelocation Category = "RELOCATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the operation must abort without writing.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates a best-effort skip.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeCatalogUnavailable    = "ERR_201_CATALOG_UNAVAILABLE"
	ErrCodeCatalogCorrupt        = "ERR_202_CATALOG_CORRUPT"
	ErrCodeRecordUnreadable      = "ERR_203_RECORD_UNREADABLE"
	ErrCodeCleanupRetryExhausted = "ERR_204_CLEANUP_RETRY_EXHAUSTED"
	ErrCodeRootUnreadable        = "ERR_205_ROOT_UNREADABLE"
	ErrCodeRecordWrite           = "ERR_206_RECORD_WRITE"
	ErrCodeFolderNameReserved    = "ERR_207_FOLDER_NAME_RESERVED"

	// Relocation errors (400-499)
	ErrCodeMoveSourceMissing     = "ERR_401_MOVE_SOURCE_MISSING"
	ErrCodeMoveTargetExists      = "ERR_402_MOVE_TARGET_EXISTS"
	ErrCodeMoveTargetRootUnknown = "ERR_403_MOVE_TARGET_ROOT_UNKNOWN"

	// Internal errors (500-599)
	ErrCodePassInFlight    = "ERR_501_PASS_IN_FLIGHT"
	ErrCodeDecisionPending = "ERR_502_DECISION_PENDING"
	ErrCodeInternal        = "ERR_599_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '4':
		return CategoryRelocation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCatalogUnavailable, ErrCodeCatalogCorrupt:
		return SeverityFatal
	case ErrCodeRecordUnreadable, ErrCodeCleanupRetryExhausted, ErrCodeRootUnreadable, ErrCodeRecordWrite,
		ErrCodeFolderNameReserved:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether an operation failing with code may succeed later.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodePassInFlight, ErrCodeCleanupRetryExhausted:
		return true
	default:
		return false
	}
}
