package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	be := asBackdropError(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", be.Message))
	if be.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", be.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", be.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error for --format json output.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	be := asBackdropError(err)
	je := jsonError{
		Code:       be.Code,
		Message:    be.Message,
		Category:   string(be.Category),
		Severity:   string(be.Severity),
		Details:    be.Details,
		Suggestion: be.Suggestion,
		Retryable:  be.Retryable,
	}
	if be.Cause != nil {
		je.Cause = be.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	be, ok := err.(*BackdropError)
	if !ok {
		if code := GetCode(err); code == "" {
			return map[string]any{"error": err.Error()}
		}
		be = asBackdropError(err)
	}

	result := map[string]any{
		"error_code": be.Code,
		"message":    be.Message,
		"severity":   string(be.Severity),
	}
	if be.Cause != nil {
		result["cause"] = be.Cause.Error()
	}
	for k, v := range be.Details {
		result["detail_"+k] = v
	}

	return result
}

// asBackdropError finds a BackdropError in the chain or wraps err as internal.
func asBackdropError(err error) *BackdropError {
	var be *BackdropError
	for e := err; e != nil; {
		if b, ok := e.(*BackdropError); ok {
			be = b
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	if be == nil {
		return Wrap(ErrCodeInternal, err)
	}
	return be
}
