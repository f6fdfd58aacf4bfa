// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"time"

	"stocktally/internal/core/apperror"
)

// DateFormat is the wire format for day-granular dates.
const DateFormat = "2006-01-02"

// IDResponse is a minimal response carrying a created entity ID.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ParseDate parses a required YYYY-MM-DD date field.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return t, nil
}

// ParseOptionalDate parses an optional YYYY-MM-DD date field. Returns
// nil for an empty value.
func ParseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders a day-granular date for responses.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
