package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingIdentity enroll attempted before the learner id could be resolved
var ErrMissingIdentity = errors.New("learner identity could not be resolved")

// FieldError points at a rejected local input field
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError missing or malformed local input, no request was made
type ValidationError struct {
	Fields []*FieldError
}

func NewValidationError(fields ...*FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// AuthError credential exchange rejected, or an authorization failure on a
// later call. Observing one tears the session down before it surfaces.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return "authorization failed: " + e.Message
	}
	return fmt.Sprintf("authorization failed: status %d", e.Status)
}

// IsAuthError reports whether err carries an authorization failure
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// UnknownRoleError role value outside the enum; no session is established
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}

// NetworkError no response reached the client
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError response received with a non-success status. Message carries
// the server-supplied detail when one was present.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return "server error: " + e.Message
	}
	return fmt.Sprintf("server error: status %d", e.Status)
}

// DataShapeError response received but a known shape could not be decoded
type DataShapeError struct {
	Detail string
}

func (e *DataShapeError) Error() string {
	return "unexpected response shape: " + e.Detail
}

// EnrollmentError enroll request rejected by the backend after the learner
// identity was resolved; recoverable, the caller may retry
type EnrollmentError struct {
	CourseID int
	Err      error
}

func (e *EnrollmentError) Error() string {
	return fmt.Sprintf("enrollment in course %d failed: %v", e.CourseID, e.Err)
}

func (e *EnrollmentError) Unwrap() error { return e.Err }
