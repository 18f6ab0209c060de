package verifier

import (
	"errors"
	"fmt"
)

// Error codes for upstream verification failures
const (
	ErrCodeTransport     = "TRANSPORT"
	ErrCodeStatus        = "STATUS"
	ErrCodeMalformed     = "MALFORMED"
	ErrCodeRejected      = "REJECTED"
	ErrCodeCountMismatch = "COUNT_MISMATCH"
)

// UpstreamError represents a failure talking to the verification service
type UpstreamError struct {
	Code       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 && e.Cause != nil {
		return fmt.Sprintf("[%s] HTTP %d: %s (%v)", e.Code, e.StatusCode, e.Message, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] HTTP %d: %s", e.Code, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(code string, statusCode int, message string, cause error) *UpstreamError {
	return &UpstreamError{
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// ErrTransport returns error when the service could not be reached
func ErrTransport(cause error) *UpstreamError {
	return NewUpstreamError(ErrCodeTransport, 0, "verification service unreachable", cause)
}

// ErrStatus returns error for a non-2xx response
func ErrStatus(statusCode int, body string) *UpstreamError {
	return NewUpstreamError(ErrCodeStatus, statusCode, fmt.Sprintf("unexpected response: %s", body), nil)
}

// ErrMalformed returns error when the response is not a valid report
func ErrMalformed(cause error) *UpstreamError {
	return NewUpstreamError(ErrCodeMalformed, 0, "malformed verification report", cause)
}

// ErrRejected returns error when the service answered success=false
func ErrRejected(reason string) *UpstreamError {
	if reason == "" {
		reason = "verification service reported failure"
	}
	return NewUpstreamError(ErrCodeRejected, 0, reason, nil)
}

// ErrCountMismatch returns error when count disagrees with the signature list
func ErrCountMismatch(cause error) *UpstreamError {
	return NewUpstreamError(ErrCodeCountMismatch, 0, "signature count does not match signatures", cause)
}

// Code returns the upstream error code of err, or "" if err is not an UpstreamError
func Code(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ""
}
