package model

import "fmt"

// Error codes for report decoding
const (
	ErrCodeMalformed     = "MALFORMED"
	ErrCodeCountMismatch = "COUNT_MISMATCH"
	ErrCodeMissingField  = "MISSING_FIELD"
)

// ReportError represents a verification report that cannot be presented
type ReportError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *ReportError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ReportError) Unwrap() error {
	return e.Cause
}

// NewReportError creates a new report error
func NewReportError(code, field, message string, cause error) *ReportError {
	return &ReportError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}
