package pdfcheck

import "fmt"

// Error codes for rejected uploads
const (
	ErrCodeEmpty      = "EMPTY"
	ErrCodeNotPDF     = "NOT_PDF"
	ErrCodeTooLarge   = "TOO_LARGE"
	ErrCodeUnreadable = "UNREADABLE"
)

// PreflightError represents an upload that is not a usable PDF
type PreflightError struct {
	Code    string
	Message string
	Cause   error
}

func (e *PreflightError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PreflightError) Unwrap() error {
	return e.Cause
}

// NewPreflightError creates a new preflight error
func NewPreflightError(code, message string, cause error) *PreflightError {
	return &PreflightError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
