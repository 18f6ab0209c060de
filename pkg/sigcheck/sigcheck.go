// Package sigcheck provides a public API for checking digital signatures in
// PDF files through an external verification service.
//
// This package exposes the report model, the classified status bundle and a
// Checker that runs the whole flow: preflight, upload, text repair,
// classification and presentation.
//
// Example usage:
//
//	checker := sigcheck.NewChecker(sigcheck.DefaultOptions())
//	p, err := checker.Check(ctx, file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(p.State)
package sigcheck

import (
	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/pdfcheck"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/status"
	"github.com/rezonia/pdf-signature-checker/internal/textfix"
	"github.com/rezonia/pdf-signature-checker/internal/verifier"
)

// Re-export core types for public API
type (
	VerificationReport  = model.VerificationReport
	SignatureRecord     = model.SignatureRecord
	Identity            = model.Identity
	StructureValidation = model.StructureValidation
	Timestamp           = model.Timestamp

	Bundle          = status.Bundle
	Headline        = status.Headline
	Integrity       = status.Integrity
	TimestampSource = status.TimestampSource
	Structure       = status.Structure
	Caution         = status.Caution

	Presentation  = presenter.Presentation
	SignatureView = presenter.SignatureView
	State         = presenter.State
)

// Re-export headline constants
const (
	HeadlineValidAndCurrent = status.HeadlineValidAndCurrent
	HeadlineValidButExpired = status.HeadlineValidButExpired
	HeadlineInvalid         = status.HeadlineInvalid
)

// Re-export presentation states
const (
	StateFailed       = presenter.StateFailed
	StateNoSignatures = presenter.StateNoSignatures
	StateSignatures   = presenter.StateSignatures
)

// Re-export error types
type (
	ReportError    = model.ReportError
	UpstreamError  = verifier.UpstreamError
	PreflightError = pdfcheck.PreflightError
)

// Classify derives the status bundle of one signature record
func Classify(rec SignatureRecord) Bundle {
	return status.Classify(rec)
}

// NormalizeText repairs double-encoded text
func NormalizeText(s string) string {
	return textfix.Normalize(s)
}

// ParseReport decodes a verification report and checks its invariants
func ParseReport(data []byte) (*VerificationReport, error) {
	return model.ParseReport(data)
}
