package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Coverage values reported by the verification service
const (
	CoverageEntireFile     = "ENTIRE_FILE"
	CoverageEntireRevision = "ENTIRE_REVISION"

	// CoveragePrefix is the enum namespace the service leaks into coverage strings
	CoveragePrefix = "SignatureCoverageLevel."
)

// VerificationReport is the response of the verification service for one PDF
type VerificationReport struct {
	Success    bool              `json:"success" yaml:"success"`
	Count      int               `json:"count" yaml:"count"`
	Signatures []SignatureRecord `json:"signatures" yaml:"signatures"`

	// Error is set by the service when Success is false
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SignatureRecord describes one signature field of the document
type SignatureRecord struct {
	FieldName string           `json:"field_name" yaml:"field_name"`
	Coverage  Optional[string] `json:"coverage,omitzero" yaml:"coverage,omitempty"`

	IsValid                     bool           `json:"is_valid" yaml:"is_valid"`
	CryptographicSignatureValid bool           `json:"cryptographic_signature_valid" yaml:"cryptographic_signature_valid"`
	DocumentUnchanged           Optional[bool] `json:"document_unchanged,omitzero" yaml:"document_unchanged,omitempty"`
	IsExpired                   bool           `json:"is_expired" yaml:"is_expired"`
	IsSelfSigned                bool           `json:"is_self_signed" yaml:"is_self_signed"`

	HasTimestamp    bool             `json:"has_timestamp" yaml:"has_timestamp"`
	TimestampSource Optional[string] `json:"timestamp_source,omitzero" yaml:"timestamp_source,omitempty"`

	ValidFrom   Optional[Timestamp] `json:"valid_from,omitzero" yaml:"valid_from,omitempty"`
	ValidUntil  Optional[Timestamp] `json:"valid_until,omitzero" yaml:"valid_until,omitempty"`
	SigningTime Optional[Timestamp] `json:"signing_time,omitzero" yaml:"signing_time,omitempty"`

	Signer Identity           `json:"signer" yaml:"signer"`
	Issuer Optional[Identity] `json:"issuer,omitzero" yaml:"issuer,omitempty"`

	StructureValidation *StructureValidation `json:"structure_validation,omitempty" yaml:"structure_validation,omitempty"`

	// Informational fields; they never feed classification
	Intact             Optional[bool]  `json:"intact,omitzero" yaml:"intact,omitempty"`
	ValidAtSigningTime Optional[bool]  `json:"valid_at_signing_time,omitzero" yaml:"valid_at_signing_time,omitempty"`
	TotalSize          Optional[int64] `json:"total_size,omitzero" yaml:"total_size,omitempty"`
	Error              string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Identity is a parsed certificate subject or issuer name
type Identity struct {
	CommonName         Optional[string] `json:"common_name,omitzero" yaml:"common_name,omitempty"`
	Country            Optional[string] `json:"country,omitzero" yaml:"country,omitempty"`
	Organization       Optional[string] `json:"organization,omitzero" yaml:"organization,omitempty"`
	OrganizationalUnit Optional[string] `json:"organizational_unit,omitzero" yaml:"organizational_unit,omitempty"`
	StateOrProvince    Optional[string] `json:"state_or_province,omitzero" yaml:"state_or_province,omitempty"`
	UserID             Optional[string] `json:"user_id,omitzero" yaml:"user_id,omitempty"`
}

// StructureValidation is the service's structural check of the PDF.
// A nil *StructureValidation means the check was not run.
type StructureValidation struct {
	IsStructureValid  bool     `json:"is_structure_valid" yaml:"is_structure_valid"`
	ValidationSummary string   `json:"validation_summary,omitempty" yaml:"validation_summary,omitempty"`
	Warnings          []string `json:"warnings" yaml:"warnings"`
	FormattingErrors  []string `json:"formatting_errors" yaml:"formatting_errors"`
}

// Validate checks report-level invariants
func (r *VerificationReport) Validate() error {
	if !r.Success {
		return nil
	}
	if r.Count < 0 {
		return NewReportError(ErrCodeCountMismatch, "count", fmt.Sprintf("negative signature count %d", r.Count), nil)
	}
	if r.Count != len(r.Signatures) {
		return NewReportError(ErrCodeCountMismatch, "count",
			fmt.Sprintf("count %d does not match %d signatures", r.Count, len(r.Signatures)), nil)
	}
	for i, sig := range r.Signatures {
		if strings.TrimSpace(sig.FieldName) == "" {
			return NewReportError(ErrCodeMissingField, fmt.Sprintf("signatures[%d].field_name", i), "field name is empty", nil)
		}
	}
	return nil
}

// Clone returns a deep copy of the report
func (r VerificationReport) Clone() VerificationReport {
	out := r
	if r.Signatures != nil {
		out.Signatures = make([]SignatureRecord, len(r.Signatures))
		for i, sig := range r.Signatures {
			out.Signatures[i] = sig.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the record
func (s SignatureRecord) Clone() SignatureRecord {
	out := s
	if s.StructureValidation != nil {
		sv := *s.StructureValidation
		sv.Warnings = cloneStrings(s.StructureValidation.Warnings)
		sv.FormattingErrors = cloneStrings(s.StructureValidation.FormattingErrors)
		out.StructureValidation = &sv
	}
	return out
}

// HasValidityWindow reports whether either end of the certificate validity window is known
func (s SignatureRecord) HasValidityWindow() bool {
	return s.ValidFrom.IsPresent() || s.ValidUntil.IsPresent()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// ParseReport decodes a verification report and checks its invariants
func ParseReport(data []byte) (*VerificationReport, error) {
	var report VerificationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, NewReportError(ErrCodeMalformed, "", "invalid report JSON", err)
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return &report, nil
}

// Timestamp is a point in time as emitted by the verification service.
// It accepts ISO 8601 with or without a zone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the formats the verification service emits
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON parses a timestamp string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON encodes the timestamp as RFC 3339
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// MarshalYAML encodes the timestamp as RFC 3339
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.Time.Format(time.RFC3339), nil
}
