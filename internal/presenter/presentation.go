// Package presenter turns verification reports into what a reader sees:
// repaired identity text, classified statuses and Vietnamese display labels.
package presenter

import (
	"github.com/rezonia/pdf-signature-checker/internal/status"
)

// State is the overall outcome of checking one document
type State string

const (
	StateFailed       State = "FAILED"
	StateNoSignatures State = "NO_SIGNATURES"
	StateSignatures   State = "SIGNATURES"
)

// FailureMessage is the only message shown when verification fails; the
// cause goes to the log, not to the reader
const FailureMessage = "Failed to verify PDF signature"

// Presentation is the rendered result for one document
type Presentation struct {
	ReportID   string          `json:"report_id" yaml:"report_id"`
	State      State           `json:"state" yaml:"state"`
	Message    string          `json:"message,omitempty" yaml:"message,omitempty"`
	File       *FileInfo       `json:"file,omitempty" yaml:"file,omitempty"`
	Count      int             `json:"count" yaml:"count"`
	Signatures []SignatureView `json:"signatures" yaml:"signatures"`
}

// FileInfo describes the checked document
type FileInfo struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
	Size  string `json:"size" yaml:"size"`
	Pages int    `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// SignatureView is one signature ready for display
type SignatureView struct {
	Index     int    `json:"index" yaml:"index"`
	Key       string `json:"key" yaml:"key"`
	Title     string `json:"title" yaml:"title"`
	FieldName string `json:"field_name" yaml:"field_name"`

	Signer IdentityView `json:"signer" yaml:"signer"`
	Issuer IdentityView `json:"issuer" yaml:"issuer"`

	SigningTime string `json:"signing_time" yaml:"signing_time"`
	ValidFrom   string `json:"valid_from" yaml:"valid_from"`
	ValidUntil  string `json:"valid_until" yaml:"valid_until"`

	Status status.Bundle `json:"status" yaml:"status"`
	Labels Labels        `json:"labels" yaml:"labels"`
}

// IdentityView is a certificate name with absent parts replaced by a placeholder
type IdentityView struct {
	CommonName         string `json:"common_name" yaml:"common_name"`
	Organization       string `json:"organization" yaml:"organization"`
	OrganizationalUnit string `json:"organizational_unit" yaml:"organizational_unit"`
	StateOrProvince    string `json:"state_or_province" yaml:"state_or_province"`
	Country            string `json:"country" yaml:"country"`
	UserID             string `json:"user_id" yaml:"user_id"`
}

// Labels are the Vietnamese texts for a status bundle. Labels for statuses
// that do not apply are empty.
type Labels struct {
	Headline       string `json:"headline" yaml:"headline"`
	Coverage       string `json:"coverage" yaml:"coverage"`
	Integrity      string `json:"integrity,omitempty" yaml:"integrity,omitempty"`
	ValidAtSigning string `json:"valid_at_signing" yaml:"valid_at_signing"`
	Expiry         string `json:"expiry" yaml:"expiry"`
	Timestamp      string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Structure      string `json:"structure,omitempty" yaml:"structure,omitempty"`
}

// Succeeded reports whether the document was verified, with or without signatures
func (p *Presentation) Succeeded() bool {
	return p.State != StateFailed
}

// AllGood reports whether every signature is valid and current. A document
// without signatures is not good.
func (p *Presentation) AllGood() bool {
	if p.State != StateSignatures {
		return false
	}
	for _, sig := range p.Signatures {
		if !sig.Status.IsGood() {
			return false
		}
	}
	return true
}
