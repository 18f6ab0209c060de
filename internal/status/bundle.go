package status

// Headline is the single top-level state shown for a signature
type Headline string

const (
	HeadlineValidAndCurrent Headline = "VALID_AND_CURRENT"
	HeadlineValidButExpired Headline = "VALID_BUT_EXPIRED"
	HeadlineInvalid         Headline = "INVALID"
)

// Integrity tells whether the signed content changed after signing
type Integrity string

const (
	IntegrityUnchanged Integrity = "UNCHANGED"
	IntegrityAltered   Integrity = "ALTERED"
)

// TimestampSource tells who vouches for the signing time
type TimestampSource string

const (
	TimestampLocalClock TimestampSource = "LOCAL_CLOCK"
	TimestampTrustedTSA TimestampSource = "TRUSTED_TSA"
)

// Structure is the outcome of the service's structural check
type Structure string

const (
	StructureNotEvaluated Structure = "NOT_EVALUATED"
	StructurePassed       Structure = "PASSED"
	StructureFailed       Structure = "FAILED"
)

// Caution flags something the reader should look at even when the
// headline is good
type Caution string

const (
	CautionSelfSigned          Caution = "SELF_SIGNED"
	CautionDocumentAltered     Caution = "DOCUMENT_ALTERED"
	CautionLocalClockTimestamp Caution = "LOCAL_CLOCK_TIMESTAMP"
	CautionStructureInvalid    Caution = "STRUCTURE_INVALID"
)

// Bundle is everything the presentation layer needs to render one signature.
// Pointer fields are nil when the label does not apply.
type Bundle struct {
	Headline         Headline          `json:"headline" yaml:"headline"`
	Integrity        *Integrity        `json:"integrity,omitempty" yaml:"integrity,omitempty"`
	Timestamp        *TimestampSource  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	SelfSigned       bool              `json:"self_signed" yaml:"self_signed"`
	CoverageLabel    string            `json:"coverage_label" yaml:"coverage_label"`
	Detail           Detail            `json:"detail" yaml:"detail"`
	Structure        Structure         `json:"structure" yaml:"structure"`
	StructuralIssues *StructuralIssues `json:"structural_issues,omitempty" yaml:"structural_issues,omitempty"`
	Cautions         []Caution         `json:"cautions,omitempty" yaml:"cautions,omitempty"`
}

// Detail separates the two reasons a signature can be invalid
type Detail struct {
	ValidAtSigning         bool `json:"valid_at_signing" yaml:"valid_at_signing"`
	CryptographicallyValid bool `json:"cryptographically_valid" yaml:"cryptographically_valid"`
}

// StructuralIssues carries the service's findings when the structure check failed
type StructuralIssues struct {
	Summary          string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Warnings         []string `json:"warnings" yaml:"warnings"`
	FormattingErrors []string `json:"formatting_errors" yaml:"formatting_errors"`
}

// IsGood reports whether the headline is VALID_AND_CURRENT
func (b Bundle) IsGood() bool {
	return b.Headline == HeadlineValidAndCurrent
}

// HasCaution reports whether c was raised
func (b Bundle) HasCaution(c Caution) bool {
	for _, got := range b.Cautions {
		if got == c {
			return true
		}
	}
	return false
}
