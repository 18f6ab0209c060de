// Package status turns the raw fields of a signature record into a small set
// of display states. Classification is a pure function of one record.
package status

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rezonia/pdf-signature-checker/internal/model"
)

// localClockMarkers identify a signing time that only the signer vouches for
var localClockMarkers = []string{
	"signer_reported",
	"local",
	"self",
}

// coverageLabels maps the service's coverage values to display labels
var coverageLabels = map[string]string{
	model.CoveragePrefix + model.CoverageEntireFile:     model.CoverageEntireFile,
	model.CoveragePrefix + model.CoverageEntireRevision: model.CoverageEntireRevision,
	model.CoverageEntireFile:                            model.CoverageEntireFile,
	model.CoverageEntireRevision:                        model.CoverageEntireRevision,
}

// Classify derives the display bundle for one signature record
func Classify(rec model.SignatureRecord) Bundle {
	b := Bundle{
		Headline:   classifyHeadline(rec),
		SelfSigned: rec.IsSelfSigned,
		Detail: Detail{
			ValidAtSigning:         rec.IsValid,
			CryptographicallyValid: rec.CryptographicSignatureValid,
		},
		CoverageLabel: CoverageLabel(rec.Coverage),
		Structure:     StructureNotEvaluated,
	}

	if rec.IsSelfSigned {
		b.Cautions = append(b.Cautions, CautionSelfSigned)
	}

	if integrity, ok := classifyIntegrity(rec); ok {
		b.Integrity = &integrity
		if integrity == IntegrityAltered {
			b.Cautions = append(b.Cautions, CautionDocumentAltered)
		}
	}

	if rec.HasTimestamp {
		source := classifyTimestamp(rec.TimestampSource)
		b.Timestamp = &source
		if source == TimestampLocalClock {
			b.Cautions = append(b.Cautions, CautionLocalClockTimestamp)
		}
	}

	if sv := rec.StructureValidation; sv != nil {
		if sv.IsStructureValid {
			b.Structure = StructurePassed
		} else {
			b.Structure = StructureFailed
			b.StructuralIssues = &StructuralIssues{
				Summary:          sv.ValidationSummary,
				Warnings:         copyStrings(sv.Warnings),
				FormattingErrors: copyStrings(sv.FormattingErrors),
			}
			b.Cautions = append(b.Cautions, CautionStructureInvalid)
		}
	}

	return b
}

// ClassifyAll classifies records concurrently. The result keeps input order.
func ClassifyAll(ctx context.Context, records []model.SignatureRecord) ([]Bundle, error) {
	bundles := make([]Bundle, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bundles[i] = Classify(records[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}

func classifyHeadline(rec model.SignatureRecord) Headline {
	if !rec.CryptographicSignatureValid || !rec.IsValid {
		return HeadlineInvalid
	}
	if rec.IsExpired {
		return HeadlineValidButExpired
	}
	return HeadlineValidAndCurrent
}

// classifyIntegrity only applies when the certificate validity window is known
func classifyIntegrity(rec model.SignatureRecord) (Integrity, bool) {
	unchanged, ok := rec.DocumentUnchanged.Get()
	if !ok || !rec.HasValidityWindow() {
		return "", false
	}
	if unchanged {
		return IntegrityUnchanged, true
	}
	return IntegrityAltered, true
}

func classifyTimestamp(source model.Optional[string]) TimestampSource {
	s := strings.ToLower(source.OrElse(""))
	for _, marker := range localClockMarkers {
		if strings.Contains(s, marker) {
			return TimestampLocalClock
		}
	}
	return TimestampTrustedTSA
}

// CoverageLabel maps a coverage value to its label. Unknown values pass
// through with the enum prefix removed; an absent value yields "".
func CoverageLabel(coverage model.Optional[string]) string {
	c, ok := coverage.Get()
	if !ok {
		return ""
	}
	c = strings.TrimSpace(c)
	if label, ok := coverageLabels[c]; ok {
		return label
	}
	return strings.TrimPrefix(c, model.CoveragePrefix)
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
