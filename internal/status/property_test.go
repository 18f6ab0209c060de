package status_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/status"
)

func optionalString() gopter.Gen {
	return gopter.CombineGens(gen.Bool(), gen.AnyString()).Map(func(values []interface{}) model.Optional[string] {
		if !values[0].(bool) {
			return model.None[string]()
		}
		return model.Some(values[1].(string))
	})
}

func recordGen() gopter.Gen {
	return gopter.CombineGens(
		gen.SliceOfN(9, gen.Bool()),
		optionalString(),
		optionalString(),
		gen.SliceOf(gen.AnyString()),
	).Map(func(values []interface{}) model.SignatureRecord {
		flags := values[0].([]bool)
		rec := model.SignatureRecord{
			FieldName:                   "Signature",
			IsValid:                     flags[0],
			CryptographicSignatureValid: flags[1],
			IsExpired:                   flags[2],
			IsSelfSigned:                flags[3],
			HasTimestamp:                flags[4],
			Coverage:                    values[1].(model.Optional[string]),
			TimestampSource:             values[2].(model.Optional[string]),
		}
		if flags[5] {
			rec.DocumentUnchanged = model.Some(flags[6])
		}
		if flags[7] {
			rec.ValidFrom = model.Some(model.Timestamp{})
		}
		if warnings := values[3].([]string); len(warnings) > 0 {
			rec.StructureValidation = &model.StructureValidation{
				IsStructureValid: flags[8],
				Warnings:         warnings,
			}
		}
		return rec
	})
}

func TestClassify_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("headline is good only when valid, cryptographically valid and not expired",
		prop.ForAll(func(rec model.SignatureRecord) bool {
			b := status.Classify(rec)
			good := rec.IsValid && rec.CryptographicSignatureValid && !rec.IsExpired
			return b.IsGood() == good
		}, recordGen()))

	properties.Property("auxiliary labels appear only when applicable",
		prop.ForAll(func(rec model.SignatureRecord) bool {
			b := status.Classify(rec)
			integrityApplies := rec.DocumentUnchanged.IsPresent() && rec.HasValidityWindow()
			return (b.Integrity != nil) == integrityApplies &&
				(b.Timestamp != nil) == rec.HasTimestamp &&
				(b.StructuralIssues != nil) == (b.Structure == status.StructureFailed)
		}, recordGen()))

	properties.Property("coverage label is empty only when coverage is absent or blank",
		prop.ForAll(func(rec model.SignatureRecord) bool {
			label := status.Classify(rec).CoverageLabel
			c, ok := rec.Coverage.Get()
			blank := !ok || strings.TrimPrefix(strings.TrimSpace(c), model.CoveragePrefix) == ""
			return (label == "") == blank
		}, recordGen()))

	properties.Property("classification is deterministic",
		prop.ForAll(func(rec model.SignatureRecord) bool {
			a, b := status.Classify(rec), status.Classify(rec)
			return a.Headline == b.Headline && len(a.Cautions) == len(b.Cautions)
		}, recordGen()))

	properties.TestingRun(t)
}
