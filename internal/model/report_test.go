package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/pdf-signature-checker/internal/model"
)

const sampleReport = `{
	"success": true,
	"count": 2,
	"signatures": [
		{
			"field_name": "Signature1",
			"coverage": "SignatureCoverageLevel.ENTIRE_FILE",
			"is_valid": true,
			"cryptographic_signature_valid": true,
			"document_unchanged": true,
			"is_expired": false,
			"is_self_signed": false,
			"has_timestamp": true,
			"timestamp_source": "tsa",
			"valid_from": "2024-01-01T00:00:00+00:00",
			"valid_until": "2026-12-31T23:59:59+00:00",
			"signing_time": "2025-01-15T10:30:00.123456+07:00",
			"signer": {
				"common_name": "CÔNG TY ABC",
				"country": "VN",
				"state_or_province": "Hà Nội",
				"user_id": "MST:0314363533"
			},
			"issuer": {
				"common_name": "VNPT Certification Authority",
				"country": "VN",
				"organization": "VNPT Group"
			},
			"total_size": 48213
		},
		{
			"field_name": "Signature2",
			"coverage": null,
			"is_valid": false,
			"cryptographic_signature_valid": false,
			"is_expired": true,
			"is_self_signed": true,
			"has_timestamp": false,
			"valid_from": null,
			"valid_until": null,
			"signing_time": null,
			"signer": {"common_name": "Test"},
			"issuer": null,
			"structure_validation": {
				"is_structure_valid": false,
				"validation_summary": "2 problems",
				"warnings": ["xref offset off by 2"],
				"formatting_errors": ["missing /ByteRange"]
			}
		}
	]
}`

func TestParseReport(t *testing.T) {
	report, err := model.ParseReport([]byte(sampleReport))
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Count)
	require.Len(t, report.Signatures, 2)

	first := report.Signatures[0]
	assert.Equal(t, "Signature1", first.FieldName)
	assert.Equal(t, "SignatureCoverageLevel.ENTIRE_FILE", first.Coverage.OrElse(""))
	assert.True(t, first.CryptographicSignatureValid)
	unchanged, ok := first.DocumentUnchanged.Get()
	require.True(t, ok)
	assert.True(t, unchanged)

	signedAt, ok := first.SigningTime.Get()
	require.True(t, ok)
	assert.True(t, signedAt.Equal(time.Date(2025, 1, 15, 3, 30, 0, 123456000, time.UTC)))

	assert.Equal(t, "Hà Nội", first.Signer.StateOrProvince.OrElse(""))
	issuer, ok := first.Issuer.Get()
	require.True(t, ok)
	assert.Equal(t, "VNPT Group", issuer.Organization.OrElse(""))
	assert.False(t, issuer.OrganizationalUnit.IsPresent())
	assert.Equal(t, int64(48213), first.TotalSize.OrElse(0))
	assert.Nil(t, first.StructureValidation)

	second := report.Signatures[1]
	assert.False(t, second.Coverage.IsPresent())
	assert.False(t, second.DocumentUnchanged.IsPresent())
	assert.False(t, second.ValidFrom.IsPresent())
	assert.False(t, second.Issuer.IsPresent())
	assert.False(t, second.HasValidityWindow())
	require.NotNil(t, second.StructureValidation)
	assert.Equal(t, []string{"missing /ByteRange"}, second.StructureValidation.FormattingErrors)
}

func TestParseReport_LegacyStateKeyIgnored(t *testing.T) {
	data := `{"success": true, "count": 1, "signatures": [
		{"field_name": "Sig", "signer": {"common_name": "A", "state_province": "Hà Nội"}}
	]}`

	report, err := model.ParseReport([]byte(data))
	require.NoError(t, err)
	assert.False(t, report.Signatures[0].Signer.StateOrProvince.IsPresent())
}

func TestParseReport_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code string
	}{
		{"not json", `<html>bad gateway</html>`, model.ErrCodeMalformed},
		{"count mismatch", `{"success": true, "count": 2, "signatures": [{"field_name": "A", "signer": {}}]}`, model.ErrCodeCountMismatch},
		{"negative count", `{"success": true, "count": -1, "signatures": []}`, model.ErrCodeCountMismatch},
		{"empty field name", `{"success": true, "count": 1, "signatures": [{"field_name": " ", "signer": {}}]}`, model.ErrCodeMissingField},
		{"bad timestamp", `{"success": true, "count": 1, "signatures": [{"field_name": "A", "signing_time": "yesterday", "signer": {}}]}`, model.ErrCodeMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.ParseReport([]byte(tt.data))
			require.Error(t, err)

			var reportErr *model.ReportError
			require.ErrorAs(t, err, &reportErr)
			assert.Equal(t, tt.code, reportErr.Code)
		})
	}
}

func TestVerificationReport_ValidateSkipsFailedCalls(t *testing.T) {
	report := model.VerificationReport{Success: false, Count: 3, Error: "boom"}
	assert.NoError(t, report.Validate())
}

func TestVerificationReport_CloneIsDeep(t *testing.T) {
	report, err := model.ParseReport([]byte(sampleReport))
	require.NoError(t, err)

	clone := report.Clone()
	clone.Signatures[0].FieldName = "changed"
	clone.Signatures[1].StructureValidation.Warnings[0] = "changed"

	assert.Equal(t, "Signature1", report.Signatures[0].FieldName)
	assert.Equal(t, "xref offset off by 2", report.Signatures[1].StructureValidation.Warnings[0])
}

func TestOptional_JSON(t *testing.T) {
	type doc struct {
		A model.Optional[bool]   `json:"a,omitzero"`
		B model.Optional[string] `json:"b"`
	}

	data, err := json.Marshal(doc{B: model.Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"b": "x"}`, string(data))

	data, err = json.Marshal(doc{A: model.Some(false)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": false, "b": null}`, string(data))

	var decoded doc
	require.NoError(t, json.Unmarshal([]byte(`{"a": false, "b": null}`), &decoded))
	v, ok := decoded.A.Get()
	assert.True(t, ok)
	assert.False(t, v)
	assert.False(t, decoded.B.IsPresent())
}

func TestOptional_Helpers(t *testing.T) {
	n := model.None[int]()
	assert.Nil(t, n.Ptr())
	assert.Equal(t, 7, n.OrElse(7))
	assert.False(t, model.Map(n, func(i int) string { return "x" }).IsPresent())

	s := model.Some(3)
	require.NotNil(t, s.Ptr())
	assert.Equal(t, 3, *s.Ptr())
	assert.Equal(t, "3!", model.Map(s, func(i int) string { return "3!" }).OrElse(""))

	value := "v"
	assert.Equal(t, "v", model.FromPtr(&value).OrElse(""))
	assert.False(t, model.FromPtr[string](nil).IsPresent())
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-01-15T10:30:00Z", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15T10:30:00+00:00", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15T10:30:00", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15 10:30:00", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := model.ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v", got.Time)
		})
	}

	_, err := model.ParseTimestamp("15/01/2025")
	assert.Error(t, err)
}

func TestReportError(t *testing.T) {
	err := model.NewReportError(model.ErrCodeMalformed, "signatures[0]", "bad", assert.AnError)

	require.Contains(t, err.Error(), "MALFORMED")
	require.Contains(t, err.Error(), "signatures[0]")
	require.ErrorIs(t, err, assert.AnError)
}
