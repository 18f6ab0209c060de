package textfix

import (
	"github.com/rezonia/pdf-signature-checker/internal/model"
)

// NormalizeReport returns a copy of report with the human-readable identity
// fields of every signer and issuer repaired. The input is not modified.
func (n *Normalizer) NormalizeReport(report model.VerificationReport) model.VerificationReport {
	out := report.Clone()
	for i := range out.Signatures {
		out.Signatures[i] = n.NormalizeRecord(out.Signatures[i])
	}
	return out
}

// NormalizeRecord returns a copy of rec with identity text repaired
func (n *Normalizer) NormalizeRecord(rec model.SignatureRecord) model.SignatureRecord {
	out := rec.Clone()
	out.Signer = n.normalizeIdentity(rec.Signer)
	out.Issuer = model.Map(rec.Issuer, n.normalizeIdentity)
	return out
}

// normalizeIdentity repairs names, organizations and provinces. Country codes
// and user IDs are machine values and stay as reported.
func (n *Normalizer) normalizeIdentity(id model.Identity) model.Identity {
	id.CommonName = model.Map(id.CommonName, n.Normalize)
	id.Organization = model.Map(id.Organization, n.Normalize)
	id.OrganizationalUnit = model.Map(id.OrganizationalUnit, n.Normalize)
	id.StateOrProvince = model.Map(id.StateOrProvince, n.Normalize)
	return id
}
