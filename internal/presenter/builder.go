package presenter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/status"
	"github.com/rezonia/pdf-signature-checker/internal/textfix"
)

// Builder assembles presentations from verification reports
type Builder struct {
	normalizer *textfix.Normalizer
	logger     *zap.Logger
	location   *time.Location
	newID      func() string
}

// Option configures a Builder
type Option func(*Builder)

// WithNormalizer sets the text normalizer used for identity fields
func WithNormalizer(n *textfix.Normalizer) Option {
	return func(b *Builder) {
		if n != nil {
			b.normalizer = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLocation sets the time zone dates are shown in
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.location = loc
		}
	}
}

// WithIDGenerator replaces the report ID generator
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// NewBuilder creates a Builder. Dates are shown in Asia/Ho_Chi_Minh when the
// zone database is available, otherwise in UTC+7.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:   zap.NewNop(),
		location: defaultLocation(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.normalizer == nil {
		b.normalizer = textfix.New(textfix.WithLogger(b.logger))
	}
	return b
}

func defaultLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Ho_Chi_Minh"); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

// Build presents a verification report. A nil, unsuccessful or inconsistent
// report yields the FAILED state; nothing is partially classified.
func (b *Builder) Build(ctx context.Context, report *model.VerificationReport, file *FileInfo) *Presentation {
	if report == nil {
		return b.Failed(file, fmt.Errorf("no report"))
	}
	if !report.Success {
		return b.Failed(file, fmt.Errorf("verification service reported failure: %s", report.Error))
	}
	if err := report.Validate(); err != nil {
		return b.Failed(file, err)
	}

	p := &Presentation{
		ReportID:   b.newID(),
		File:       file,
		Count:      len(report.Signatures),
		Signatures: []SignatureView{},
	}
	if p.Count == 0 {
		p.State = StateNoSignatures
		return p
	}

	normalized := b.normalizer.NormalizeReport(*report)
	bundles, err := status.ClassifyAll(ctx, normalized.Signatures)
	if err != nil {
		return b.Failed(file, err)
	}

	p.State = StateSignatures
	p.Signatures = make([]SignatureView, len(bundles))
	for i, rec := range normalized.Signatures {
		p.Signatures[i] = b.view(i+1, rec, bundles[i])
	}

	b.logger.Debug("presentation built",
		zap.String("report_id", p.ReportID),
		zap.Int("signatures", p.Count))
	return p
}

// Failed returns the FAILED presentation. The cause is logged and never shown.
func (b *Builder) Failed(file *FileInfo, cause error) *Presentation {
	p := &Presentation{
		ReportID:   b.newID(),
		State:      StateFailed,
		Message:    FailureMessage,
		File:       file,
		Signatures: []SignatureView{},
	}
	b.logger.Warn("signature verification failed",
		zap.String("report_id", p.ReportID),
		zap.Error(cause))
	return p
}

func (b *Builder) view(index int, rec model.SignatureRecord, bundle status.Bundle) SignatureView {
	placeholder := b.normalizer.Placeholder()
	return SignatureView{
		Index:       index,
		Key:         fmt.Sprintf("%s-%d", rec.FieldName, index),
		Title:       fmt.Sprintf("Chữ ký #%d", index),
		FieldName:   rec.FieldName,
		Signer:      b.identity(rec.Signer),
		Issuer:      b.identity(rec.Issuer.OrElse(model.Identity{})),
		SigningTime: formatOptionalDate(rec.SigningTime, b.location, placeholder),
		ValidFrom:   formatOptionalDate(rec.ValidFrom, b.location, placeholder),
		ValidUntil:  formatOptionalDate(rec.ValidUntil, b.location, placeholder),
		Status:      bundle,
		Labels:      labelsFor(bundle, rec.IsExpired, placeholder),
	}
}

// identity fills placeholders; the text was normalized with the report
func (b *Builder) identity(id model.Identity) IdentityView {
	return IdentityView{
		CommonName:         b.normalizer.Fill(id.CommonName),
		Organization:       b.normalizer.Fill(id.Organization),
		OrganizationalUnit: b.normalizer.Fill(id.OrganizationalUnit),
		StateOrProvince:    b.normalizer.Fill(id.StateOrProvince),
		Country:            b.normalizer.Fill(id.Country),
		UserID:             b.normalizer.Fill(id.UserID),
	}
}

// NewFileInfo describes a document of the given name and size
func NewFileInfo(name string, size int64) *FileInfo {
	return &FileInfo{
		Name:  name,
		Bytes: size,
		Size:  FormatSize(size),
	}
}
