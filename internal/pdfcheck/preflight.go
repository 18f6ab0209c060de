// Package pdfcheck rejects uploads that are not PDFs before they are sent
// to the verification service, and reports basic document facts.
package pdfcheck

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// DefaultMaxSize is the largest accepted document
const DefaultMaxSize = 50 << 20

var pdfMagic = []byte("%PDF")

var disableConfigDir sync.Once

// Result describes an accepted document. A document that pdfcpu can read
// but not validate is still accepted; the verification service decides.
type Result struct {
	Bytes int64 `json:"bytes" yaml:"bytes"`
	Pages int   `json:"pages" yaml:"pages"`

	Valid           bool   `json:"valid" yaml:"valid"`
	ValidationError string `json:"validation_error,omitempty" yaml:"validation_error,omitempty"`
}

// Preflighter checks uploads with pdfcpu
type Preflighter struct {
	maxSize  int64
	logger   *zap.Logger
	validate func(*model.Context) error
}

// Option configures a Preflighter
type Option func(*Preflighter)

// WithMaxSize sets the largest accepted document in bytes
func WithMaxSize(n int64) Option {
	return func(p *Preflighter) {
		if n > 0 {
			p.maxSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Preflighter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Preflighter
func New(opts ...Option) *Preflighter {
	// pdfcpu otherwise reads and writes a config directory under $HOME
	disableConfigDir.Do(api.DisableConfigDir)

	p := &Preflighter{
		maxSize:  DefaultMaxSize,
		logger:   zap.NewNop(),
		validate: api.ValidateContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HasPDFMagic reports whether data starts with the PDF header
func HasPDFMagic(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Check accepts data if it is a non-empty PDF whose page tree pdfcpu can
// read. Relaxed validation failures are logged and reported in the Result.
// Failures are *PreflightError.
func (p *Preflighter) Check(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, NewPreflightError(ErrCodeEmpty, "no file provided", nil)
	}
	if int64(len(data)) > p.maxSize {
		return nil, NewPreflightError(ErrCodeTooLarge,
			fmt.Sprintf("file is %d bytes, limit is %d", len(data), p.maxSize), nil)
	}
	if !HasPDFMagic(data) {
		return nil, NewPreflightError(ErrCodeNotPDF, "only PDF files are supported", nil)
	}

	result, err := p.inspect(data)
	if err != nil {
		p.logger.Debug("pdf preflight failed", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, NewPreflightError(ErrCodeUnreadable, "file is not a readable PDF", err)
	}
	if !result.Valid {
		p.logger.Warn("pdf failed relaxed validation, forwarding anyway",
			zap.Int("bytes", len(data)),
			zap.String("validation_error", result.ValidationError))
	}
	return result, nil
}

// inspect parses and validates the document. pdfcpu can panic on hostile
// input, so a panic is reported as an error.
func (p *Preflighter) inspect(data []byte) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	result = &Result{Bytes: int64(len(data)), Valid: true}
	if verr := p.validate(ctx); verr != nil {
		result.Valid = false
		result.ValidationError = verr.Error()
	}

	// Validation fills in the page count; without it the page tree is read directly
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to read page tree: %w", err)
	}
	result.Pages = ctx.PageCount
	return result, nil
}
