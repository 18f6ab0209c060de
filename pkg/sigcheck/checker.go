package sigcheck

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/pdf-signature-checker/internal/pdfcheck"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/textfix"
	"github.com/rezonia/pdf-signature-checker/internal/verifier"
)

// Options configures a Checker
type Options struct {
	VerifierURL   string
	Timeout       time.Duration
	MaxUploadSize int64
	Placeholder   string
	CacheTTL      time.Duration
	Concurrency   int
	Logger        *zap.Logger
}

// DefaultOptions returns the default checker options
func DefaultOptions() Options {
	return Options{
		VerifierURL:   verifier.DefaultBaseURL,
		Timeout:       verifier.DefaultTimeout,
		MaxUploadSize: pdfcheck.DefaultMaxSize,
		Placeholder:   textfix.DefaultPlaceholder,
		Concurrency:   4,
	}
}

// Checker runs preflight, verification and presentation for PDF files
type Checker struct {
	verifier    verifier.Verifier
	preflighter *pdfcheck.Preflighter
	builder     *presenter.Builder
	options     Options
}

// NewChecker creates a checker that talks to the service at opts.VerifierURL
func NewChecker(opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var v verifier.Verifier = verifier.NewHTTPVerifier(
		verifier.WithBaseURL(opts.VerifierURL),
		verifier.WithTimeout(opts.Timeout),
		verifier.WithLogger(logger),
	)
	if opts.CacheTTL > 0 {
		v = verifier.NewCachingVerifier(v, verifier.NewReportCache(opts.CacheTTL))
	}
	return newChecker(v, opts, logger)
}

// NewCheckerWithVerifier creates a checker around a custom verifier
func NewCheckerWithVerifier(v verifier.Verifier, opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return newChecker(v, opts, logger)
}

func newChecker(v verifier.Verifier, opts Options, logger *zap.Logger) *Checker {
	normalizerOpts := []textfix.Option{textfix.WithLogger(logger)}
	if opts.Placeholder != "" {
		normalizerOpts = append(normalizerOpts, textfix.WithPlaceholder(opts.Placeholder))
	}

	return &Checker{
		verifier: v,
		preflighter: pdfcheck.New(
			pdfcheck.WithMaxSize(opts.MaxUploadSize),
			pdfcheck.WithLogger(logger),
		),
		builder: presenter.NewBuilder(
			presenter.WithLogger(logger),
			presenter.WithNormalizer(textfix.New(normalizerOpts...)),
		),
		options: opts,
	}
}

// Check reads a PDF and returns its presentation. The error is non-nil only
// when the input is not an acceptable PDF; verification failures yield the
// FAILED presentation.
func (c *Checker) Check(ctx context.Context, r io.Reader) (*Presentation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pdfcheck.NewPreflightError(pdfcheck.ErrCodeUnreadable, "failed to read input", err)
	}
	return c.CheckBytes(ctx, "", data)
}

// CheckBytes checks an in-memory PDF. name is only used for display.
func (c *Checker) CheckBytes(ctx context.Context, name string, data []byte) (*Presentation, error) {
	result, err := c.preflighter.Check(data)
	if err != nil {
		return nil, err
	}

	file := presenter.NewFileInfo(name, result.Bytes)
	file.Pages = result.Pages

	report, err := c.verifier.Verify(ctx, data)
	if err != nil {
		return c.builder.Failed(file, err), nil
	}
	return c.builder.Build(ctx, report, file), nil
}

// Present builds the presentation of an existing report without calling the
// verification service
func (c *Checker) Present(ctx context.Context, report *VerificationReport) *Presentation {
	return c.builder.Build(ctx, report, nil)
}

// CheckBatch checks several PDFs concurrently. Results keep input order; a
// preflight error for one input does not stop the others, and one of those
// errors is returned alongside the results that succeeded.
func (c *Checker) CheckBatch(ctx context.Context, inputs [][]byte) ([]*Presentation, error) {
	results := make([]*Presentation, len(inputs))

	var g errgroup.Group
	g.SetLimit(max(c.options.Concurrency, 1))

	for i, data := range inputs {
		g.Go(func() error {
			p, err := c.CheckBytes(ctx, "", data)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = p
			return nil
		})
	}

	return results, g.Wait()
}
