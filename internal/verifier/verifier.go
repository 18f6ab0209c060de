// Package verifier talks to the external PDF signature verification service.
// It never inspects signatures itself; it uploads the document and decodes
// the report the service sends back.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/pdf-signature-checker/internal/model"
)

// Defaults for the upstream service
const (
	DefaultBaseURL = "http://localhost:5001"
	DefaultTimeout = 60 * time.Second

	VerifyPath = "/api/verify-pdf"
	HealthPath = "/api/health"

	// UploadField and UploadFilename are what the service expects in the form
	UploadField    = "file"
	UploadFilename = "document.pdf"

	maxErrorBody = 512
)

// Verifier produces a verification report for a PDF
type Verifier interface {
	// Verify uploads data and returns the decoded, consistency-checked report.
	// Any failure is an *UpstreamError.
	Verify(ctx context.Context, data []byte) (*model.VerificationReport, error)
}

// HTTPVerifier calls the verification service over HTTP
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures an HTTPVerifier
type Option func(*HTTPVerifier)

// WithBaseURL sets the service base URL
func WithBaseURL(baseURL string) Option {
	return func(v *HTTPVerifier) {
		if baseURL != "" {
			v.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(v *HTTPVerifier) {
		if timeout > 0 {
			v.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(v *HTTPVerifier) {
		if client != nil {
			v.client = client
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(v *HTTPVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewHTTPVerifier creates a verifier for the service at DefaultBaseURL unless
// WithBaseURL says otherwise
func NewHTTPVerifier(opts ...Option) *HTTPVerifier {
	v := &HTTPVerifier{
		baseURL: DefaultBaseURL,
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// BaseURL returns the service base URL
func (v *HTTPVerifier) BaseURL() string {
	return v.baseURL
}

// Verify uploads data as a multipart form and decodes the report
func (v *HTTPVerifier) Verify(ctx context.Context, data []byte) (*model.VerificationReport, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, contentType, err := buildUpload(data)
	if err != nil {
		return nil, ErrTransport(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+VerifyPath, body)
	if err != nil {
		return nil, ErrTransport(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("verification request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return nil, ErrTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrTransport(fmt.Errorf("failed to read response: %w", err))
	}

	v.logger.Debug("verification service responded",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrStatus(resp.StatusCode, errorBody(raw))
	}

	return decodeReport(raw)
}

// Health probes the service health endpoint
func (v *HTTPVerifier) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+HealthPath, nil)
	if err != nil {
		return ErrTransport(err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return ErrTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return ErrStatus(resp.StatusCode, errorBody(raw))
	}
	return nil
}

func buildUpload(data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, UploadFilename))
	header.Set("Content-Type", "application/pdf")

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeReport maps decoding and consistency failures to upstream errors
func decodeReport(raw []byte) (*model.VerificationReport, error) {
	var report model.VerificationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, ErrMalformed(err)
	}
	if !report.Success {
		return nil, ErrRejected(report.Error)
	}
	if err := report.Validate(); err != nil {
		var re *model.ReportError
		if errors.As(err, &re) && re.Code == model.ErrCodeCountMismatch {
			return nil, ErrCountMismatch(err)
		}
		return nil, ErrMalformed(err)
	}
	return &report, nil
}

func errorBody(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
