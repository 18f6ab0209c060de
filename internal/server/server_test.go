package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/server"
	"github.com/rezonia/pdf-signature-checker/internal/verifier"
)

type fakeVerifier struct {
	report *model.VerificationReport
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, data []byte) (*model.VerificationReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	report := f.report.Clone()
	return &report, nil
}

func newTestServer(v verifier.Verifier, opts ...server.Option) *server.Server {
	config := &server.Config{
		Address: ":8080",
		Debug:   true,
	}
	return server.NewServer(config, append([]server.Option{server.WithVerifier(v)}, opts...)...)
}

func onePDF() []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>")

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func signedReport() *model.VerificationReport {
	return &model.VerificationReport{
		Success: true,
		Count:   1,
		Signatures: []model.SignatureRecord{{
			FieldName:                   "Signature1",
			Coverage:                    model.Some("SignatureCoverageLevel.ENTIRE_FILE"),
			IsValid:                     true,
			CryptographicSignatureValid: true,
			DocumentUnchanged:           model.Some(true),
			ValidFrom:                   model.Some(model.Timestamp{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}),
			Signer:                      model.Identity{CommonName: model.Some("Tráº§n VÄ\u0083n An")},
		}},
	}
}

func decodePresentation(t *testing.T, w *httptest.ResponseRecorder) presenter.Presentation {
	t.Helper()
	var p presenter.Presentation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response server.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.NotEmpty(t, response.Time)
	assert.Empty(t, response.Upstream)
}

func TestHealthEndpoint_Upstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	srv := server.NewServer(&server.Config{VerifierURL: upstream.URL, VerifyTimeout: time.Second})

	req := httptest.NewRequest(http.MethodGet, "/health?upstream=true", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response server.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "unavailable", response.Upstream)
}

func TestCheckEndpoint_RawBody(t *testing.T) {
	fake := &fakeVerifier{report: signedReport()}
	srv := newTestServer(fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check?filename=hop-dong.pdf", bytes.NewReader(onePDF()))
	req.Header.Set("Content-Type", "application/pdf")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(server.RequestIDHeader), 36)

	p := decodePresentation(t, w)
	assert.Equal(t, presenter.StateSignatures, p.State)
	require.NotNil(t, p.File)
	assert.Equal(t, "hop-dong.pdf", p.File.Name)
	assert.Equal(t, 1, p.File.Pages)
	require.Len(t, p.Signatures, 1)
	assert.Equal(t, "Trần Văn An", p.Signatures[0].Signer.CommonName)
	assert.Equal(t, "Signature1-1", p.Signatures[0].Key)
	assert.Equal(t, "Hợp lệ & Còn hiệu lực", p.Signatures[0].Labels.Headline)
	assert.Equal(t, 1, fake.calls)
}

func TestCheckEndpoint_Multipart(t *testing.T) {
	srv := newTestServer(&fakeVerifier{report: signedReport()})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = part.Write(onePDF())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(server.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(server.RequestIDHeader))

	p := decodePresentation(t, w)
	assert.Equal(t, "contract.pdf", p.File.Name)
	assert.Equal(t, presenter.StateSignatures, p.State)
}

func TestCheckEndpoint_NoSignatures(t *testing.T) {
	srv := newTestServer(&fakeVerifier{report: &model.VerificationReport{Success: true, Count: 0, Signatures: []model.SignatureRecord{}}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(onePDF()))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	p := decodePresentation(t, w)
	assert.Equal(t, presenter.StateNoSignatures, p.State)
	assert.Empty(t, p.Signatures)
}

func TestCheckEndpoint_UpstreamFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport", verifier.ErrTransport(fmt.Errorf("connection refused"))},
		{"status", verifier.ErrStatus(http.StatusInternalServerError, "boom")},
		{"rejected", verifier.ErrRejected("Failed to process PDF")},
		{"count mismatch", verifier.ErrCountMismatch(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeVerifier{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(onePDF()))
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadGateway, w.Code)
			p := decodePresentation(t, w)
			assert.Equal(t, presenter.StateFailed, p.State)
			assert.Equal(t, "Failed to verify PDF signature", p.Message)
			assert.Empty(t, p.Signatures)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestCheckEndpoint_BadInput(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
		wantError   string
	}{
		{"empty body", nil, "application/pdf", "empty request body"},
		{"not a pdf", []byte("PK\x03\x04 zip"), "application/octet-stream", "only PDF files are supported"},
		{"broken pdf", []byte("%PDF-1.7\n"), "application/pdf", "file is not a readable PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeVerifier{report: signedReport()}
			srv := newTestServer(fake)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantError, response.Error)
			assert.Equal(t, 0, fake.calls)
		})
	}
}

func TestCheckEndpoint_MultipartWithoutFile(t *testing.T) {
	srv := newTestServer(&fakeVerifier{report: signedReport()})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no file provided")
}

func TestClassifyEndpoint(t *testing.T) {
	srv := newTestServer(&fakeVerifier{})

	data, err := json.Marshal(signedReport())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	p := decodePresentation(t, w)
	assert.Equal(t, presenter.StateSignatures, p.State)
	assert.Nil(t, p.File)
	require.Len(t, p.Signatures, 1)
	assert.Equal(t, "Trần Văn An", p.Signatures[0].Signer.CommonName)
}

func TestClassifyEndpoint_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty", "", http.StatusBadRequest},
		{"not json", "{", http.StatusUnprocessableEntity},
		{"count mismatch", `{"success": true, "count": 3, "signatures": []}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeVerifier{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestClassifyEndpoint_ServiceFailure(t *testing.T) {
	srv := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify",
		bytes.NewReader([]byte(`{"success": false, "count": 0, "signatures": [], "error": "bad pdf"}`)))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	p := decodePresentation(t, w)
	assert.Equal(t, presenter.StateFailed, p.State)
	assert.Equal(t, presenter.FailureMessage, p.Message)
}

func TestInfoEndpoint(t *testing.T) {
	srv := newTestServer(&fakeVerifier{})
	data := onePDF()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/info", bytes.NewReader(data))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response server.InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "application/pdf", response.MimeType)
	assert.Equal(t, int64(len(data)), response.Bytes)
	assert.Equal(t, "0.00 MB", response.Size)
	assert.Equal(t, 1, response.Pages)
}

func TestInfoEndpoint_EmptyBody(t *testing.T) {
	srv := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/info", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv := newTestServer(&fakeVerifier{}, server.WithLogger(zap.New(core)))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.RequestIDHeader, "trace-1")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/health", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "trace-1", fields["request_id"])
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// countingBody streams a PDF header followed by zeros and counts what was read
type countingBody struct {
	remaining int64
	read      int64
	header    []byte
}

func newCountingBody(size int64) *countingBody {
	return &countingBody{remaining: size, header: []byte("%PDF-1.7\n")}
}

func (b *countingBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n := copy(p, b.header)
	b.header = b.header[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	b.remaining -= int64(len(p))
	b.read += int64(len(p))
	return len(p), nil
}

func TestUploadLimit(t *testing.T) {
	const limit = 64 << 10
	const bodySize = 32 << 20

	tests := []struct {
		name string
		path string
	}{
		{"check", "/api/v1/check"},
		{"info", "/api/v1/info"},
		{"classify", "/api/v1/classify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeVerifier{report: signedReport()}
			srv := server.NewServer(&server.Config{MaxUploadSize: limit, Debug: true}, server.WithVerifier(fake))

			body := newCountingBody(bodySize)
			req := httptest.NewRequest(http.MethodPost, tt.path, body)
			req.Header.Set("Content-Type", "application/pdf")
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			assert.LessOrEqual(t, body.read, int64(limit+1))
			assert.Equal(t, 0, fake.calls)

			var response server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Contains(t, response.Error, "larger than")
		})
	}
}

func TestUploadLimit_Multipart(t *testing.T) {
	const limit = 64 << 10

	fake := &fakeVerifier{report: signedReport()}
	srv := server.NewServer(&server.Config{MaxUploadSize: limit, Debug: true}, server.WithVerifier(fake))

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", "big.pdf")
		if err == nil {
			_, err = io.Copy(part, newCountingBody(32<<20))
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", pr)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	_ = pr.CloseWithError(io.ErrClosedPipe)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 0, fake.calls)
}

func TestUploadLimit_PreflightTooLarge(t *testing.T) {
	fake := &fakeVerifier{report: signedReport()}
	pdf := onePDF()
	srv := server.NewServer(&server.Config{MaxUploadSize: int64(len(pdf)) - 1, Debug: true}, server.WithVerifier(fake))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "a.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdf)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 0, fake.calls)
}
