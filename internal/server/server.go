package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/pdfcheck"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/textfix"
	"github.com/rezonia/pdf-signature-checker/internal/verifier"
)

// multipartOverhead is allowed on top of the upload limit for form framing
const multipartOverhead = 64 << 10

// Config holds server configuration
type Config struct {
	Address       string
	VerifierURL   string
	VerifyTimeout time.Duration
	MaxUploadSize int64
	CacheTTL      time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Debug         bool
}

// Server represents the HTTP API server
type Server struct {
	config      *Config
	router      *gin.Engine
	logger      *zap.Logger
	verifier    verifier.Verifier
	health      healthChecker
	preflighter *pdfcheck.Preflighter
	builder     *presenter.Builder
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVerifier replaces the upstream verifier built from Config
func WithVerifier(v verifier.Verifier) Option {
	return func(s *Server) {
		if v != nil {
			s.verifier = v
			s.health = nil
			if h, ok := v.(healthChecker); ok {
				s.health = h
			}
		}
	}
}

// NewServer creates a new API server
func NewServer(config *Config, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: config,
		router: gin.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.verifier == nil {
		httpVerifier := verifier.NewHTTPVerifier(
			verifier.WithBaseURL(config.VerifierURL),
			verifier.WithTimeout(config.VerifyTimeout),
			verifier.WithLogger(s.logger),
		)
		s.health = httpVerifier
		s.verifier = httpVerifier
		if config.CacheTTL > 0 {
			s.verifier = verifier.NewCachingVerifier(httpVerifier, verifier.NewReportCache(config.CacheTTL))
		}
	}

	s.preflighter = pdfcheck.New(
		pdfcheck.WithMaxSize(s.maxUploadSize()),
		pdfcheck.WithLogger(s.logger),
	)
	s.builder = presenter.NewBuilder(
		presenter.WithLogger(s.logger),
		presenter.WithNormalizer(textfix.New(textfix.WithLogger(s.logger))),
	)

	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(requestLogger(s.logger))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/check", s.handleCheck)
		v1.POST("/classify", s.handleClassify)
		v1.POST("/info", s.handleInfo)
	}
}

// Run starts the HTTP server and blocks until ctx is done, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("server started", zap.String("address", s.config.Address))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if s.health != nil && c.Query("upstream") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		response.Upstream = "ok"
		if err := s.health.Health(ctx); err != nil {
			s.logger.Warn("verification service unhealthy", zap.Error(err))
			response.Status = "degraded"
			response.Upstream = "unavailable"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleCheck(c *gin.Context) {
	name, body, ok := s.readUpload(c)
	if !ok {
		return
	}

	result, err := s.preflighter.Check(body)
	if err != nil {
		c.JSON(preflightStatus(err), gin.H{"error": preflightMessage(err)})
		return
	}

	file := presenter.NewFileInfo(name, result.Bytes)
	file.Pages = result.Pages

	report, err := s.verifier.Verify(c.Request.Context(), body)
	if err != nil {
		s.logger.Warn("upstream verification failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("code", verifier.Code(err)),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, s.builder.Failed(file, err))
		return
	}

	c.JSON(http.StatusOK, s.builder.Build(c.Request.Context(), report, file))
}

func (s *Server) handleClassify(c *gin.Context) {
	limit := s.maxUploadSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	body, err := c.GetRawData()
	if err != nil {
		if s.tooLarge(c, err, limit) {
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	report, err := model.ParseReport(body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid verification report",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, s.builder.Build(c.Request.Context(), report, nil))
}

func (s *Server) handleInfo(c *gin.Context) {
	name, body, ok := s.readUpload(c)
	if !ok {
		return
	}

	result, err := s.preflighter.Check(body)
	if err != nil {
		c.JSON(preflightStatus(err), gin.H{"error": preflightMessage(err)})
		return
	}

	c.JSON(http.StatusOK, InfoResponse{
		Name:     name,
		MimeType: "application/pdf",
		Bytes:    result.Bytes,
		Size:     presenter.FormatSize(result.Bytes),
		Pages:    result.Pages,
	})
}

// maxUploadSize is the configured limit, or the preflight default
func (s *Server) maxUploadSize() int64 {
	if s.config.MaxUploadSize > 0 {
		return s.config.MaxUploadSize
	}
	return pdfcheck.DefaultMaxSize
}

// readUpload accepts a multipart form with a "file" field or a raw body.
// Reading stops once the body exceeds the upload limit.
func (s *Server) readUpload(c *gin.Context) (string, []byte, bool) {
	limit := s.maxUploadSize()

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

		header, err := c.FormFile(verifier.UploadField)
		if err != nil {
			if s.tooLarge(c, err, limit) {
				return "", nil, false
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return "", nil, false
		}

		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
			return "", nil, false
		}
		defer f.Close()

		body, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
			return "", nil, false
		}
		if len(body) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
			return "", nil, false
		}
		return header.Filename, body, true
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	body, err := c.GetRawData()
	if err != nil {
		if s.tooLarge(c, err, limit) {
			return "", nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return "", nil, false
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return "", nil, false
	}

	return c.Query("filename"), body, true
}

// tooLarge answers 413 when err comes from the upload limit
func (s *Server) tooLarge(c *gin.Context, err error, limit int64) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	s.logger.Warn("upload rejected",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Int64("limit", limit))
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file is larger than %d bytes", limit)})
	return true
}

func preflightStatus(err error) int {
	var pe *pdfcheck.PreflightError
	if errors.As(err, &pe) && pe.Code == pdfcheck.ErrCodeTooLarge {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func preflightMessage(err error) string {
	var pe *pdfcheck.PreflightError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "invalid file"
}
