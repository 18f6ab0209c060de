package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/pdf-signature-checker/internal/pdfcheck"
	"github.com/rezonia/pdf-signature-checker/internal/server"
)

var (
	serverAddr    string
	serverDebug   bool
	readTimeout   time.Duration
	writeTimeout  time.Duration
	maxUploadSize int64
	cacheTTL      time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server for checking PDF signatures.

The API provides endpoints for:
  - POST /api/v1/check     - Check a PDF (raw body or multipart field "file")
  - POST /api/v1/classify  - Classify a verification report (JSON)
  - POST /api/v1/info      - Get PDF size and page count
  - GET  /health           - Health check (?upstream=true probes the service)

Examples:
  # Start server on default port
  pdf-signature-checker serve

  # Start on custom port against a remote verification service
  pdf-signature-checker serve --address :9000 --verifier-url http://verifier:5001

  # Start in debug mode
  pdf-signature-checker serve --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address (env: CHECKER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 2*time.Minute, "HTTP write timeout")
	serveCmd.Flags().Int64Var(&maxUploadSize, "max-upload", pdfcheck.DefaultMaxSize, "Largest accepted PDF in bytes")
	serveCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0, "Reuse reports for identical uploads for this long (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(true)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	config := &server.Config{
		Address:       serverAddr,
		VerifierURL:   verifierURL,
		VerifyTimeout: verifyTimeout,
		MaxUploadSize: maxUploadSize,
		CacheTTL:      cacheTTL,
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		Debug:         serverDebug,
	}

	srv := server.NewServer(config, server.WithLogger(logger))

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("address", serverAddr),
		zap.String("verifier_url", verifierURL),
		zap.Duration("cache_ttl", cacheTTL))

	return srv.Run(ctx)
}
