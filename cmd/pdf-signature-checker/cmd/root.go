package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/verifier"
)

var (
	version = "1.0.0"

	// Global flags
	verbose       bool
	outputFormat  string
	outputFile    string
	verifierURL   string
	verifyTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "pdf-signature-checker",
	Short: "Check digital signatures in PDF files",
	Long: `PDF Signature Checker sends PDF files to a signature verification
service and turns its report into a readable summary.

For every signature it shows:
  - Overall status (valid and current, valid but expired, invalid)
  - Whether the document changed after signing
  - Signer and issuing CA, with broken Vietnamese text repaired
  - Signing time, certificate validity and timestamp source

Examples:
  # Check a signed contract
  pdf-signature-checker check contract.pdf

  # Check every PDF in a folder, as JSON
  pdf-signature-checker check invoices/ -f json

  # Classify a saved verification report without calling the service
  pdf-signature-checker classify report.json

  # Run the HTTP API
  pdf-signature-checker serve --address :8080`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&verifierURL, "verifier-url", "", "Verification service URL (env: VERIFIER_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&verifyTimeout, "timeout", verifier.DefaultTimeout, "Verification timeout per file")

	// Load from environment variables if not set via flags
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	// Verification service
	if verifierURL == "" {
		verifierURL = os.Getenv("VERIFIER_API_URL")
	}
	if verifierURL == "" {
		verifierURL = os.Getenv("PYTHON_API_URL")
	}
	if verifierURL == "" {
		verifierURL = verifier.DefaultBaseURL
	}

	// Server address
	if !serveCmd.Flags().Changed("address") {
		if addr := os.Getenv("CHECKER_ADDRESS"); addr != "" {
			serverAddr = addr
		}
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// newLogger returns a development logger with --verbose. Otherwise the CLI
// only reports warnings, and serve logs at info level.
func newLogger(serving bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	if !serving {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return config.Build()
}

// output renders presentations to --output or the command's stdout
func output(cmd *cobra.Command, ps []*presenter.Presentation) (err error) {
	format, err := presenter.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	w, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOutput(w, &err)

	return presenter.Render(w, format, ps...)
}

// writeEncoded writes v as JSON or YAML
func writeEncoded(cmd *cobra.Command, format presenter.Format, v any) (err error) {
	w, err := outputWriter(cmd)
	if err != nil {
		return err
	}
	defer closeOutput(w, &err)

	switch format {
	case presenter.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case presenter.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// createOutput opens the --output file
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func outputWriter(cmd *cobra.Command) (io.WriteCloser, error) {
	if outputFile == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := createOutput(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// closeOutput closes w and reports its error unless an earlier one is set
func closeOutput(w io.Closer, err *error) {
	if cerr := w.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to write output file: %w", cerr)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
