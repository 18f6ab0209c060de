package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rezonia/pdf-signature-checker/internal/pdfcheck"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/textfix"
	"github.com/rezonia/pdf-signature-checker/internal/verifier"
)

var (
	concurrency int
	strict      bool
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check PDF signatures through the verification service",
	Long: `Check the digital signatures of one or more PDF files.

Every file is validated locally, uploaded to the verification service
and its report is classified:
  - Headline: valid and current, valid but expired, or invalid
  - Document integrity after signing
  - Timestamp source (trusted TSA or the signer's clock)
  - Structural problems reported by the service

Examples:
  # Check one file
  pdf-signature-checker check contract.pdf

  # Check a folder with 8 parallel uploads
  pdf-signature-checker check invoices/ --concurrency 8

  # Use another verification service
  pdf-signature-checker check --verifier-url http://verifier:5001 contract.pdf

  # YAML output
  pdf-signature-checker check -f yaml contract.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of files checked in parallel")
	checkCmd.Flags().BoolVar(&strict, "strict", false, "Fail unless every signature is valid and current")
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no PDF files found to check")
	}

	logger, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	printVerbose("Checking %d files against %s\n", len(files), verifierURL)

	c := &checker{
		verifier: verifier.NewHTTPVerifier(
			verifier.WithBaseURL(verifierURL),
			verifier.WithTimeout(verifyTimeout),
			verifier.WithLogger(logger),
		),
		preflighter: pdfcheck.New(pdfcheck.WithLogger(logger)),
		builder: presenter.NewBuilder(
			presenter.WithLogger(logger),
			presenter.WithNormalizer(textfix.New(textfix.WithLogger(logger))),
		),
	}

	results, err := c.checkAll(cmd.Context(), files)
	if err != nil {
		return err
	}

	if err := output(cmd, results); err != nil {
		return err
	}

	for _, p := range results {
		if !p.Succeeded() {
			return fmt.Errorf("verification failed for some files")
		}
		if strict && !p.AllGood() {
			return fmt.Errorf("some files have signatures that are not valid and current")
		}
	}
	return nil
}

type checker struct {
	verifier    verifier.Verifier
	preflighter *pdfcheck.Preflighter
	builder     *presenter.Builder
}

// checkAll checks files concurrently and keeps their order
func (c *checker) checkAll(ctx context.Context, files []string) ([]*presenter.Presentation, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]*presenter.Presentation, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, file := range files {
		g.Go(func() error {
			printVerbose("Checking: %s\n", file)
			results[i] = c.checkFile(ctx, file)
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *checker) checkFile(ctx context.Context, path string) *presenter.Presentation {
	data, err := os.ReadFile(path)
	if err != nil {
		return c.builder.Failed(presenter.NewFileInfo(path, 0), fmt.Errorf("failed to read file: %w", err))
	}

	file := presenter.NewFileInfo(path, int64(len(data)))

	result, err := c.preflighter.Check(data)
	if err != nil {
		return c.builder.Failed(file, err)
	}
	file.Pages = result.Pages

	report, err := c.verifier.Verify(ctx, data)
	if err != nil {
		return c.builder.Failed(file, fmt.Errorf("%s: %w", path, err))
	}

	presentation := c.builder.Build(ctx, report, file)
	printVerbose("  %s: %s (%d signatures)\n", path, presentation.State, presentation.Count)
	return presentation
}

