package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
	"github.com/rezonia/pdf-signature-checker/internal/textfix"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [reports...]",
	Short: "Classify saved verification reports",
	Long: `Classify verification reports saved as JSON without calling the
verification service. Useful for reviewing past results or debugging
the service's output.

Examples:
  pdf-signature-checker classify report.json
  pdf-signature-checker classify reports/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no report files found")
	}

	logger, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	builder := presenter.NewBuilder(
		presenter.WithLogger(logger),
		presenter.WithNormalizer(textfix.New(textfix.WithLogger(logger))),
	)

	results := make([]*presenter.Presentation, 0, len(files))
	for _, file := range files {
		printVerbose("Classifying: %s\n", file)

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		report, err := model.ParseReport(data)
		if err != nil {
			return fmt.Errorf("invalid report %s: %w", file, err)
		}

		p := builder.Build(cmd.Context(), report, nil)
		p.File = &presenter.FileInfo{Name: file}
		results = append(results, p)
	}

	return output(cmd, results)
}
