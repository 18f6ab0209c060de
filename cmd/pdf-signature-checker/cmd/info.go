package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezonia/pdf-signature-checker/internal/pdfcheck"
	"github.com/rezonia/pdf-signature-checker/internal/presenter"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about PDF files",
	Long: `Display information about PDF files without verifying signatures.

Shows:
  - Whether the file is a readable PDF
  - Page count
  - File size

Examples:
  pdf-signature-checker info contract.pdf
  pdf-signature-checker info *.pdf -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// FileInfoResult holds the result of inspecting a single file
type FileInfoResult struct {
	File  string `json:"file" yaml:"file"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
	Size  string `json:"size" yaml:"size"`
	Pages int    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".pdf")
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	preflighter := pdfcheck.New()
	results := make([]FileInfoResult, 0, len(files))
	for _, file := range files {
		results = append(results, inspectFile(preflighter, file))
	}

	format, err := presenter.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format != presenter.FormatTable {
		return writeEncoded(cmd, format, results)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tPAGES\tSTATUS")
	fmt.Fprintln(tw, "----\t----\t-----\t------")
	for _, r := range results {
		status := "OK"
		if r.Error != "" {
			status = "ERROR: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.File, r.Size, r.Pages, status)
	}
	return tw.Flush()
}

func inspectFile(preflighter *pdfcheck.Preflighter, path string) FileInfoResult {
	result := FileInfoResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	result.Bytes = int64(len(data))
	result.Size = presenter.FormatSize(result.Bytes)

	checked, err := preflighter.Check(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Pages = checked.Pages
	return result
}
