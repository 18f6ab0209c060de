package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output format for presentations
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "text":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use table, json or yaml)", s)
	}
}

// Render writes presentations in the given format. A single presentation is
// encoded as an object, several as a list.
func Render(w io.Writer, format Format, ps ...*Presentation) error {
	var v any = ps
	if len(ps) == 1 {
		v = ps[0]
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	case FormatTable:
		for _, p := range ps {
			if err := writeTable(w, p); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeTable(w io.Writer, p *Presentation) error {
	tw := &textWriter{w: w}

	name := "document"
	if p.File != nil && p.File.Name != "" {
		name = p.File.Name
	}

	switch p.State {
	case StateFailed:
		tw.printf("✗ %s: %s\n", name, p.Message)
	case StateNoSignatures:
		tw.printf("- %s: không tìm thấy chữ ký số\n", name)
	default:
		icon := "✓"
		if !p.AllGood() {
			icon = "✗"
		}
		tw.printf("%s %s: %d chữ ký\n", icon, name, p.Count)
	}

	tw.printf("  Report: %s\n", p.ReportID)
	if p.File != nil && p.File.Size != "" {
		tw.printf("  Size:   %s\n", p.File.Size)
	}
	if p.File != nil && p.File.Pages > 0 {
		tw.printf("  Pages:  %d\n", p.File.Pages)
	}

	for _, sig := range p.Signatures {
		tw.printf("\n  %s (%s): %s\n", sig.Title, sig.FieldName, sig.Labels.Headline)
		tw.printf("    Người ký:      %s\n", sig.Signer.CommonName)
		tw.printf("    Tổ chức:       %s\n", sig.Signer.Organization)
		tw.printf("    Nhà phát hành: %s\n", sig.Issuer.CommonName)
		tw.printf("    Đã ký lúc:     %s\n", sig.SigningTime)
		tw.printf("    Hiệu lực:      Từ %s Đến %s (%s)\n", sig.ValidFrom, sig.ValidUntil, sig.Labels.Expiry)
		tw.printf("    Chữ ký:        %s\n", sig.Labels.ValidAtSigning)
		if sig.Labels.Integrity != "" {
			tw.printf("    Tài liệu:      %s\n", sig.Labels.Integrity)
		}
		tw.printf("    Phạm vi:       %s\n", sig.Labels.Coverage)
		if sig.Labels.Timestamp != "" {
			tw.printf("    Thời gian ký:  %s\n", sig.Labels.Timestamp)
		}
		if sig.Labels.Structure != "" {
			tw.printf("    Cấu trúc:      %s\n", sig.Labels.Structure)
		}
		if issues := sig.Status.StructuralIssues; issues != nil {
			for _, e := range issues.FormattingErrors {
				tw.printf("      ✗ %s\n", e)
			}
			for _, warning := range issues.Warnings {
				tw.printf("      ⚠ %s\n", warning)
			}
		}
		for _, c := range sig.Status.Cautions {
			tw.printf("    ⚠ %s\n", c)
		}
	}
	tw.printf("\n")
	return tw.err
}

// textWriter keeps the first write error so table output stays linear
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}
