package presenter

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/pdf-signature-checker/internal/model"
	"github.com/rezonia/pdf-signature-checker/internal/status"
)

var headlineLabels = map[status.Headline]string{
	status.HeadlineValidAndCurrent: "Hợp lệ & Còn hiệu lực",
	status.HeadlineValidButExpired: "Hợp lệ • Đã hết hạn",
	status.HeadlineInvalid:         "Không hợp lệ",
}

var coverageLabels = map[string]string{
	model.CoverageEntireFile:     "Toàn bộ tài liệu",
	model.CoverageEntireRevision: "Toàn bộ phiên bản hiện tại",
}

var integrityLabels = map[status.Integrity]string{
	status.IntegrityUnchanged: "Không bị thay đổi",
	status.IntegrityAltered:   "Đã bị thay đổi",
}

var timestampLabels = map[status.TimestampSource]string{
	status.TimestampTrustedTSA: "Dấu thời gian từ máy chủ tin cậy (TSA)",
	status.TimestampLocalClock: "Dấu thời gian theo đồng hồ máy người ký",
}

var structureLabels = map[status.Structure]string{
	status.StructurePassed: "Cấu trúc hợp lệ",
	status.StructureFailed: "Cấu trúc không hợp lệ",
}

// labelsFor renders the Vietnamese texts of a bundle. expired is the raw
// expiry flag of the record.
func labelsFor(b status.Bundle, expired bool, placeholder string) Labels {
	l := Labels{
		Headline:  headlineLabels[b.Headline],
		Coverage:  placeholder,
		Structure: structureLabels[b.Structure],
	}

	if b.CoverageLabel != "" {
		l.Coverage = b.CoverageLabel
		if vi, ok := coverageLabels[b.CoverageLabel]; ok {
			l.Coverage = vi
		}
	}
	if b.Integrity != nil {
		l.Integrity = integrityLabels[*b.Integrity]
	}
	if b.Timestamp != nil {
		l.Timestamp = timestampLabels[*b.Timestamp]
	}

	if b.Detail.ValidAtSigning {
		l.ValidAtSigning = "Hợp lệ tại thời điểm ký"
	} else {
		l.ValidAtSigning = "Không hợp lệ tại thời điểm ký"
	}

	if expired {
		l.Expiry = "Đã hết hạn"
	} else {
		l.Expiry = "Còn hiệu lực"
	}
	return l
}

// FormatDate renders t in the Vietnamese long form, e.g. "15 tháng 1, 2025 10:30"
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d tháng %d, %d %02d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

func formatOptionalDate(ts model.Optional[model.Timestamp], loc *time.Location, placeholder string) string {
	t, ok := ts.Get()
	if !ok {
		return placeholder
	}
	return FormatDate(t.Time, loc)
}

var bytesPerMB = decimal.NewFromInt(1024 * 1024)

// FormatSize renders a byte count as megabytes with two decimals, e.g. "1.50 MB"
func FormatSize(bytes int64) string {
	return decimal.NewFromInt(bytes).Div(bytesPerMB).StringFixed(2) + " MB"
}
