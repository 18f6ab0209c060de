// Package textfix repairs identity text that the verification service
// double-encoded: UTF-8 bytes that were decoded as a single-byte Western
// charset and re-encoded as UTF-8 ("CÃ”NG TY" instead of "CÔNG TY").
package textfix

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/rezonia/pdf-signature-checker/internal/model"
)

// DefaultPlaceholder is shown for absent or empty identity fields
const DefaultPlaceholder = "N/A"

// artifacts are substrings that only appear when UTF-8 text went through a
// Latin-1 or Windows-1252 decode. Text without one of them is never touched.
var artifacts = []string{
	"Ã",       // lead byte 0xC3: à, á, â, ã, è, é, ê, ì, í, ò, ó, ô, õ, ù, ú, ý
	"Æ",       // 0xC6: ơ, ư
	"áº",      // 0xE1 0xBA: ạ, ả, ấ, ầ, ẩ, ẫ, ậ, ắ, ằ, ẳ, ẵ, ặ, ẹ, ẻ, ẽ, ế
	"á»",      // 0xE1 0xBB: ề, ể, ễ, ệ, ỉ, ị, ọ, ỏ, ố, ồ, ổ, ỗ, ộ, ớ, ờ, ở, ỡ, ợ, ụ, ủ, ứ, ừ, ử, ữ, ự, ỳ, ỵ, ỷ, ỹ
	"Ä\u0090", // Đ
	"Ä\u0091", // đ
	"Ä\u0082", // Ă
	"Ä\u0083", // ă
	"Ä¨",      // Ĩ
	"Ä©",      // ĩ
	"Å¨",      // Ũ
	"Å©",      // ũ
	"Ä‘",      // đ through Windows-1252
	"Ä‚",      // Ă through Windows-1252
	"Äƒ",      // ă through Windows-1252
}

// reinterpretations are tried in order when turning characters back into bytes
var reinterpretations = []encoding.Encoding{
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// Normalizer repairs double-encoded text and logs the repairs it could not make
type Normalizer struct {
	logger      *zap.Logger
	placeholder string
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithLogger sets the logger that receives repair warnings
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithPlaceholder sets the text used for absent or empty fields
func WithPlaceholder(placeholder string) Option {
	return func(n *Normalizer) {
		n.placeholder = placeholder
	}
}

// New creates a Normalizer
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:      zap.NewNop(),
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Placeholder returns the text used for absent or empty fields
func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

// Normalize repairs s if it carries a double-encoding artifact, otherwise it
// returns s with surrounding whitespace removed. Normalize is idempotent.
func (n *Normalizer) Normalize(s string) string {
	out, ok := repair(s)
	if !ok {
		// Identity text is personal data; only its fingerprint is logged
		n.logger.Warn("could not repair double-encoded text, keeping original",
			zap.Int("length", len(s)),
			zap.String("digest", fingerprint(s)))
	}
	return out
}

// NormalizeOr normalizes a possibly absent value, substituting the
// placeholder when it is absent or empty
func (n *Normalizer) NormalizeOr(v model.Optional[string]) string {
	s, ok := v.Get()
	if !ok || strings.TrimSpace(s) == "" {
		return n.placeholder
	}
	return n.Normalize(s)
}

// Fill returns v as is, or the placeholder when it is absent or empty. Use it
// for values that were already normalized.
func (n *Normalizer) Fill(v model.Optional[string]) string {
	s, ok := v.Get()
	if !ok || strings.TrimSpace(s) == "" {
		return n.placeholder
	}
	return s
}

// Normalize is Normalizer.Normalize without logging
func Normalize(s string) string {
	out, _ := repair(s)
	return out
}

// HasArtifact reports whether s contains a known double-encoding artifact
func HasArtifact(s string) bool {
	for _, a := range artifacts {
		if strings.Contains(s, a) {
			return true
		}
	}
	return false
}

// fingerprint identifies a value in logs without revealing it
func fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// repair returns the cleaned text and false when s looked double-encoded
// but could not be decoded.
func repair(s string) (string, bool) {
	if !HasArtifact(s) {
		return strings.TrimSpace(s), true
	}

	cur, ok := decodeOnce(s)
	if !ok {
		return s, false
	}

	// Text can be garbled more than once. Every successful round turns at
	// least one multi-byte character into a single byte, so this terminates.
	for HasArtifact(cur) {
		next, ok := decodeOnce(cur)
		if !ok {
			// Partially repaired text is returned as is; trimming it could
			// change what the next call decides.
			return cur, true
		}
		cur = next
	}
	return strings.TrimSpace(cur), true
}

// decodeOnce maps every character of s to one byte under a single-byte
// charset and decodes the result as UTF-8
func decodeOnce(s string) (string, bool) {
	for _, enc := range reinterpretations {
		raw, err := enc.NewEncoder().String(s)
		if err != nil {
			continue
		}
		if utf8.ValidString(raw) {
			return raw, true
		}
	}
	return "", false
}
