// Package textdecode turns untrusted byte buffers into text, resolving charset
// ambiguity with a fixed sequence of strict decodes and one lossy fallback.
// Decoding never fails: the worst case is lossy UTF-8 reported as charset "unknown".
package textdecode

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
)

// MojibakeSentinel is the CJK ideograph that dominates Japanese UTF-8 text
// which was mis-decoded as Shift_JIS and then saved back as UTF-8.
const MojibakeSentinel = '縺'

// DefaultFallbackCharsets are retried, in order, when UTF-8 output looks garbled.
var DefaultFallbackCharsets = []string{"shift_jis", "euc-jp", "iso-2022-jp", "windows-1252", "iso-8859-1"}

// DefaultScanRunes is the size of the decoded prefix inspected for mojibake.
const DefaultScanRunes = 1000

// Result is the decoded text and the charset actually used to produce it.
type Result struct {
	Text    string `json:"text"`
	Charset string `json:"charset"`
}

// Decoder holds the tunables of the heuristic. The zero value is not usable;
// construct with New or FromConfig.
type Decoder struct {
	fallbacks []string
	scanRunes int
}

// Option customizes a Decoder.
type Option func(*Decoder)

// WithFallbackCharsets replaces the mojibake retry list.
func WithFallbackCharsets(labels ...string) Option {
	return func(d *Decoder) {
		if len(labels) > 0 {
			d.fallbacks = append([]string(nil), labels...)
		}
	}
}

// WithScanRunes sets how many leading runes are checked for mojibake.
func WithScanRunes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.scanRunes = n
		}
	}
}

// New returns a Decoder with the default fallback list.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		fallbacks: append([]string(nil), DefaultFallbackCharsets...),
		scanRunes: DefaultScanRunes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromConfig builds a Decoder from the decoder section of cfg.
func FromConfig(cfg *config.Config) *Decoder {
	if cfg == nil {
		return New()
	}
	return New(
		WithFallbackCharsets(cfg.Decoder.FallbackCharsets...),
		WithScanRunes(cfg.Decoder.MojibakeScanRunes),
	)
}

// Decode decodes buf using the package defaults.
func Decode(ctx context.Context, buf []byte, contentType string) Result {
	return New().Decode(ctx, buf, contentType)
}

// Decode turns buf into text. contentType is an optional Content-Type style
// header whose charset parameter becomes the first candidate.
func (d *Decoder) Decode(ctx context.Context, buf []byte, contentType string) Result {
	log := logger.FromContext(ctx)
	used := charsetFromContentType(contentType)
	if used == "" {
		used = charsetUTF8
	}
	text, err := decodeStrict(buf, used)
	if err != nil && used != charsetUTF8 {
		log.Debug("Hinted charset failed, retrying as utf-8", "charset", used, "error", err)
		used = charsetUTF8
		text, err = decodeStrict(buf, used)
	}
	if err != nil {
		log.Debug("Strict decoding failed, using lossy utf-8", "bytes", len(buf))
		return Result{Text: decodePercentRuns(decodeLossy(buf)), Charset: charsetUnknown}
	}
	if meta := metaCharset(text); meta != "" && !sameCharset(meta, used) {
		if alt, metaErr := decodeStrict(buf, meta); metaErr == nil {
			log.Debug("Adopted charset from meta declaration", "from", used, "to", meta)
			text, used = alt, meta
		}
	}
	if sameCharset(used, charsetUTF8) && d.looksGarbled(text) {
		for _, candidate := range d.fallbacks {
			alt, altErr := decodeStrict(buf, candidate)
			if altErr != nil || d.looksGarbled(alt) {
				continue
			}
			log.Debug("Adopted fallback charset for garbled utf-8", "charset", candidate)
			text, used = alt, candidate
			break
		}
	}
	return Result{Text: decodePercentRuns(text), Charset: used}
}

// looksGarbled reports whether the leading runes contain the mojibake sentinel
// or the Unicode replacement character.
func (d *Decoder) looksGarbled(text string) bool {
	prefix := runePrefix(text, d.scanRunes)
	return strings.ContainsRune(prefix, MojibakeSentinel) || strings.ContainsRune(prefix, utf8.RuneError)
}

func runePrefix(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
