package textdecode

import (
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

const (
	charsetUTF8    = "utf-8"
	charsetUnknown = "unknown"

	encodingCacheSize = 64
)

type resolvedEncoding struct {
	enc  encoding.Encoding
	name string
}

var (
	errUnknownCharset = errors.New("unknown charset")
	errInvalidBytes   = errors.New("invalid byte sequence")

	headerCharsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([^"';\s]+)`)
	metaCharsetPattern   = regexp.MustCompile(`(?i)<meta[^>]*?charset\s*=\s*["']?\s*([A-Za-z0-9._:\-]+)`)

	encodingCache = mustEncodingCache()
)

func mustEncodingCache() *lru.Cache[string, resolvedEncoding] {
	c, err := lru.New[string, resolvedEncoding](encodingCacheSize)
	if err != nil {
		panic(fmt.Sprintf("textdecode: encoding cache: %v", err))
	}
	return c
}

// charsetFromContentType extracts the charset parameter of a Content-Type style header.
func charsetFromContentType(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if cs := strings.TrimSpace(params["charset"]); cs != "" {
			return strings.ToLower(cs)
		}
		return ""
	}
	if m := headerCharsetPattern.FindStringSubmatch(header); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// metaCharset returns the charset of the first <meta charset> declaration in text.
func metaCharset(text string) string {
	if m := metaCharsetPattern.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// lookupEncoding resolves a WHATWG label first and an IANA name second.
// The returned name is canonical and suitable for comparisons. Successful
// lookups are cached by normalized label.
func lookupEncoding(label string) (encoding.Encoding, string, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, "", errUnknownCharset
	}
	if hit, ok := encodingCache.Get(label); ok {
		return hit.enc, hit.name, nil
	}
	enc, name, err := resolveEncoding(label)
	if err != nil {
		return nil, "", err
	}
	encodingCache.Add(label, resolvedEncoding{enc: enc, name: name})
	return enc, name, nil
}

func resolveEncoding(label string) (encoding.Encoding, string, error) {
	if enc, name := htmlcharset.Lookup(label); enc != nil {
		return enc, name, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return nil, "", fmt.Errorf("%w: %s", errUnknownCharset, label)
	}
	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		name = label
	}
	return enc, strings.ToLower(name), nil
}

// sameCharset compares two labels by their canonical encoding names.
func sameCharset(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	_, an, aerr := lookupEncoding(a)
	_, bn, berr := lookupEncoding(b)
	return aerr == nil && berr == nil && an == bn
}

// decodeStrict decodes buf with label and fails instead of substituting.
// UTF-8 uses exact validation; legacy decoders in x/text substitute U+FFFD on
// invalid input, so any replacement rune in their output counts as failure.
func decodeStrict(buf []byte, label string) (string, error) {
	enc, name, err := lookupEncoding(label)
	if err != nil {
		return "", err
	}
	if name == charsetUTF8 {
		if !utf8.Valid(buf) {
			return "", errInvalidBytes
		}
		return string(trimBOM(buf)), nil
	}
	out, err := enc.NewDecoder().Bytes(buf)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	if !utf8.Valid(out) || strings.ContainsRune(string(out), utf8.RuneError) {
		return "", errInvalidBytes
	}
	return string(out), nil
}

// decodeLossy decodes buf as UTF-8, replacing invalid sequences with U+FFFD.
func decodeLossy(buf []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(buf)
	if err != nil {
		return strings.ToValidUTF8(string(buf), string(utf8.RuneError))
	}
	return string(trimBOM(out))
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
