package textdecode

import (
	"net/url"
	"regexp"
	"unicode/utf8"
)

var percentRunPattern = regexp.MustCompile(`(?:%[0-9A-Fa-f]{2})+`)

// decodePercentRuns replaces each maximal run of %XX triplets with its UTF-8 decoding.
// Runs that do not decode to valid UTF-8 are kept verbatim.
func decodePercentRuns(text string) string {
	if len(text) < 3 {
		return text
	}
	return percentRunPattern.ReplaceAllStringFunc(text, func(run string) string {
		decoded, err := url.PathUnescape(run)
		if err != nil || !utf8.ValidString(decoded) {
			return run
		}
		return decoded
	})
}
