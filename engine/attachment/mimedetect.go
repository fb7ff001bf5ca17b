package attachment

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// detectMIME determines a MIME type using stdlib detection first and
// falling back to the broader mimetype library when ambiguous.
func detectMIME(head []byte) string {
	if len(head) == 0 {
		return mimeOctetStream
	}
	if len(head) > MIMEHeadMaxBytes {
		head = head[:MIMEHeadMaxBytes]
	}
	mt := http.DetectContentType(head)
	if mt != mimeOctetStream {
		return mt
	}
	return mimetype.Detect(head).String()
}

// baseMIME lowercases a declared type and strips its parameters.
func baseMIME(declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	return declared
}

// guessExtension returns a best-effort extension (without dot) for a MIME type.
func guessExtension(mimeType string) string {
	base := baseMIME(mimeType)
	if m := mimetype.Lookup(base); m != nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), ".")
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	_, sub, ok := strings.Cut(base, "/")
	if !ok {
		return ""
	}
	sub = strings.TrimPrefix(sub, "x-")
	if i := strings.IndexAny(sub, "+."); i > 0 {
		sub = sub[:i]
	}
	return sub
}

// declaredTypeForName mirrors how browsers derive File.type from a file name.
func declaredTypeForName(name string) string {
	ext := strings.ToLower(extensionOf(name))
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension("." + ext)
}
