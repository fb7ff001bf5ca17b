package textdecode

import "bytes"

// SniffWindow is the number of leading bytes inspected by IsProbablyBinary.
const SniffWindow = 512

// IsProbablyBinary reports whether the first SniffWindow bytes of buf contain a NUL byte.
// Sparse binary formats without an early NUL are reported as text.
func IsProbablyBinary(buf []byte) bool {
	if len(buf) > SniffWindow {
		buf = buf[:SniffWindow]
	}
	return bytes.IndexByte(buf, 0x00) >= 0
}
