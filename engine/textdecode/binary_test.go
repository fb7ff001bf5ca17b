package textdecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProbablyBinary(t *testing.T) {
	t.Run("Should report text for short buffers without NUL", func(t *testing.T) {
		assert.False(t, IsProbablyBinary([]byte("plain text\nwith lines")))
		assert.False(t, IsProbablyBinary(nil))
	})

	t.Run("Should detect a NUL anywhere in the window", func(t *testing.T) {
		for _, pos := range []int{0, 17, SniffWindow - 1} {
			buf := bytes.Repeat([]byte{'a'}, SniffWindow+64)
			buf[pos] = 0x00
			assert.True(t, IsProbablyBinary(buf), "NUL at %d", pos)
		}
	})

	t.Run("Should ignore NUL bytes past the window", func(t *testing.T) {
		buf := bytes.Repeat([]byte{'a'}, SniffWindow+64)
		buf[SniffWindow] = 0x00
		assert.False(t, IsProbablyBinary(buf))
	})
}
