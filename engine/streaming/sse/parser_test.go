package sse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, chunks ...string) []Event {
	t.Helper()
	var (
		p   Parser
		out []Event
	)
	for _, c := range chunks {
		require.NoError(t, p.Feed([]byte(c), func(ev Event) error {
			out = append(out, ev)
			return nil
		}))
	}
	return out
}

func TestParser_Feed(t *testing.T) {
	t.Run("Should emit data and event name per frame", func(t *testing.T) {
		events := collect(t, "event: ping\ndata: {\"a\":1}\n\ndata: second\n\n")
		require.Len(t, events, 2)
		assert.Equal(t, Event{Data: `{"a":1}`, Name: "ping"}, events[0])
		assert.Equal(t, Event{Data: "second"}, events[1])
	})
	t.Run("Should reassemble frames split across chunks", func(t *testing.T) {
		events := collect(t, "da", "ta: hel", "lo\n", "\n")
		require.Len(t, events, 1)
		assert.Equal(t, "hello", events[0].Data)
	})
	t.Run("Should reassemble multi-byte characters split across chunks", func(t *testing.T) {
		raw := "data: こんにちは\n\n"
		events := collect(t, raw[:8], raw[8:])
		require.Len(t, events, 1)
		assert.Equal(t, "こんにちは", events[0].Data)
	})
	t.Run("Should join multiple data lines with newlines", func(t *testing.T) {
		events := collect(t, "data: a\ndata: b\ndata:c\n\n")
		require.Len(t, events, 1)
		assert.Equal(t, "a\nb\nc", events[0].Data)
	})
	t.Run("Should accept CRLF and CR line endings", func(t *testing.T) {
		events := collect(t, "data: one\r\n\r\ndata: two\r\rdata: three\r", "\n\r\n")
		require.Len(t, events, 3)
		assert.Equal(t, "one", events[0].Data)
		assert.Equal(t, "two", events[1].Data)
		assert.Equal(t, "three", events[2].Data)
	})
	t.Run("Should ignore comments, retry and empty frames", func(t *testing.T) {
		events := collect(t, ": keep-alive\n\nretry: 1000\n\nevent: lonely\n\ndata: x\n\n")
		require.Len(t, events, 1)
		assert.Equal(t, Event{Data: "x"}, events[0])
	})
	t.Run("Should carry the last event id forward", func(t *testing.T) {
		events := collect(t, "id: 7\ndata: a\n\ndata: b\n\n")
		require.Len(t, events, 2)
		assert.Equal(t, "7", events[0].ID)
		assert.Equal(t, "7", events[1].ID)
	})
	t.Run("Should strip a leading byte order mark", func(t *testing.T) {
		events := collect(t, "\xEF\xBB\xBFdata: bom\n\n")
		require.Len(t, events, 1)
		assert.Equal(t, "bom", events[0].Data)
	})
	t.Run("Should keep an incomplete trailing frame pending", func(t *testing.T) {
		events := collect(t, "data: done\n\ndata: partial\n")
		require.Len(t, events, 1)
		assert.Equal(t, "done", events[0].Data)
	})
	t.Run("Should keep only one leading space of the value", func(t *testing.T) {
		events := collect(t, "data:  padded\n\n")
		require.Len(t, events, 1)
		assert.Equal(t, " padded", events[0].Data)
	})
	t.Run("Should stop when the handler fails", func(t *testing.T) {
		var p Parser
		boom := errors.New("boom")
		calls := 0
		err := p.Feed([]byte("data: a\n\ndata: b\n\n"), func(Event) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
	t.Run("Should replace invalid UTF-8", func(t *testing.T) {
		events := collect(t, "data: a\xffb\n\n")
		require.Len(t, events, 1)
		assert.Equal(t, "a�b", events[0].Data)
	})
}
