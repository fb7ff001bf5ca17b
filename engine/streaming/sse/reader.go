package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/compozy/contentkit/pkg/logger"
)

// DefaultReadBufferBytes is the chunk size used when reading response bodies.
const DefaultReadBufferBytes = 32 << 10

// FrameFunc receives each complete frame. Returning an error stops the read.
type FrameFunc func(Event) error

type readOptions struct {
	bufSize int
}

type ReadOption func(*readOptions)

// WithReadBufferBytes sets the body read chunk size.
func WithReadBufferBytes(n int) ReadOption {
	return func(o *readOptions) {
		if n > 0 {
			o.bufSize = n
		}
	}
}

// ReadEvents validates resp and streams its body through a Parser, calling
// onFrame for every frame in arrival order. The body is closed on return.
// Cancelling ctx closes the body and ends the read with ctx's error.
func ReadEvents(ctx context.Context, resp *http.Response, onFrame FrameFunc, opts ...ReadOption) error {
	if resp == nil {
		return ErrNilResponse
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newNetworkError(resp)
	}
	if resp.Body == nil {
		return nil
	}
	if onFrame == nil {
		onFrame = func(Event) error { return nil }
	}
	o := readOptions{bufSize: DefaultReadBufferBytes}
	for _, opt := range opts {
		opt(&o)
	}
	stop := context.AfterFunc(ctx, func() { resp.Body.Close() })
	defer stop()
	log := logger.FromContext(ctx)
	var (
		parser Parser
		frames int
	)
	emit := func(ev Event) error {
		frames++
		return onFrame(ev)
	}
	buf := make([]byte, o.bufSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if ferr := parser.Feed(buf[:n], emit); ferr != nil {
				return fmt.Errorf("sse: frame handler: %w", ferr)
			}
		}
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, io.EOF) {
			log.Debug("Event stream ended", "frames", frames)
			return nil
		}
		return fmt.Errorf("sse: read body: %w", err)
	}
}
