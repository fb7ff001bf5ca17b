package streaming

import (
	"context"
	"net/http"

	"github.com/compozy/contentkit/engine/streaming/sse"
	"github.com/compozy/contentkit/pkg/logger"
)

// Normalizer feeds normalized events from raw payloads into a Handler.
// It holds no per-stream state and may be shared.
type Normalizer struct {
	handler Handler
	metrics *Metrics
}

type NormalizerOption func(*Normalizer)

func WithMetrics(m *Metrics) NormalizerOption {
	return func(n *Normalizer) { n.metrics = m }
}

func NewNormalizer(handler Handler, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{handler: handler}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Dispatch normalizes one payload and hands the resulting events to the
// handler in order. Dropped payloads are not an error.
func (n *Normalizer) Dispatch(ctx context.Context, payload []byte, eventName string) error {
	events, info := normalize(payload, eventName)
	if len(events) == 0 {
		logger.FromContext(ctx).Debug("Dropped stream payload", "reason", info.reason, "key", info.key)
		n.metrics.recordDropped(ctx, info.reason)
		return nil
	}
	for _, ev := range events {
		n.metrics.recordEvent(ctx, ev.Kind())
		if n.handler == nil {
			continue
		}
		if err := n.handler.Handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// FrameFunc adapts the normalizer to an sse frame callback.
func (n *Normalizer) FrameFunc(ctx context.Context) sse.FrameFunc {
	return func(ev sse.Event) error {
		return n.Dispatch(ctx, []byte(ev.Data), ev.Name)
	}
}

// Consume reads resp as an event stream and delivers normalized events to
// handler until the stream ends, the handler fails or ctx is cancelled.
func Consume(ctx context.Context, resp *http.Response, handler Handler, opts ...NormalizerOption) error {
	n := NewNormalizer(handler, opts...)
	return sse.ReadEvents(ctx, resp, n.FrameFunc(ctx))
}
