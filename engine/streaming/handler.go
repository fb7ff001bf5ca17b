package streaming

import (
	"context"
	"errors"
)

// Handler consumes normalized events in stream order. Returning an error
// stops the stream.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// HandlerFuncs is a Handler with one optional callback per event kind.
// Events whose callback is nil are ignored.
type HandlerFuncs struct {
	OnTextDelta              func(TextDelta) error
	OnTextFinal              func(TextFinal) error
	OnReasoningDelta         func(ReasoningDelta) error
	OnReasoningFinal         func(ReasoningFinal) error
	OnImagePartial           func(ImagePartial) error
	OnImageDone              func(ImageDone) error
	OnFunctionCall           func(FunctionCall) error
	OnCompleted              func(Completed) error
	OnCompletedWithResponse  func(CompletedWithResponse) error
	OnIncomplete             func(Incomplete) error
	OnIncompleteWithResponse func(IncompleteWithResponse) error
	OnError                  func(ErrorEvent) error
}

func (h *HandlerFuncs) Handle(_ context.Context, event Event) error {
	switch e := event.(type) {
	case TextDelta:
		return call(h.OnTextDelta, e)
	case TextFinal:
		return call(h.OnTextFinal, e)
	case ReasoningDelta:
		return call(h.OnReasoningDelta, e)
	case ReasoningFinal:
		return call(h.OnReasoningFinal, e)
	case ImagePartial:
		return call(h.OnImagePartial, e)
	case ImageDone:
		return call(h.OnImageDone, e)
	case FunctionCall:
		return call(h.OnFunctionCall, e)
	case Completed:
		return call(h.OnCompleted, e)
	case CompletedWithResponse:
		return call(h.OnCompletedWithResponse, e)
	case Incomplete:
		return call(h.OnIncomplete, e)
	case IncompleteWithResponse:
		return call(h.OnIncompleteWithResponse, e)
	case ErrorEvent:
		return call(h.OnError, e)
	}
	return nil
}

func call[E Event](fn func(E) error, e E) error {
	if fn == nil {
		return nil
	}
	return fn(e)
}

// MultiHandler fans each event out to every handler in order.
type MultiHandler []Handler

func (m MultiHandler) Handle(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range m {
		if h == nil {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
