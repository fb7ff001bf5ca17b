package streaming

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names a normalized stream event.
type EventKind string

const (
	KindTextDelta              EventKind = "text_delta"
	KindTextFinal              EventKind = "text_final"
	KindReasoningDelta         EventKind = "reasoning_delta"
	KindReasoningFinal         EventKind = "reasoning_final"
	KindImagePartial           EventKind = "image_partial"
	KindImageDone              EventKind = "image_done"
	KindFunctionCall           EventKind = "function_call"
	KindCompleted              EventKind = "completed"
	KindCompletedWithResponse  EventKind = "completed_with_response"
	KindIncomplete             EventKind = "incomplete"
	KindIncompleteWithResponse EventKind = "incomplete_with_response"
	KindError                  EventKind = "error"
)

// Event is the closed set of normalized events. Handlers switch on the
// concrete type; the unexported marker keeps the set closed.
type Event interface {
	Kind() EventKind
	isEvent()
}

type TextDelta struct {
	Text string `json:"text"`
}

type TextFinal struct {
	Text string `json:"text"`
}

type ReasoningDelta struct {
	Text string `json:"text"`
}

type ReasoningFinal struct {
	Text string `json:"text"`
}

// ImagePartial carries a base64 encoded partial render.
type ImagePartial struct {
	Base64 string `json:"b64"`
}

// ImageDone carries the final base64 encoded image.
type ImageDone struct {
	Base64 string `json:"b64"`
}

type FunctionCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	CallID    string `json:"call_id"`
}

type Completed struct{}

// CompletedWithResponse carries the upstream response object verbatim.
type CompletedWithResponse struct {
	Response json.RawMessage `json:"response"`
}

type Incomplete struct{}

type IncompleteWithResponse struct {
	Response json.RawMessage `json:"response"`
}

// ErrorEvent is an upstream-declared failure. Raw is the payload it came from.
type ErrorEvent struct {
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

func (TextDelta) Kind() EventKind              { return KindTextDelta }
func (TextFinal) Kind() EventKind              { return KindTextFinal }
func (ReasoningDelta) Kind() EventKind         { return KindReasoningDelta }
func (ReasoningFinal) Kind() EventKind         { return KindReasoningFinal }
func (ImagePartial) Kind() EventKind           { return KindImagePartial }
func (ImageDone) Kind() EventKind              { return KindImageDone }
func (FunctionCall) Kind() EventKind           { return KindFunctionCall }
func (Completed) Kind() EventKind              { return KindCompleted }
func (CompletedWithResponse) Kind() EventKind  { return KindCompletedWithResponse }
func (Incomplete) Kind() EventKind             { return KindIncomplete }
func (IncompleteWithResponse) Kind() EventKind { return KindIncompleteWithResponse }
func (ErrorEvent) Kind() EventKind             { return KindError }

func (TextDelta) isEvent()              {}
func (TextFinal) isEvent()              {}
func (ReasoningDelta) isEvent()         {}
func (ReasoningFinal) isEvent()         {}
func (ImagePartial) isEvent()           {}
func (ImageDone) isEvent()              {}
func (FunctionCall) isEvent()           {}
func (Completed) isEvent()              {}
func (CompletedWithResponse) isEvent()  {}
func (Incomplete) isEvent()             {}
func (IncompleteWithResponse) isEvent() {}
func (ErrorEvent) isEvent()             {}

// Envelope is the transport representation broadcast by a relay.
type Envelope struct {
	StreamID  string          `json:"stream_id"`
	Seq       int64           `json:"seq"`
	Kind      EventKind       `json:"kind"`
	Timestamp time.Time       `json:"ts"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope constructs an envelope from the provided event.
func NewEnvelope(seq int64, streamID string, event Event, ts time.Time) (Envelope, error) {
	if streamID == "" {
		return Envelope{}, fmt.Errorf("streaming: stream id is required")
	}
	if event == nil {
		return Envelope{}, fmt.Errorf("streaming: event is required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("streaming: marshal payload: %w", err)
	}
	return Envelope{
		StreamID:  streamID,
		Seq:       seq,
		Kind:      event.Kind(),
		Timestamp: ts.UTC(),
		Data:      payload,
	}, nil
}
