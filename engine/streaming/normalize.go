// Package streaming maps provider streaming payloads onto a closed set of
// events and delivers them to a Handler.
package streaming

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

const genericErrorMessage = "An unknown error occurred"

// Drop reasons reported to metrics and debug logs.
const (
	dropInvalidJSON = "invalid_json"
	dropNoType      = "no_type"
	dropUnknownType = "unknown_type"
	dropFiltered    = "filtered"
)

type mapper func(payload gjson.Result) []Event

var mappers = map[string]mapper{
	"error":                                        mapError,
	"response.failed":                              mapFailed,
	"response.incomplete":                          mapIncomplete,
	"response.completed":                           mapCompleted,
	"response.output_text.delta":                   mapTextDelta,
	"response.output_text.done":                    mapTextDone,
	"response.refusal.delta":                       mapRefusalDelta,
	"response.refusal.done":                        dropAll,
	"response.reasoning_summary_text.delta":        mapReasoningDelta,
	"response.reasoning_text.delta":                mapReasoningDelta,
	"response.reasoning_summary_text.done":         mapReasoningDone,
	"response.reasoning_text.done":                 mapReasoningDone,
	"response.image_generation_call.partial_image": mapImagePartial,
	"response.image_generation_call.done":          mapImageDone,
	"response.image_generation_call.completed":     mapImageDone,
	"image_generation.completed":                   mapImageDone,
	"response.output_item.done":                    mapOutputItemDone,
}

// Normalize maps one payload to zero or more events. The dispatch key is the
// payload's "type" field, or eventName when the payload has none. Unknown
// keys and malformed payloads yield no events.
func Normalize(payload []byte, eventName string) []Event {
	events, _ := normalize(payload, eventName)
	return events
}

// normalize also reports the dispatch key and, when nothing is emitted, why.
func normalize(payload []byte, eventName string) ([]Event, dropInfo) {
	if !gjson.ValidBytes(payload) {
		return nil, dropInfo{reason: dropInvalidJSON, key: eventName}
	}
	parsed := gjson.ParseBytes(payload)
	key := dispatchKey(parsed, eventName)
	if key == "" {
		return nil, dropInfo{reason: dropNoType}
	}
	m, ok := mappers[key]
	if !ok {
		return nil, dropInfo{reason: dropUnknownType, key: key}
	}
	events := m(parsed)
	if len(events) == 0 {
		return nil, dropInfo{reason: dropFiltered, key: key}
	}
	return events, dropInfo{key: key}
}

type dropInfo struct {
	reason string
	key    string
}

func dispatchKey(payload gjson.Result, eventName string) string {
	if t := payload.Get("type"); t.Type == gjson.String && t.Str != "" {
		return t.Str
	}
	return eventName
}

func dropAll(gjson.Result) []Event { return nil }

func mapError(p gjson.Result) []Event {
	msg := p.Get("error.message").String()
	if msg == "" {
		msg = genericErrorMessage
	}
	return []Event{ErrorEvent{Message: msg, Raw: rawOf(p)}}
}

func mapFailed(p gjson.Result) []Event {
	source := p
	for _, path := range []string{"response.error", "error"} {
		if v := p.Get(path); v.Exists() && v.Type != gjson.Null {
			source = v
			break
		}
	}
	return []Event{ErrorEvent{Message: errorMessage(source), Raw: rawOf(p)}}
}

// errorMessage extracts a human readable message from an error-ish value.
func errorMessage(v gjson.Result) string {
	if v.IsObject() {
		if msg := v.Get("message").String(); msg != "" {
			return msg
		}
	}
	if v.Type == gjson.String && v.Str != "" {
		return v.Str
	}
	if v.Raw != "" {
		return v.Raw
	}
	return genericErrorMessage
}

func mapIncomplete(p gjson.Result) []Event {
	if resp := responseOf(p); resp != nil {
		return []Event{IncompleteWithResponse{Response: resp}, Incomplete{}}
	}
	return []Event{Incomplete{}}
}

func mapCompleted(p gjson.Result) []Event {
	if resp := responseOf(p); resp != nil {
		return []Event{CompletedWithResponse{Response: resp}, Completed{}}
	}
	return []Event{Completed{}}
}

func responseOf(p gjson.Result) json.RawMessage {
	resp := p.Get("response")
	if !resp.Exists() || resp.Type == gjson.Null {
		return nil
	}
	return json.RawMessage(resp.Raw)
}

func mapTextDelta(p gjson.Result) []Event {
	if delta := p.Get("delta").String(); delta != "" {
		return []Event{TextDelta{Text: delta}}
	}
	return nil
}

func mapTextDone(p gjson.Result) []Event {
	if text := p.Get("text").String(); text != "" {
		return []Event{TextFinal{Text: text}}
	}
	return nil
}

func mapRefusalDelta(p gjson.Result) []Event {
	return []Event{TextDelta{Text: p.Get("delta").String()}}
}

func mapReasoningDelta(p gjson.Result) []Event {
	return []Event{ReasoningDelta{Text: p.Get("delta").String()}}
}

func mapReasoningDone(p gjson.Result) []Event {
	return []Event{ReasoningFinal{Text: p.Get("text").String()}}
}

func mapImagePartial(p gjson.Result) []Event {
	return []Event{ImagePartial{Base64: p.Get("partial_image_b64").String()}}
}

func mapImageDone(p gjson.Result) []Event {
	for _, field := range []string{"result", "image_b64", "image_base64", "b64_json"} {
		if v := p.Get(field).String(); v != "" {
			return []Event{ImageDone{Base64: v}}
		}
	}
	return nil
}

func mapOutputItemDone(p gjson.Result) []Event {
	item := p.Get("item")
	if item.Get("type").String() != "function_call" || item.Get("status").String() != "completed" {
		return nil
	}
	return []Event{FunctionCall{
		ID:        item.Get("id").String(),
		Name:      item.Get("name").String(),
		Arguments: item.Get("arguments").String(),
		CallID:    item.Get("call_id").String(),
	}}
}

func rawOf(p gjson.Result) json.RawMessage {
	if p.Raw == "" {
		return nil
	}
	return json.RawMessage(p.Raw)
}
