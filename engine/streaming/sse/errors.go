package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNilResponse is returned when ReadEvents is given no response.
var ErrNilResponse = errors.New("sse: nil response")

const maxErrorBodyBytes = 64 << 10

// statusTextFallback covers transports that omit the reason phrase.
var statusTextFallback = map[int]string{
	http.StatusBadRequest:      "Bad Request",
	http.StatusUnauthorized:    "Unauthorized",
	http.StatusForbidden:       "Forbidden",
	http.StatusTooManyRequests: "Too Many Requests",
}

// NetworkError reports a non-success response. Message is the compact JSON
// error body when the server sent one, otherwise "<status> <statusText>".
type NetworkError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *NetworkError) Error() string {
	return e.Message
}

func newNetworkError(resp *http.Response) *NetworkError {
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	}
	netErr := &NetworkError{Status: resp.StatusCode, Body: body}
	if msg, ok := jsonErrorMessage(body); ok {
		netErr.Message = msg
		return netErr
	}
	netErr.Message = strings.TrimSpace(strconv.Itoa(resp.StatusCode) + " " + statusText(resp))
	return netErr
}

// jsonErrorMessage returns the compacted body when it is non-empty JSON.
func jsonErrorMessage(body []byte) (string, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", false
	}
	parsed := gjson.ParseBytes(body)
	switch {
	case parsed.Type == gjson.Null:
		return "", false
	case parsed.IsObject() && len(parsed.Map()) == 0:
		return "", false
	case parsed.IsArray() && len(parsed.Array()) == 0:
		return "", false
	case parsed.Type == gjson.String && parsed.Str == "":
		return "", false
	}
	var out bytes.Buffer
	if err := json.Compact(&out, body); err != nil {
		return "", false
	}
	return out.String(), true
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text != "" {
		return text
	}
	return statusTextFallback[resp.StatusCode]
}
