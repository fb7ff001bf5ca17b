// Package sse reads text/event-stream responses incrementally.
package sse

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Event is one complete event-stream frame. Name is empty when the frame
// carried no event field.
type Event struct {
	Data string
	Name string
	ID   string
}

// Parser turns arbitrarily chunked event-stream bytes into frames. Frames
// are emitted in arrival order. A Parser must not be shared between streams.
type Parser struct {
	line      []byte
	data      bytes.Buffer
	name      string
	lastID    string
	pendingCR bool
	started   bool
}

// Feed consumes the next chunk and calls emit for every frame it completes.
// emit returning an error stops parsing and the error is returned.
func (p *Parser) Feed(chunk []byte, emit func(Event) error) error {
	for len(chunk) > 0 {
		if p.pendingCR {
			p.pendingCR = false
			if chunk[0] == '\n' {
				chunk = chunk[1:]
				continue
			}
		}
		i := bytes.IndexAny(chunk, "\r\n")
		if i < 0 {
			p.line = append(p.line, chunk...)
			return nil
		}
		p.line = append(p.line, chunk[:i]...)
		p.pendingCR = chunk[i] == '\r'
		chunk = chunk[i+1:]
		if err := p.processLine(emit); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	*p = Parser{}
}

func (p *Parser) processLine(emit func(Event) error) error {
	line := p.line
	p.line = p.line[:0]
	if !p.started {
		p.started = true
		line = bytes.TrimPrefix(line, utf8BOM)
	}
	if len(line) == 0 {
		return p.dispatch(emit)
	}
	if line[0] == ':' {
		return nil
	}
	field, value := string(line), ""
	if i := bytes.IndexByte(line, ':'); i >= 0 {
		field = string(line[:i])
		value = string(line[i+1:])
		value = strings.TrimPrefix(value, " ")
	}
	switch field {
	case "data":
		p.data.WriteString(value)
		p.data.WriteByte('\n')
	case "event":
		p.name = value
	case "id":
		if !strings.ContainsRune(value, 0) {
			p.lastID = value
		}
	case "retry":
		// reconnection is the caller's concern
	}
	return nil
}

func (p *Parser) dispatch(emit func(Event) error) error {
	name := p.name
	p.name = ""
	if p.data.Len() == 0 {
		return nil
	}
	data := strings.TrimSuffix(p.data.String(), "\n")
	p.data.Reset()
	return emit(Event{
		Data: strings.ToValidUTF8(data, "\uFFFD"),
		Name: strings.ToValidUTF8(name, "\uFFFD"),
		ID:   p.lastID,
	})
}
