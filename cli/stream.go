package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/compozy/contentkit/engine/streaming"
	"github.com/compozy/contentkit/engine/streaming/sse"
	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type streamOptions struct {
	method  string
	data    string
	headers []string
	raw     bool
	relay   bool
}

// StreamCmd reads an event stream from a URL or stdin and prints the
// normalized events.
func StreamCmd() *cobra.Command {
	opts := &streamOptions{}
	cmd := &cobra.Command{
		Use:   "stream <url|->",
		Short: "Read a model event stream and print normalized events",
		Long: `Open a streaming HTTP request (or read an event stream from stdin with "-")
and print the normalized events. Text deltas are written to stdout as they
arrive; other events are summarized on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.method, "method", "X", "", "HTTP method (default GET, or POST with --data)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "Request body, or @file to read it from a file")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as key:value (repeatable)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print raw frames instead of normalized events")
	cmd.Flags().BoolVar(&opts.relay, "relay", false, "Also publish events to the configured Redis relay")
	return cmd
}

func runStream(cmd *cobra.Command, target string, opts *streamOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)
	onFrame, closeFn, err := buildFrameFunc(ctx, cmd, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.Warn("Failed to close relay", "error", err)
		}
	}()
	if target == "-" {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(cmd.InOrStdin()),
		}
		return sse.ReadEvents(ctx, resp, onFrame, sse.WithReadBufferBytes(cfg.Stream.ReadBufferBytes))
	}
	req, err := buildStreamRequest(target, opts)
	if err != nil {
		return err
	}
	return sse.ClientFromConfig(cfg).Stream(ctx, req, onFrame)
}

func buildFrameFunc(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	opts *streamOptions,
) (sse.FrameFunc, func() error, error) {
	noop := func() error { return nil }
	if opts.raw {
		out := cmd.OutOrStdout()
		return rawFramePrinter(out, isTerminalWriter(out)), noop, nil
	}
	metrics, err := streaming.NewMetrics(ctx, monitoringFrom(ctx).Meter())
	if err != nil {
		logger.FromContext(ctx).Warn("Stream metrics unavailable", "error", err)
	}
	handlers := streaming.MultiHandler{newEventPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())}
	closeFn := noop
	if opts.relay {
		relay, err := streaming.RelayFromConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("relaying to "+relay.Channel()))
		handlers = append(handlers, relay)
		closeFn = relay.Close
	}
	n := streaming.NewNormalizer(handlers, streaming.WithMetrics(metrics))
	return n.FrameFunc(ctx), closeFn, nil
}

func buildStreamRequest(target string, opts *streamOptions) (sse.Request, error) {
	req := sse.Request{Method: strings.ToUpper(opts.method), URL: target, Headers: map[string]string{}}
	for _, h := range opts.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return sse.Request{}, fmt.Errorf("invalid header %q: expected key:value", h)
		}
		req.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if opts.data == "" {
		return req, nil
	}
	body := []byte(opts.data)
	if path, ok := strings.CutPrefix(opts.data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return sse.Request{}, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}
	req.Body = body
	if _, ok := req.Headers["Content-Type"]; !ok {
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

// rawFramePrinter prints each frame as "<event> <data>". On a terminal JSON
// payloads are indented and colorized.
func rawFramePrinter(w io.Writer, colorize bool) sse.FrameFunc {
	return func(ev sse.Event) error {
		name := ev.Name
		if name == "" {
			name = "message"
		}
		data := ev.Data
		if colorize && gjson.Valid(data) {
			data = strings.TrimRight(string(pretty.Color(pretty.Pretty([]byte(data)), nil)), "\n")
		}
		_, err := fmt.Fprintf(w, "%s %s\n", labelStyle.Render(name), data)
		return err
	}
}

// eventPrinter writes text as it streams and summarizes everything else.
type eventPrinter struct {
	out     io.Writer
	errOut  io.Writer
	midLine bool
}

func newEventPrinter(out, errOut io.Writer) *eventPrinter {
	return &eventPrinter{out: out, errOut: errOut}
}

func (p *eventPrinter) Handle(_ context.Context, event streaming.Event) error {
	switch e := event.(type) {
	case streaming.TextDelta:
		p.midLine = !strings.HasSuffix(e.Text, "\n")
		_, err := fmt.Fprint(p.out, e.Text)
		return err
	case streaming.TextFinal:
		return p.endLine()
	case streaming.ReasoningDelta:
		_, err := fmt.Fprint(p.errOut, mutedStyle.Render(e.Text))
		return err
	case streaming.ReasoningFinal:
		_, err := fmt.Fprintln(p.errOut)
		return err
	case streaming.ImagePartial:
		return p.note(mutedStyle, fmt.Sprintf("[image partial: %d bytes base64]", len(e.Base64)))
	case streaming.ImageDone:
		return p.note(okStyle, fmt.Sprintf("[image done: %d bytes base64]", len(e.Base64)))
	case streaming.FunctionCall:
		return p.note(warnStyle, fmt.Sprintf("[function call %s(%s) call_id=%s]", e.Name, e.Arguments, e.CallID))
	case streaming.Completed:
		return p.note(okStyle, "[completed]")
	case streaming.CompletedWithResponse:
		return nil
	case streaming.Incomplete:
		return p.note(warnStyle, "[incomplete]")
	case streaming.IncompleteWithResponse:
		return nil
	case streaming.ErrorEvent:
		return p.note(errorStyle, "[error] "+e.Message)
	}
	return nil
}

func (p *eventPrinter) endLine() error {
	if !p.midLine {
		return nil
	}
	p.midLine = false
	_, err := fmt.Fprintln(p.out)
	return err
}

func (p *eventPrinter) note(style lipgloss.Style, msg string) error {
	if err := p.endLine(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.errOut, style.Render(msg))
	return err
}
