package sse

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// Request describes one streaming HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Client issues streaming requests and reads their event streams. It never
// retries; a failed stream is reported to the caller as is.
type Client struct {
	http    *resty.Client
	bufSize int
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	userAgent      string
	connectTimeout time.Duration
	bufSize        int
	transport      http.RoundTripper
}

func WithUserAgent(ua string) ClientOption {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithConnectTimeout bounds dialing and waiting for response headers. The
// body itself is never subject to a timeout.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.connectTimeout = d }
}

func WithBufferBytes(n int) ClientOption {
	return func(o *clientOptions) { o.bufSize = n }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) { o.transport = rt }
}

func NewClient(opts ...ClientOption) *Client {
	o := clientOptions{
		userAgent:      "contentkit/1.0",
		connectTimeout: 30 * time.Second,
		bufSize:        DefaultReadBufferBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	transport := o.transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: o.connectTimeout}).DialContext,
			TLSHandshakeTimeout:   o.connectTimeout,
			ResponseHeaderTimeout: o.connectTimeout,
			ForceAttemptHTTP2:     true,
		}
	}
	client := resty.New().
		SetTransport(transport).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache").
		SetHeader("User-Agent", o.userAgent).
		SetRetryCount(0)
	return &Client{http: client, bufSize: o.bufSize}
}

// ClientFromConfig builds a Client from the stream configuration section.
func ClientFromConfig(cfg *config.Config, opts ...ClientOption) *Client {
	if cfg == nil {
		cfg = config.Default()
	}
	base := []ClientOption{
		WithUserAgent(cfg.Stream.UserAgent),
		WithConnectTimeout(cfg.Stream.ConnectTimeout),
		WithBufferBytes(cfg.Stream.ReadBufferBytes),
	}
	return NewClient(append(base, opts...)...)
}

// Stream sends req and hands the response to ReadEvents.
func (c *Client) Stream(ctx context.Context, req Request, onFrame FrameFunc) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
		if len(req.Body) > 0 {
			method = http.MethodPost
		}
	}
	r := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeaders(req.Headers)
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}
	logger.FromContext(ctx).Debug("Opening event stream", "method", method, "url", req.URL)
	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return fmt.Errorf("sse: request failed: %w", err)
	}
	return ReadEvents(ctx, resp.RawResponse, onFrame, WithReadBufferBytes(c.bufSize))
}
