package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/compozy/contentkit/engine/textdecode"
	"github.com/compozy/contentkit/pkg/config"
	"github.com/compozy/contentkit/pkg/logger"
	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds ClassifyAll concurrency when no option is given.
const DefaultWorkers = 4

// Classifier routes files into text, image, audio, pdf or unsupported.
type Classifier struct {
	decoder  *textdecode.Decoder
	maxBytes int64
	workers  int
	metrics  *Metrics
}

type Option func(*Classifier)

// WithDecoder sets the text decoder used for non-binary files.
func WithDecoder(d *textdecode.Decoder) Option {
	return func(c *Classifier) {
		if d != nil {
			c.decoder = d
		}
	}
}

// WithMaxFileBytes caps the bytes read per file. Non-positive disables the cap.
func WithMaxFileBytes(n int64) Option {
	return func(c *Classifier) { c.maxBytes = n }
}

// WithWorkers sets how many files ClassifyAll processes at once.
func WithWorkers(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Classifier) { c.metrics = m }
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{decoder: textdecode.New(), maxBytes: DefaultMaxFileBytes, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a Classifier from the application configuration.
func FromConfig(cfg *config.Config, opts ...Option) *Classifier {
	if cfg == nil {
		cfg = config.Default()
	}
	base := []Option{
		WithDecoder(textdecode.FromConfig(cfg)),
		WithMaxFileBytes(cfg.Attachment.MaxFileBytes),
		WithWorkers(cfg.Attachment.Workers),
	}
	return NewClassifier(append(base, opts...)...)
}

// Classify runs a file through the default classifier.
func Classify(ctx context.Context, f File) Result {
	return NewClassifier().Classify(ctx, f)
}

// ClassifyAll classifies files concurrently. Results keep the input order,
// one per file.
func (c *Classifier) ClassifyAll(ctx context.Context, files []File) []Result {
	out := make([]Result, len(files))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, f := range files {
		g.Go(func() error {
			out[i] = c.Classify(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Classify decides how f should be handled. It never returns nil; every
// failure is reported as an UnsupportedFile carrying ProcessFailed.
func (c *Classifier) Classify(ctx context.Context, f File) (res Result) {
	if f == nil {
		return &UnsupportedFile{Err: &ProcessFailed{Message: "nil file"}}
	}
	log := logger.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			res = processFailed(f, fmt.Errorf("panic: %v", r))
		}
		log.Debug("Classified file", "name", f.Name(), "mime", f.MIMEType(), "kind", string(res.Kind()))
		c.metrics.RecordClassified(ctx, res)
	}()
	declared := baseMIME(f.MIMEType())
	if strings.HasPrefix(declared, "image/") {
		return &ImageFile{File: f}
	}
	if strings.HasPrefix(declared, "audio/") {
		return classifyAudio(f, declared)
	}
	if declared == "" || declared == mimeOctetStream {
		ext := strings.ToLower(extensionOf(f.Name()))
		if slices.Contains(SupportedAudioExtensions, ext) {
			return &AudioFile{File: f, Warning: &AudioWarning{Code: WarningExtensionFallback, Extension: ext}}
		}
	}
	data, err := c.readAll(ctx, f)
	if err != nil {
		return processFailed(f, err)
	}
	if isPDF(f, declared, data) {
		return &PDFFile{File: f, Pages: countPDFPages(ctx, data)}
	}
	if textdecode.IsProbablyBinary(data) {
		mt := declared
		if mt == "" || mt == mimeOctetStream {
			mt = detectMIME(data)
		}
		return &UnsupportedFile{File: f, Err: &BinaryNotSupported{MIME: mt}}
	}
	decoded := c.decoder.Decode(ctx, data, f.MIMEType())
	return &TextFile{
		File:    f,
		Content: documentBanner(f.Name()) + decoded.Text,
		Charset: decoded.Charset,
	}
}

func classifyAudio(f File, declared string) Result {
	if isSupportedAudioMIME(declared) {
		return &AudioFile{File: f}
	}
	return &AudioFile{File: f, Warning: &AudioWarning{
		Code:      WarningUncommonFormat,
		MIME:      declared,
		Extension: guessExtension(declared),
	}}
}

func isSupportedAudioMIME(declared string) bool {
	for _, s := range SupportedAudioMIMETypes {
		if declared == s || strings.HasPrefix(declared, s) {
			return true
		}
	}
	return false
}

func (c *Classifier) readAll(ctx context.Context, f File) ([]byte, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var r io.Reader = rc
	if c.maxBytes > 0 {
		r = io.LimitReader(rc, c.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, c.maxBytes)
	}
	return data, nil
}

func isPDF(f File, declared string, data []byte) bool {
	if declared == mimePDF {
		return true
	}
	if strings.EqualFold(extensionOf(f.Name()), "pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte(pdfSignature))
}

// countPDFPages returns zero when the document cannot be parsed.
func countPDFPages(ctx context.Context, data []byte) (pages int) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Debug("PDF page count failed", "panic", r)
			pages = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.FromContext(ctx).Debug("PDF page count failed", "error", err)
		return 0
	}
	return r.NumPage()
}

func documentBanner(name string) string {
	return "[Document: " + name + "]\n"
}

func processFailed(f File, err error) Result {
	return &UnsupportedFile{File: f, Err: &ProcessFailed{Message: err.Error(), Err: err}}
}
