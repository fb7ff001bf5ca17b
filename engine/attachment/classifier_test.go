package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/compozy/contentkit/pkg/config"
)

// onePagePDF builds a minimal well-formed PDF with correct xref offsets.
func onePagePDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>",
	}
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return []byte(b.String())
}

type failingFile struct{ MemoryFile }

func (f *failingFile) Open(context.Context) (io.ReadCloser, error) {
	return nil, errors.New("disk on fire")
}

func TestClassifier_Images(t *testing.T) {
	t.Run("Should classify any image type without reading content", func(t *testing.T) {
		f := &failingFile{MemoryFile{FileName: "photo.png", MIME: "image/png"}}
		res := NewClassifier().Classify(t.Context(), f)
		img, ok := res.(*ImageFile)
		require.True(t, ok)
		assert.Equal(t, KindImage, img.Kind())
		assert.Same(t, f, img.Source())
	})
}

func TestClassifier_Audio(t *testing.T) {
	c := NewClassifier()
	t.Run("Should accept supported audio types without a warning", func(t *testing.T) {
		for _, mt := range []string{"audio/mpeg", "audio/wav", "audio/x-m4a", "audio/ogg; codecs=opus"} {
			res := c.Classify(t.Context(), &MemoryFile{FileName: "clip", MIME: mt})
			audio, ok := res.(*AudioFile)
			require.True(t, ok, mt)
			assert.Nil(t, audio.Warning, mt)
		}
	})
	t.Run("Should warn about uncommon audio formats", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{FileName: "memo.webm", MIME: "audio/webm"})
		audio, ok := res.(*AudioFile)
		require.True(t, ok)
		require.NotNil(t, audio.Warning)
		assert.Equal(t, WarningUncommonFormat, audio.Warning.Code)
		assert.Equal(t, "audio/webm", audio.Warning.MIME)
		assert.Equal(t, "webm", audio.Warning.Extension)
	})
	t.Run("Should fall back to the extension when the type is missing", func(t *testing.T) {
		for _, mt := range []string{"", "application/octet-stream"} {
			f := &failingFile{MemoryFile{FileName: "Song.MP3", MIME: mt}}
			res := c.Classify(t.Context(), f)
			audio, ok := res.(*AudioFile)
			require.True(t, ok)
			require.NotNil(t, audio.Warning)
			assert.Equal(t, WarningExtensionFallback, audio.Warning.Code)
			assert.Equal(t, "mp3", audio.Warning.Extension)
		}
	})
	t.Run("Should not use the extension when a specific type is declared", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{FileName: "lyrics.mp3", MIME: "text/plain", Data: []byte("la la")})
		assert.Equal(t, KindText, res.Kind())
	})
}

func TestClassifier_PDF(t *testing.T) {
	c := NewClassifier()
	t.Run("Should detect a pdf by name when the type is generic", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{
			FileName: "report.pdf",
			MIME:     "application/octet-stream",
			Data:     []byte("not really a pdf"),
		})
		doc, ok := res.(*PDFFile)
		require.True(t, ok)
		assert.Equal(t, 0, doc.Pages)
	})
	t.Run("Should detect a pdf by signature", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{FileName: "upload", Data: onePagePDF()})
		doc, ok := res.(*PDFFile)
		require.True(t, ok)
		assert.Equal(t, 1, doc.Pages)
	})
	t.Run("Should detect a pdf by declared type", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{FileName: "scan", MIME: "application/pdf", Data: onePagePDF()})
		assert.Equal(t, KindPDF, res.Kind())
	})
}

func TestClassifier_Binary(t *testing.T) {
	c := NewClassifier()
	t.Run("Should reject binary content with the detected type", func(t *testing.T) {
		gzipHead := []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03}
		res := c.Classify(t.Context(), &MemoryFile{FileName: "archive", Data: gzipHead})
		un, ok := res.(*UnsupportedFile)
		require.True(t, ok)
		var bin *BinaryNotSupported
		require.ErrorAs(t, un.Err, &bin)
		assert.Equal(t, CodeBinaryNotSupported, un.Err.Code())
		assert.Equal(t, "application/x-gzip", bin.MIME)
	})
	t.Run("Should keep a specific declared type", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{
			FileName: "bundle.zip",
			MIME:     "application/zip",
			Data:     []byte("PK\x03\x04\x00\x00"),
		})
		un, ok := res.(*UnsupportedFile)
		require.True(t, ok)
		assert.Contains(t, un.Err.Error(), "application/zip")
	})
}

func TestClassifier_Text(t *testing.T) {
	c := NewClassifier()
	t.Run("Should decode text and prefix the banner", func(t *testing.T) {
		res := c.Classify(t.Context(), &MemoryFile{FileName: "notes.txt", MIME: "text/plain", Data: []byte("hello")})
		text, ok := res.(*TextFile)
		require.True(t, ok)
		assert.Equal(t, "[Document: notes.txt]\nhello", text.Content)
		assert.Equal(t, "utf-8", text.Charset)
	})
	t.Run("Should honor the charset in the declared type", func(t *testing.T) {
		sjis := []byte{0x82, 0xb1, 0x82, 0xf1, 0x82, 0xc9, 0x82, 0xbf, 0x82, 0xcd}
		res := c.Classify(t.Context(), &MemoryFile{
			FileName: "greeting.txt",
			MIME:     "text/plain; charset=Shift_JIS",
			Data:     sjis,
		})
		text, ok := res.(*TextFile)
		require.True(t, ok)
		assert.Equal(t, "[Document: greeting.txt]\nこんにちは", text.Content)
		assert.Equal(t, "shift_jis", text.Charset)
	})
	t.Run("Should read local files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "readme.md")
		require.NoError(t, os.WriteFile(path, []byte("# title"), 0o600))
		f := NewLocalFile(path)
		assert.Equal(t, "readme.md", f.Name())
		res := c.Classify(t.Context(), f)
		text, ok := res.(*TextFile)
		require.True(t, ok)
		assert.Equal(t, "[Document: readme.md]\n# title", text.Content)
	})
	t.Run("Should read from an injected filesystem", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/docs/notes.txt", []byte("hello"), 0o644))
		res := c.Classify(t.Context(), &LocalFile{Path: "/docs/notes.txt", MIME: "text/plain", Fs: fs})
		text, ok := res.(*TextFile)
		require.True(t, ok)
		assert.Equal(t, "[Document: notes.txt]\nhello", text.Content)
	})
	t.Run("Should reject directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/docs", 0o755))
		res := c.Classify(t.Context(), &LocalFile{Path: "/docs", Fs: fs})
		un, ok := res.(*UnsupportedFile)
		require.True(t, ok)
		assert.Contains(t, un.Err.Error(), "not a regular file")
	})
}

func TestClassifier_Failures(t *testing.T) {
	t.Run("Should report read errors as process failures", func(t *testing.T) {
		res := NewClassifier().Classify(t.Context(), &failingFile{MemoryFile{FileName: "x.txt", MIME: "text/plain"}})
		un, ok := res.(*UnsupportedFile)
		require.True(t, ok)
		assert.Equal(t, CodeProcessFailed, un.Err.Code())
		assert.Contains(t, un.Err.Error(), "disk on fire")
	})
	t.Run("Should report missing local files as process failures", func(t *testing.T) {
		res := NewClassifier().Classify(t.Context(), NewLocalFile(filepath.Join(t.TempDir(), "gone.txt")))
		assert.Equal(t, KindUnsupported, res.Kind())
	})
	t.Run("Should enforce the size cap", func(t *testing.T) {
		c := NewClassifier(WithMaxFileBytes(4))
		res := c.Classify(t.Context(), &MemoryFile{FileName: "big.txt", Data: []byte("too long")})
		un, ok := res.(*UnsupportedFile)
		require.True(t, ok)
		assert.ErrorIs(t, un.Err, ErrFileTooLarge)
	})
	t.Run("Should handle a nil file", func(t *testing.T) {
		res := NewClassifier().Classify(t.Context(), nil)
		assert.Equal(t, KindUnsupported, res.Kind())
	})
}

func TestClassifier_ClassifyAll(t *testing.T) {
	t.Run("Should keep input order", func(t *testing.T) {
		c := FromConfig(config.Default())
		res := c.ClassifyAll(t.Context(), []File{
			&MemoryFile{FileName: "a.png", MIME: "image/png"},
			&MemoryFile{FileName: "b.txt", Data: []byte("b")},
			&MemoryFile{FileName: "c.wav"},
		})
		require.Len(t, res, 3)
		assert.Equal(t, KindImage, res[0].Kind())
		assert.Equal(t, KindText, res[1].Kind())
		assert.Equal(t, KindAudio, res[2].Kind())
	})
	t.Run("Should keep order under concurrency", func(t *testing.T) {
		files := make([]File, 50)
		for i := range files {
			if i%2 == 0 {
				files[i] = &MemoryFile{FileName: fmt.Sprintf("%d.png", i), MIME: "image/png"}
				continue
			}
			files[i] = &MemoryFile{FileName: fmt.Sprintf("%d.txt", i), Data: []byte("x")}
		}
		res := NewClassifier(WithWorkers(8)).ClassifyAll(t.Context(), files)
		require.Len(t, res, len(files))
		for i, r := range res {
			assert.Equal(t, files[i].Name(), r.Source().Name())
		}
	})
	t.Run("Should return an empty slice for no files", func(t *testing.T) {
		assert.Empty(t, NewClassifier().ClassifyAll(t.Context(), nil))
	})
}

func TestClassifier_Metrics(t *testing.T) {
	t.Run("Should count outcomes by kind", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		m, err := NewMetrics(t.Context(), provider.Meter("test"))
		require.NoError(t, err)
		c := NewClassifier(WithMetrics(m))
		c.Classify(t.Context(), &MemoryFile{FileName: "a.png", MIME: "image/png"})
		c.Classify(t.Context(), &MemoryFile{FileName: "b.png", MIME: "image/png"})
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(t.Context(), &rm))
		require.Len(t, rm.ScopeMetrics, 1)
		require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
		got := rm.ScopeMetrics[0].Metrics[0]
		assert.Equal(t, "contentkit_attachment_classified_total", got.Name)
		sum, ok := got.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(2), sum.DataPoints[0].Value)
		kind, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("kind"))
		assert.Equal(t, "image", kind.AsString())
	})
	t.Run("Should tolerate a nil meter", func(t *testing.T) {
		m, err := NewMetrics(t.Context(), nil)
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			m.RecordClassified(t.Context(), &ImageFile{})
		})
	})
}
