package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/contentkit/engine/streaming/sse"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	cmd := RootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	base := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "disabled"}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(t.Context())
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestSniffCmd(t *testing.T) {
	t.Run("Should report text files", func(t *testing.T) {
		res := run(t, "", "sniff", writeFile(t, "a.txt", []byte("hello")))
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "text")
	})
	t.Run("Should report binary files", func(t *testing.T) {
		res := run(t, "", "sniff", writeFile(t, "a.bin", []byte{'a', 0x00, 'b'}))
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "binary")
	})
	t.Run("Should fail on missing files", func(t *testing.T) {
		res := run(t, "", "sniff", filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, res.err)
	})
}

func TestDecodeCmd(t *testing.T) {
	t.Run("Should decode with the content type hint", func(t *testing.T) {
		sjis := []byte{0x82, 0xb1, 0x82, 0xf1, 0x82, 0xc9, 0x82, 0xbf, 0x82, 0xcd}
		path := writeFile(t, "greeting.txt", sjis)
		res := run(t, "", "decode", path, "--content-type", "text/plain; charset=shift_jis")
		require.NoError(t, res.err)
		assert.Equal(t, "こんにちは", res.stdout)
		assert.Contains(t, res.stderr, "charset: shift_jis")
	})
}

func TestClassifyCmd(t *testing.T) {
	t.Run("Should output JSON results in input order", func(t *testing.T) {
		txt := writeFile(t, "notes.txt", []byte("hello"))
		png := writeFile(t, "photo.png", []byte("not really"))
		bin := writeFile(t, "blob.dat", []byte{0x00, 0x01, 0x02})
		res := run(t, "", "classify", "--json", txt, png, bin)
		require.NoError(t, res.err)
		var got []classifyOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "text", string(got[0].Kind))
		assert.Equal(t, "utf-8", got[0].Charset)
		assert.Empty(t, got[0].Content)
		assert.Equal(t, "image", string(got[1].Kind))
		assert.Equal(t, "unsupported", string(got[2].Kind))
		assert.Equal(t, "binary_not_supported", string(got[2].ErrorCode))
	})
	t.Run("Should apply the declared MIME override", func(t *testing.T) {
		path := writeFile(t, "memo.webm", []byte{0x1a, 0x45, 0xdf, 0xa3})
		res := run(t, "", "classify", "--mime", "audio/webm", path)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "audio")
		assert.Contains(t, res.stdout, "audio_warning_uncommon_format")
	})
	t.Run("Should include content when asked", func(t *testing.T) {
		path := writeFile(t, "notes.txt", []byte("body"))
		res := run(t, "", "classify", "--content", path)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "[Document: notes.txt]\nbody")
	})
	t.Run("Should print metrics when requested", func(t *testing.T) {
		path := writeFile(t, "notes.txt", []byte("body"))
		res := run(t, "", "--print-metrics", "classify", path)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "contentkit_attachment_classified_total")
	})
	t.Run("Should expand recursive globs", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("a"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deeper", "leaf.txt"), []byte("b"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "skip.png"), []byte("c"), 0o600))
		res := run(t, "", "classify", "--json", filepath.Join(dir, "**", "*.txt"))
		require.NoError(t, res.err)
		var got []classifyOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		names := make([]string, 0, len(got))
		for _, o := range got {
			names = append(names, o.Name)
		}
		assert.ElementsMatch(t, []string{"top.txt", "leaf.txt"}, names)
	})
	t.Run("Should fail when a glob matches nothing", func(t *testing.T) {
		res := run(t, "", "classify", filepath.Join(t.TempDir(), "*.txt"))
		assert.ErrorContains(t, res.err, "no files match")
	})
	t.Run("Should apply settings from the env file", func(t *testing.T) {
		const key = "CONTENTKIT_ATTACHMENT_MAX_FILE_BYTES"
		_, preset := os.LookupEnv(key)
		require.False(t, preset)
		t.Cleanup(func() { _ = os.Unsetenv(key) })
		envFile := writeFile(t, "test.env", []byte(key+"=3\n"))
		path := writeFile(t, "notes.txt", []byte("too long"))
		res := run(t, "", "--env-file", envFile, "classify", "--json", path)
		require.NoError(t, res.err)
		var got []classifyOutput
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "process_failed", string(got[0].ErrorCode))
	})
	t.Run("Should ignore a missing env file", func(t *testing.T) {
		path := writeFile(t, "notes.txt", []byte("ok"))
		res := run(t, "", "--env-file", filepath.Join(t.TempDir(), "absent.env"), "classify", path)
		require.NoError(t, res.err)
	})
}

const sampleStream = "data: {\"type\":\"response.output_text.delta\",\"delta\":\"Hel\"}\n\n" +
	"data: {\"type\":\"response.output_text.delta\",\"delta\":\"lo\"}\n\n" +
	"data: {\"type\":\"response.output_text.done\",\"text\":\"Hello\"}\n\n" +
	"data: {\"type\":\"response.completed\",\"response\":{\"id\":\"r1\"}}\n\n"

func TestStreamCmd(t *testing.T) {
	t.Run("Should normalize an event stream from stdin", func(t *testing.T) {
		res := run(t, sampleStream, "stream", "-")
		require.NoError(t, res.err)
		assert.Equal(t, "Hello\n", res.stdout)
		assert.Contains(t, res.stderr, "[completed]")
	})
	t.Run("Should print raw frames", func(t *testing.T) {
		res := run(t, "event: ping\ndata: {}\n\n", "stream", "--raw", "-")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "ping {}")
	})
	t.Run("Should post the request body to the URL", func(t *testing.T) {
		var gotBody, gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			gotAuth = r.Header.Get("X-Test")
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, sampleStream)
		}))
		defer srv.Close()
		body := writeFile(t, "req.json", []byte(`{"stream":true}`))
		res := run(t, "", "stream", srv.URL, "--data", "@"+body, "-H", "X-Test: yes")
		require.NoError(t, res.err)
		assert.Equal(t, "Hello\n", res.stdout)
		assert.JSONEq(t, `{"stream":true}`, gotBody)
		assert.Equal(t, "yes", gotAuth)
	})
	t.Run("Should return network errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()
		res := run(t, "", "stream", srv.URL)
		var netErr *sse.NetworkError
		require.ErrorAs(t, res.err, &netErr)
		assert.Contains(t, FormatError(res.err), "429 Too Many Requests")
	})
	t.Run("Should indent JSON frames when colorized", func(t *testing.T) {
		var out bytes.Buffer
		printFrame := rawFramePrinter(&out, true)
		require.NoError(t, printFrame(sse.Event{Name: "delta", Data: `{"a":1}`}))
		require.NoError(t, printFrame(sse.Event{Data: "not json"}))
		assert.Contains(t, out.String(), "\n  ")
		assert.Contains(t, out.String(), "message not json")
		assert.False(t, isTerminalWriter(&out))
	})
	t.Run("Should reject malformed headers", func(t *testing.T) {
		res := run(t, "", "stream", "http://127.0.0.1:1", "-H", "nocolon")
		assert.ErrorContains(t, res.err, "invalid header")
	})
	t.Run("Should require a relay url when relaying", func(t *testing.T) {
		res := run(t, sampleStream, "stream", "--relay", "-")
		assert.ErrorContains(t, res.err, "relay redis url is not configured")
	})
}
