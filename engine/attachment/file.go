package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// File is a user-supplied file to classify. The declared MIME type may be
// empty or wrong; content is read only when classification needs it.
type File interface {
	Name() string
	MIMEType() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// LocalFile is a File backed by a path on disk.
type LocalFile struct {
	Path string
	// MIME is the declared type. Empty means "unknown".
	MIME string
	// Fs is the filesystem Path lives on. Nil means the OS filesystem.
	Fs afero.Fs
}

// NewLocalFile returns a LocalFile whose declared type is derived from the
// file extension, the way a browser would populate it.
func NewLocalFile(path string) *LocalFile {
	return &LocalFile{Path: path, MIME: declaredTypeForName(path)}
}

func (f *LocalFile) Name() string     { return filepath.Base(f.Path) }
func (f *LocalFile) MIMEType() string { return f.MIME }

func (f *LocalFile) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := f.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	fi, err := fs.Stat(f.Path)
	if err != nil {
		return nil, fmt.Errorf("stat failed: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", f.Path)
	}
	r, err := fs.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}
	return r, nil
}

// MemoryFile is a File held entirely in memory.
type MemoryFile struct {
	FileName string
	MIME     string
	Data     []byte
}

func (f *MemoryFile) Name() string     { return f.FileName }
func (f *MemoryFile) MIMEType() string { return f.MIME }

func (f *MemoryFile) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

func extensionOf(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}
