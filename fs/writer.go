// Package fs provides file-based storage for the mirror.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fwojciec/sitemirror"
)

// Ensure Writer implements sitemirror.FileWriter at compile time.
var _ sitemirror.FileWriter = (*Writer)(nil)

// Writer writes mirrored files below a destination directory.
type Writer struct {
	root string
}

// NewWriter creates a new Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Root returns the destination directory.
func (w *Writer) Root() string {
	return w.root
}

// Reset removes everything below the destination directory and makes sure
// the directory itself exists. It is called once before a crawl starts.
func (w *Writer) Reset() error {
	if err := os.RemoveAll(w.root); err != nil {
		return err
	}
	return os.MkdirAll(w.root, 0755)
}

// WriteFile writes data to path, which must be a slash-separated path that
// stays inside the destination directory. Parent directories are created.
func (w *Writer) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return sitemirror.Errorf(sitemirror.EINVALID, "destination path %q escapes the mirror root", path)
	}

	fullPath := filepath.Join(w.root, local)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0644)
}
