package mock

import (
	"context"

	"github.com/fwojciec/sitemirror"
)

var _ sitemirror.FileWriter = (*FileWriter)(nil)

// FileWriter is a mock implementation of sitemirror.FileWriter.
type FileWriter struct {
	WriteFileFn func(ctx context.Context, path string, data []byte) error
}

func (w *FileWriter) WriteFile(ctx context.Context, path string, data []byte) error {
	return w.WriteFileFn(ctx, path, data)
}

var _ sitemirror.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of sitemirror.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
