package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitemirror"
)

// Ensure LoggingFileWriter implements sitemirror.FileWriter.
var _ sitemirror.FileWriter = (*LoggingFileWriter)(nil)

// LoggingFileWriter wraps a FileWriter and logs every written file.
type LoggingFileWriter struct {
	next   sitemirror.FileWriter
	logger *slog.Logger
}

// NewLoggingFileWriter creates a new LoggingFileWriter.
func NewLoggingFileWriter(next sitemirror.FileWriter, logger *slog.Logger) *LoggingFileWriter {
	return &LoggingFileWriter{next: next, logger: logger}
}

// WriteFile delegates to the wrapped writer and logs the operation.
func (w *LoggingFileWriter) WriteFile(ctx context.Context, path string, data []byte) (err error) {
	defer func(begin time.Time) {
		w.logger.Info("write",
			"path", path,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteFile(ctx, path, data)
}
