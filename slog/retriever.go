// Package slog provides logging decorators for the sitemirror interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitemirror"
)

// Ensure LoggingRetriever implements sitemirror.Retriever.
var _ sitemirror.Retriever = (*LoggingRetriever)(nil)

// LoggingRetriever wraps a Retriever and logs every request.
type LoggingRetriever struct {
	next   sitemirror.Retriever
	logger *slog.Logger
}

// NewLoggingRetriever creates a new LoggingRetriever.
func NewLoggingRetriever(next sitemirror.Retriever, logger *slog.Logger) *LoggingRetriever {
	return &LoggingRetriever{next: next, logger: logger}
}

// FetchText delegates to the wrapped retriever and logs the request.
func (r *LoggingRetriever) FetchText(ctx context.Context, absoluteURL string) (text string, err error) {
	defer func(begin time.Time) {
		r.log("fetch text", absoluteURL, len(text), begin, err)
	}(time.Now())
	return r.next.FetchText(ctx, absoluteURL)
}

// FetchBinary delegates to the wrapped retriever and logs the request.
func (r *LoggingRetriever) FetchBinary(ctx context.Context, absoluteURL string) (data []byte, err error) {
	defer func(begin time.Time) {
		r.log("fetch binary", absoluteURL, len(data), begin, err)
	}(time.Now())
	return r.next.FetchBinary(ctx, absoluteURL)
}

// FetchTextAnyStatus delegates to the wrapped retriever and logs the request.
func (r *LoggingRetriever) FetchTextAnyStatus(ctx context.Context, absoluteURL string) (text string, err error) {
	defer func(begin time.Time) {
		r.log("fetch any status", absoluteURL, len(text), begin, err)
	}(time.Now())
	return r.next.FetchTextAnyStatus(ctx, absoluteURL)
}

func (r *LoggingRetriever) log(msg, absoluteURL string, n int, begin time.Time, err error) {
	if err != nil {
		r.logger.Error(msg, "url", absoluteURL, "duration", time.Since(begin), "err", err)
		return
	}
	r.logger.Info(msg, "url", absoluteURL, "bytes", n, "duration", time.Since(begin))
}
