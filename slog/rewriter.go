package slog

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/sitemirror"
)

// Ensure LoggingContentRewriter implements sitemirror.ContentRewriter.
var _ sitemirror.ContentRewriter = (*LoggingContentRewriter)(nil)

// LoggingContentRewriter wraps a ContentRewriter and logs each rewrite with
// the number of references it discovered.
type LoggingContentRewriter struct {
	next   sitemirror.ContentRewriter
	name   string
	logger *slog.Logger
}

// NewLoggingContentRewriter creates a new LoggingContentRewriter. The name
// distinguishes chains in the log, e.g. "html" or "css".
func NewLoggingContentRewriter(next sitemirror.ContentRewriter, name string, logger *slog.Logger) *LoggingContentRewriter {
	return &LoggingContentRewriter{next: next, name: name, logger: logger}
}

// Rewrite delegates to the wrapped rewriter and logs the operation.
func (r *LoggingContentRewriter) Rewrite(content string, sourceURL *url.URL) (result *sitemirror.RewrittenContent, err error) {
	defer func(begin time.Time) {
		source := ""
		if sourceURL != nil {
			source = sourceURL.String()
		}
		discovered := 0
		if result != nil {
			discovered = len(result.Discovered)
		}
		r.logger.Debug("rewrite",
			"rewriter", r.name,
			"url", source,
			"discovered", discovered,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Rewrite(content, sourceURL)
}
