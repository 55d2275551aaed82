package mock

import (
	"net/url"

	"github.com/fwojciec/sitemirror"
)

var _ sitemirror.ContentRewriter = (*ContentRewriter)(nil)

// ContentRewriter is a mock implementation of sitemirror.ContentRewriter.
type ContentRewriter struct {
	RewriteFn func(content string, sourceURL *url.URL) (*sitemirror.RewrittenContent, error)
}

func (r *ContentRewriter) Rewrite(content string, sourceURL *url.URL) (*sitemirror.RewrittenContent, error) {
	return r.RewriteFn(content, sourceURL)
}
