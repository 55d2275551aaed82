package sitemirror

import "net/url"

// RewrittenContent is transformed text plus the relative URLs discovered
// while transforming it.
type RewrittenContent struct {
	Content string

	// Discovered holds relative URLs only, in discovery order.
	Discovered []string
}

// NewRewrittenContent returns a RewrittenContent after checking that no
// discovered URL is absolute.
func NewRewrittenContent(content string, discovered []string) (*RewrittenContent, error) {
	for _, u := range discovered {
		if u == "" {
			return nil, Errorf(EINVALID, "empty url in discovered set")
		}
		if IsAbsoluteURL(u) {
			return nil, Errorf(EINVALID, "absolute url %q may not be recorded as discovered", u)
		}
	}
	return &RewrittenContent{Content: content, Discovered: discovered}, nil
}

// ContentRewriter transforms fetched text and reports newly discovered links.
type ContentRewriter interface {
	// Rewrite transforms content fetched from sourceURL.
	// Returns EINVALID if sourceURL is nil or not absolute.
	Rewrite(content string, sourceURL *url.URL) (*RewrittenContent, error)
}

// ContentRewriterFunc adapts an ordinary function to ContentRewriter.
type ContentRewriterFunc func(content string, sourceURL *url.URL) (*RewrittenContent, error)

// Rewrite calls f(content, sourceURL).
func (f ContentRewriterFunc) Rewrite(content string, sourceURL *url.URL) (*RewrittenContent, error) {
	return f(content, sourceURL)
}

// ValidateSourceURL returns EINVALID unless sourceURL is an absolute URL.
func ValidateSourceURL(sourceURL *url.URL) error {
	if sourceURL == nil {
		return Errorf(EINVALID, "source url required")
	}
	if !sourceURL.IsAbs() {
		return Errorf(EINVALID, "source url %q must be absolute", sourceURL.String())
	}
	return nil
}
