// Package rewrite composes content rewriters. Decorators wrap an inner
// ContentRewriter without knowing what it is, so independent policies can be
// stacked around the HTML and CSS rewriters.
package rewrite

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/fwojciec/sitemirror"
)

// Decorator wraps a ContentRewriter with additional behavior.
type Decorator func(inner sitemirror.ContentRewriter) sitemirror.ContentRewriter

// Chain applies decorators around base. The first decorator is the innermost,
// so it sees the base rewriter's output first.
func Chain(base sitemirror.ContentRewriter, decorators ...Decorator) sitemirror.ContentRewriter {
	r := base
	for _, d := range decorators {
		r = d(r)
	}
	return r
}

// Predicate decides from the original source URL whether a decorator applies.
type Predicate func(sourceURL *url.URL) bool

// Always applies to every source URL.
func Always(*url.URL) bool { return true }

// All matches when every predicate matches. With no predicates it always matches.
func All(predicates ...Predicate) Predicate {
	return func(sourceURL *url.URL) bool {
		for _, p := range predicates {
			if !p(sourceURL) {
				return false
			}
		}
		return true
	}
}

// PathIs matches source URLs whose path and query equal pathAndQuery exactly.
func PathIs(pathAndQuery string) Predicate {
	return func(sourceURL *url.URL) bool {
		return sourceURL.RequestURI() == pathAndQuery
	}
}

// DestinationHasSuffix matches source URLs whose destination file under
// rewriteURL ends with suffix, ignoring case. The file is named by
// sitemirror.DestinationFile, so an extension-less destination counts as
// ".html". External destinations never match.
func DestinationHasSuffix(rewriteURL sitemirror.URLRewriter, suffix string) Predicate {
	suffix = strings.ToLower(suffix)
	return func(sourceURL *url.URL) bool {
		dest, ok := rewriteURL(sourceURL.RequestURI())
		if !ok || dest == "" || sitemirror.IsAbsoluteURL(dest) {
			return false
		}
		file := sitemirror.DestinationFile(dest)
		return strings.HasSuffix(strings.ToLower(file), suffix)
	}
}

// Conditional runs its inner rewriter and then, when When holds for the
// source URL, replaces every match of Pattern in the rewritten content.
// Discovered URLs pass through unchanged whether or not When holds.
type Conditional struct {
	Inner       sitemirror.ContentRewriter
	When        Predicate
	Pattern     *regexp.Regexp
	Replacement string

	// Literal inserts Replacement as-is instead of expanding $1-style
	// references.
	Literal bool
}

var _ sitemirror.ContentRewriter = (*Conditional)(nil)

// Rewrite implements sitemirror.ContentRewriter.
func (c *Conditional) Rewrite(content string, sourceURL *url.URL) (*sitemirror.RewrittenContent, error) {
	if err := sitemirror.ValidateSourceURL(sourceURL); err != nil {
		return nil, err
	}

	rewritten, err := c.Inner.Rewrite(content, sourceURL)
	if err != nil {
		return nil, err
	}
	if !c.When(sourceURL) {
		return rewritten, nil
	}

	var out string
	if c.Literal {
		out = c.Pattern.ReplaceAllLiteralString(rewritten.Content, c.Replacement)
	} else {
		out = c.Pattern.ReplaceAllString(rewritten.Content, c.Replacement)
	}
	return &sitemirror.RewrittenContent{
		Content:    out,
		Discovered: rewritten.Discovered,
	}, nil
}

// ReplaceLiteral returns a Decorator replacing every occurrence of old with
// replacement in content from sources matching when.
func ReplaceLiteral(when Predicate, old, replacement string) Decorator {
	pattern := regexp.MustCompile(regexp.QuoteMeta(old))
	return func(inner sitemirror.ContentRewriter) sitemirror.ContentRewriter {
		return &Conditional{
			Inner:       inner,
			When:        when,
			Pattern:     pattern,
			Replacement: replacement,
			Literal:     true,
		}
	}
}

// ReplacePattern returns a Decorator replacing every match of pattern with
// replacement, which may reference capture groups, in content from sources
// matching when.
func ReplacePattern(when Predicate, pattern *regexp.Regexp, replacement string) Decorator {
	return func(inner sitemirror.ContentRewriter) sitemirror.ContentRewriter {
		return &Conditional{
			Inner:       inner,
			When:        when,
			Pattern:     pattern,
			Replacement: replacement,
		}
	}
}
