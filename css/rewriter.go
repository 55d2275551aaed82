// Package css rewrites url() references in stylesheets using the gorilla/css
// scanner.
package css

import (
	"net/url"
	"strings"

	"github.com/fwojciec/sitemirror"
	"github.com/gorilla/css/scanner"
)

var _ sitemirror.ContentRewriter = (*Rewriter)(nil)

// Rewriter rewrites the URLs inside url(...) functions through a URLRewriter.
// Comments are dropped; every other token is passed through unchanged.
type Rewriter struct {
	rewriteURL sitemirror.URLRewriter
}

// NewRewriter creates a new CSS Rewriter.
func NewRewriter(rewriteURL sitemirror.URLRewriter) *Rewriter {
	return &Rewriter{rewriteURL: rewriteURL}
}

// Rewrite tokenizes content and rewrites each url() function. Relative URLs
// are resolved against sourceURL, reported in site-root-relative form and
// re-emitted double quoted.
func (r *Rewriter) Rewrite(content string, sourceURL *url.URL) (*sitemirror.RewrittenContent, error) {
	if err := sitemirror.ValidateSourceURL(sourceURL); err != nil {
		return nil, err
	}

	// The scanner normalizes newlines itself; doing it up front keeps token
	// offsets aligned with content.
	content = normalize(content)

	var b strings.Builder
	var discovered []string
	seen := make(map[string]bool)
	consumed := 0

	emitURI := func(token string) {
		out, ref := r.rewriteURI(token, sourceURL)
		b.WriteString(out)
		if ref != "" && !seen[ref] {
			seen[ref] = true
			discovered = append(discovered, ref)
		}
	}

	s := scanner.New(content)
scan:
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF {
			break
		}
		if tok.Type == scanner.TokenError {
			b.WriteString(content[consumed:])
			break
		}
		start := consumed
		consumed += len(tok.Value)

		switch tok.Type {
		case scanner.TokenComment:
		case scanner.TokenURI:
			emitURI(tok.Value)
		case scanner.TokenFunction:
			// The scanner only recognizes a lower-case "url(" as a URI token.
			if !strings.EqualFold(tok.Value, "url(") {
				b.WriteString(tok.Value)
				break
			}
			args, closed := readArguments(s)
			consumed += len(args)
			if !closed {
				b.WriteString(content[start:])
				break scan
			}
			emitURI(tok.Value + args)
		default:
			b.WriteString(tok.Value)
		}
	}

	return sitemirror.NewRewrittenContent(b.String(), discovered)
}

// rewriteURI returns the replacement for a url(...) token and, for relative
// references, the site-root-relative URL to report as discovered.
func (r *Rewriter) rewriteURI(token string, sourceURL *url.URL) (out string, discovered string) {
	inner := unquote(strings.TrimSpace(token[len("url(") : len(token)-len(")")]))
	if inner == "" || sitemirror.IsAbsoluteURL(inner) {
		return token, ""
	}

	ref, err := url.Parse(inner)
	if err != nil {
		return token, ""
	}
	resolved := sourceURL.ResolveReference(ref)
	rootRelative := resolved.RequestURI()

	target := rootRelative
	if resolved.Fragment != "" {
		target += "#" + resolved.EscapedFragment()
	}
	dest, ok := r.rewriteURL(target)
	if !ok {
		return token, rootRelative
	}
	return `url("` + strings.ReplaceAll(dest, `"`, `\"`) + `")`, rootRelative
}

// readArguments consumes tokens up to and including the ")" closing a
// function. It reports false when the input ends first.
func readArguments(s *scanner.Scanner) (string, bool) {
	var b strings.Builder
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			return b.String(), false
		}
		b.WriteString(tok.Value)
		if tok.Type == scanner.TokenChar && tok.Value == ")" {
			return b.String(), true
		}
	}
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) string {
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) {
			s = s[1:]
			return strings.TrimSuffix(s, q)
		}
	}
	return s
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")

func normalize(content string) string {
	return strings.ReplaceAll(newlines.Replace(content), "\u0000", "\ufffd")
}
