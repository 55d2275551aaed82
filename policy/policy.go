// Package policy provides the URL rewriting policies that map logical site
// URLs onto static-host destination paths.
package policy

import (
	"regexp"
	"strings"

	"github.com/fwojciec/sitemirror"
)

// QueryStringMode controls what the static-host policy does with query strings.
type QueryStringMode int

const (
	// IncorporateQueryString folds the query into the file name,
	// e.g. "search?term=test" becomes "search-term-test.html".
	IncorporateQueryString QueryStringMode = iota

	// SeparateQueryString keeps the query apart from the rewritten path,
	// e.g. "search?term=test" becomes "search.html?term=test".
	SeparateQueryString
)

// String returns the mode's configuration name.
func (m QueryStringMode) String() string {
	if m == SeparateQueryString {
		return "separate"
	}
	return "incorporate"
}

// ParseQueryStringMode parses a configuration name into a QueryStringMode.
func ParseQueryStringMode(s string) (QueryStringMode, error) {
	switch strings.ToLower(s) {
	case "", "incorporate":
		return IncorporateQueryString, nil
	case "separate":
		return SeparateQueryString, nil
	}
	return 0, sitemirror.Errorf(sitemirror.EINVALID, "unknown query string mode %q", s)
}

// AllowedExtensions lists the file extensions a static host serves as-is.
// Any other path gets ".html" appended.
var AllowedExtensions = []string{
	"html", "htm",
	"jpg", "png", "gif", "svg", "ico",
	"md", "markdown",
	"js", "json", "geojson",
	"css",
	"txt", "text", "csv", "tsv",
	"eot", "ttf", "otf", "woff", "woff2",
}

// unsafeChars matches every character that is not filesystem-safe.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9 \-.]`)

// StaticHost returns the generic static-host policy. Overrides are matched
// exactly and in order before any other rule applies.
func StaticHost(mode QueryStringMode, overrides ...sitemirror.Override) sitemirror.URLRewriter {
	return func(logicalURL string) (string, bool) {
		if dest, ok := sitemirror.LookupOverride(overrides, logicalURL); ok {
			return dest, true
		}
		if sitemirror.IsAbsoluteURL(logicalURL) {
			return logicalURL, true
		}

		path, query, fragment := sitemirror.SplitURL(strings.ReplaceAll(logicalURL, "\\", "/"))
		path = strings.Trim(path, "/")
		if path == "" {
			path = "index.html"
		}

		if hasSuffixFold(path, ".less") {
			path = path[:len(path)-len(".less")] + ".css"
		}
		if !hasAllowedExtension(path) {
			path += ".html"
		}

		if query != "" && mode == IncorporateQueryString {
			dot := strings.LastIndex(path, ".")
			path = path[:dot] + "-" + query + path[dot:]
		}

		path = unsafeChars.ReplaceAllString(path, "-")

		if query != "" && mode == SeparateQueryString {
			path += "?" + query
		}
		if fragment != "" {
			path += "#" + fragment
		}
		return path, true
	}
}

// Passthrough returns the minimal policy for hosts that resolve extension-less
// paths themselves. Absolute URLs pass through, protocol-relative URLs get an
// explicit https scheme, and any URL carrying a query string has no destination.
func Passthrough(overrides ...sitemirror.Override) sitemirror.URLRewriter {
	return func(logicalURL string) (string, bool) {
		if dest, ok := sitemirror.LookupOverride(overrides, logicalURL); ok {
			return dest, true
		}
		if strings.Contains(logicalURL, "?") {
			return "", false
		}
		if strings.HasPrefix(logicalURL, "//") {
			return "https:" + logicalURL, true
		}
		if sitemirror.IsAbsoluteURL(logicalURL) {
			return logicalURL, true
		}

		dest := strings.ReplaceAll(logicalURL, "\\", "/")
		path, fragment, _ := strings.Cut(dest, "#")
		if strings.Trim(path, "/") == "" {
			dest = "index.html"
			if fragment != "" {
				dest += "#" + fragment
			}
		}
		return dest, true
	}
}

func hasAllowedExtension(path string) bool {
	for _, ext := range AllowedExtensions {
		if hasSuffixFold(path, "."+ext) {
			return true
		}
	}
	return false
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
