package sitemirror

import (
	"context"
	"regexp"
)

// SitemapService discovers crawl seeds from website sitemaps.
type SitemapService interface {
	// DiscoverURLs returns the root-relative URLs listed in the sitemaps of
	// the site at baseURL that live on the same host, deduplicated in
	// sitemap order. It first checks robots.txt for sitemap directives, then
	// falls back to /sitemap.xml. Sitemap indexes are resolved recursively.
	//
	// The filter is matched against the relative URL. If filter is nil, all
	// URLs are returned.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}
