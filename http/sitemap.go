package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/sitemirror"
)

// Ensure SitemapService implements sitemirror.SitemapService.
var _ sitemirror.SitemapService = (*SitemapService)(nil)

// SitemapService lists a site's pages from its sitemaps so that pages not
// linked from any other page can still be mirrored.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the site-root-relative form of every sitemap entry on
// the same host as rootURL, deduplicated and in sitemap order. Entries on
// other hosts are dropped. Returns an empty slice if no sitemap exists.
func (s *SitemapService) DiscoverURLs(ctx context.Context, rootURL string, filter *sitemirror.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := url.Parse(rootURL)
	if err != nil || !root.IsAbs() {
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "root url %q must be absolute", rootURL)
	}

	locations, err := s.sitemapLocations(ctx, root)
	if err != nil {
		return nil, err
	}

	seenSitemaps := make(map[string]bool)
	seen := make(map[string]bool)
	seeds := []string{}
	for _, loc := range locations {
		entries, err := s.readSitemap(ctx, loc, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			seed, ok := rootRelative(root, entry)
			if !ok || seen[seed] || !filter.Match(seed) {
				continue
			}
			seen[seed] = true
			seeds = append(seeds, seed)
		}
	}
	return seeds, nil
}

// rootRelative converts an absolute sitemap entry into a path relative to
// the site root, or reports false if it belongs to another host.
func rootRelative(root *url.URL, entry string) (string, bool) {
	u, err := url.Parse(entry)
	if err != nil {
		return "", false
	}
	u = root.ResolveReference(u)
	if !strings.EqualFold(u.Host, root.Host) {
		return "", false
	}
	return u.RequestURI(), true
}

// sitemapLocations reads Sitemap: directives from robots.txt and falls back
// to /sitemap.xml when there are none.
func (s *SitemapService) sitemapLocations(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	if locations, err := s.robotsSitemaps(ctx, robotsURL.String()); err == nil && len(locations) > 0 {
		return locations, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	body, err := s.open(ctx, fallback.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	body.Close()
	return []string{fallback.String()}, nil
}

func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.open(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var locations []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > len("sitemap:") && strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			if loc := strings.TrimSpace(line[len("sitemap:"):]); loc != "" {
				locations = append(locations, loc)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return locations, nil
}

// readSitemap returns the <loc> entries of a urlset, following sitemap
// indexes recursively. Each sitemap is read at most once.
func (s *SitemapService) readSitemap(ctx context.Context, loc string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[loc] {
		return nil, nil
	}
	seen[loc] = true

	body, err := s.open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap XML")
	}

	if root.Tag != "sitemapindex" {
		return locs(root, "url"), nil
	}

	var entries []string
	for _, child := range locs(root, "sitemap") {
		childEntries, err := s.readSitemap(ctx, child, seen)
		if err != nil {
			return nil, err
		}
		entries = append(entries, childEntries...)
	}
	return entries, nil
}

// locs returns the trimmed <loc> text of each child element named tag.
func locs(parent *etree.Element, tag string) []string {
	var out []string
	for _, el := range parent.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if text := strings.TrimSpace(loc.Text()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// open fetches targetURL and returns the body of a 200 response.
func (s *SitemapService) open(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	return resp.Body, nil
}
