package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/fwojciec/sitemirror"
	sitemirrorhttp "github.com/fwojciec/sitemirror/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("reads sitemaps listed in robots.txt as root-relative seeds", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/robots.txt": "User-agent: *\nSitemap: {{BASE}}/sitemap1.xml\nsitemap: {{BASE}}/sitemap2.xml\n",
			"/sitemap1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/Read/First</loc></url>
  <url><loc>{{BASE}}/Search?term=go</loc></url>
</urlset>`,
			"/sitemap2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/Read/First</loc></url>
  <url><loc>https://elsewhere.example/page</loc></url>
</urlset>`,
		})
		defer srv.Close()

		svc := sitemirrorhttp.NewSitemapService(srv.Client())
		seeds, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"/Read/First", "/Search?term=go"}, seeds)
	})

	t.Run("falls back to sitemap.xml and follows indexes", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/posts.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap.xml</loc></sitemap>
</sitemapindex>`,
			"/posts.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/Read/Hidden</loc></url>
</urlset>`,
		})
		defer srv.Close()

		svc := sitemirrorhttp.NewSitemapService(srv.Client())
		seeds, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"/Read/Hidden"}, seeds)
	})

	t.Run("applies filter to seeds", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{
			"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/Read/A</loc></url>
  <url><loc>{{BASE}}/Admin/Panel</loc></url>
</urlset>`,
		})
		defer srv.Close()

		filter := &sitemirror.URLFilter{Exclude: []*regexp.Regexp{regexp.MustCompile(`^/Admin/`)}}
		svc := sitemirrorhttp.NewSitemapService(srv.Client())
		seeds, err := svc.DiscoverURLs(context.Background(), srv.URL, filter)

		require.NoError(t, err)
		assert.Equal(t, []string{"/Read/A"}, seeds)
	})

	t.Run("returns empty list when no sitemap exists", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{})
		defer srv.Close()

		svc := sitemirrorhttp.NewSitemapService(srv.Client())
		seeds, err := svc.DiscoverURLs(context.Background(), srv.URL, nil)

		require.NoError(t, err)
		assert.Empty(t, seeds)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		srv := newSitemapServer(t, map[string]string{})
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := sitemirrorhttp.NewSitemapService(srv.Client())
		_, err := svc.DiscoverURLs(ctx, srv.URL, nil)

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("rejects relative root", func(t *testing.T) {
		t.Parallel()

		svc := sitemirrorhttp.NewSitemapService(nil)
		_, err := svc.DiscoverURLs(context.Background(), "/relative", nil)

		assert.Equal(t, sitemirror.EINVALID, sitemirror.ErrorCode(err))
	})
}

// newSitemapServer serves the given path->content mapping.
// Content strings may contain {{BASE}} which is replaced with the server URL.
func newSitemapServer(t *testing.T, content map[string]string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
		} else {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{BASE}}", srv.URL)))
	}))

	return srv
}
