package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/fwojciec/sitemirror"
	"github.com/fwojciec/sitemirror/mock"
	mirrorslog "github.com/fwojciec/sitemirror/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, filter *sitemirror.URLFilter) ([]string, error) {
				return []string{"/a", "/b"}, nil
			},
		}

		svc := mirrorslog.NewLoggingSitemapService(inner, logger)
		urls, err := svc.DiscoverURLs(context.Background(), "https://example.com", nil)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		output := buf.String()
		assert.Contains(t, output, "sitemap seeds")
		assert.Contains(t, output, "url=https://example.com")
		assert.Contains(t, output, "count=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, filter *sitemirror.URLFilter) ([]string, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := mirrorslog.NewLoggingSitemapService(inner, logger)
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com", nil)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "sitemap seeds")
		assert.Contains(t, output, "err=\"connection failed\"")
	})

	t.Run("forwards the filter to the wrapped service", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		filter := &sitemirror.URLFilter{Include: []*regexp.Regexp{regexp.MustCompile(`/blog/`)}}
		var got *sitemirror.URLFilter
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, f *sitemirror.URLFilter) ([]string, error) {
				got = f
				return []string{"/blog/one"}, nil
			},
		}

		svc := mirrorslog.NewLoggingSitemapService(inner, logger)
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com", filter)

		require.NoError(t, err)
		assert.Same(t, filter, got)
		assert.Contains(t, buf.String(), "count=1")
	})
}
