package mock

import (
	"context"

	"github.com/fwojciec/sitemirror"
)

var _ sitemirror.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of sitemirror.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *sitemirror.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *sitemirror.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
