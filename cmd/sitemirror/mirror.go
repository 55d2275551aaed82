package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fwojciec/sitemirror"
	"github.com/fwojciec/sitemirror/config"
	"github.com/fwojciec/sitemirror/crawl"
	"github.com/fwojciec/sitemirror/css"
	"github.com/fwojciec/sitemirror/fs"
	"github.com/fwojciec/sitemirror/goquery"
	mirrorhttp "github.com/fwojciec/sitemirror/http"
	"github.com/fwojciec/sitemirror/rewrite"
	mirrorslog "github.com/fwojciec/sitemirror/slog"
)

// Run executes the mirror command.
func (c *MirrorCmd) Run(deps *Dependencies) error {
	cfg, err := c.config()
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitemirror.ErrorMessage(err))
		return err
	}

	var logger *slog.Logger
	if c.Verbose {
		logger = slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	rewriteURL, err := cfg.URLRewriter()
	if err != nil {
		return err
	}
	decorators, err := cfg.SubstitutionDecorators(rewriteURL)
	if err != nil {
		return err
	}
	queryDestinations, err := crawl.ParseQueryDestinationPolicy(cfg.QueryDestinations)
	if err != nil {
		return err
	}

	var html, stylesheets sitemirror.ContentRewriter
	html = rewrite.Chain(goquery.NewRewriter(rewriteURL), decorators...)
	stylesheets = rewrite.Chain(css.NewRewriter(rewriteURL), decorators...)

	retriever := deps.Retriever
	if retriever == nil {
		var opts []mirrorhttp.Option
		if cfg.UserAgent != "" {
			opts = append(opts, mirrorhttp.WithUserAgent(cfg.UserAgent))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, mirrorhttp.WithTimeout(cfg.Timeout))
		}
		retriever = mirrorhttp.NewRetriever(opts...)
	}
	sitemaps := deps.Sitemaps

	dir := fs.NewWriter(cfg.Destination)
	if err := dir.Reset(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: cannot prepare %s: %v\n", cfg.Destination, err)
		return err
	}
	var writer sitemirror.FileWriter = dir

	if logger != nil {
		retriever = mirrorslog.NewLoggingRetriever(retriever, logger)
		html = mirrorslog.NewLoggingContentRewriter(html, "html", logger)
		stylesheets = mirrorslog.NewLoggingContentRewriter(stylesheets, "css", logger)
		writer = mirrorslog.NewLoggingFileWriter(writer, logger)
		if sitemaps != nil {
			sitemaps = mirrorslog.NewLoggingSitemapService(sitemaps, logger)
		}
	}

	seeds := cfg.Seeds
	if cfg.SitemapSeeds && sitemaps != nil {
		filter, err := cfg.SitemapFilter()
		if err != nil {
			return err
		}
		found, err := sitemaps.DiscoverURLs(deps.Ctx, cfg.Root, filter)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: sitemap seeds: %v\n", err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "  Found %d sitemap seeds\n", len(found))
		seeds = append(seeds, found...)
	}

	m := &crawl.Mirror{
		Retriever:         retriever,
		Writer:            writer,
		URLRewriter:       rewriteURL,
		HTML:              html,
		CSS:               stylesheets,
		QueryDestinations: queryDestinations,
		Concurrency:       cfg.Concurrency,
		RetryDelays:       cfg.RetryDelays(),
		Extras:            cfg.MirrorExtras(),
		Logger: func(format string, args ...any) {
			fmt.Fprintf(deps.Stderr, format+"\n", args...)
		},
	}
	if cfg.RequestsPerSecond > 0 {
		m.RateLimiter = crawl.NewDomainLimiter(cfg.RequestsPerSecond, 1)
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressMirrored:
			fmt.Fprintf(deps.Stdout, "  %s -> %s\n", crawl.TruncateURL(event.URL, 60), event.Path)
		case crawl.ProgressSkipped:
			if c.Verbose {
				fmt.Fprintf(deps.Stdout, "  skip %s\n", crawl.TruncateURL(event.URL, 60))
			}
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  failed %s: %v\n", event.URL, event.Error)
		case crawl.ProgressFinished:
			// Summary printed after the run completes
		}
	}

	result, err := m.Run(deps.Ctx, cfg.Root, seeds, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error mirroring: %s\n", sitemirror.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Mirrored %d files (%s) into %s, skipped %d URLs\n",
		len(result.Files), crawl.FormatBytes(result.Bytes), dir.Root(), result.Skipped)

	if cfg.Manifest != "" {
		if err := fs.WriteManifest(cfg.Manifest, result.Files); err != nil {
			fmt.Fprintf(deps.Stderr, "error: writing manifest: %v\n", err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "Wrote manifest %s\n", cfg.Manifest)
	}
	return nil
}

// config loads the configuration file, if any, and applies flag overrides.
func (c *MirrorCmd) config() (*config.Config, error) {
	cfg := &config.Config{}
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.Root != "" {
		cfg.Root = c.Root
	}
	if c.Destination != "" {
		cfg.Destination = c.Destination
	}
	if c.Policy != "" {
		cfg.Policy = c.Policy
	}
	if c.QueryString != "" {
		cfg.QueryString = c.QueryString
	}
	if c.QueryDestinations != "" {
		cfg.QueryDestinations = c.QueryDestinations
	}
	cfg.Seeds = append(cfg.Seeds, c.Seed...)
	for _, o := range c.Override {
		from, to, ok := strings.Cut(o, "=")
		if !ok {
			return nil, sitemirror.Errorf(sitemirror.EINVALID, "override must be FROM=TO: %q", o)
		}
		// Flag overrides take precedence over file overrides for the same URL.
		cfg.Overrides = append([]config.Override{{From: from, To: to}}, cfg.Overrides...)
	}
	if c.SitemapSeeds {
		cfg.SitemapSeeds = true
	}
	if c.Concurrency > 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.RPS > 0 {
		cfg.RequestsPerSecond = c.RPS
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	if c.Retries > 0 {
		cfg.Retries = c.Retries
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	if c.Manifest != "" {
		cfg.Manifest = c.Manifest
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
