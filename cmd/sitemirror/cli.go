package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/sitemirror"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Retriever sitemirror.Retriever // nil means a fresh HTTP retriever per command
	Sitemaps  sitemirror.SitemapService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Mirror MirrorCmd `cmd:"" help:"Mirror a site into a destination directory"`
	Seeds  SeedsCmd  `cmd:"" help:"List seed URLs found in a site's sitemaps"`
}

// MirrorCmd is the "mirror" subcommand. Flags override values read from
// the configuration file.
type MirrorCmd struct {
	Root        string `arg:"" optional:"" help:"Root URL of the site"`
	Destination string `arg:"" optional:"" help:"Destination directory (cleared first)"`

	Config            string        `short:"C" help:"YAML site configuration file" env:"SITEMIRROR_CONFIG"`
	Policy            string        `help:"URL policy: static-host or passthrough" env:"SITEMIRROR_POLICY"`
	QueryString       string        `help:"Query strings in file names: incorporate or separate" env:"SITEMIRROR_QUERY_STRING"`
	QueryDestinations string        `help:"Destinations still carrying a query: skip or collapse" env:"SITEMIRROR_QUERY_DESTINATIONS"`
	Seed              []string      `short:"s" help:"Extra relative URL to mirror (repeatable)"`
	Override          []string      `short:"o" help:"Exact URL override as FROM=TO (repeatable)"`
	SitemapSeeds      bool          `help:"Seed the crawl from robots.txt and sitemap.xml" env:"SITEMIRROR_SITEMAP_SEEDS"`
	Concurrency       int           `short:"c" help:"Concurrent fetch limit" env:"SITEMIRROR_CONCURRENCY"`
	RPS               float64       `name:"rps" help:"Requests per second per host, 0 for unlimited" env:"SITEMIRROR_RPS"`
	Timeout           time.Duration `short:"t" help:"Fetch timeout per request" env:"SITEMIRROR_TIMEOUT"`
	Retries           int           `help:"Retries per failed fetch" env:"SITEMIRROR_RETRIES"`
	UserAgent         string        `help:"User-Agent header" env:"SITEMIRROR_USER_AGENT"`
	Manifest          string        `short:"m" help:"Write a YAML manifest of mirrored files to this path" env:"SITEMIRROR_MANIFEST"`
	Verbose           bool          `short:"v" help:"Log every request, rewrite and write"`
}

// SeedsCmd is the "seeds" subcommand.
type SeedsCmd struct {
	Root    string   `arg:"" help:"Root URL of the site"`
	Include []string `short:"i" help:"Only list seeds matching this regex (repeatable)"`
}
