// Package config reads site mirroring configuration from YAML files.
package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/fwojciec/sitemirror"
	"github.com/fwojciec/sitemirror/crawl"
	"github.com/fwojciec/sitemirror/policy"
	"github.com/fwojciec/sitemirror/rewrite"
	"gopkg.in/yaml.v3"
)

// Policy names.
const (
	PolicyStaticHost  = "static-host"
	PolicyPassthrough = "passthrough"
)

// Substitution scopes.
const (
	ScopeAll  = "all"
	ScopeHTML = "html"
	ScopeCSS  = "css"
)

// Config describes how one site is mirrored.
type Config struct {
	Root        string   `yaml:"root"`
	Destination string   `yaml:"destination"`
	Manifest    string   `yaml:"manifest"`
	Seeds       []string `yaml:"seeds"`

	// SitemapSeeds adds same-host URLs listed in the site's sitemaps to the
	// seeds. SitemapInclude optionally restricts them by regex.
	SitemapSeeds   bool     `yaml:"sitemap_seeds"`
	SitemapInclude []string `yaml:"sitemap_include"`

	Policy            string `yaml:"policy"`             // static-host | passthrough
	QueryString       string `yaml:"query_string"`       // incorporate | separate
	QueryDestinations string `yaml:"query_destinations"` // skip | collapse

	Overrides     []Override     `yaml:"overrides"`
	Substitutions []Substitution `yaml:"substitutions"`
	Extras        []Extra        `yaml:"extras"`

	Concurrency       int           `yaml:"concurrency"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	UserAgent         string        `yaml:"user_agent"`
}

// Override maps one logical URL to a fixed destination.
type Override struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Substitution is a find/replace applied to rewritten content.
type Substitution struct {
	Scope   string `yaml:"scope"` // all | html | css
	Path    string `yaml:"path"`  // exact source path and query, empty for every source
	Find    string `yaml:"find"`
	Replace string `yaml:"replace"`
	Regex   bool   `yaml:"regex"`
}

// Extra is a resource copied verbatim after the crawl.
type Extra struct {
	Source           string `yaml:"source"`
	Destination      string `yaml:"destination"`
	AllowErrorStatus bool   `yaml:"allow_error_status"`
}

// Load reads, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sitemirror.Errorf(sitemirror.ENOTFOUND, "config file %q not found", path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults. It does not
// validate, since command-line flags may still fill in required values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "invalid config: %v", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in every unset option.
func (c *Config) ApplyDefaults() {
	if c.Policy == "" {
		c.Policy = PolicyStaticHost
	}
	if c.QueryString == "" {
		c.QueryString = policy.IncorporateQueryString.String()
	}
	if c.QueryDestinations == "" {
		c.QueryDestinations = crawl.QueryDestinationSkip.String()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	for i := range c.Substitutions {
		if c.Substitutions[i].Scope == "" {
			c.Substitutions[i].Scope = ScopeAll
		}
	}
}

// Validate reports the first invalid option as an EINVALID error.
func (c *Config) Validate() error {
	if c.Root == "" {
		return sitemirror.Errorf(sitemirror.EINVALID, "root url required")
	}
	if u, err := url.Parse(c.Root); err != nil || !u.IsAbs() || u.Host == "" {
		return sitemirror.Errorf(sitemirror.EINVALID, "root must be an absolute url: %q", c.Root)
	}
	if c.Destination == "" {
		return sitemirror.Errorf(sitemirror.EINVALID, "destination directory required")
	}

	switch c.Policy {
	case PolicyStaticHost, PolicyPassthrough:
	default:
		return sitemirror.Errorf(sitemirror.EINVALID, "unknown policy %q", c.Policy)
	}
	if _, err := policy.ParseQueryStringMode(c.QueryString); err != nil {
		return err
	}
	if _, err := crawl.ParseQueryDestinationPolicy(c.QueryDestinations); err != nil {
		return err
	}

	for _, seed := range c.Seeds {
		if sitemirror.IsAbsoluteURL(seed) {
			return sitemirror.Errorf(sitemirror.EINVALID, "seed must be relative: %q", seed)
		}
	}
	for _, pattern := range c.SitemapInclude {
		if _, err := regexp.Compile(pattern); err != nil {
			return sitemirror.Errorf(sitemirror.EINVALID, "invalid sitemap filter %q: %v", pattern, err)
		}
	}
	for _, o := range c.Overrides {
		if o.From == "" || o.To == "" {
			return sitemirror.Errorf(sitemirror.EINVALID, "override requires from and to")
		}
	}
	for _, s := range c.Substitutions {
		if err := s.validate(); err != nil {
			return err
		}
	}
	for _, e := range c.Extras {
		if e.Source == "" || e.Destination == "" {
			return sitemirror.Errorf(sitemirror.EINVALID, "extra requires source and destination")
		}
	}

	switch {
	case c.Concurrency < 1:
		return sitemirror.Errorf(sitemirror.EINVALID, "concurrency must be at least 1")
	case c.RequestsPerSecond < 0:
		return sitemirror.Errorf(sitemirror.EINVALID, "requests_per_second must not be negative")
	case c.Retries < 0:
		return sitemirror.Errorf(sitemirror.EINVALID, "retries must not be negative")
	case c.Timeout < 0:
		return sitemirror.Errorf(sitemirror.EINVALID, "timeout must not be negative")
	}
	return nil
}

func (s Substitution) validate() error {
	switch s.Scope {
	case ScopeAll, ScopeHTML, ScopeCSS:
	default:
		return sitemirror.Errorf(sitemirror.EINVALID, "unknown substitution scope %q", s.Scope)
	}
	if s.Find == "" {
		return sitemirror.Errorf(sitemirror.EINVALID, "substitution requires find")
	}
	if s.Regex {
		if _, err := regexp.Compile(s.Find); err != nil {
			return sitemirror.Errorf(sitemirror.EINVALID, "invalid substitution pattern %q: %v", s.Find, err)
		}
	}
	return nil
}

// URLOverrides returns the override table in configuration order.
func (c *Config) URLOverrides() []sitemirror.Override {
	out := make([]sitemirror.Override, 0, len(c.Overrides))
	for _, o := range c.Overrides {
		out = append(out, sitemirror.Override{From: o.From, To: o.To})
	}
	return out
}

// URLRewriter builds the configured URL rewriting policy.
func (c *Config) URLRewriter() (sitemirror.URLRewriter, error) {
	overrides := c.URLOverrides()
	switch c.Policy {
	case PolicyPassthrough:
		return policy.Passthrough(overrides...), nil
	case PolicyStaticHost:
		mode, err := policy.ParseQueryStringMode(c.QueryString)
		if err != nil {
			return nil, err
		}
		return policy.StaticHost(mode, overrides...), nil
	}
	return nil, sitemirror.Errorf(sitemirror.EINVALID, "unknown policy %q", c.Policy)
}

// SitemapFilter returns the sitemap include filter, or nil when unset.
func (c *Config) SitemapFilter() (*sitemirror.URLFilter, error) {
	if len(c.SitemapInclude) == 0 {
		return nil, nil
	}
	filter := &sitemirror.URLFilter{}
	for _, pattern := range c.SitemapInclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, sitemirror.Errorf(sitemirror.EINVALID, "invalid sitemap filter %q: %v", pattern, err)
		}
		filter.Include = append(filter.Include, re)
	}
	return filter, nil
}

// MirrorExtras converts the configured extras for the mirror engine.
func (c *Config) MirrorExtras() []crawl.Extra {
	out := make([]crawl.Extra, 0, len(c.Extras))
	for _, e := range c.Extras {
		out = append(out, crawl.Extra{
			Source:           e.Source,
			Destination:      e.Destination,
			AllowErrorStatus: e.AllowErrorStatus,
		})
	}
	return out
}

// RetryDelays returns exponential backoff delays for the configured retries.
func (c *Config) RetryDelays() []time.Duration {
	if c.Retries == 0 {
		return nil
	}
	return crawl.BackoffDelays(c.Retries, time.Second)
}

// SubstitutionDecorators builds the configured substitutions as decorators
// in configuration order. Scoped substitutions only apply to sources whose
// destination under rewriteURL has the matching extension, so the same
// list can wrap both the HTML and the CSS rewriter.
func (c *Config) SubstitutionDecorators(rewriteURL sitemirror.URLRewriter) ([]rewrite.Decorator, error) {
	out := make([]rewrite.Decorator, 0, len(c.Substitutions))
	for _, s := range c.Substitutions {
		if err := s.validate(); err != nil {
			return nil, err
		}

		var when []rewrite.Predicate
		if s.Path != "" {
			when = append(when, rewrite.PathIs(s.Path))
		}
		var scope rewrite.Predicate = rewrite.Always
		switch s.Scope {
		case ScopeHTML:
			scope = rewrite.DestinationHasSuffix(rewriteURL, ".html")
		case ScopeCSS:
			scope = rewrite.DestinationHasSuffix(rewriteURL, ".css")
		}
		when = append(when, scope)

		if s.Regex {
			out = append(out, rewrite.ReplacePattern(rewrite.All(when...), regexp.MustCompile(s.Find), s.Replace))
		} else {
			out = append(out, rewrite.ReplaceLiteral(rewrite.All(when...), s.Find, s.Replace))
		}
	}
	return out, nil
}
