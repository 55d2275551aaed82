// Package crawl mirrors a dynamic site into a tree of static files.
// It walks the site from the root page, rewriting every HTML and CSS
// document so that the links between mirrored files keep working.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/sitemirror"
	"golang.org/x/sync/errgroup"
)

// QueryDestinationPolicy decides what happens to a URL whose destination
// still carries a query string after rewriting.
type QueryDestinationPolicy int

const (
	// QueryDestinationSkip classifies such URLs as unmirrorable.
	QueryDestinationSkip QueryDestinationPolicy = iota
	// QueryDestinationCollapse drops the query and mirrors the first URL
	// claiming the resulting file. Any later URL landing on a file claimed
	// this way, or landing this way on a claimed file, is skipped.
	QueryDestinationCollapse
)

// String returns the configuration name of the policy.
func (p QueryDestinationPolicy) String() string {
	switch p {
	case QueryDestinationCollapse:
		return "collapse"
	default:
		return "skip"
	}
}

// ParseQueryDestinationPolicy converts a configuration name into a policy.
func ParseQueryDestinationPolicy(s string) (QueryDestinationPolicy, error) {
	switch s {
	case "", "skip":
		return QueryDestinationSkip, nil
	case "collapse":
		return QueryDestinationCollapse, nil
	}
	return 0, sitemirror.Errorf(sitemirror.EINVALID, "unknown query destination policy %q", s)
}

// Extra is a resource copied verbatim after the crawl, outside the link graph.
type Extra struct {
	Source      string // logical URL to fetch
	Destination string // file to write, relative to the destination root
	// AllowErrorStatus captures the body whatever the response status,
	// as needed for custom "not found" pages.
	AllowErrorStatus bool
}

// Mirror crawls a site and writes a static copy through Writer.
type Mirror struct {
	Retriever   sitemirror.Retriever
	Writer      sitemirror.FileWriter
	URLRewriter sitemirror.URLRewriter
	HTML        sitemirror.ContentRewriter
	CSS         sitemirror.ContentRewriter

	// Optional.
	RateLimiter       sitemirror.DomainLimiter
	QueryDestinations QueryDestinationPolicy
	Concurrency       int
	RetryDelays       []time.Duration
	Extras            []Extra
	Logger            LogFunc
}

// Result holds the outcome of a mirror run.
type Result struct {
	Visited []string // logical URLs in the order they were marked visited
	Files   []sitemirror.MirroredFile
	Skipped int
	Bytes   int
}

// ProgressEvent reports progress during a mirror run.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	URL       string
	Path      string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressMirrored ProgressType = iota
	ProgressSkipped
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting mirror progress.
type ProgressFunc func(event ProgressEvent)

// job is a URL planned for mirroring.
type job struct {
	logical string
	fetch   *url.URL
	file    string
	kind    sitemirror.ContentKind
}

// jobResult holds the outcome of processing a single job.
type jobResult struct {
	file       sitemirror.MirroredFile
	discovered []string
	err        error
}

// Run mirrors the site at root, starting from "/" and the given seeds, until
// no unvisited URL remains. Any contract violation, destination collision or
// retrieval failure aborts the run and is returned.
func (m *Mirror) Run(ctx context.Context, root string, seeds []string, progress ProgressFunc) (*Result, error) {
	rootURL, err := m.validate(root, seeds)
	if err != nil {
		return nil, err
	}

	s := newSession()
	s.add("/")
	for _, seed := range seeds {
		s.add(seed)
	}

	result := &Result{}
	report := func(e ProgressEvent) {
		if progress != nil {
			e.Completed = len(result.Files)
			progress(e)
		}
	}

	for {
		batch := s.pending()
		if len(batch) == 0 {
			break
		}

		var jobs []job
		for _, logical := range batch {
			j, skip, err := m.plan(s, rootURL, logical)
			if err != nil {
				report(ProgressEvent{Type: ProgressFailed, URL: logical, Error: err})
				return nil, err
			}
			if skip {
				s.markVisited(logical)
				result.Skipped++
				report(ProgressEvent{Type: ProgressSkipped, URL: logical})
				continue
			}
			jobs = append(jobs, j)
		}

		results, failed, err := m.processAll(ctx, jobs)
		if err != nil {
			report(ProgressEvent{Type: ProgressFailed, URL: jobs[failed].logical, Error: err})
			return nil, err
		}

		for i, r := range results {
			for _, d := range r.discovered {
				s.add(d)
			}
			s.markVisited(jobs[i].logical)
			result.Files = append(result.Files, r.file)
			result.Bytes += r.file.Bytes
			report(ProgressEvent{Type: ProgressMirrored, URL: r.file.Source, Path: r.file.Path})
		}
	}

	for _, extra := range m.Extras {
		f, err := m.copyExtra(ctx, s, rootURL, extra)
		if err != nil {
			report(ProgressEvent{Type: ProgressFailed, URL: extra.Source, Error: err})
			return nil, err
		}
		result.Files = append(result.Files, f)
		result.Bytes += f.Bytes
		report(ProgressEvent{Type: ProgressMirrored, URL: f.Source, Path: f.Path})
	}

	result.Visited = s.order
	report(ProgressEvent{Type: ProgressFinished})
	return result, nil
}

func (m *Mirror) validate(root string, seeds []string) (*url.URL, error) {
	switch {
	case m.Retriever == nil:
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "retriever required")
	case m.Writer == nil:
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "writer required")
	case m.URLRewriter == nil:
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "url rewriter required")
	case m.HTML == nil || m.CSS == nil:
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "html and css rewriters required")
	}

	rootURL, err := url.Parse(root)
	if err != nil || !rootURL.IsAbs() || rootURL.Host == "" {
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "root must be an absolute url: %q", root)
	}
	for _, seed := range seeds {
		if sitemirror.IsAbsoluteURL(seed) {
			return nil, sitemirror.Errorf(sitemirror.EINVALID, "seed must be relative: %q", seed)
		}
	}
	for _, extra := range m.Extras {
		if extra.Source == "" || extra.Destination == "" {
			return nil, sitemirror.Errorf(sitemirror.EINVALID, "extra requires source and destination")
		}
	}
	return rootURL, nil
}

// plan classifies a logical URL. It returns a job to run, or skip=true when
// the URL is unmirrorable. Destination claims are made here, on the session
// goroutine, so concurrent jobs never write the same file.
func (m *Mirror) plan(s *session, root *url.URL, logical string) (job, bool, error) {
	dest, ok := m.URLRewriter(logical)
	if !ok || dest == "" || sitemirror.IsAbsoluteURL(dest) {
		return job{}, true, nil
	}

	collapsed := false
	if sitemirror.HasQuery(dest) {
		if m.QueryDestinations != QueryDestinationCollapse {
			return job{}, true, nil
		}
		collapsed = true
	}

	fetch, err := sitemirror.ResolveFetchURL(root, logical)
	if err != nil || fetch.Host != root.Host {
		return job{}, true, nil
	}

	file := sitemirror.DestinationFile(dest)
	owner, ok := s.claim(file, claim{fetchURL: fetch.String(), collapsed: collapsed})
	if !ok {
		if sameResource(owner.fetchURL, fetch.String()) || owner.collapsed || collapsed {
			return job{}, true, nil
		}
		return job{}, false, sitemirror.Errorf(sitemirror.ECONFLICT,
			"%s and %s both map to %s", owner.fetchURL, fetch.String(), file)
	}

	return job{
		logical: logical,
		fetch:   fetch,
		file:    file,
		kind:    sitemirror.KindForDestination(file),
	}, false, nil
}

// sameResource reports whether two fetch URLs name one resource. They may
// differ by a trailing slash on the path, which maps to the same file.
func sameResource(a, b string) bool {
	return a == b || trimPathSlash(a) == trimPathSlash(b)
}

func trimPathSlash(fetchURL string) string {
	path, query, hasQuery := strings.Cut(fetchURL, "?")
	path = strings.TrimSuffix(path, "/")
	if hasQuery {
		return path + "?" + query
	}
	return path
}

// processAll runs jobs with bounded concurrency. The first failure cancels
// the remaining jobs and is returned with the index of the job that caused it.
// Results are returned in job order.
func (m *Mirror) processAll(ctx context.Context, jobs []job) ([]jobResult, int, error) {
	concurrency := m.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]jobResult, len(jobs))
	var once sync.Once
	failed := -1

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = m.process(gctx, j)
			if results[i].err != nil {
				once.Do(func() { failed = i })
			}
			return results[i].err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, failed, results[failed].err
	}
	return results, -1, nil
}

// process fetches, rewrites and writes a single job.
func (m *Mirror) process(ctx context.Context, j job) jobResult {
	if err := m.wait(ctx, j.fetch.Host); err != nil {
		return jobResult{err: err}
	}

	target := j.fetch.String()
	var (
		data       []byte
		discovered []string
	)
	if j.kind == sitemirror.KindBinary {
		b, err := Retry(ctx, target, m.RetryDelays, m.Logger, func(ctx context.Context) ([]byte, error) {
			return m.Retriever.FetchBinary(ctx, target)
		})
		if err != nil {
			return jobResult{err: fmt.Errorf("fetch %s: %w", target, err)}
		}
		data = b
	} else {
		text, err := Retry(ctx, target, m.RetryDelays, m.Logger, func(ctx context.Context) (string, error) {
			return m.Retriever.FetchText(ctx, target)
		})
		if err != nil {
			return jobResult{err: fmt.Errorf("fetch %s: %w", target, err)}
		}

		rewriter := m.HTML
		if j.kind == sitemirror.KindCSS {
			rewriter = m.CSS
		}
		rewritten, err := rewriter.Rewrite(text, j.fetch)
		if err != nil {
			return jobResult{err: fmt.Errorf("rewrite %s: %w", target, err)}
		}
		data = []byte(rewritten.Content)
		discovered = rewritten.Discovered
	}

	if err := m.Writer.WriteFile(ctx, j.file, data); err != nil {
		return jobResult{err: fmt.Errorf("write %s: %w", j.file, err)}
	}

	return jobResult{
		file: sitemirror.MirroredFile{
			Source: j.logical,
			Path:   j.file,
			Kind:   j.kind,
			Bytes:  len(data),
			Hash:   ComputeHash(data),
		},
		discovered: discovered,
	}
}

// copyExtra fetches an extra resource and writes it without rewriting.
func (m *Mirror) copyExtra(ctx context.Context, s *session, root *url.URL, extra Extra) (sitemirror.MirroredFile, error) {
	fetch, err := sitemirror.ResolveFetchURL(root, extra.Source)
	if err != nil {
		return sitemirror.MirroredFile{}, err
	}
	target := fetch.String()

	file := sitemirror.DestinationFile(extra.Destination)
	if owner, ok := s.claim(file, claim{fetchURL: target}); !ok {
		return sitemirror.MirroredFile{}, sitemirror.Errorf(sitemirror.ECONFLICT,
			"%s and %s both map to %s", owner.fetchURL, target, file)
	}

	if err := m.wait(ctx, fetch.Host); err != nil {
		return sitemirror.MirroredFile{}, err
	}

	var data []byte
	if extra.AllowErrorStatus {
		text, err := Retry(ctx, target, m.RetryDelays, m.Logger, func(ctx context.Context) (string, error) {
			return m.Retriever.FetchTextAnyStatus(ctx, target)
		})
		if err != nil {
			return sitemirror.MirroredFile{}, fmt.Errorf("fetch %s: %w", target, err)
		}
		data = []byte(text)
	} else {
		data, err = Retry(ctx, target, m.RetryDelays, m.Logger, func(ctx context.Context) ([]byte, error) {
			return m.Retriever.FetchBinary(ctx, target)
		})
		if err != nil {
			return sitemirror.MirroredFile{}, fmt.Errorf("fetch %s: %w", target, err)
		}
	}

	if err := m.Writer.WriteFile(ctx, file, data); err != nil {
		return sitemirror.MirroredFile{}, fmt.Errorf("write %s: %w", file, err)
	}

	return sitemirror.MirroredFile{
		Source: extra.Source,
		Path:   file,
		Kind:   sitemirror.KindForDestination(file),
		Bytes:  len(data),
		Hash:   ComputeHash(data),
	}, nil
}

func (m *Mirror) wait(ctx context.Context, host string) error {
	if m.RateLimiter == nil {
		return ctx.Err()
	}
	return m.RateLimiter.Wait(ctx, host)
}
