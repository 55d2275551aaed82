package sitemirror

import "context"

// Retriever fetches content with anonymous GET requests.
type Retriever interface {
	// FetchText returns the body of absoluteURL decoded as text.
	// Non-2xx responses are errors.
	FetchText(ctx context.Context, absoluteURL string) (string, error)

	// FetchBinary returns the raw body of absoluteURL.
	// Non-2xx responses are errors.
	FetchBinary(ctx context.Context, absoluteURL string) ([]byte, error)

	// FetchTextAnyStatus is like FetchText but returns the body whatever the
	// response status. It is used to capture custom "not found" pages.
	FetchTextAnyStatus(ctx context.Context, absoluteURL string) (string, error)
}

// FileWriter writes mirrored files below a destination root.
type FileWriter interface {
	// WriteFile writes data to path, relative to the destination root,
	// creating parent directories as needed.
	WriteFile(ctx context.Context, path string, data []byte) error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
