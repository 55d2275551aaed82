package mock

import (
	"context"

	"github.com/fwojciec/sitemirror"
)

var _ sitemirror.Retriever = (*Retriever)(nil)

// Retriever is a mock implementation of sitemirror.Retriever.
type Retriever struct {
	FetchTextFn          func(ctx context.Context, absoluteURL string) (string, error)
	FetchBinaryFn        func(ctx context.Context, absoluteURL string) ([]byte, error)
	FetchTextAnyStatusFn func(ctx context.Context, absoluteURL string) (string, error)
}

func (r *Retriever) FetchText(ctx context.Context, absoluteURL string) (string, error) {
	return r.FetchTextFn(ctx, absoluteURL)
}

func (r *Retriever) FetchBinary(ctx context.Context, absoluteURL string) ([]byte, error) {
	return r.FetchBinaryFn(ctx, absoluteURL)
}

func (r *Retriever) FetchTextAnyStatus(ctx context.Context, absoluteURL string) (string, error) {
	return r.FetchTextAnyStatusFn(ctx, absoluteURL)
}
