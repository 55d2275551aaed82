package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/sitemirror"
	sitemirrorhttp "github.com/fwojciec/sitemirror/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetriever_FetchText(t *testing.T) {
	t.Parallel()

	t.Run("returns body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		text, err := sitemirrorhttp.NewRetriever().FetchText(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "<html><body>Hello World</body></html>", text)
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
			_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
		}))
		defer server.Close()

		text, err := sitemirrorhttp.NewRetriever().FetchText(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "café", text)
	})

	t.Run("sends user agent", func(t *testing.T) {
		t.Parallel()

		got := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got <- r.UserAgent()
		}))
		defer server.Close()

		_, err := sitemirrorhttp.NewRetriever(sitemirrorhttp.WithUserAgent("mirror-test")).FetchText(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "mirror-test", <-got)
	})

	t.Run("returns error for non-2xx status codes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 Not Found"))
		}))
		defer server.Close()

		_, err := sitemirrorhttp.NewRetriever().FetchText(context.Background(), server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		r := sitemirrorhttp.NewRetriever(sitemirrorhttp.WithTimeout(10 * time.Millisecond))
		_, err := r.FetchText(context.Background(), server.URL)

		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := sitemirrorhttp.NewRetriever().FetchText(ctx, server.URL)

		require.Error(t, err)
	})

	t.Run("rejects relative url", func(t *testing.T) {
		t.Parallel()

		_, err := sitemirrorhttp.NewRetriever().FetchText(context.Background(), "/Read/Post")

		require.Error(t, err)
		assert.Equal(t, sitemirror.EINVALID, sitemirror.ErrorCode(err))
	})
}

func TestRetriever_FetchTextAnyStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<h1>Not here</h1>"))
	}))
	defer server.Close()

	text, err := sitemirrorhttp.NewRetriever().FetchTextAnyStatus(context.Background(), server.URL+"/NotFound404")

	require.NoError(t, err)
	assert.Equal(t, "<h1>Not here</h1>", text)
}

func TestRetriever_FetchBinary(t *testing.T) {
	t.Parallel()

	t.Run("returns bytes verbatim", func(t *testing.T) {
		t.Parallel()

		payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		data, err := sitemirrorhttp.NewRetriever().FetchBinary(context.Background(), server.URL+"/logo.png")

		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("returns error for server error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := sitemirrorhttp.NewRetriever().FetchBinary(context.Background(), server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}
