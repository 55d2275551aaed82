package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/sitemirror/mock"
	mirrorslog "github.com/fwojciec/sitemirror/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRetriever(t *testing.T) {
	t.Parallel()

	t.Run("logs text fetch with bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Retriever{
			FetchTextFn: func(ctx context.Context, absoluteURL string) (string, error) {
				return "<html>content</html>", nil
			},
		}

		retriever := mirrorslog.NewLoggingRetriever(inner, logger)
		text, err := retriever.FetchText(context.Background(), "https://example.com/about")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", text)
		output := buf.String()
		assert.Contains(t, output, `msg="fetch text"`)
		assert.Contains(t, output, "url=https://example.com/about")
		assert.Contains(t, output, "bytes=20")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs binary fetch", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Retriever{
			FetchBinaryFn: func(ctx context.Context, absoluteURL string) ([]byte, error) {
				return []byte{1, 2, 3}, nil
			},
		}

		retriever := mirrorslog.NewLoggingRetriever(inner, logger)
		data, err := retriever.FetchBinary(context.Background(), "https://example.com/logo.png")

		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, data)
		assert.Contains(t, buf.String(), `msg="fetch binary"`)
		assert.Contains(t, buf.String(), "bytes=3")
	})

	t.Run("logs any-status fetch", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Retriever{
			FetchTextAnyStatusFn: func(ctx context.Context, absoluteURL string) (string, error) {
				return "not found", nil
			},
		}

		retriever := mirrorslog.NewLoggingRetriever(inner, logger)
		text, err := retriever.FetchTextAnyStatus(context.Background(), "https://example.com/NotFound404")

		require.NoError(t, err)
		assert.Equal(t, "not found", text)
		assert.Contains(t, buf.String(), `msg="fetch any status"`)
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Retriever{
			FetchTextFn: func(ctx context.Context, absoluteURL string) (string, error) {
				return "", errors.New("network error")
			},
		}

		retriever := mirrorslog.NewLoggingRetriever(inner, logger)
		_, err := retriever.FetchText(context.Background(), "https://example.com/about")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, "err=\"network error\"")
		assert.NotContains(t, output, "bytes=")
	})
}
