package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/sitemirror"
	"github.com/fwojciec/sitemirror/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ sitemirror.FileWriter = &mock.FileWriter{}
}

func TestFileWriter_WriteFile(t *testing.T) {
	t.Parallel()

	t.Run("delegates to WriteFileFn", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		var gotData []byte
		w := &mock.FileWriter{
			WriteFileFn: func(_ context.Context, path string, data []byte) error {
				gotPath = path
				gotData = data
				return nil
			},
		}

		err := w.WriteFile(context.Background(), "Read-My-Post.html", []byte("<p>x</p>"))

		require.NoError(t, err)
		assert.Equal(t, "Read-My-Post.html", gotPath)
		assert.Equal(t, []byte("<p>x</p>"), gotData)
	})
}
