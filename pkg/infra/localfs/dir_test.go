package localfs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/icloudpull/pkg/infra/localfs"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("stream broken")
}

func TestDir_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing directory", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, localfs.New(dir).Validate(ctx))

		// probe file is cleaned up
		entries, err := os.ReadDir(dir)
		gt.NoError(t, err)
		gt.Equal(t, len(entries), 0)
	})

	t.Run("missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		gt.Error(t, localfs.New(dir).Validate(ctx))
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		gt.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		gt.Error(t, localfs.New(path).Validate(ctx))
	})
}

func TestDir_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("writes new file", func(t *testing.T) {
		dir := t.TempDir()
		dest := localfs.New(dir)

		n, err := dest.Write(ctx, "a.jpg", strings.NewReader("photo"))
		gt.NoError(t, err)
		gt.Equal(t, n, int64(5))

		data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
		gt.NoError(t, err)
		gt.Equal(t, string(data), "photo")

		exists, err := dest.Exists(ctx, "a.jpg")
		gt.NoError(t, err)
		gt.True(t, exists)
	})

	t.Run("never overwrites", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("original"), 0644))

		_, err := localfs.New(dir).Write(ctx, "a.jpg", strings.NewReader("new"))
		gt.Error(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
		gt.NoError(t, err)
		gt.Equal(t, string(data), "original")
	})

	t.Run("removes partial file on failure", func(t *testing.T) {
		dir := t.TempDir()
		dest := localfs.New(dir)

		_, err := dest.Write(ctx, "b.jpg", failingReader{})
		gt.Error(t, err)

		exists, err := dest.Exists(ctx, "b.jpg")
		gt.NoError(t, err)
		gt.False(t, exists)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		dest := localfs.New(t.TempDir())

		_, err := dest.Write(ctx, "../escape.jpg", strings.NewReader("x"))
		gt.Error(t, err)

		_, err = dest.Exists(ctx, "sub/dir.jpg")
		gt.Error(t, err)
	})
}

func TestDir_Exists(t *testing.T) {
	ctx := context.Background()
	dest := localfs.New(t.TempDir())

	exists, err := dest.Exists(ctx, "missing.jpg")
	gt.NoError(t, err)
	gt.False(t, exists)
}
