package localfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const filePerm = 0644

// Dir is a destination backed by a local directory
type Dir struct {
	path string
}

// New creates a destination for the directory at path. The directory is
// not touched until Validate is called.
func New(path string) *Dir {
	return &Dir{path: filepath.Clean(path)}
}

// String returns the directory path
func (d *Dir) String() string {
	return d.path
}

// Validate checks that the directory exists and that a file can be created in it
func (d *Dir) Validate(ctx context.Context) error {
	info, err := os.Stat(d.path)
	if err != nil {
		return goerr.Wrap(err, "failed to stat destination directory", goerr.V("path", d.path))
	}
	if !info.IsDir() {
		return goerr.New("destination is not a directory", goerr.V("path", d.path))
	}

	probe, err := os.CreateTemp(d.path, ".icloudpull-probe-*")
	if err != nil {
		return goerr.Wrap(err, "destination directory is not writable", goerr.V("path", d.path))
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return goerr.Wrap(err, "failed to remove probe file", goerr.V("path", name))
	}

	return nil
}

// Exists reports whether a file named name is present in the directory
func (d *Dir) Exists(ctx context.Context, name string) (bool, error) {
	target, err := d.resolve(name)
	if err != nil {
		return false, err
	}

	_, err = os.Lstat(target)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, goerr.Wrap(err, "failed to stat file", goerr.V("path", target))
	}
}

// Write creates name exclusively and copies r into it. A partially written
// file is removed when copying fails.
func (d *Dir) Write(ctx context.Context, name string, r io.Reader) (int64, error) {
	target, err := d.resolve(name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create file", goerr.V("path", target))
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return n, goerr.Wrap(err, "failed to write file", goerr.V("path", target))
	}

	return n, nil
}

// resolve joins name to the directory and rejects anything escaping it
func (d *Dir) resolve(name string) (string, error) {
	target := filepath.Join(d.path, name)
	if filepath.Dir(target) != d.path || strings.ContainsAny(name, `/\`) {
		return "", goerr.New("invalid file name", goerr.V("name", name))
	}
	return target, nil
}
