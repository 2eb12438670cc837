package gcs

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// Scheme is the URL scheme of Cloud Storage destinations
const Scheme = "gs://"

// Bucket is a destination backed by a Cloud Storage bucket and prefix
type Bucket struct {
	client *storage.Client
	bucket string
	prefix string
}

// IsURL reports whether dest names a Cloud Storage location
func IsURL(dest string) bool {
	return strings.HasPrefix(dest, Scheme)
}

// ParseURL splits gs://bucket/prefix into bucket and prefix
func ParseURL(dest string) (string, string, error) {
	if !IsURL(dest) {
		return "", "", goerr.New("not a Cloud Storage URL", goerr.V("dest", dest))
	}
	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(dest, Scheme), "/")
	if bucket == "" {
		return "", "", goerr.New("bucket name is empty", goerr.V("dest", dest))
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// New creates a Cloud Storage destination for gs://bucket/prefix. When
// credentialsFile is empty, application default credentials are used.
func New(ctx context.Context, dest, credentialsFile string) (*Bucket, error) {
	bucket, prefix, err := ParseURL(dest)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}

	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Close releases the storage client
func (b *Bucket) Close() error {
	return b.client.Close()
}

// String returns the gs:// URL of the destination
func (b *Bucket) String() string {
	if b.prefix == "" {
		return Scheme + b.bucket
	}
	return Scheme + b.bucket + "/" + b.prefix
}

// ObjectName returns the object name a file is stored under
func (b *Bucket) ObjectName(name string) string {
	return path.Join(b.prefix, name)
}

// Validate checks that the bucket exists and is reachable
func (b *Bucket) Validate(ctx context.Context) error {
	if _, err := b.client.Bucket(b.bucket).Attrs(ctx); err != nil {
		return goerr.Wrap(err, "failed to access bucket", goerr.V("bucket", b.bucket))
	}
	return nil
}

// Exists reports whether the object for name is present
func (b *Bucket) Exists(ctx context.Context, name string) (bool, error) {
	obj := b.ObjectName(name)
	_, err := b.client.Bucket(b.bucket).Object(obj).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, goerr.Wrap(err, "failed to get object attributes", goerr.V("object", obj))
	}
}

// Write uploads r with a does-not-exist precondition so an existing object
// is never replaced
func (b *Bucket) Write(ctx context.Context, name string, r io.Reader) (int64, error) {
	obj := b.ObjectName(name)
	handle := b.client.Bucket(b.bucket).Object(obj).If(storage.Conditions{DoesNotExist: true})

	w := handle.NewWriter(ctx)
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.ContentType = ct
	}

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, goerr.Wrap(err, "failed to upload object", goerr.V("object", obj))
	}
	if err := w.Close(); err != nil {
		return n, goerr.Wrap(err, "failed to finalize object", goerr.V("object", obj))
	}

	return n, nil
}
