package gcs_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/icloudpull/pkg/infra/gcs"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name       string
		dest       string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{name: "bucket only", dest: "gs://photos", wantBucket: "photos"},
		{name: "bucket with prefix", dest: "gs://photos/backup/2024", wantBucket: "photos", wantPrefix: "backup/2024"},
		{name: "trailing slash", dest: "gs://photos/backup/", wantBucket: "photos", wantPrefix: "backup"},
		{name: "empty bucket", dest: "gs:///backup", wantErr: true},
		{name: "local path", dest: "/tmp/photos", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, prefix, err := gcs.ParseURL(tt.dest)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, bucket, tt.wantBucket)
			gt.Equal(t, prefix, tt.wantPrefix)
		})
	}
}

func TestIsURL(t *testing.T) {
	gt.True(t, gcs.IsURL("gs://bucket"))
	gt.False(t, gcs.IsURL("/home/user/Pictures"))
}

func TestBucket_Integration(t *testing.T) {
	dest := os.Getenv("TEST_GCS_DEST")
	if dest == "" {
		t.Skip("TEST_GCS_DEST not set, skipping integration test")
	}

	ctx := context.Background()
	bucket, err := gcs.New(ctx, dest, os.Getenv("TEST_GCS_CREDENTIALS_FILE"))
	gt.NoError(t, err)
	defer bucket.Close()

	gt.NoError(t, bucket.Validate(ctx))

	name := "icloudpull-test-" + strings.ReplaceAll(t.Name(), "/", "_") + ".txt"
	exists, err := bucket.Exists(ctx, name)
	gt.NoError(t, err)
	if !exists {
		_, err = bucket.Write(ctx, name, strings.NewReader("hello"))
		gt.NoError(t, err)
	}

	exists, err = bucket.Exists(ctx, name)
	gt.NoError(t, err)
	gt.True(t, exists)

	// second write must not replace the object
	_, err = bucket.Write(ctx, name, strings.NewReader("again"))
	gt.Error(t, err)
}
