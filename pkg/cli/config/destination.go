package config

import (
	"context"
	"io"

	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/infra/gcs"
	"github.com/m-mizutani/icloudpull/pkg/infra/localfs"
	"github.com/urfave/cli/v3"
)

// Destination holds download destination configuration
type Destination struct {
	Dest               string
	GCSCredentialsFile string
	DryRun             bool
	Limit              int
}

// Flags returns CLI flags for destination configuration
func (c *Destination) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dest",
			Aliases:     []string{"d"},
			Usage:       "Destination folder or gs://bucket/prefix (prompted when omitted)",
			Destination: &c.Dest,
			Sources:     cli.EnvVars("ICLOUDPULL_DEST"),
		},
		&cli.StringFlag{
			Name:        "gcs-credentials-file",
			Usage:       "Service account key for gs:// destinations (application default credentials when omitted)",
			Destination: &c.GCSCredentialsFile,
			Sources:     cli.EnvVars("ICLOUDPULL_GCS_CREDENTIALS_FILE"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Report what would be downloaded without writing files",
			Destination: &c.DryRun,
			Sources:     cli.EnvVars("ICLOUDPULL_DRY_RUN"),
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Process at most this many photos (0 = all)",
			Destination: &c.Limit,
			Sources:     cli.EnvVars("ICLOUDPULL_LIMIT"),
		},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the configured destination. An empty Dest yields a nil
// destination, which the download reports as no folder selected.
func (c *Destination) Open(ctx context.Context) (interfaces.Destination, io.Closer, error) {
	switch {
	case c.Dest == "":
		return nil, nopCloser{}, nil
	case gcs.IsURL(c.Dest):
		bucket, err := gcs.New(ctx, c.Dest, c.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return bucket, bucket, nil
	default:
		return localfs.New(c.Dest), nopCloser{}, nil
	}
}
