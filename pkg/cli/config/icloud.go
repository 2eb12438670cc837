package config

import (
	"time"

	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/domain/types"
	"github.com/m-mizutani/icloudpull/pkg/infra/icloud"
	"github.com/urfave/cli/v3"
)

// ICloud holds iCloud account configuration
type ICloud struct {
	AppleID  string
	Password string
	Timeout  time.Duration
	PageSize int
}

// Flags returns CLI flags for iCloud configuration
func (c *ICloud) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "apple-id",
			Aliases:     []string{"u"},
			Usage:       "Apple ID (prompted when omitted)",
			Destination: &c.AppleID,
			Sources:     cli.EnvVars("ICLOUDPULL_APPLE_ID"),
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "Apple ID password (prompted without echo when omitted)",
			Destination: &c.Password,
			Sources:     cli.EnvVars("ICLOUDPULL_PASSWORD"),
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Timeout of a single request to iCloud",
			Value:       60 * time.Second,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("ICLOUDPULL_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "page-size",
			Usage:       "Number of photos requested per listing page",
			Value:       100,
			Destination: &c.PageSize,
			Sources:     cli.EnvVars("ICLOUDPULL_PAGE_SIZE"),
		},
	}
}

// Credential returns the configured credential
func (c *ICloud) Credential() model.Credential {
	return model.Credential{
		AppleID:  c.AppleID,
		Password: types.Secret(c.Password),
	}
}

// NewClient creates an iCloud client from the configuration
func (c *ICloud) NewClient() *icloud.Client {
	return icloud.New(
		icloud.WithTimeout(c.Timeout),
		icloud.WithPageSize(c.PageSize),
	)
}
