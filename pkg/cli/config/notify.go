package config

import (
	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Notify holds completion notification configuration
type Notify struct {
	SlackWebhookURL string
	SlackChannel    string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook notified when a run finishes",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("ICLOUDPULL_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel overriding the webhook default",
			Destination: &c.SlackChannel,
			Sources:     cli.EnvVars("ICLOUDPULL_SLACK_CHANNEL"),
		},
	}
}

// Notifier returns the configured notifier, or nil when none is configured
func (c *Notify) Notifier() interfaces.Notifier {
	if c.SlackWebhookURL == "" {
		return nil
	}
	var opts []slack.Option
	if c.SlackChannel != "" {
		opts = append(opts, slack.WithChannel(c.SlackChannel))
	}
	return slack.New(c.SlackWebhookURL, opts...)
}
