package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier posts messages to a Slack incoming webhook
type Notifier struct {
	webhookURL string
	channel    string
}

// Option is a functional option for Notifier
type Option func(*Notifier)

// WithChannel overrides the channel configured on the webhook
func WithChannel(channel string) Option {
	return func(n *Notifier) {
		n.channel = channel
	}
}

// New creates a Notifier for the incoming webhook URL
func New(webhookURL string, opts ...Option) *Notifier {
	n := &Notifier{webhookURL: webhookURL}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify posts message to the webhook
func (n *Notifier) Notify(ctx context.Context, message string) error {
	msg := &slack.WebhookMessage{
		Text:    message,
		Channel: n.channel,
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack webhook")
	}
	return nil
}
