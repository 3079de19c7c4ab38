package main

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
)

// Notifier announces roster changes somewhere outside the web page.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}

// SlackNotifier posts roster changes to a single Slack channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	log     *slog.Logger
}

func NewSlackNotifier(client *slack.Client, channel string, log *slog.Logger) *SlackNotifier {
	return &SlackNotifier{client: client, channel: channel, log: log}
}

// Notify posts text to the configured channel. Failures are logged only.
func (n *SlackNotifier) Notify(ctx context.Context, text string) {
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		n.log.Warn("notifier: failed to post message", "channel", n.channel, "error", err)
	}
}

// newNotifier returns a SlackNotifier when both token and channel are set.
func newNotifier(token, channel string, log *slog.Logger, opts ...slack.Option) Notifier {
	if token == "" || channel == "" {
		return nopNotifier{}
	}
	return NewSlackNotifier(slack.New(token, opts...), channel, log)
}
