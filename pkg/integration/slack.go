package integration

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"
	"github.com/google/uuid"

	"github.com/wisbric/meshdrift/pkg/drift"
)

// SlackNotifier posts explain cards to a single configured channel,
// grounded on the teacher's pkg/slack.Notifier: a nil client degrades to a
// logging-only noop rather than erroring, so a tenant without a bot token
// configured still gets detection, just no delivery.
type SlackNotifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewSlackNotifier creates a SlackNotifier. If botToken is empty, IsEnabled
// reports false and Notify is a noop.
func NewSlackNotifier(botToken, channel string, logger *slog.Logger) *SlackNotifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &SlackNotifier{client: client, channel: channel, logger: logger}
}

// IsEnabled reports whether this notifier has a usable client and channel.
func (n *SlackNotifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// Notify posts card to the configured channel, tagged with the triggering
// tenant. Disabled notifiers log at debug and return nil, matching the
// teacher's graceful-degradation behavior for tenants with no Slack
// integration configured.
func (n *SlackNotifier) Notify(ctx context.Context, tenantID uuid.UUID, card drift.Card) error {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping card post",
			"tenant_id", tenantID,
			"title", card.Title,
		)
		return nil
	}

	blocks := cardBlocks(card)
	opts := []goslack.MsgOption{
		goslack.MsgOptionBlocks(blocks...),
		goslack.MsgOptionText(fmt.Sprintf("%s %s", severityEmoji(card.Severity), card.Title), false),
	}

	channelID, ts, err := n.client.PostMessageContext(ctx, n.channel, opts...)
	if err != nil {
		return fmt.Errorf("posting drift card to slack: %w", err)
	}

	n.logger.Info("posted drift card to slack",
		"tenant_id", tenantID,
		"channel", channelID,
		"ts", ts,
		"event_type", card.EventType,
		"score", card.RiskScore,
	)
	return nil
}

func cardBlocks(card drift.Card) []goslack.Block {
	header := goslack.NewHeaderBlock(goslack.NewTextBlockObject(goslack.PlainTextType, card.Title, false, false))

	fields := []*goslack.TextBlockObject{
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*What changed*\n%s", card.WhatChanged), false, false),
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*Why it matters*\n%s", why(card.WhyRisk)), false, false),
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*Recommendation*\n%s", card.Recommendation), false, false),
		goslack.NewTextBlockObject(goslack.MarkdownType, fmt.Sprintf("*Score*\n%d (%s)", card.RiskScore, card.Severity), false, false),
	}
	section := goslack.NewSectionBlock(nil, fields, nil)

	return []goslack.Block{header, section}
}

func why(reasons []string) string {
	out := ""
	for i, r := range reasons {
		if i > 0 {
			out += "\n"
		}
		out += "- " + r
	}
	return out
}

func severityEmoji(s drift.Severity) string {
	switch s {
	case drift.SeverityCritical:
		return ":rotating_light:"
	case drift.SeverityHigh:
		return ":warning:"
	case drift.SeverityMedium:
		return ":large_orange_diamond:"
	default:
		return ":information_source:"
	}
}
