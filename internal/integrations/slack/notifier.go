// Package slackbot delivers the standup message to Slack.
package slackbot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"standupbot/internal/config"
	"standupbot/internal/httpx"
)

// DeliveryResult describes one delivery attempt. Err is set instead of being
// returned so callers decide explicitly what a failed post means.
type DeliveryResult struct {
	ChannelID   string
	Timestamp   string
	ScheduledAt time.Time
	Err         error
}

func (r DeliveryResult) Delivered() bool {
	return r.Err == nil
}

type Notifier struct {
	api               *slack.Client
	useStandupChannel bool
	standupChannel    string
	userID            string
}

func NewNotifier(cfg config.Config, opts ...slack.Option) *Notifier {
	clientOpts := append([]slack.Option{slack.OptionHTTPClient(httpx.ExternalHTTPClient())}, opts...)
	return &Notifier{
		api:               slack.New(cfg.SlackAPIToken, clientOpts...),
		useStandupChannel: cfg.UseStandupChannel,
		standupChannel:    cfg.SlackStandupChannel,
		userID:            cfg.SlackUserID,
	}
}

// ResolveChannel returns the standup channel, or opens a DM with the
// configured user.
func (n *Notifier) ResolveChannel(ctx context.Context) (string, error) {
	if n.useStandupChannel {
		return n.standupChannel, nil
	}
	channel, _, _, err := n.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{n.userID},
	})
	if err != nil {
		return "", fmt.Errorf("opening DM with %s: %w", n.userID, err)
	}
	log.Printf("slack resolved dm user=%s channel=%s", n.userID, channel.ID)
	return channel.ID, nil
}

// Deliver posts message to channelID, or schedules it when scheduleAt is
// non-zero.
func (n *Notifier) Deliver(ctx context.Context, channelID, message string, scheduleAt time.Time) DeliveryResult {
	result := DeliveryResult{ChannelID: channelID, ScheduledAt: scheduleAt}
	opts := messageOptions(message)

	if scheduleAt.IsZero() {
		_, ts, err := n.api.PostMessageContext(ctx, channelID, opts...)
		if err != nil {
			log.Printf("Error posting standup to %s: %v", channelID, err)
			result.Err = err
			return result
		}
		log.Printf("slack posted standup channel=%s ts=%s", channelID, ts)
		result.Timestamp = ts
		return result
	}

	postAt := strconv.FormatInt(scheduleAt.Unix(), 10)
	_, ts, err := n.api.ScheduleMessageContext(ctx, channelID, postAt, opts...)
	if err != nil {
		log.Printf("Error scheduling standup to %s: %v", channelID, err)
		result.Err = err
		return result
	}
	log.Printf("slack scheduled standup channel=%s post_at=%s", channelID, scheduleAt.Format(time.RFC3339))
	result.Timestamp = ts
	return result
}

func messageOptions(message string) []slack.MsgOption {
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, message, false, false),
		nil, nil,
	)
	return []slack.MsgOption{
		slack.MsgOptionText(message, false),
		slack.MsgOptionBlocks(section),
	}
}
