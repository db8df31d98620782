package standup

import (
	"context"
	"time"

	"standupbot/internal/domain"
	"standupbot/internal/integrations/linear"
	slackbot "standupbot/internal/integrations/slack"
	"standupbot/internal/integrations/weather"
)

type CalendarSource interface {
	Events(ctx context.Context, w domain.Window) ([]string, error)
}

type IssueSource interface {
	Issues(ctx context.Context, q linear.IssueQuery) (domain.IssueBuckets, error)
}

type WeatherSource interface {
	Lookup(ctx context.Context) weather.Conditions
}

type Greeter interface {
	Greeting(ctx context.Context, now time.Time, cond weather.Conditions) string
}

type Deliverer interface {
	ResolveChannel(ctx context.Context) (string, error)
	Deliver(ctx context.Context, channelID, message string, scheduleAt time.Time) slackbot.DeliveryResult
}

type RunRecorder interface {
	RecordRun(ctx context.Context, rec domain.RunRecord) error
}
