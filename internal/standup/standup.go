// Package standup runs one standup invocation end to end.
package standup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"standupbot/internal/domain"
	"standupbot/internal/integrations/gcal"
	"standupbot/internal/integrations/linear"
	"standupbot/internal/report"
	"standupbot/internal/schedule"
)

const (
	OutcomeWeekend     = "weekend"
	OutcomeHoliday     = "holiday"
	OutcomeOutOfOffice = "out_of_office"
	OutcomeSent        = "sent"
	OutcomeDryRun      = "dry_run"

	SuccessBody = "Handled successfully"
)

// Result is what an invocation reports back to its trigger.
type Result struct {
	StatusCode  int
	Body        string
	Outcome     string
	Message     string
	ChannelID   string
	Delivered   bool
	DeliveryErr error
}

type Runner struct {
	Calendar CalendarSource
	Issues   IssueSource
	Weather  WeatherSource
	Greeter  Greeter
	Delivery Deliverer
	Recorder RunRecorder // optional

	Holidays     domain.HolidaySet
	Location     *time.Location
	PostSchedule string
	DryRun       bool
}

// Run produces and delivers the report for now. Calendar and issue tracker
// failures abort the run; delivery failures are reported in the Result.
func (r *Runner) Run(ctx context.Context, now time.Time) (Result, error) {
	if r.Location != nil {
		now = now.In(r.Location)
	}
	windows := domain.BuildWindows(now, r.Holidays)
	log.Printf("standup run today=%s yesterday=%s issue_cutoff=%s in_progress_cutoff=%s",
		windows.Today.Format("2006-01-02"), windows.Yesterday.Format("2006-01-02"),
		windows.IssueCutoff.Format("2006-01-02"), windows.InProgressCutoff.Format("2006-01-02"))

	yesterdayEvents, todayEvents, err := r.fetchEvents(ctx, windows)
	if err != nil {
		return Result{}, err
	}

	if domain.IsWeekend(windows.Today) {
		log.Printf("Skipping standup because it is a weekend")
		return r.finish(ctx, windows, skip(OutcomeWeekend, "Skipping standup because it is a weekend.")), nil
	}
	if r.Holidays.Contains(windows.Today) {
		log.Printf("Skipping standup because it is a holiday")
		return r.finish(ctx, windows, skip(OutcomeHoliday, "Skipping standup because it is a holiday.")), nil
	}
	if event, ok := gcal.DetectVacationEvent(todayEvents); ok {
		log.Printf("Skipping standup because of out-of-office event '%s'", event)
		return r.finish(ctx, windows, skip(OutcomeOutOfOffice, fmt.Sprintf("Skipping standup because of out-of-office event '%s'.", event))), nil
	}

	yesterdayIssues, todayIssues, err := r.fetchIssues(ctx, windows)
	if err != nil {
		return Result{}, err
	}

	greeting := r.Greeter.Greeting(ctx, now, r.Weather.Lookup(ctx))
	message := report.Assemble(report.Input{
		Greeting:        greeting,
		YesterdayEvents: yesterdayEvents,
		Yesterday:       yesterdayIssues,
		TodayEvents:     todayEvents,
		TodayInProgress: todayIssues.InProgress,
	})

	if r.DryRun {
		log.Printf("standup dry run, not delivering size=%d", len(message))
		res := Result{StatusCode: http.StatusOK, Body: SuccessBody, Outcome: OutcomeDryRun, Message: message}
		return r.finish(ctx, windows, res), nil
	}

	res := Result{StatusCode: http.StatusOK, Body: SuccessBody, Outcome: OutcomeSent, Message: message}
	res.ChannelID, res.DeliveryErr = r.deliver(ctx, now, message)
	res.Delivered = res.DeliveryErr == nil
	if res.DeliveryErr != nil {
		log.Printf("standup delivery failed, ignoring: %v", res.DeliveryErr)
	}
	return r.finish(ctx, windows, res), nil
}

func (r *Runner) fetchEvents(ctx context.Context, windows domain.ReportWindows) ([]string, []string, error) {
	var yesterday, today []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := r.Calendar.Events(gctx, windows.YesterdayWindow)
		if err != nil {
			return fmt.Errorf("fetching yesterday's events: %w", err)
		}
		yesterday = events
		return nil
	})
	g.Go(func() error {
		events, err := r.Calendar.Events(gctx, windows.TodayCalendar)
		if err != nil {
			return fmt.Errorf("fetching today's events: %w", err)
		}
		today = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return yesterday, today, nil
}

func (r *Runner) fetchIssues(ctx context.Context, windows domain.ReportWindows) (domain.IssueBuckets, domain.IssueBuckets, error) {
	var yesterday, today domain.IssueBuckets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buckets, err := r.Issues.Issues(gctx, linear.IssueQuery{
			Window:           windows.YesterdayWindow,
			IssueCutoff:      windows.IssueCutoff,
			InProgressCutoff: windows.InProgressCutoff,
		})
		if err != nil {
			return fmt.Errorf("fetching yesterday's issues: %w", err)
		}
		yesterday = buckets
		return nil
	})
	g.Go(func() error {
		buckets, err := r.Issues.Issues(gctx, linear.IssueQuery{
			Window:           windows.TodayWindow,
			IssueCutoff:      windows.IssueCutoff,
			InProgressCutoff: windows.InProgressCutoff,
		})
		if err != nil {
			return fmt.Errorf("fetching today's issues: %w", err)
		}
		today = buckets
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.IssueBuckets{}, domain.IssueBuckets{}, err
	}
	return yesterday, today, nil
}

func (r *Runner) deliver(ctx context.Context, now time.Time, message string) (string, error) {
	scheduleAt, err := schedule.NextPostTime(r.PostSchedule, now)
	if err != nil {
		return "", err
	}
	channelID, err := r.Delivery.ResolveChannel(ctx)
	if err != nil {
		return "", err
	}
	delivery := r.Delivery.Deliver(ctx, channelID, message, scheduleAt)
	return channelID, delivery.Err
}

func skip(outcome, body string) Result {
	return Result{StatusCode: http.StatusOK, Body: body, Outcome: outcome}
}

func (r *Runner) finish(ctx context.Context, windows domain.ReportWindows, res Result) Result {
	if r.Recorder == nil {
		return res
	}
	rec := domain.RunRecord{
		RunDate:   windows.Today.Format("2006-01-02"),
		Outcome:   res.Outcome,
		Body:      res.Body,
		Message:   res.Message,
		ChannelID: res.ChannelID,
		Delivered: res.Delivered,
		CreatedAt: windows.Now,
	}
	if res.DeliveryErr != nil {
		rec.DeliveryError = res.DeliveryErr.Error()
	}
	if err := r.Recorder.RecordRun(ctx, rec); err != nil {
		log.Printf("standup run history write failed: %v", err)
	}
	return res
}
