package standup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"standupbot/internal/domain"
	"standupbot/internal/integrations/linear"
	slackbot "standupbot/internal/integrations/slack"
	"standupbot/internal/integrations/weather"
)

type fakeCalendar struct {
	mu      sync.Mutex
	byDate  map[string][]string
	err     error
	windows []domain.Window
}

func (f *fakeCalendar) Events(ctx context.Context, w domain.Window) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, w)
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[w.Start.Format("2006-01-02")], nil
}

type fakeIssues struct {
	mu      sync.Mutex
	byDate  map[string]domain.IssueBuckets
	err     error
	queries []linear.IssueQuery
}

func (f *fakeIssues) Issues(ctx context.Context, q linear.IssueQuery) (domain.IssueBuckets, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return domain.IssueBuckets{}, f.err
	}
	return f.byDate[q.Window.Start.Format("2006-01-02")], nil
}

type fakeWeather struct{ calls int }

func (f *fakeWeather) Lookup(ctx context.Context) weather.Conditions {
	f.calls++
	return weather.Conditions{Condition: "clear", Temperature: 70, HasTemp: true}
}

type fakeGreeter struct{}

func (fakeGreeter) Greeting(ctx context.Context, now time.Time, cond weather.Conditions) string {
	return "Good morning! ☀️"
}

type fakeDelivery struct {
	resolveErr error
	deliverErr error
	channel    string
	delivered  []string
	scheduled  []time.Time
}

func (f *fakeDelivery) ResolveChannel(ctx context.Context) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.channel, nil
}

func (f *fakeDelivery) Deliver(ctx context.Context, channelID, message string, scheduleAt time.Time) slackbot.DeliveryResult {
	f.delivered = append(f.delivered, message)
	f.scheduled = append(f.scheduled, scheduleAt)
	return slackbot.DeliveryResult{ChannelID: channelID, Err: f.deliverErr}
}

type fakeRecorder struct {
	records []domain.RunRecord
	err     error
}

func (f *fakeRecorder) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

type fixture struct {
	calendar *fakeCalendar
	issues   *fakeIssues
	weather  *fakeWeather
	delivery *fakeDelivery
	recorder *fakeRecorder
	runner   *Runner
}

func newFixture() *fixture {
	f := &fixture{
		calendar: &fakeCalendar{byDate: map[string][]string{
			"2026-10-14": {"Sprint planning"},
			"2026-10-15": {"1:1 with manager"},
		}},
		issues: &fakeIssues{byDate: map[string]domain.IssueBuckets{
			"2026-10-14": {
				Submitted: []string{"ENG-1 Fix bug"},
				Merged:    []string{"ENG-1 Fix bug", "ENG-2 Add test"},
			},
			"2026-10-15": {InProgress: []string{"ENG-3 New feature"}},
		}},
		weather:  &fakeWeather{},
		delivery: &fakeDelivery{channel: "D123"},
		recorder: &fakeRecorder{},
	}
	f.runner = &Runner{
		Calendar: f.calendar,
		Issues:   f.issues,
		Weather:  f.weather,
		Greeter:  fakeGreeter{},
		Delivery: f.delivery,
		Recorder: f.recorder,
		Holidays: domain.HolidaySet{},
		Location: time.UTC,
	}
	return f
}

// Thursday morning.
var thursday = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

const wantMessage = "Good morning! ☀️\n" +
	"\n" +
	"*Did*\n" +
	"• Sprint planning\n" +
	"• Submitted/merged ENG-1 Fix bug\n" +
	"• Merged ENG-2 Add test\n" +
	"\n" +
	"*Doing*\n" +
	"• 1:1 with manager\n" +
	"• ENG-3 New feature\n"

func TestRunSendsReport(t *testing.T) {
	f := newFixture()
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.StatusCode != 200 || res.Body != "Handled successfully" || !res.Delivered || res.ChannelID != "D123" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Message != wantMessage {
		t.Fatalf("unexpected message:\n%q\nwant:\n%q", res.Message, wantMessage)
	}
	if len(f.delivery.delivered) != 1 || f.delivery.delivered[0] != wantMessage {
		t.Fatalf("unexpected deliveries: %v", f.delivery.delivered)
	}
	if !f.delivery.scheduled[0].IsZero() {
		t.Fatalf("expected immediate post, got schedule %s", f.delivery.scheduled[0])
	}
	if f.weather.calls != 1 {
		t.Fatalf("expected one weather lookup, got %d", f.weather.calls)
	}
	if len(f.recorder.records) != 1 || f.recorder.records[0].Outcome != OutcomeSent || f.recorder.records[0].RunDate != "2026-10-15" {
		t.Fatalf("unexpected run records: %+v", f.recorder.records)
	}
}

func TestRunQueriesExpectedWindows(t *testing.T) {
	f := newFixture()
	if _, err := f.runner.Run(context.Background(), thursday); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(f.calendar.windows) != 2 {
		t.Fatalf("expected 2 calendar fetches, got %d", len(f.calendar.windows))
	}
	for _, w := range f.calendar.windows {
		switch w.Start.Format("2006-01-02") {
		case "2026-10-14":
			if w.End.Format("15:04:05") != "23:59:59" {
				t.Fatalf("yesterday window must cover the whole day: %+v", w)
			}
		case "2026-10-15":
			if w.End.Format("15:04:05") != "23:59:59" {
				t.Fatalf("today's calendar window must cover the whole day: %+v", w)
			}
		default:
			t.Fatalf("unexpected calendar window: %+v", w)
		}
	}

	if len(f.issues.queries) != 2 {
		t.Fatalf("expected 2 issue queries, got %d", len(f.issues.queries))
	}
	for _, q := range f.issues.queries {
		if q.IssueCutoff.Format("2006-01-02") != "2026-08-15" {
			t.Fatalf("unexpected issue cutoff: %s", q.IssueCutoff)
		}
		if q.InProgressCutoff.Format("2006-01-02") != "2026-10-06" {
			t.Fatalf("unexpected in-progress cutoff: %s", q.InProgressCutoff)
		}
		if q.Window.Start.Format("2006-01-02") == "2026-10-15" && !q.Window.End.Equal(thursday) {
			t.Fatalf("today's issue window must end at now: %+v", q.Window)
		}
	}
}

func TestRunSkipsWeekend(t *testing.T) {
	f := newFixture()
	saturday := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	res, err := f.runner.Run(context.Background(), saturday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.StatusCode != 200 || res.Body != "Skipping standup because it is a weekend." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.delivery.delivered) != 0 || len(f.issues.queries) != 0 {
		t.Fatal("weekend run must not query issues or deliver")
	}
	if len(f.recorder.records) != 1 || f.recorder.records[0].Outcome != OutcomeWeekend {
		t.Fatalf("unexpected run records: %+v", f.recorder.records)
	}
}

func TestRunSkipsHoliday(t *testing.T) {
	f := newFixture()
	f.runner.Holidays = domain.HolidaySet{"2026-10-15": {}}
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Body != "Skipping standup because it is a holiday." {
		t.Fatalf("unexpected body: %q", res.Body)
	}
	if len(f.delivery.delivered) != 0 {
		t.Fatal("holiday run must not deliver")
	}
}

func TestRunSkipsOutOfOffice(t *testing.T) {
	f := newFixture()
	f.calendar.byDate["2026-10-15"] = []string{"Standup", "PTO - dentist"}
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Body != "Skipping standup because of out-of-office event 'PTO - dentist'." {
		t.Fatalf("unexpected body: %q", res.Body)
	}
	if len(f.delivery.delivered) != 0 || len(f.issues.queries) != 0 {
		t.Fatal("out-of-office run must not query issues or deliver")
	}
}

func TestRunDeliveryFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.delivery.deliverErr = errors.New("channel_not_found")
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.StatusCode != 200 || res.Body != "Handled successfully" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Delivered || res.DeliveryErr == nil {
		t.Fatalf("expected undelivered result, got %+v", res)
	}
	if f.recorder.records[0].DeliveryError != "channel_not_found" {
		t.Fatalf("unexpected run record: %+v", f.recorder.records[0])
	}
}

func TestRunChannelResolutionFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.delivery.resolveErr = errors.New("user_not_found")
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Delivered || res.Body != "Handled successfully" || len(f.delivery.delivered) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunCalendarErrorPropagates(t *testing.T) {
	f := newFixture()
	f.calendar.err = errors.New("invalid_grant")
	_, err := f.runner.Run(context.Background(), thursday)
	if err == nil || !strings.Contains(err.Error(), "invalid_grant") {
		t.Fatalf("expected calendar error, got %v", err)
	}
	if len(f.recorder.records) != 0 {
		t.Fatal("failed runs must not be recorded")
	}
}

func TestRunIssueErrorPropagates(t *testing.T) {
	f := newFixture()
	f.issues.err = errors.New("Linear API errors: Authentication required")
	_, err := f.runner.Run(context.Background(), thursday)
	if err == nil || !strings.Contains(err.Error(), "Authentication required") {
		t.Fatalf("expected issue error, got %v", err)
	}
	if len(f.delivery.delivered) != 0 {
		t.Fatal("failed run must not deliver")
	}
}

func TestRunDryRunDoesNotDeliver(t *testing.T) {
	f := newFixture()
	f.runner.DryRun = true
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Message != wantMessage || res.Outcome != OutcomeDryRun || res.Delivered {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.delivery.delivered) != 0 {
		t.Fatal("dry run must not deliver")
	}
}

func TestRunSchedulesPost(t *testing.T) {
	f := newFixture()
	f.runner.PostSchedule = "30 9 * * 1-5"
	if _, err := f.runner.Run(context.Background(), thursday); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	if len(f.delivery.scheduled) != 1 || !f.delivery.scheduled[0].Equal(want) {
		t.Fatalf("unexpected schedule: %v", f.delivery.scheduled)
	}
}

func TestRunRecorderErrorIsIgnored(t *testing.T) {
	f := newFixture()
	f.recorder.err = errors.New("disk full")
	res, err := f.runner.Run(context.Background(), thursday)
	if err != nil || !res.Delivered {
		t.Fatalf("recorder failures must not fail the run: res=%+v err=%v", res, err)
	}
}
