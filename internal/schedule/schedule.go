// Package schedule turns a post_schedule cron expression into a concrete
// Slack post time.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextPostTime returns the first fire time of expr strictly after now, in
// now's location. A blank expression means "post immediately" and yields the
// zero time.
// Examples: "0 9 * * *" (daily 9am), "30 8 * * 1-5" (weekdays 8:30am).
func NextPostTime(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, nil
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid post schedule '%s': %w", expr, err)
	}
	return sched.Next(now), nil
}

// Validate reports whether expr is a usable 5-field cron expression.
func Validate(expr string) error {
	_, err := NextPostTime(expr, time.Now())
	return err
}
