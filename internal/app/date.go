package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateParser = newDateParser()

func newDateParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// parseRunDate resolves --date relative to now. A bare YYYY-MM-DD keeps now's
// wall-clock time so the "today" issue window is not empty.
func parseRunDate(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	loc := now.Location()

	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.In(loc), nil
	}
	if d, err := time.ParseInLocation("2006-01-02", text, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, loc), nil
	}

	r, err := dateParser.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --date %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --date %q", text)
	}
	return r.Time.In(loc), nil
}
