// Package report renders the "Did / Doing" standup message.
package report

import (
	"strings"

	"standupbot/internal/domain"
)

// Input is everything that goes into one standup message.
type Input struct {
	Greeting        string
	YesterdayEvents []string
	Yesterday       domain.IssueBuckets
	TodayEvents     []string
	TodayInProgress []string
}

// Assemble builds the message. Submitted issues that were also merged are
// collapsed into a single "Submitted/merged" bullet, listed after the
// submitted-only ones.
func Assemble(in Input) string {
	var out strings.Builder
	out.WriteString(in.Greeting + "\n")
	out.WriteString("\n")
	out.WriteString("*Did*\n")
	for _, event := range in.YesterdayEvents {
		writeBullet(&out, event)
	}

	merged := make(map[string]struct{}, len(in.Yesterday.Merged))
	for _, issue := range in.Yesterday.Merged {
		merged[issue] = struct{}{}
	}
	emitted := make(map[string]struct{}, len(in.Yesterday.Submitted))
	for _, issue := range in.Yesterday.Submitted {
		if _, ok := merged[issue]; ok {
			continue
		}
		writeBullet(&out, "Submitted "+issue)
		emitted[issue] = struct{}{}
	}
	for _, issue := range in.Yesterday.Submitted {
		if _, ok := merged[issue]; !ok {
			continue
		}
		writeBullet(&out, "Submitted/merged "+issue)
		emitted[issue] = struct{}{}
	}
	for _, issue := range in.Yesterday.Merged {
		if _, ok := emitted[issue]; ok {
			continue
		}
		writeBullet(&out, "Merged "+issue)
	}

	out.WriteString("\n")
	out.WriteString("*Doing*\n")
	for _, event := range in.TodayEvents {
		writeBullet(&out, event)
	}
	for _, issue := range in.TodayInProgress {
		writeBullet(&out, issue)
	}
	return out.String()
}

func writeBullet(out *strings.Builder, text string) {
	out.WriteString("• " + text + "\n")
}
