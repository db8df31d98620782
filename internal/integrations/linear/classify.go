package linear

import "time"

// StateChangedTo reports whether the issue genuinely moved into target,
// ignoring no-op transitions. A non-zero after restricts the match to
// transitions at or after that instant.
func StateChangedTo(issue Issue, target string, after time.Time) bool {
	for _, tr := range issue.History {
		if tr.ToState != target || tr.FromState == target {
			continue
		}
		if !after.IsZero() && tr.CreatedAt.Before(after) {
			continue
		}
		return true
	}
	return false
}

// Classify sorts issues into buckets, keeping tracker order within each.
func Classify(issues []Issue, s StatusNames, inProgressCutoff time.Time) IssueBuckets {
	var b IssueBuckets
	for _, issue := range issues {
		if StateChangedTo(issue, s.InProgress, inProgressCutoff) {
			b.InProgress = append(b.InProgress, issue.Label())
		}
		if StateChangedTo(issue, s.Submitted, time.Time{}) {
			b.Submitted = append(b.Submitted, issue.Label())
		}
		if StateChangedTo(issue, s.Merged, time.Time{}) {
			b.Merged = append(b.Merged, issue.Label())
		}
	}
	return b
}
