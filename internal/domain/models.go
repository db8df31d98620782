package domain

import "time"

// Window is a closed date-time interval used to scope a collaborator query.
type Window struct {
	Start time.Time
	End   time.Time
}

type Transition struct {
	FromState string
	ToState   string
	CreatedAt time.Time
}

type Issue struct {
	ID         string
	Identifier string // e.g. "ENG-123"
	Title      string
	State      string
	UpdatedAt  time.Time
	History    []Transition // tracker order
}

// Label is how an issue is rendered in a report bullet.
func (i Issue) Label() string {
	return i.Identifier + " " + i.Title
}

// IssueBuckets holds issue labels per classification. An issue may appear in
// more than one bucket.
type IssueBuckets struct {
	InProgress []string
	Submitted  []string
	Merged     []string
}

// StatusNames are the tracker workflow states that drive classification.
type StatusNames struct {
	InProgress string
	Submitted  string
	Merged     string
}

// RunRecord is the persisted outcome of one standup invocation.
type RunRecord struct {
	ID            int64
	RunDate       string // YYYY-MM-DD in the configured location
	Outcome       string
	Body          string
	Message       string
	ChannelID     string
	Delivered     bool
	DeliveryError string
	CreatedAt     time.Time
}
