// Package linear queries the Linear GraphQL API for the assignee's recently
// moved issues and sorts them into standup buckets.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"standupbot/internal/domain"
)

const defaultEndpoint = "https://api.linear.app/graphql"

// IssueQuery scopes one tracker query.
type IssueQuery struct {
	Window           Window
	IssueCutoff      time.Time
	InProgressCutoff time.Time
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		Issues struct {
			Nodes []issueNode `json:"nodes"`
		} `json:"issues"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type stateRef struct {
	Name string `json:"name"`
}

type issueNode struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	UpdatedAt  string    `json:"updatedAt"`
	State      *stateRef `json:"state"`
	History    struct {
		Nodes []historyNode `json:"nodes"`
	} `json:"history"`
}

type historyNode struct {
	CreatedAt string    `json:"createdAt"`
	FromState *stateRef `json:"fromState"`
	ToState   *stateRef `json:"toState"`
}

type Client struct {
	apiKey     string
	statuses   StatusNames
	endpoint   string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:     cfg.LinearAPIKey,
		statuses:   cfg.StatusNames(),
		endpoint:   defaultEndpoint,
		httpClient: externalHTTPClient,
	}
}

// WithEndpoint returns a copy of c that talks to endpoint instead of Linear.
func (c *Client) WithEndpoint(endpoint string, httpClient *http.Client) *Client {
	clone := *c
	clone.endpoint = endpoint
	if httpClient != nil {
		clone.httpClient = httpClient
	}
	return &clone
}

// Issues fetches the issues touched in q.Window and classifies them.
func (c *Client) Issues(ctx context.Context, q IssueQuery) (IssueBuckets, error) {
	issues, err := c.FetchIssues(ctx, q)
	if err != nil {
		return IssueBuckets{}, err
	}
	buckets := Classify(issues, c.statuses, q.InProgressCutoff)
	log.Printf("linear classify issues=%d in_progress=%d submitted=%d merged=%d", len(issues), len(buckets.InProgress), len(buckets.Submitted), len(buckets.Merged))
	return buckets, nil
}

func (c *Client) FetchIssues(ctx context.Context, q IssueQuery) ([]Issue, error) {
	reqBody := graphQLRequest{
		Query: buildIssuesQuery(c.statuses),
		Variables: map[string]any{
			"start":            q.Window.Start.UTC().Format(time.RFC3339),
			"end":              q.Window.End.UTC().Format(time.RFC3339),
			"cutoff":           q.IssueCutoff.UTC().Format(time.RFC3339),
			"inProgressCutoff": q.InProgressCutoff.UTC().Format(time.RFC3339),
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	log.Printf("linear fetch start=%s end=%s", q.Window.Start.Format(time.RFC3339), q.Window.End.Format(time.RFC3339))
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching issues: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Linear API returned %d: %s", resp.StatusCode, string(body))
	}

	var result graphQLResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Errors) > 0 {
		var msgs []string
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("Linear API errors: %s", strings.Join(msgs, "; "))
	}

	issues := make([]Issue, 0, len(result.Data.Issues.Nodes))
	for _, node := range result.Data.Issues.Nodes {
		issues = append(issues, convertIssueNode(node))
	}
	return issues, nil
}

func convertIssueNode(node issueNode) Issue {
	updatedAt, err := time.Parse(time.RFC3339, node.UpdatedAt)
	if err != nil {
		log.Printf("linear issue bad updatedAt issue=%s value=%q: %v", node.Identifier, node.UpdatedAt, err)
	}
	issue := Issue{
		ID:         node.ID,
		Identifier: node.Identifier,
		Title:      node.Title,
		State:      stateName(node.State),
		UpdatedAt:  updatedAt,
	}
	for _, h := range node.History.Nodes {
		createdAt, err := time.Parse(time.RFC3339, h.CreatedAt)
		if err != nil {
			log.Printf("linear history bad createdAt issue=%s to=%s value=%q: %v", node.Identifier, stateName(h.ToState), h.CreatedAt, err)
		}
		issue.History = append(issue.History, domain.Transition{
			FromState: stateName(h.FromState),
			ToState:   stateName(h.ToState),
			CreatedAt: createdAt,
		})
	}
	return issue
}

func stateName(s *stateRef) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func buildIssuesQuery(s StatusNames) string {
	return fmt.Sprintf(`query ($start: DateTimeOrDuration!, $end: DateTimeOrDuration!, $cutoff: DateTimeOrDuration!, $inProgressCutoff: DateTimeOrDuration!) {
  issues(filter: {and: [
    { assignee: { isMe: { eq: true } } },
    { children: { length: { eq: 0 } } },
    { createdAt: { gte: $cutoff } },
    { state: { name: { in: [%[1]q, %[2]q, %[3]q] } } },
    { or: [
      { and: [{ updatedAt: { gte: $inProgressCutoff, lte: $end } },
              { state: { name: { eq: %[1]q } } }] },
      { and: [{ updatedAt: { gte: $start, lte: $end } },
              { state: { name: { neq: %[1]q } } }] }
    ] }
  ]}) {
    nodes {
      id
      identifier
      title
      updatedAt
      state { name }
      history {
        nodes {
          createdAt
          fromState { name }
          toState { name }
        }
      }
    }
  }
}`, s.InProgress, s.Submitted, s.Merged)
}
