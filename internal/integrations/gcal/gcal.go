// Package gcal reads standup-relevant events from Google Calendar.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
	defaultAPIBaseURL = "https://www.googleapis.com/calendar/v3"
)

type Event struct {
	Summary      string `json:"summary"`
	Description  string `json:"description"`
	Transparency string `json:"transparency"`
}

type eventsResponse struct {
	Items         []Event `json:"items"`
	NextPageToken string  `json:"nextPageToken"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// Client lists events from a single calendar using an offline refresh token.
type Client struct {
	clientID     string
	clientSecret string
	refreshToken string
	calendarID   string

	httpClient *http.Client
	tokenURL   string
	apiBaseURL string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithEndpoints points the client at alternate token and API hosts.
func WithEndpoints(tokenURL, apiBaseURL string) Option {
	return func(cl *Client) {
		cl.tokenURL = tokenURL
		cl.apiBaseURL = strings.TrimRight(apiBaseURL, "/")
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		refreshToken: cfg.GoogleRefreshToken,
		calendarID:   cfg.GoogleCalendarID,
		httpClient:   externalHTTPClient,
		tokenURL:     defaultTokenURL,
		apiBaseURL:   defaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the filtered event summaries whose start falls in w, in
// start-time order.
func (c *Client) Events(ctx context.Context, w Window) ([]string, error) {
	raw, err := c.ListEvents(ctx, w)
	if err != nil {
		return nil, err
	}
	events := FilterEvents(raw)
	log.Printf("gcal fetch done start=%s end=%s raw=%d kept=%d", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), len(raw), len(events))
	return events, nil
}

// ListEvents returns every event in w with recurring events expanded.
func (c *Client) ListEvents(ctx context.Context, w Window) ([]Event, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var all []Event
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("timeMin", w.Start.Format(time.RFC3339))
		params.Set("timeMax", w.End.Format(time.RFC3339))
		params.Set("singleEvents", "true")
		params.Set("orderBy", "startTime")
		params.Set("maxResults", "250")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		apiURL := fmt.Sprintf("%s/calendars/%s/events?%s", c.apiBaseURL, url.PathEscape(c.calendarID), params.Encode())

		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar events: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Google Calendar API returned %d: %s", resp.StatusCode, string(body))
		}

		var page eventsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		all = append(all, page.Items...)

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return all, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("refresh_token", c.refreshToken)
	data.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh failed %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("parsing token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token refresh returned no access token: %s %s", tok.Error, tok.ErrorDesc)
	}

	c.accessToken = tok.AccessToken
	// Renew a minute early.
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// FilterEvents keeps events that have a summary, are not marked opaque, are
// not described as personal, and are not bare "busy" blocks.
func FilterEvents(events []Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Summary == "" {
			continue
		}
		if ev.Transparency == "opaque" {
			continue
		}
		if strings.Contains(strings.ToLower(ev.Description), "personal") {
			continue
		}
		if strings.ToLower(strings.TrimSpace(ev.Summary)) == "busy" {
			continue
		}
		out = append(out, ev.Summary)
	}
	return out
}

var outOfOfficeRe = regexp.MustCompile(`(?i)ooo|pto|vacation|out of office`)

// DetectVacationEvent returns the first event that looks like time off.
func DetectVacationEvent(events []string) (string, bool) {
	for _, ev := range events {
		if outOfOfficeRe.MatchString(ev) {
			return ev, true
		}
	}
	return "", false
}
