// Package weather looks up current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"standupbot/internal/config"
	"standupbot/internal/httpx"
)

const (
	defaultBaseURL = "https://api.openweathermap.org"

	// UnknownCondition is reported whenever the lookup fails.
	UnknownCondition = "unknown"
)

// Conditions is a lowercased condition group ("rain", "clear", ...) and the
// temperature in degrees Fahrenheit.
type Conditions struct {
	Condition   string
	Temperature int
	HasTemp     bool
}

// TemperatureText renders the temperature for prompts, or "unknown".
func (c Conditions) TemperatureText() string {
	if !c.HasTemp {
		return UnknownCondition
	}
	return strconv.Itoa(c.Temperature)
}

func Unknown() Conditions {
	return Conditions{Condition: UnknownCondition}
}

type currentResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

type Client struct {
	apiKey     string
	latitude   float64
	longitude  float64
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		apiKey:     cfg.WeatherAPIKey,
		latitude:   cfg.WeatherLatitude,
		longitude:  cfg.WeatherLongitude,
		baseURL:    defaultBaseURL,
		httpClient: httpx.ExternalHTTPClient(),
	}
}

// WithBaseURL returns a copy of c that talks to baseURL.
func (c *Client) WithBaseURL(baseURL string, httpClient *http.Client) *Client {
	clone := *c
	clone.baseURL = strings.TrimRight(baseURL, "/")
	if httpClient != nil {
		clone.httpClient = httpClient
	}
	return &clone
}

// Current fetches the current conditions at the configured coordinates.
func (c *Client) Current(ctx context.Context) (Conditions, error) {
	if c.apiKey == "" {
		return Conditions{}, fmt.Errorf("weather api key not configured")
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Conditions{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed currentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Conditions{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Weather) == 0 {
		return Conditions{}, fmt.Errorf("no weather entries in response")
	}
	return Conditions{
		Condition:   strings.ToLower(parsed.Weather[0].Main),
		Temperature: int(math.Round(parsed.Main.Temp)),
		HasTemp:     true,
	}, nil
}

// Lookup is Current without the error: failures are logged and reported as
// unknown conditions.
func (c *Client) Lookup(ctx context.Context) Conditions {
	cond, err := c.Current(ctx)
	if err != nil {
		log.Printf("weather lookup failed: %v", err)
		return Unknown()
	}
	log.Printf("weather lookup condition=%s temp=%d", cond.Condition, cond.Temperature)
	return cond
}
