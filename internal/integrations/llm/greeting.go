package llm

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

const greetingSystemPrompt = `You are cheerful, hip, and chill. You speak like a surfer dude who loves people and life.
You create happy greetings, using groovy language about the way you are currently feeling.
But you don't sound cheesy or cutesy.`

const greetingUserPromptTemplate = `Generate a happy greeting using just two or three words that reflects the way you feel today and/or the emotions you want to send out to brighten others' day.
Do not use phrasing that sounds like an instruction. (For example, don't say "Be happy" or "Have a great day.")
Don't use any form of these words: vibe, joy.
Prefer greetings that use alliteration.
Follow the greeting with one or two emojis that correspond to the current weather condition of %q, or a happy or positive idea (smiling face, rainbow, sunflower, rocket, etc).
The greeting may include the day of the week (today is %s).
Do not use words to fit the emoji. Use emoji that fit the greeting.
Use surfing emoji sparingly, only if it fits the greeting well.
Use sunflower emoji sparingly, only if it fits the greeting well.
Prefer the use of only a single emoji, unless a second emoji fits the greeting well.
Ideally, one of the emojis will correspond an idea or word in the greeting.
Important: follow each emoji with a space character so that there will be a gap between emojis.
Use terse language, e.g., instead of saying "I'm feeling great," say "Feeling great".
If the temperature is unusually high or low, you can highlight it in the greeting, e.g., "It's an icy Monday!", and add an appropriate emoji (e.g., snowflake for cold, thermometer for hot).
(The current temperature is %s degrees Fahrenheit. Normal temperature is between 45 and 85 degrees Fahrenheit.)`

var weatherEmoji = map[string]string{
	"clear":        "☀️",
	"clouds":       "🌥️",
	"rain":         "🌧️",
	"drizzle":      "🌦️",
	"thunderstorm": "⛈️",
	"snow":         "🌨️",
	"mist":         "😶‍🌫️",
	"fog":          "😶‍🌫️",
}

const defaultWeatherEmoji = "🌤️"

// WeatherEmoji maps a lowercased condition group to its emoji.
func WeatherEmoji(condition string) string {
	if emoji, ok := weatherEmoji[condition]; ok {
		return emoji
	}
	return defaultWeatherEmoji
}

// FallbackGreeting picks one of the canned greetings with pick(n) and appends
// the weather emoji.
func FallbackGreeting(now time.Time, condition string, pick func(n int) int) string {
	weekday := now.Weekday().String()
	greetings := []string{"Good morning!", "Happy " + weekday + "!", weekday + "!"}
	return greetings[pick(len(greetings))] + " " + WeatherEmoji(condition)
}

func buildGreetingPrompts(now time.Time, cond Conditions) (string, string) {
	return greetingSystemPrompt, fmt.Sprintf(greetingUserPromptTemplate, cond.Condition, now.Weekday().String(), cond.TemperatureText())
}

// Greeter generates the greeting line. It never fails.
type Greeter struct {
	provider string
	model    string
	complete completer
	pick     func(n int) int
}

type GreeterOption func(*greeterSettings)

type greeterSettings struct {
	openAIBaseURL string
	httpClient    *http.Client
	anthropicOpts []option.RequestOption
	pick          func(n int) int
}

// WithOpenAIBaseURL points the openai provider at another chat-completions host.
func WithOpenAIBaseURL(baseURL string, httpClient *http.Client) GreeterOption {
	return func(s *greeterSettings) {
		s.openAIBaseURL = strings.TrimRight(baseURL, "/")
		if httpClient != nil {
			s.httpClient = httpClient
		}
	}
}

// WithAnthropicOptions adds request options to the anthropic provider.
func WithAnthropicOptions(opts ...option.RequestOption) GreeterOption {
	return func(s *greeterSettings) {
		s.anthropicOpts = append(s.anthropicOpts, opts...)
	}
}

// WithPicker replaces the random fallback picker.
func WithPicker(pick func(n int) int) GreeterOption {
	return func(s *greeterSettings) {
		s.pick = pick
	}
}

func NewGreeter(cfg Config, opts ...GreeterOption) *Greeter {
	settings := greeterSettings{
		openAIBaseURL: defaultOpenAIBaseURL,
		httpClient:    externalHTTPClient,
		pick:          rand.IntN,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	g := &Greeter{
		provider: cfg.LLMProvider,
		model:    resolveModel(cfg.LLMProvider, cfg.LLMModel),
		pick:     settings.pick,
	}
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey != "" {
			g.complete = anthropicCompleter(cfg.AnthropicAPIKey, g.model, settings.anthropicOpts...)
		}
	default:
		if cfg.OpenAIAPIKey != "" {
			g.complete = openAICompleter(cfg.OpenAIAPIKey, g.model, settings.openAIBaseURL, settings.httpClient)
		}
	}
	return g
}

// Greeting asks the model for a greeting and falls back to the template on
// any error or empty completion.
func (g *Greeter) Greeting(ctx context.Context, now time.Time, cond Conditions) string {
	if g.complete == nil {
		log.Printf("llm greeting provider=%s skipped: no api key", g.provider)
		return FallbackGreeting(now, cond.Condition, g.pick)
	}

	log.Printf("llm greeting provider=%s model=%s condition=%s temp=%s", g.provider, g.model, cond.Condition, cond.TemperatureText())
	systemPrompt, userPrompt := buildGreetingPrompts(now, cond)
	text, usage, err := g.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Printf("llm greeting failed, using fallback: %v", err)
		return FallbackGreeting(now, cond.Condition, g.pick)
	}
	log.Printf("llm greeting done provider=%s tokens_in=%d tokens_out=%d", g.provider, usage.InputTokens, usage.OutputTokens)
	text = strings.TrimSpace(text)
	if text == "" {
		log.Printf("llm greeting empty, using fallback")
		return FallbackGreeting(now, cond.Condition, g.pick)
	}
	return text
}
