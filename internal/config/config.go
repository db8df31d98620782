package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"standupbot/internal/domain"
	"standupbot/internal/schedule"

	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

const (
	defaultTimezone         = "America/Denver"
	defaultCalendarID       = "primary"
	defaultInProgressStatus = "In Progress"
	defaultSubmittedStatus  = "Code Review"
	defaultMergedStatus     = "Testing"
	defaultWeatherLatitude  = 40.233845
	defaultWeatherLongitude = -111.658531
)

type Config struct {
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRefreshToken string `yaml:"google_refresh_token"`
	GoogleCalendarID   string `yaml:"google_calendar_id"`

	LinearAPIKey           string `yaml:"linear_api_key"`
	LinearInProgressStatus string `yaml:"linear_in_progress_status"`
	LinearSubmittedStatus  string `yaml:"linear_submitted_status"`
	LinearMergedStatus     string `yaml:"linear_merged_status"`

	SlackAPIToken       string `yaml:"slack_api_token"`
	SlackStandupChannel string `yaml:"slack_standup_channel"`
	SlackUserID         string `yaml:"slack_user_id"`
	UseStandupChannel   bool   `yaml:"use_standup_channel"`
	PostSchedule        string `yaml:"post_schedule"`

	WeatherAPIKey    string  `yaml:"weather_api_key"`
	WeatherLatitude  float64 `yaml:"weather_latitude"`
	WeatherLongitude float64 `yaml:"weather_longitude"`

	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	HolidayDates               []string `yaml:"holidays"`
	Timezone                   string   `yaml:"timezone"`
	DBPath                     string   `yaml:"db_path"`
	ExternalHTTPTimeoutSeconds int      `yaml:"external_http_timeout_seconds"`

	Location *time.Location     `yaml:"-"` // computed from Timezone
	Holidays domain.HolidaySet `yaml:"-"` // computed from HolidayDates
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	envOverride(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	envOverride(&cfg.GoogleRefreshToken, "GOOGLE_REFRESH_TOKEN")
	envOverride(&cfg.GoogleCalendarID, "GOOGLE_CALENDAR_ID")
	envOverride(&cfg.LinearAPIKey, "LINEAR_API_KEY")
	envOverride(&cfg.LinearInProgressStatus, "LINEAR_IN_PROGRESS_STATUS")
	envOverride(&cfg.LinearSubmittedStatus, "LINEAR_SUBMITTED_STATUS")
	envOverride(&cfg.LinearMergedStatus, "LINEAR_MERGED_STATUS")
	envOverride(&cfg.SlackAPIToken, "SLACK_API_TOKEN")
	envOverride(&cfg.SlackStandupChannel, "SLACK_STANDUP_CHANNEL")
	envOverride(&cfg.SlackUserID, "SLACK_USER_ID")
	envOverrideBool(&cfg.UseStandupChannel, "USE_STANDUP_CHANNEL")
	envOverrideAllowEmpty(&cfg.PostSchedule, "POST_SCHEDULE")
	envOverride(&cfg.WeatherAPIKey, "WEATHER_API_KEY")
	envOverrideFloat(&cfg.WeatherLatitude, "WEATHER_LATITUDE")
	envOverrideFloat(&cfg.WeatherLongitude, "WEATHER_LONGITUDE")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")

	if holidays := os.Getenv("HOLIDAYS"); holidays != "" {
		cfg.HolidayDates = nil
		for _, h := range strings.Split(holidays, ",") {
			h = strings.TrimSpace(h)
			if h != "" {
				cfg.HolidayDates = append(cfg.HolidayDates, h)
			}
		}
	}

	if cfg.GoogleCalendarID == "" {
		cfg.GoogleCalendarID = defaultCalendarID
	}
	if cfg.LinearInProgressStatus == "" {
		cfg.LinearInProgressStatus = defaultInProgressStatus
	}
	if cfg.LinearSubmittedStatus == "" {
		cfg.LinearSubmittedStatus = defaultSubmittedStatus
	}
	if cfg.LinearMergedStatus == "" {
		cfg.LinearMergedStatus = defaultMergedStatus
	}
	if cfg.WeatherLatitude == 0 && cfg.WeatherLongitude == 0 {
		cfg.WeatherLatitude = defaultWeatherLatitude
		cfg.WeatherLongitude = defaultWeatherLongitude
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}

	required := map[string]string{
		"google_client_id":     cfg.GoogleClientID,
		"google_client_secret": cfg.GoogleClientSecret,
		"google_refresh_token": cfg.GoogleRefreshToken,
		"linear_api_key":       cfg.LinearAPIKey,
		"slack_api_token":      cfg.SlackAPIToken,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	if cfg.UseStandupChannel && cfg.SlackStandupChannel == "" {
		log.Fatalf("slack_standup_channel is required when use_standup_channel=true")
	}
	if !cfg.UseStandupChannel && cfg.SlackUserID == "" {
		log.Fatalf("slack_user_id is required when use_standup_channel=false")
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Printf("WARNING: anthropic_api_key is not set; greetings will use the fallback template")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Printf("WARNING: openai_api_key is not set; greetings will use the fallback template")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}
	if cfg.WeatherAPIKey == "" {
		log.Printf("WARNING: weather_api_key is not set; weather will be reported as unknown")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	holidays, err := domain.ParseHolidays(cfg.HolidayDates, cfg.Location)
	if err != nil {
		log.Fatalf("invalid holidays: %v", err)
	}
	cfg.Holidays = holidays

	if err := schedule.Validate(cfg.PostSchedule); err != nil {
		log.Fatalf("invalid post_schedule: %v", err)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

// StatusNames returns the tracker workflow states used for classification.
func (c Config) StatusNames() domain.StatusNames {
	return domain.StatusNames{
		InProgress: c.LinearInProgressStatus,
		Submitted:  c.LinearSubmittedStatus,
		Merged:     c.LinearMergedStatus,
	}
}

func (c Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.DBPath) != ""
}
