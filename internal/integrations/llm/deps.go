package llm

import (
	"standupbot/internal/config"
	"standupbot/internal/httpx"
	"standupbot/internal/integrations/weather"
)

type Config = config.Config
type Conditions = weather.Conditions

var externalHTTPClient = httpx.ExternalHTTPClient()
