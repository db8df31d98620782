package gcal

import (
	"standupbot/internal/config"
	"standupbot/internal/domain"
	"standupbot/internal/httpx"
)

type Config = config.Config
type Window = domain.Window

var externalHTTPClient = httpx.ExternalHTTPClient()
