package linear

import (
	"standupbot/internal/config"
	"standupbot/internal/domain"
	"standupbot/internal/httpx"
)

type Config = config.Config
type Issue = domain.Issue
type IssueBuckets = domain.IssueBuckets
type StatusNames = domain.StatusNames
type Window = domain.Window

var externalHTTPClient = httpx.ExternalHTTPClient()
