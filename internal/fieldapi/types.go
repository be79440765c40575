// Package fieldapi is the client for the remote collaborator API that
// stores cameras, sightings, areas and communities.
package fieldapi

import (
	"time"

	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/httpclient"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
)

// Config holds configuration for the collaborator API client.
type Config struct {
	BaseURL         string
	UID             string
	Token           string
	Timeout         time.Duration
	MembersCacheTTL time.Duration

	// HTTP replaces the client built from Timeout. Tests pass one backed
	// by an httpmock transport.
	HTTP    *httpclient.Client
	Logger  logger.Logger
	Metrics metrics.Recorder
}

// DefaultConfig returns a Config with the defaults of the embedded config.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:5000",
		Timeout:         30 * time.Second,
		MembersCacheTTL: 5 * time.Minute,
	}
}

// ConfigFromSettings maps the api section of the settings.
func ConfigFromSettings(s *conf.Settings) Config {
	return Config{
		BaseURL:         s.API.BaseURL,
		UID:             s.API.UID,
		Token:           s.API.Token,
		Timeout:         s.API.Timeout,
		MembersCacheTTL: s.API.MembersCacheTTL,
	}
}

// envelope is the part every response may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// rejected reports an explicit failure. Mutations pass strict so that a
// missing success flag also counts as one.
func (e envelope) rejected(strict bool) bool {
	if e.Success == nil {
		return strict
	}
	return !*e.Success
}

type markersResponse struct {
	envelope
	entity.Markers
}

type communitiesResponse struct {
	envelope
	Communities []entity.Community `json:"communities"`
}

type createResponse struct {
	envelope
	Code      string            `json:"code"`
	Camera    *entity.Camera    `json:"camera"`
	Sighting  *entity.Sighting  `json:"sighting"`
	Area      *entity.GeoArea   `json:"area"`
	Community *entity.Community `json:"community"`
}

// CreateResult is the outcome of an accepted creation.
type CreateResult struct {
	Message string
	// Code is the join code issued for a new community.
	Code string
	// Record is the record echoed by the server, nil when the response
	// carried none.
	Record entity.Record
}

type joinResponse struct {
	envelope
	Status    string            `json:"status"`
	Community *entity.Community `json:"community"`
}

// JoinResult is the outcome of an accepted join request.
type JoinResult struct {
	Status    string
	Community *entity.Community
}

type membersResponse struct {
	envelope
	Members []entity.Member `json:"members"`
}
