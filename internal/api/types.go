package api

import (
	"time"

	"github.com/assetboard/assetboard/internal/aggregate"
	"github.com/assetboard/assetboard/internal/source"
	"github.com/assetboard/assetboard/pkg/types"
)

// StatusResponse is the payload for GET /api/v1/status and POST /api/v1/refresh.
type StatusResponse struct {
	SnapshotID      string             `json:"snapshot_id,omitempty"`
	FetchedAt       *time.Time         `json:"fetched_at,omitempty"`
	Origin          string             `json:"origin,omitempty"`
	Records         int                `json:"records"`
	LastError       string             `json:"last_error,omitempty"`
	LastAttempt     *time.Time         `json:"last_attempt,omitempty"`
	Refreshing      bool               `json:"refreshing"`
	RefreshInterval string             `json:"refresh_interval"`
	AlertCount      int                `json:"alert_count"`
	Cert            *source.CertStatus `json:"cert,omitempty"`
}

// AssetsResponse is the payload for GET /api/v1/assets.
type AssetsResponse struct {
	Assets    []types.Asset `json:"assets"`
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated"`
	Limit     int           `json:"limit"`
}

// AssetResponse is the payload for GET /api/v1/assets/{id}.
type AssetResponse struct {
	types.Asset
	Diagnostics []DiagnosticHint `json:"diagnostics"`
}

// StatsResponse is the payload for GET /api/v1/stats and the WebSocket
// snapshot event.
type StatsResponse struct {
	SnapshotID        string            `json:"snapshot_id"`
	FetchedAt         time.Time         `json:"fetched_at"`
	Records           int               `json:"records"`
	Summary           aggregate.Summary `json:"summary"`
	OSDistribution    []aggregate.Count `json:"os_distribution"`
	GradeDistribution []aggregate.Count `json:"grade_distribution"`
	DiskHistogram     []aggregate.Count `json:"disk_histogram"`
}

// FiltersResponse is the payload for GET /api/v1/filters: selectable values
// per category, keyed by category name.
type FiltersResponse map[string][]string

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
