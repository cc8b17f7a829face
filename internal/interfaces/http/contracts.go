// Package http exposes the plateau analysis engine to the rendering layer:
// strategy listings, variable-parameter discovery, metric matrices and the
// resolved colorscales, over JSON REST plus one interactive WebSocket.
package http

import (
	"time"

	"github.com/sawpanic/plateau/internal/plateau"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse reports service and dataset status.
type HealthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	UptimeSecs float64   `json:"uptime_secs"`

	Dataset *DatasetInfo `json:"dataset,omitempty"`
}

// DatasetInfo summarizes the loaded sweep.
type DatasetInfo struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	LoadedAt   time.Time `json:"loaded_at"`
	Records    int       `json:"records"`
	Strategies int       `json:"strategies"`
	Skipped    int       `json:"skipped_records"`
}

// StrategySummary is one entry of the strategy listing.
type StrategySummary struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	EntryNames []string `json:"entry_names"`
	ExitNames  []string `json:"exit_names"`
	Members    int      `json:"members"`
}

// StrategiesResponse lists the dataset's strategies.
type StrategiesResponse struct {
	Dataset    string            `json:"dataset"`
	Strategies []StrategySummary `json:"strategies"`
	Skipped    int               `json:"skipped_records"`
}

// VariablesRequest pins a set of parameters before asking what still varies.
type VariablesRequest struct {
	Fixed map[string]string `json:"fixed,omitempty"`
}

// MatrixResponse bundles a built matrix with its resolved colorscale so the
// renderer needs a single round trip per slice.
type MatrixResponse struct {
	Matrix plateau.Matrix `json:"matrix"`
	Scale  plateau.Scale  `json:"scale"`
}

// ReloadResponse reports the outcome of a dataset reload.
type ReloadResponse struct {
	Dataset DatasetInfo `json:"dataset"`
}
