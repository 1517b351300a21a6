package domain

import (
	"context"
	"errors"
	"io"
)

// ErrBackendUnavailable is reported when the backend health check fails.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ComparisonQuery selects a pre-aggregated municipality ranking.
type ComparisonQuery struct {
	Metric Metric
	Top    int
	Year   *int
}

// DownloadQuery selects the rows exported by the backend.
type DownloadQuery struct {
	Municipalities []string
	Year           *int
	From           string
	To             string
}

// Export is a downloadable file streamed from the backend. Body must be
// closed by the caller.
type Export struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// RadianceSource fetches radiance data from the backend.
type RadianceSource interface {
	// Health returns nil when the backend is reachable.
	Health(ctx context.Context) error

	// Municipalities lists every municipality with data.
	Municipalities(ctx context.Context) ([]string, error)

	// Years lists the available years, most recent first.
	Years(ctx context.Context) ([]int, error)

	// MunicipalitySeries returns one municipality's records, optionally
	// restricted to a year.
	MunicipalitySeries(ctx context.Context, name string, year *int) ([]Record, error)

	// Comparison returns per-municipality means for one metric.
	Comparison(ctx context.Context, q ComparisonQuery) ([]RankEntry, error)

	// Download streams the export for q.
	Download(ctx context.Context, q DownloadQuery) (Export, error)
}
