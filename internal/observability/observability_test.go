package observability

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radiance-dashboard/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil))) })

	tests := []struct {
		level   string
		infoOn  bool
		warnOn  bool
		debugOn bool
	}{
		{"debug", true, true, true},
		{"info", true, true, false},
		{"warn", false, true, false},
		{"warning", false, true, false},
		{"WARNING", false, true, false},
		{"error", false, false, false},
		{"verbose", true, true, false},
		{"", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "text"})
			require.NotNil(t, logger)
			assert.Equal(t, tt.debugOn, logger.Enabled(t.Context(), slog.LevelDebug))
			assert.Equal(t, tt.infoOn, logger.Enabled(t.Context(), slog.LevelInfo))
			assert.Equal(t, tt.warnOn, logger.Enabled(t.Context(), slog.LevelWarn))
		})
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil))) })

	NewLogger(&config.Config{LogLevel: "error", LogFormat: "json"})
	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelError))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.SeriesFetchFailures.Inc()
	a.StaleResponses.WithLabelValues("series").Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(a.SeriesFetchFailures), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(a.StaleResponses.WithLabelValues("series")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.SeriesFetchFailures), 0)
}
