package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
)

// EventPublisher receives selection changes. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SelectionEvent) error
}

// cachePurger is implemented by sources that cache responses. The refresh
// loop purges before reloading so each tick reaches the backend.
type cachePurger interface {
	Purge()
}

// LoaderConfig tunes the Loader.
type LoaderConfig struct {
	// SeriesConcurrency bounds parallel per-municipality fetches.
	SeriesConcurrency int
	// ComparisonTop is the ranking length requested from the backend.
	ComparisonTop int
	// RefreshInterval re-runs the series and comparison loads; zero disables.
	RefreshInterval time.Duration
	// Clock drives the refresh ticker. Nil means real time.
	Clock clockwork.Clock
}

// Loader fetches data from the backend and dispatches the results into a
// Store. Every user-facing selection change goes through it so that the
// dependent loads are re-issued.
type Loader struct {
	source    domain.RadianceSource
	store     *Store
	publisher EventPublisher
	cfg       LoaderConfig
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// NewLoader creates a Loader. publisher may be nil.
func NewLoader(source domain.RadianceSource, store *Store, publisher EventPublisher, cfg LoaderConfig, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if cfg.SeriesConcurrency <= 0 {
		cfg.SeriesConcurrency = 4
	}
	if cfg.ComparisonTop <= 0 {
		cfg.ComparisonTop = domain.DefaultTopN
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Loader{
		source:    source,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Store exposes the state the loader writes to.
func (l *Loader) Store() *Store { return l.store }

// Snapshot returns the current dashboard state.
func (l *Loader) Snapshot() State { return l.store.Snapshot() }

// Slider returns the date-range slider's current view.
func (l *Loader) Slider() SliderView { return l.store.Slider() }

// CheckReadiness returns nil once the initial load has succeeded.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		if msg := l.store.Snapshot().Err; msg != "" {
			return errors.New(msg)
		}
		return errors.New("initial load has not completed")
	}
	return nil
}

// Init performs the initial load. The backend health check runs first; if it
// fails the banner is set and nothing else is requested. Municipalities and
// years are then fetched in parallel, the default selection applied, and the
// series and comparison loaded.
func (l *Loader) Init(ctx context.Context) error {
	l.store.Dispatch(InitStarted{})

	if err := l.source.Health(ctx); err != nil {
		l.logger.Error("backend health check failed", "error", err)
		l.fail(fmt.Sprintf("%s: %v", domain.ErrBackendUnavailable, err))
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}

	var (
		names    []string
		years    []int
		namesErr error
		yearsErr error
		g        errgroup.Group
	)
	g.Go(func() error {
		names, namesErr = l.source.Municipalities(ctx)
		return nil
	})
	g.Go(func() error {
		years, yearsErr = l.source.Years(ctx)
		return nil
	})
	_ = g.Wait()

	if namesErr != nil {
		l.logger.Error("load municipalities failed", "error", namesErr)
		l.fail("failed to load municipalities: " + namesErr.Error())
		return fmt.Errorf("load municipalities: %w", namesErr)
	}
	if yearsErr != nil {
		l.logger.Warn("load years failed", "error", yearsErr)
		years = nil
	}

	l.store.Dispatch(InitLoaded{Municipalities: names, Years: years})
	l.ready.Store(true)
	l.metrics.Ready.Set(1)
	l.logger.Info("initial load complete", "municipalities", len(names), "years", len(years))

	l.reloadAll(ctx)
	return nil
}

func (l *Loader) fail(msg string) {
	l.store.Dispatch(InitFailed{Message: msg})
	l.ready.Store(false)
	l.metrics.Ready.Set(0)
}

// LoadSeries fetches every selected municipality's series in parallel and
// applies the joined records once all fetches have finished. Failed fetches
// are logged and left out. With nothing selected the records are cleared.
func (l *Loader) LoadSeries(ctx context.Context) error {
	st, _ := l.store.Dispatch(BeginSeriesLoad{})
	token := st.SeriesToken
	names := st.Selection.Municipalities
	year := st.Selection.Year

	results := make([][]domain.Record, len(names))
	var g errgroup.Group
	g.SetLimit(l.cfg.SeriesConcurrency)
	for i, name := range names {
		g.Go(func() error {
			records, err := l.source.MunicipalitySeries(ctx, name, year)
			if err != nil {
				l.metrics.SeriesFetchFailures.Inc()
				l.logger.Warn("load municipality series failed", "municipality", name, "error", err)
				return nil
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	var joined []domain.Record
	for _, records := range results {
		joined = append(joined, records...)
	}

	if _, applied := l.store.Dispatch(SeriesLoaded{Token: token, Records: joined}); !applied {
		l.metrics.StaleResponses.WithLabelValues("series").Inc()
		l.logger.Debug("discarded stale series response", "token", token)
	}
	return nil
}

// LoadComparison fetches the ranking for the primary selected metric and
// year. With no metric selected the ranking is cleared. A failed fetch keeps
// the previous ranking.
func (l *Loader) LoadComparison(ctx context.Context) error {
	st, _ := l.store.Dispatch(BeginComparisonLoad{})
	token := st.ComparisonToken

	var entries []domain.RankEntry
	if len(st.Selection.Metrics) > 0 {
		var err error
		entries, err = l.source.Comparison(ctx, domain.ComparisonQuery{
			Metric: st.Selection.PrimaryMetric(),
			Top:    l.cfg.ComparisonTop,
			Year:   st.Selection.Year,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("load comparison failed", "error", err)
			return nil
		}
	}

	if _, applied := l.store.Dispatch(ComparisonLoaded{Token: token, Entries: domain.RankPreAggregated(entries)}); !applied {
		l.metrics.StaleResponses.WithLabelValues("comparison").Inc()
		l.logger.Debug("discarded stale comparison response", "token", token)
	}
	return nil
}

// reloadAll runs the series and comparison loads concurrently.
func (l *Loader) reloadAll(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return l.LoadSeries(ctx) })
	g.Go(func() error { return l.LoadComparison(ctx) })
	if err := g.Wait(); err != nil {
		l.logger.Debug("reload interrupted", "error", err)
	}
}

// Run refreshes the series and comparison every RefreshInterval until ctx is
// cancelled. Cached responses are purged on every tick. It returns
// immediately when refreshing is disabled.
func (l *Loader) Run(ctx context.Context) error {
	if l.cfg.RefreshInterval <= 0 {
		return nil
	}
	l.logger.Info("refresh loop started", "interval", l.cfg.RefreshInterval)

	ticker := l.cfg.Clock.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if !l.ready.Load() {
				continue
			}
			if p, ok := l.source.(cachePurger); ok {
				p.Purge()
			}
			l.reloadAll(ctx)
		}
	}
}
