package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

// ErrNotReady is returned by selection changes before the initial load has
// succeeded.
var ErrNotReady = errors.New("dashboard not ready")

// UnknownMunicipalityError reports a selection naming a municipality the
// backend did not list.
type UnknownMunicipalityError struct {
	Name string
}

func (e *UnknownMunicipalityError) Error() string {
	return fmt.Sprintf("unknown municipality %q", e.Name)
}

// SelectMunicipalities replaces the municipality selection and reloads the
// series.
func (l *Loader) SelectMunicipalities(ctx context.Context, names []string) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	for _, name := range names {
		if !slices.Contains(st.Municipalities, name) {
			return st, &UnknownMunicipalityError{Name: name}
		}
	}
	return l.applyMunicipalities(ctx, names)
}

// ToggleMunicipality adds or removes one municipality.
func (l *Loader) ToggleMunicipality(ctx context.Context, name string) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	if !slices.Contains(st.Municipalities, name) {
		return st, &UnknownMunicipalityError{Name: name}
	}
	return l.applyMunicipalities(ctx, domain.Toggle(st.Selection.Municipalities, name))
}

// ToggleAllMunicipalities selects every municipality, or none when all are
// already selected.
func (l *Loader) ToggleAllMunicipalities(ctx context.Context) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	return l.applyMunicipalities(ctx, domain.ToggleAll(st.Selection.Municipalities, st.Municipalities))
}

func (l *Loader) applyMunicipalities(ctx context.Context, names []string) (State, error) {
	st, _ := l.store.Dispatch(SetMunicipalities{Names: names})
	l.publish(ctx, domain.EventMunicipalities, st.Selection)
	if err := l.LoadSeries(ctx); err != nil {
		return l.store.Snapshot(), err
	}
	return l.store.Snapshot(), nil
}

// SelectMetrics replaces the metric selection and reloads the comparison.
func (l *Loader) SelectMetrics(ctx context.Context, metrics []domain.Metric) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	return l.applyMetrics(ctx, metrics)
}

// ToggleMetric adds or removes one metric.
func (l *Loader) ToggleMetric(ctx context.Context, m domain.Metric) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	return l.applyMetrics(ctx, domain.Toggle(st.Selection.Metrics, m))
}

// ToggleAllMetrics selects every metric, or none when all are selected.
func (l *Loader) ToggleAllMetrics(ctx context.Context) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	return l.applyMetrics(ctx, domain.ToggleAll(st.Selection.Metrics, domain.AllMetrics()))
}

func (l *Loader) applyMetrics(ctx context.Context, metrics []domain.Metric) (State, error) {
	st, _ := l.store.Dispatch(SetMetrics{Metrics: metrics})
	l.publish(ctx, domain.EventMetrics, st.Selection)
	if err := l.LoadComparison(ctx); err != nil {
		return l.store.Snapshot(), err
	}
	return l.store.Snapshot(), nil
}

// SelectYear sets the year filter (nil for all years) and reloads both the
// series and the comparison.
func (l *Loader) SelectYear(ctx context.Context, year *int) (State, error) {
	st := l.store.Snapshot()
	if !st.Ready {
		return st, ErrNotReady
	}
	st, _ = l.store.Dispatch(SetYear{Year: year})
	l.publish(ctx, domain.EventYear, st.Selection)
	l.reloadAll(ctx)
	return l.store.Snapshot(), ctx.Err()
}

// MoveSlider moves the date-range handles. The new range is written into the
// selection by the store.
func (l *Loader) MoveSlider(ctx context.Context, low, high *int) SliderView {
	view := l.store.MoveSlider(low, high)
	if !view.Empty {
		l.publish(ctx, domain.EventRange, l.store.Snapshot().Selection)
	}
	return view
}

// ToggleMarkers flips whether chart points are drawn.
func (l *Loader) ToggleMarkers() State {
	st, _ := l.store.Dispatch(ToggleMarkers{})
	return st
}

// Download streams the backend export for the current selection and date
// range.
func (l *Loader) Download(ctx context.Context) (domain.Export, error) {
	sel := l.store.Snapshot().Selection
	q := domain.DownloadQuery{Municipalities: sel.Municipalities, Year: sel.Year}
	if sel.Range != nil {
		q.From, q.To = sel.Range.Start, sel.Range.End
	}
	return l.source.Download(ctx, q)
}

func (l *Loader) publish(ctx context.Context, kind domain.SelectionEventKind, sel domain.Selection) {
	if l.publisher == nil {
		return
	}
	event := domain.NewSelectionEvent(kind, sel)
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.Warn("publish selection event failed", "kind", kind, "event_id", event.ID, "error", err)
	}
}
