// Package dashboard holds the dashboard's view state and the orchestration
// that keeps it in sync with the radiance backend.
//
// State is only changed by dispatching an Action through a Store; Reduce is
// the pure function that applies one. Responses to series and comparison
// requests carry the token handed out when the request began, and the
// reducer discards any response whose token has since been superseded.
package dashboard

import (
	"slices"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

// State is a snapshot of the dashboard.
type State struct {
	Municipalities []string
	Years          []int
	Selection      domain.Selection

	// Records are the joined series of the selected municipalities. Slices
	// held by a State are never modified in place.
	Records    []domain.Record
	Comparison []domain.RankEntry

	ShowMarkers bool
	Loading     bool
	Ready       bool
	// Err is the banner shown instead of the dashboard when the initial
	// load failed.
	Err string

	SeriesToken     uint64
	ComparisonToken uint64
}

// InitialState is the state before anything has been loaded.
func InitialState(defaultMetric domain.Metric) State {
	return State{
		Selection:   domain.Selection{Municipalities: []string{}, Metrics: []domain.Metric{defaultMetric}},
		ShowMarkers: true,
		Loading:     true,
	}
}

// FilteredRecords applies the selected date range to the loaded records.
func (s State) FilteredRecords() []domain.Record {
	return domain.FilterByDateRange(s.Records, s.Selection.Range)
}

// Action is a state transition understood by Reduce.
type Action interface {
	action()
}

type (
	// InitStarted marks the start of the initial load.
	InitStarted struct{}

	// InitFailed ends the initial load with a banner message.
	InitFailed struct{ Message string }

	// InitLoaded stores the option lists and applies the default selection:
	// the first municipality and the most recent year.
	InitLoaded struct {
		Municipalities []string
		Years          []int
	}

	SetMunicipalities struct{ Names []string }
	SetMetrics        struct{ Metrics []domain.Metric }
	SetYear           struct{ Year *int }
	SetDateRange      struct{ Range *domain.DateRange }
	ToggleMarkers     struct{}

	// BeginSeriesLoad hands out a new series token.
	BeginSeriesLoad struct{}

	// SeriesLoaded delivers the joined series for Token.
	SeriesLoaded struct {
		Token   uint64
		Records []domain.Record
	}

	// BeginComparisonLoad hands out a new comparison token.
	BeginComparisonLoad struct{}

	// ComparisonLoaded delivers the ranking for Token.
	ComparisonLoaded struct {
		Token   uint64
		Entries []domain.RankEntry
	}
)

func (InitStarted) action()         {}
func (InitFailed) action()          {}
func (InitLoaded) action()          {}
func (SetMunicipalities) action()   {}
func (SetMetrics) action()          {}
func (SetYear) action()             {}
func (SetDateRange) action()        {}
func (ToggleMarkers) action()       {}
func (BeginSeriesLoad) action()     {}
func (SeriesLoaded) action()        {}
func (BeginComparisonLoad) action() {}
func (ComparisonLoaded) action()    {}

// Reduce applies a to s. It reports false, returning s unchanged, when the
// action was discarded because it answers a superseded request.
func Reduce(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case InitStarted:
		s.Loading = true
		s.Err = ""
	case InitFailed:
		s.Loading = false
		s.Ready = false
		s.Err = a.Message
	case InitLoaded:
		s.Loading = false
		s.Ready = true
		s.Err = ""
		s.Municipalities = slices.Clone(a.Municipalities)
		s.Years = slices.Clone(a.Years)
		sel := s.Selection.Clone()
		if len(a.Municipalities) > 0 {
			sel.Municipalities = []string{a.Municipalities[0]}
		}
		if len(a.Years) > 0 {
			year := a.Years[0]
			sel.Year = &year
		}
		s.Selection = sel
	case SetMunicipalities:
		sel := s.Selection.Clone()
		sel.Municipalities = slices.Clone(a.Names)
		s.Selection = sel
	case SetMetrics:
		sel := s.Selection.Clone()
		sel.Metrics = slices.Clone(a.Metrics)
		s.Selection = sel
	case SetYear:
		sel := s.Selection.Clone()
		sel.Year = nil
		if a.Year != nil {
			year := *a.Year
			sel.Year = &year
		}
		s.Selection = sel
	case SetDateRange:
		sel := s.Selection.Clone()
		sel.Range = nil
		if a.Range != nil {
			rng := *a.Range
			sel.Range = &rng
		}
		s.Selection = sel
	case ToggleMarkers:
		s.ShowMarkers = !s.ShowMarkers
	case BeginSeriesLoad:
		s.SeriesToken++
	case SeriesLoaded:
		if a.Token != s.SeriesToken {
			return s, false
		}
		s.Records = a.Records
	case BeginComparisonLoad:
		s.ComparisonToken++
	case ComparisonLoaded:
		if a.Token != s.ComparisonToken {
			return s, false
		}
		s.Comparison = a.Entries
	default:
		return s, false
	}
	return s, true
}
