package dashboard

import (
	"slices"
	"sync"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

// SliderView is what a renderer needs to draw the date-range slider.
type SliderView struct {
	Empty       bool     `json:"empty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Dates       []string `json:"dates"`
	Low         int      `json:"low"`
	High        int      `json:"high"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
	Count       int      `json:"count"`
	Total       int      `json:"total"`
	LowPercent  float64  `json:"low_percent"`
	HighPercent float64  `json:"high_percent"`
}

// Store guards the dashboard State. The date-range slider lives alongside it:
// whenever the loaded records change the slider is reset to their dates and
// its selection is written back into State as the date range.
type Store struct {
	mu     sync.RWMutex
	state  State
	slider *domain.Slider
}

// NewStore creates a store in its initial state.
func NewStore(defaultMetric domain.Metric) *Store {
	s := &Store{state: InitialState(defaultMetric)}
	s.slider = domain.NewSlider(func(rng domain.DateRange) {
		// Called with s.mu held.
		s.state, _ = Reduce(s.state, SetDateRange{Range: &rng})
	})
	return s
}

// Dispatch applies a and returns the resulting state. The boolean is false
// when the action was discarded as stale.
func (s *Store) Dispatch(a Action) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied := Reduce(s.state, a)
	if !applied {
		return s.state, false
	}
	s.state = next

	if _, ok := a.(SeriesLoaded); ok {
		s.slider.SetDates(domain.DistinctDates(s.state.Records))
		if s.slider.Empty() {
			s.state, _ = Reduce(s.state, SetDateRange{})
		}
	}
	return s.state, true
}

// Snapshot returns the current state. The selection is deep-copied; record
// and ranking slices are shared but never mutated.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Selection = st.Selection.Clone()
	st.Municipalities = slices.Clone(st.Municipalities)
	st.Years = slices.Clone(st.Years)
	return st
}

// Slider returns the slider's current view.
func (s *Store) Slider() SliderView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sliderView()
}

// MoveSlider moves the low and/or high handle. A nil index leaves that
// handle alone.
func (s *Store) MoveSlider(low, high *int) SliderView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if low != nil {
		s.slider.MoveLow(*low)
	}
	if high != nil {
		s.slider.MoveHigh(*high)
	}
	return s.sliderView()
}

func (s *Store) sliderView() SliderView {
	if s.slider.Empty() {
		return SliderView{Empty: true, Placeholder: domain.NoDatesText, Dates: []string{}}
	}
	low, high := s.slider.Indices()
	lowPct, highPct := s.slider.Percent()
	rng, _ := s.slider.Range()
	return SliderView{
		Dates:       slices.Clone(s.slider.Dates()),
		Low:         low,
		High:        high,
		Start:       rng.Start,
		End:         rng.End,
		Count:       s.slider.Count(),
		Total:       s.slider.Total(),
		LowPercent:  lowPct,
		HighPercent: highPct,
	}
}
