package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

func record(date, municipality string, mean float64) domain.Record {
	return domain.Record{Date: date, Municipality: municipality, Values: map[domain.Metric]domain.Reading{domain.MetricMean: domain.Value(mean)}}
}

func TestReduce_InitLoadedAppliesDefaults(t *testing.T) {
	s := InitialState(domain.MetricMean)
	assert.True(t, s.Loading)
	assert.True(t, s.ShowMarkers)

	s, ok := Reduce(s, InitLoaded{Municipalities: []string{"Coyoacán", "Tlalpan"}, Years: []int{2024, 2023}})
	require.True(t, ok)

	assert.False(t, s.Loading)
	assert.True(t, s.Ready)
	assert.Equal(t, []string{"Coyoacán"}, s.Selection.Municipalities)
	require.NotNil(t, s.Selection.Year)
	assert.Equal(t, 2024, *s.Selection.Year)
	assert.Equal(t, []domain.Metric{domain.MetricMean}, s.Selection.Metrics)
}

func TestReduce_InitLoadedWithoutOptions(t *testing.T) {
	s, _ := Reduce(InitialState(domain.MetricMean), InitLoaded{})
	assert.Empty(t, s.Selection.Municipalities)
	assert.Nil(t, s.Selection.Year)
}

func TestReduce_InitFailedSetsBanner(t *testing.T) {
	s, _ := Reduce(InitialState(domain.MetricMean), InitFailed{Message: "backend unavailable"})
	assert.False(t, s.Loading)
	assert.False(t, s.Ready)
	assert.Equal(t, "backend unavailable", s.Err)

	s, _ = Reduce(s, InitStarted{})
	assert.Empty(t, s.Err)
	assert.True(t, s.Loading)
}

func TestReduce_StaleSeriesDiscarded(t *testing.T) {
	s := InitialState(domain.MetricMean)
	s, _ = Reduce(s, BeginSeriesLoad{})
	first := s.SeriesToken
	s, _ = Reduce(s, BeginSeriesLoad{})
	second := s.SeriesToken
	require.Greater(t, second, first)

	fresh := []domain.Record{record("2023-01-01", "B", 2)}
	s, ok := Reduce(s, SeriesLoaded{Token: second, Records: fresh})
	require.True(t, ok)

	s, ok = Reduce(s, SeriesLoaded{Token: first, Records: []domain.Record{record("2023-01-01", "A", 1)}})
	assert.False(t, ok)
	assert.Equal(t, fresh, s.Records)
}

func TestReduce_StaleComparisonDiscarded(t *testing.T) {
	s := InitialState(domain.MetricMean)
	s, _ = Reduce(s, BeginComparisonLoad{})
	old := s.ComparisonToken
	s, _ = Reduce(s, BeginComparisonLoad{})

	_, ok := Reduce(s, ComparisonLoaded{Token: old, Entries: []domain.RankEntry{{Municipality: "A"}}})
	assert.False(t, ok)
}

func TestReduce_SelectionActionsDoNotAlias(t *testing.T) {
	before := InitialState(domain.MetricMean)
	names := []string{"A", "B"}
	year := 2022

	after, _ := Reduce(before, SetMunicipalities{Names: names})
	after, _ = Reduce(after, SetYear{Year: &year})
	after, _ = Reduce(after, SetMetrics{Metrics: []domain.Metric{domain.MetricMax}})
	after, _ = Reduce(after, SetDateRange{Range: &domain.DateRange{Start: "2022-01-01", End: "2022-03-01"}})

	names[0] = "changed"
	year = 1999

	assert.Equal(t, []string{"A", "B"}, after.Selection.Municipalities)
	assert.Equal(t, 2022, *after.Selection.Year)
	assert.Equal(t, []domain.Metric{domain.MetricMax}, after.Selection.Metrics)
	assert.Equal(t, "2022-01-01", after.Selection.Range.Start)
	assert.Empty(t, before.Selection.Municipalities, "previous state untouched")

	after, _ = Reduce(after, SetYear{})
	assert.Nil(t, after.Selection.Year)
}

func TestReduce_ToggleMarkers(t *testing.T) {
	s, _ := Reduce(InitialState(domain.MetricMean), ToggleMarkers{})
	assert.False(t, s.ShowMarkers)
	s, _ = Reduce(s, ToggleMarkers{})
	assert.True(t, s.ShowMarkers)
}

func TestStore_SeriesLoadedResetsSlider(t *testing.T) {
	store := NewStore(domain.MetricMean)
	assert.True(t, store.Slider().Empty)
	assert.Equal(t, domain.NoDatesText, store.Slider().Placeholder)

	st, _ := store.Dispatch(BeginSeriesLoad{})
	records := []domain.Record{
		record("2023-03-01 00:00:00", "A", 3),
		record("2023-01-01 00:00:00", "A", 1),
		record("2023-02-01 00:00:00", "A", 2),
	}
	st, ok := store.Dispatch(SeriesLoaded{Token: st.SeriesToken, Records: records})
	require.True(t, ok)

	require.NotNil(t, st.Selection.Range)
	assert.Equal(t, domain.DateRange{Start: "2023-01-01", End: "2023-03-01"}, *st.Selection.Range)

	view := store.Slider()
	assert.Equal(t, []string{"2023-01-01", "2023-02-01", "2023-03-01"}, view.Dates)
	assert.Equal(t, 3, view.Count)

	low := 1
	view = store.MoveSlider(&low, nil)
	assert.Equal(t, "2023-02-01", view.Start)
	assert.Equal(t, 2, view.Count)
	assert.Len(t, store.Snapshot().FilteredRecords(), 2)
}

func TestStore_EmptyRecordsClearRange(t *testing.T) {
	store := NewStore(domain.MetricMean)
	st, _ := store.Dispatch(BeginSeriesLoad{})
	st, _ = store.Dispatch(SeriesLoaded{Token: st.SeriesToken, Records: []domain.Record{record("2023-01-01", "A", 1)}})
	require.NotNil(t, st.Selection.Range)

	st, _ = store.Dispatch(BeginSeriesLoad{})
	st, _ = store.Dispatch(SeriesLoaded{Token: st.SeriesToken})
	assert.Nil(t, st.Selection.Range)
	assert.True(t, store.Slider().Empty)
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	store := NewStore(domain.MetricMean)
	store.Dispatch(InitLoaded{Municipalities: []string{"A"}, Years: []int{2023}})

	snap := store.Snapshot()
	snap.Selection.Municipalities[0] = "mutated"
	snap.Municipalities[0] = "mutated"

	assert.Equal(t, []string{"A"}, store.Snapshot().Selection.Municipalities)
	assert.Equal(t, []string{"A"}, store.Snapshot().Municipalities)
}

func TestStateViews(t *testing.T) {
	s := InitialState(domain.MetricMean)
	s.Selection.Municipalities = []string{"A", "B"}
	s.Records = []domain.Record{
		record("2023-01-01", "A", 10),
		record("2023-01-01", "B", 30),
		record("2023-02-01", "A", 20),
	}
	s.Comparison = []domain.RankEntry{{Municipality: "B", Mean: 30}}

	charts := s.LineCharts()
	require.Len(t, charts, 1)
	assert.True(t, charts[0].Multi)
	assert.Len(t, charts[0].Rows, 2)

	assert.Equal(t, []domain.RankEntry{{Municipality: "B", Mean: 30}, {Municipality: "A", Mean: 15}},
		s.RankingFromRecords("", domain.RankOptions{}))
	assert.Equal(t, s.Comparison, s.Ranking())
	assert.Equal(t, 3, s.Summary().TotalRecords)
	assert.NotEmpty(t, s.Distribution(""))

	s.Selection.Range = &domain.DateRange{Start: "2023-02-01", End: "2023-02-01"}
	assert.Equal(t, 1, s.Summary().TotalRecords)
}
