package dashboard

import "github.com/couchcryptid/radiance-dashboard/internal/domain"

// LineCharts builds one chart per selected metric over the filtered records.
func (s State) LineCharts() []domain.LineChart {
	return domain.BuildLineCharts(s.FilteredRecords(), s.Selection)
}

// Distribution buckets metric over the filtered records. An empty metric
// means the primary selected metric.
func (s State) Distribution(metric domain.Metric) []domain.Band {
	if metric == "" {
		metric = s.Selection.PrimaryMetric()
	}
	return domain.Distribution(s.FilteredRecords(), metric)
}

// Ranking returns the backend's pre-aggregated comparison.
func (s State) Ranking() []domain.RankEntry {
	return domain.RankPreAggregated(s.Comparison)
}

// RankingFromRecords ranks municipalities by averaging metric over the
// filtered records.
func (s State) RankingFromRecords(metric domain.Metric, opts domain.RankOptions) []domain.RankEntry {
	if metric == "" {
		metric = s.Selection.PrimaryMetric()
	}
	return domain.RankRecords(s.FilteredRecords(), metric, opts)
}

// Summary computes the statistic cards over the filtered records.
func (s State) Summary() domain.Summary {
	return domain.Summarize(s.FilteredRecords())
}
