package backend

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

// fakeSource records calls and returns canned responses.
type fakeSource struct {
	mu         sync.Mutex
	calls      map[string]int
	records    []domain.Record
	entries    []domain.RankEntry
	err        error
	failSeries map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(map[string]int)}
}

func (f *fakeSource) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeSource) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeSource) Health(context.Context) error {
	return f.record("health")
}

func (f *fakeSource) Municipalities(context.Context) ([]string, error) {
	return []string{"A", "B"}, f.record("municipios")
}

func (f *fakeSource) Years(context.Context) ([]int, error) {
	return []int{2024, 2023}, f.record("years")
}

func (f *fakeSource) MunicipalitySeries(_ context.Context, name string, _ *int) ([]domain.Record, error) {
	if err := f.record("series"); err != nil {
		return nil, err
	}
	if err := f.failSeries[name]; err != nil {
		return nil, err
	}
	return f.records, nil
}

func (f *fakeSource) Comparison(context.Context, domain.ComparisonQuery) ([]domain.RankEntry, error) {
	if err := f.record("comparison"); err != nil {
		return nil, err
	}
	return f.entries, nil
}

func (f *fakeSource) Download(context.Context, domain.DownloadQuery) (domain.Export, error) {
	if err := f.record("download"); err != nil {
		return domain.Export{}, err
	}
	return domain.Export{Filename: DefaultExportFilename, Body: io.NopCloser(strings.NewReader(""))}, nil
}
