package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/radiance-dashboard/internal/dashboard"
	"github.com/couchcryptid/radiance-dashboard/internal/domain"
)

const maxBodyBytes = 64 << 10

// --- request bodies ---

type municipalitiesRequest struct {
	Municipalities []string `json:"municipalities" validate:"dive,required,max=200"`
}

type toggleMunicipalityRequest struct {
	Name string `json:"name" validate:"required_without=All,max=200"`
	All  bool   `json:"all"`
}

type metricsRequest struct {
	Metrics []string `json:"metrics" validate:"dive,required"`
}

type toggleMetricRequest struct {
	Metric string `json:"metric" validate:"required_without=All"`
	All    bool   `json:"all"`
}

type yearRequest struct {
	Year *int `json:"year" validate:"omitempty,min=1900,max=2100"`
}

type sliderRequest struct {
	Low  *int `json:"low" validate:"required_without=High"`
	High *int `json:"high" validate:"required_without=Low"`
}

// --- responses ---

type selectionDisplay struct {
	Municipalities string `json:"municipalities"`
	Metrics        string `json:"metrics"`
	Year           string `json:"year"`
}

type stateResponse struct {
	Municipalities []string            `json:"municipalities"`
	Years          []int               `json:"years"`
	MetricOptions  []domain.MetricInfo `json:"metric_options"`
	Selection      domain.Selection    `json:"selection"`
	Display        selectionDisplay    `json:"display"`
	RecordCount    int                 `json:"record_count"`
	ShowMarkers    bool                `json:"show_markers"`
	Loading        bool                `json:"loading"`
	Ready          bool                `json:"ready"`
	Error          string              `json:"error,omitempty"`
}

func newStateResponse(st dashboard.State) stateResponse {
	return stateResponse{
		Municipalities: nonNil(st.Municipalities),
		Years:          nonNil(st.Years),
		MetricOptions:  domain.Metrics,
		Selection:      st.Selection,
		Display: selectionDisplay{
			Municipalities: domain.MunicipalitiesText(st.Selection.Municipalities, st.Municipalities),
			Metrics:        domain.MetricsText(st.Selection.Metrics),
			Year:           domain.YearText(st.Selection.Year),
		},
		RecordCount: len(st.Records),
		ShowMarkers: st.ShowMarkers,
		Loading:     st.Loading,
		Ready:       st.Ready,
		Error:       st.Err,
	}
}

// --- state and selection ---

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.dash.Snapshot()))
}

func (s *Server) handleSelectMunicipalities(w http.ResponseWriter, r *http.Request) {
	var req municipalitiesRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := s.dash.SelectMunicipalities(r.Context(), req.Municipalities)
	s.writeState(w, st, err)
}

func (s *Server) handleToggleMunicipality(w http.ResponseWriter, r *http.Request) {
	var req toggleMunicipalityRequest
	if !s.decode(w, r, &req) {
		return
	}
	var (
		st  dashboard.State
		err error
	)
	if req.All {
		st, err = s.dash.ToggleAllMunicipalities(r.Context())
	} else {
		st, err = s.dash.ToggleMunicipality(r.Context(), req.Name)
	}
	s.writeState(w, st, err)
}

func (s *Server) handleSelectMetrics(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if !s.decode(w, r, &req) {
		return
	}
	metrics := make([]domain.Metric, 0, len(req.Metrics))
	for _, key := range req.Metrics {
		m, ok := domain.ParseMetric(key)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown metric %q", key))
			return
		}
		metrics = append(metrics, m)
	}
	st, err := s.dash.SelectMetrics(r.Context(), metrics)
	s.writeState(w, st, err)
}

func (s *Server) handleToggleMetric(w http.ResponseWriter, r *http.Request) {
	var req toggleMetricRequest
	if !s.decode(w, r, &req) {
		return
	}
	var (
		st  dashboard.State
		err error
	)
	if req.All {
		st, err = s.dash.ToggleAllMetrics(r.Context())
	} else {
		m, ok := domain.ParseMetric(req.Metric)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown metric %q", req.Metric))
			return
		}
		st, err = s.dash.ToggleMetric(r.Context(), m)
	}
	s.writeState(w, st, err)
}

func (s *Server) handleSelectYear(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := s.dash.SelectYear(r.Context(), req.Year)
	s.writeState(w, st, err)
}

func (s *Server) handleToggleMarkers(w http.ResponseWriter, _ *http.Request) {
	st := s.dash.ToggleMarkers()
	writeJSON(w, http.StatusOK, map[string]bool{"show_markers": st.ShowMarkers})
}

// --- slider ---

func (s *Server) handleSlider(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Slider())
}

func (s *Server) handleMoveSlider(w http.ResponseWriter, r *http.Request) {
	var req sliderRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.dash.MoveSlider(r.Context(), req.Low, req.High))
}

// --- views ---

type seriesResponse struct {
	ShowMarkers bool               `json:"show_markers"`
	Faceted     bool               `json:"faceted"`
	Charts      []domain.LineChart `json:"charts"`
}

func (s *Server) handleSeriesCharts(w http.ResponseWriter, _ *http.Request) {
	st := s.dash.Snapshot()
	charts := st.LineCharts()
	writeJSON(w, http.StatusOK, seriesResponse{
		ShowMarkers: st.ShowMarkers,
		Faceted:     len(charts) > 1,
		Charts:      charts,
	})
}

type distributionResponse struct {
	Metric domain.Metric `json:"metric"`
	Label  string        `json:"label"`
	Bands  []domain.Band `json:"bands"`
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	st := s.dash.Snapshot()
	metric, ok := metricParam(w, r, st)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, distributionResponse{
		Metric: metric,
		Label:  metric.Label(),
		Bands:  nonNil(st.Distribution(metric)),
	})
}

type rankingResponse struct {
	Source  string             `json:"source"`
	Metric  domain.Metric      `json:"metric"`
	Label   string             `json:"label"`
	Entries []domain.RankEntry `json:"entries"`
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	st := s.dash.Snapshot()
	metric, ok := metricParam(w, r, st)
	if !ok {
		return
	}

	resp := rankingResponse{Metric: metric, Label: metric.Label()}
	switch source := r.URL.Query().Get("source"); source {
	case "", "backend":
		// The backend ranking is loaded for the primary metric only.
		if primary := st.Selection.PrimaryMetric(); metric != primary {
			writeError(w, http.StatusBadRequest, fmt.Sprintf(
				"metric %q does not match the selected metric %q; use source=records to rank another metric", metric, primary))
			return
		}
		resp.Source = "backend"
		resp.Entries = st.Ranking()
	case "records":
		resp.Source = source
		resp.Entries = st.RankingFromRecords(metric, domain.RankOptions{
			SkipMissing: r.URL.Query().Get("skip_missing") == "true",
		})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown ranking source %q", source))
		return
	}
	resp.Entries = nonNil(resp.Entries)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Snapshot().Summary())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	export, err := s.dash.Download(r.Context())
	if err != nil {
		s.logger.Error("download failed", "error", err)
		writeError(w, http.StatusBadGateway, "download failed: "+err.Error())
		return
	}
	defer export.Body.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, export.Body); err != nil {
		s.logger.Warn("download stream interrupted", "error", err)
	}
}

// --- helpers ---

func metricParam(w http.ResponseWriter, r *http.Request, st dashboard.State) (domain.Metric, bool) {
	key := r.URL.Query().Get("metric")
	if key == "" {
		return st.Selection.PrimaryMetric(), true
	}
	m, ok := domain.ParseMetric(key)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown metric %q", key))
	}
	return m, ok
}

// decode reads a JSON body into v and validates it, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeState(w http.ResponseWriter, st dashboard.State, err error) {
	if err != nil {
		var unknown *dashboard.UnknownMunicipalityError
		switch {
		case errors.As(err, &unknown):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, dashboard.ErrNotReady):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("selection update failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
