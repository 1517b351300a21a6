package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
	testMunicipality  = "Benito Juárez"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) (*Client, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewClient(baseURL, 5*time.Second, nil, discardLogger(), m), m
}

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Health(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status":"ok"}`, func(r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
	})
	c, m := testClient(srv.URL)

	require.NoError(t, c.Health(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(m.BackendRequests.WithLabelValues("health", "success")), 0)
}

func TestClient_Health_Down(t *testing.T) {
	srv := jsonServer(t, http.StatusServiceUnavailable, ``, nil)
	c, _ := testClient(srv.URL)

	err := c.Health(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestClient_Health_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, m := testClient(url)
	require.Error(t, c.Health(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(m.BackendRequests.WithLabelValues("health", "error")), 0)
}

func TestClient_Municipalities(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"success":true,"municipios":["Benito Juárez","Coyoacán"]}`, nil)
	c, _ := testClient(srv.URL)

	got, err := c.Municipalities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{testMunicipality, "Coyoacán"}, got)
}

func TestClient_Municipalities_APIError(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"success":false,"error":"database locked"}`, nil)
	c, m := testClient(srv.URL)

	_, err := c.Municipalities(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "municipios", apiErr.Op)
	assert.Equal(t, "database locked", apiErr.Message)
	assert.True(t, IsLogical(err))
	assert.InDelta(t, 1, testutil.ToFloat64(m.BackendRequests.WithLabelValues("municipios", "api_error")), 0)
}

func TestClient_Years(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"success":true,"years":[2024,2023,2022]}`, nil)
	c, _ := testClient(srv.URL)

	got, err := c.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023, 2022}, got)
}

func TestClient_MunicipalitySeries(t *testing.T) {
	body := `{"success":true,"data":[
		{"Fecha":"2023-01-01 00:00:00","Municipio":"Benito Juárez","Media_de_radianza":31.5},
		{"Fecha":"2023-02-01 00:00:00","Municipio":"Benito Juárez","Media_de_radianza":null}
	]}`
	srv := jsonServer(t, http.StatusOK, body, func(r *http.Request) {
		assert.Equal(t, "/municipio/"+testMunicipality, r.URL.Path)
		assert.Equal(t, "2023", r.URL.Query().Get("year"))
	})
	c, _ := testClient(srv.URL)

	year := 2023
	got, err := c.MunicipalitySeries(context.Background(), testMunicipality, &year)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Value(31.5), got[0].Value(domain.MetricMean))
	assert.False(t, got[1].Value(domain.MetricMean).Valid)
}

func TestClient_MunicipalitySeries_NoYear(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"success":true,"data":[]}`, func(r *http.Request) {
		assert.False(t, r.URL.Query().Has("year"))
	})
	c, _ := testClient(srv.URL)

	got, err := c.MunicipalitySeries(context.Background(), "Tlalpan", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_Comparison(t *testing.T) {
	body := `{"success":true,"data":[{"municipio":"Coyoacán","promedio":"12.5"},{"municipio":"Tlalpan","promedio":7}]}`
	srv := jsonServer(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/comparison", r.URL.Path)
		assert.Equal(t, string(domain.MetricMax), q.Get("metric"))
		assert.Equal(t, "10", q.Get("top"))
		assert.Equal(t, "2022", q.Get("year"))
	})
	c, _ := testClient(srv.URL)

	year := 2022
	got, err := c.Comparison(context.Background(), domain.ComparisonQuery{Metric: domain.MetricMax, Top: 10, Year: &year})
	require.NoError(t, err)
	assert.Equal(t, []domain.RankEntry{{Municipality: "Coyoacán", Mean: 12.5}, {Municipality: "Tlalpan", Mean: 7}}, got)
}

func TestClient_StatusErrorCarriesBackendMessage(t *testing.T) {
	srv := jsonServer(t, http.StatusInternalServerError, `{"success":false,"error":"boom","traceback":"..."}`, nil)
	c, _ := testClient(srv.URL)

	_, err := c.Years(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "boom", statusErr.Message)
	assert.False(t, IsLogical(err), "5xx counts against backend health")
}

func TestClient_MalformedBody(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `<html>`, nil)
	c, _ := testClient(srv.URL)

	_, err := c.Municipalities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode municipios response")
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, []string{"Coyoacán", "Tlalpan"}, q["municipios"])
		assert.Equal(t, "2023", q.Get("year"))
		assert.Equal(t, "2023-01-01", q.Get("from"))
		assert.Equal(t, "2023-06-30", q.Get("to"))
		w.Header().Set(headerContentType, "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="radianza_2023.csv"`)
		_, _ = io.WriteString(w, "Fecha,Municipio\n")
	}))
	defer srv.Close()
	c, _ := testClient(srv.URL)

	year := 2023
	export, err := c.Download(context.Background(), domain.DownloadQuery{
		Municipalities: []string{"Coyoacán", "Tlalpan"},
		Year:           &year,
		From:           "2023-01-01",
		To:             "2023-06-30",
	})
	require.NoError(t, err)
	defer export.Body.Close()

	assert.Equal(t, "radianza_2023.csv", export.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", export.ContentType)
	body, err := io.ReadAll(export.Body)
	require.NoError(t, err)
	assert.Equal(t, "Fecha,Municipio\n", string(body))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, DefaultExportFilename, exportFilename(""))
	assert.Equal(t, DefaultExportFilename, exportFilename("attachment"))
	assert.Equal(t, "a.csv", exportFilename("attachment; filename=a.csv"))
	assert.Equal(t, "b c.csv", exportFilename(`attachment; filename="b c.csv"`))
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, nil, discardLogger(), observability.NewMetricsForTesting())
	_, err := c.Years(context.Background())
	require.Error(t, err)
	assert.False(t, IsLogical(err))
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"success":true,"years":[]}`, nil)
	c, _ := testClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Years(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
