package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/radiance-dashboard/internal/domain"
	"github.com/couchcryptid/radiance-dashboard/internal/observability"
)

// DefaultExportFilename is used when the backend sends no Content-Disposition.
const DefaultExportFilename = "datos_radianza.csv"

// Client implements domain.RadianceSource against the radiance REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a backend client. A nil limiter disables rate limiting.
func NewClient(baseURL string, timeout time.Duration, limiter *rate.Limiter, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
}

// envelope is the shape shared by every JSON endpoint.
type envelope struct {
	Success        bool            `json:"success"`
	Error          string          `json:"error"`
	Municipalities []string        `json:"municipios"`
	Years          []int           `json:"years"`
	Data           json.RawMessage `json:"data"`
}

// Health returns nil on any 2xx answer from /health.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, "health", "/health", nil)
	if err != nil {
		return err
	}
	c.metrics.BackendRequests.WithLabelValues("health", "success").Inc()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Municipalities lists every municipality with data.
func (c *Client) Municipalities(ctx context.Context) ([]string, error) {
	env, err := c.getJSON(ctx, "municipios", "/municipios", nil)
	if err != nil {
		return nil, err
	}
	return env.Municipalities, nil
}

// Years lists the available years, most recent first.
func (c *Client) Years(ctx context.Context) ([]int, error) {
	env, err := c.getJSON(ctx, "years", "/years", nil)
	if err != nil {
		return nil, err
	}
	return env.Years, nil
}

// MunicipalitySeries returns one municipality's records, optionally
// restricted to a year.
func (c *Client) MunicipalitySeries(ctx context.Context, name string, year *int) ([]domain.Record, error) {
	params := url.Values{}
	setYear(params, year)

	env, err := c.getJSON(ctx, "series", "/municipio/"+url.PathEscape(name), params)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	if err := decodeData(env.Data, &records); err != nil {
		return nil, fmt.Errorf("decode series for %q: %w", name, err)
	}
	return records, nil
}

// Comparison returns the backend's per-municipality means for one metric.
func (c *Client) Comparison(ctx context.Context, q domain.ComparisonQuery) ([]domain.RankEntry, error) {
	params := url.Values{
		"metric": {string(q.Metric)},
		"top":    {strconv.Itoa(q.Top)},
	}
	setYear(params, q.Year)

	env, err := c.getJSON(ctx, "comparison", "/comparison", params)
	if err != nil {
		return nil, err
	}
	var entries []domain.RankEntry
	if err := decodeData(env.Data, &entries); err != nil {
		return nil, fmt.Errorf("decode comparison: %w", err)
	}
	return entries, nil
}

// Download streams the CSV export for q. The caller must close Body.
func (c *Client) Download(ctx context.Context, q domain.DownloadQuery) (domain.Export, error) {
	params := url.Values{}
	for _, m := range q.Municipalities {
		params.Add("municipios", m)
	}
	setYear(params, q.Year)
	if q.From != "" {
		params.Set("from", q.From)
	}
	if q.To != "" {
		params.Set("to", q.To)
	}

	resp, err := c.do(ctx, "download", "/download", params)
	if err != nil {
		return domain.Export{}, err
	}
	c.metrics.BackendRequests.WithLabelValues("download", "success").Inc()
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}
	return domain.Export{
		Filename:    exportFilename(resp.Header.Get("Content-Disposition")),
		ContentType: contentType,
		Body:        resp.Body,
	}, nil
}

// do issues a GET and returns the response on 2xx. Any other status is
// turned into a *StatusError and the body is closed.
func (c *Client) do(ctx context.Context, op, path string, params url.Values) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit: %w", op, err)
		}
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		c.metrics.BackendRequests.WithLabelValues(op, "error").Inc()
		c.logger.Debug("backend non-2xx", "op", op, "status", resp.StatusCode)
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorField(body)}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values) (envelope, error) {
	resp, err := c.do(ctx, op, path, params)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.metrics.BackendRequests.WithLabelValues(op, "error").Inc()
		return envelope{}, fmt.Errorf("decode %s response: %w", op, err)
	}
	if !env.Success {
		c.metrics.BackendRequests.WithLabelValues(op, "api_error").Inc()
		return envelope{}, &APIError{Op: op, Message: env.Error}
	}
	c.metrics.BackendRequests.WithLabelValues(op, "success").Inc()
	return env, nil
}

func decodeData(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func errorField(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func setYear(params url.Values, year *int) {
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}
}

// exportFilename extracts the filename parameter from a Content-Disposition
// header, falling back to DefaultExportFilename.
func exportFilename(header string) string {
	if header == "" {
		return DefaultExportFilename
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil || params["filename"] == "" {
		return DefaultExportFilename
	}
	return params["filename"]
}
