package eydap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/reservoir-levels-service/internal/domain"
	"github.com/couchcryptid/reservoir-levels-service/internal/observability"
)

// DefaultBaseURL is the public EYDAP open-data savings endpoint.
const DefaultBaseURL = "https://opendata-api-eydap.growthfund.gr/api/Savings"

// anchorLayout is the DD-MM-YYYY form expected in the request path.
const anchorLayout = "02-01-2006"

// maxBodyBytes caps how much of a yearly dataset is read.
const maxBodyBytes = 32 << 20

// Client fetches yearly reservoir datasets from the EYDAP open-data API.
// It implements pipeline.YearFetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an API client. Each request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// YearURL builds the dataset URL for the year containing anchor.
func (c *Client) YearURL(anchor time.Time) string {
	return fmt.Sprintf("%s/Year/%s", c.baseURL, anchor.Format(anchorLayout))
}

// FetchYear retrieves the dataset anchored at the given date. A non-2xx
// status, transport failure or undecodable body is returned as an error; the
// caller decides whether that is fatal.
func (c *Client) FetchYear(ctx context.Context, anchor time.Time) ([]domain.RawRecord, error) {
	u := c.YearURL(anchor)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch year %s: %w", anchor.Format(anchorLayout), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.UpstreamRequests.WithLabelValues("bad_status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("eydap API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("decode_error").Inc()
		return nil, err
	}

	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	c.logger.Debug("fetched yearly dataset", "url", u, "records", len(records))
	return records, nil
}

// decodeRecords accepts either a single JSON object or an array of objects.
// Array elements that are not objects are skipped. A JSON null decodes to no
// records.
func decodeRecords(body []byte) ([]domain.RawRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	switch body[0] {
	case '{':
		var rec domain.RawRecord
		if err := unmarshalNumbers(body, &rec); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return []domain.RawRecord{rec}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		records := make([]domain.RawRecord, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				continue
			}
			var rec domain.RawRecord
			if err := unmarshalNumbers(item, &rec); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			records = append(records, rec)
		}
		return records, nil
	case 'n':
		if string(body) == "null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("decode response: unexpected payload starting with %q", body[0])
}

// unmarshalNumbers decodes with json.Number so readings keep their textual form.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
