package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/observability"
)

// maxBodyBytes caps the CSV body. A contact sheet is a few kilobytes.
const maxBodyBytes = 8 << 20

// ErrBodyTooLarge is returned when the sheet body exceeds the size cap. A
// truncated body is never returned.
var ErrBodyTooLarge = errors.New("sheet body too large")

// PublishedCSVURL builds the CSV export URL of a sheet that has been
// published to the web.
func PublishedCSVURL(host, spreadsheetID, sheetName string) string {
	return fmt.Sprintf("https://%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		host, url.PathEscape(spreadsheetID), url.QueryEscape(sheetName))
}

// Client fetches a published sheet as CSV text.
// It implements loader.Fetcher.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a sheet client for the given export URL.
func NewClient(sheetURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		url: sheetURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// URL returns the export URL the client reads from.
func (c *Client) URL() string { return c.url }

// FetchCSV performs a single GET and returns the body. Non-2xx responses
// wrap domain.ErrSourceStatus. The body is returned as-is; deciding whether
// it is really CSV is the caller's job.
func (c *Client) FetchCSV(ctx context.Context) (string, error) {
	start := time.Now()
	defer func() {
		c.metrics.SheetFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.metrics.SheetFetches.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.SheetFetches.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("sheet request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.SheetFetches.WithLabelValues("status_error").Inc()
		return "", fmt.Errorf("%w: status %d", domain.ErrSourceStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		c.metrics.SheetFetches.WithLabelValues("read_error").Inc()
		return "", fmt.Errorf("read sheet body: %w", err)
	}
	if len(body) > maxBodyBytes {
		c.metrics.SheetFetches.WithLabelValues("read_error").Inc()
		return "", fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, maxBodyBytes)
	}

	c.metrics.SheetFetches.WithLabelValues("success").Inc()
	c.logger.Debug("sheet fetched",
		"bytes", len(body),
		"content_type", resp.Header.Get("Content-Type"),
		"duration", time.Since(start),
	)
	return string(body), nil
}
