// Package loader produces the authoritative set of warehouses, preferring the
// published sheet and degrading to a built-in fallback table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/observability"
	"github.com/couchcryptid/warehouse-directory/internal/sheetcsv"
	"github.com/google/uuid"
)

// Fetcher retrieves the raw CSV text of the published sheet.
type Fetcher interface {
	FetchCSV(ctx context.Context) (string, error)
}

// Fallback reasons, used as log values and metric labels.
const (
	ReasonTransport = "transport"
	ReasonStatus    = "status"
	ReasonErrorPage = "error_page"
	ReasonEmpty     = "empty"
)

// Result is the outcome of a load. It always carries usable warehouses.
type Result struct {
	Warehouses []domain.Warehouse
	Source     domain.Source
	// Reason is the failure that caused the fallback; nil for remote results.
	Reason error
	LoadID string
}

// Loader fetches, parses, and normalizes the sheet. It holds no mutable
// state, so concurrent loads are independent.
type Loader struct {
	source   Fetcher
	fallback []domain.RawRow
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Loader. A nil or empty fallback uses domain.DefaultFallback.
// A nil logger uses slog.Default and nil metrics are left unregistered.
func New(source Fetcher, fallback []domain.RawRow, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewUnregisteredMetrics()
	}
	if len(fallback) == 0 {
		fallback = domain.DefaultFallback()
	}
	rows := make([]domain.RawRow, len(fallback))
	copy(rows, fallback)

	return &Loader{
		source:   source,
		fallback: rows,
		logger:   logger,
		metrics:  metrics,
	}
}

// LoadAll returns the current warehouses. It never fails.
func (l *Loader) LoadAll(ctx context.Context) []domain.Warehouse {
	return l.Load(ctx).Warehouses
}

// Load returns either every valid record from the sheet or the whole
// fallback table, never a mix. Failures are logged, not returned.
func (l *Loader) Load(ctx context.Context) Result {
	loadID := uuid.NewString()
	logger := l.logger.With("load_id", loadID)

	warehouses, err := l.loadRemote(ctx, logger)
	if err != nil {
		reason := Classify(err)
		logger.Warn("sheet sync failed, using offline fallback data",
			"reason", reason,
			"error", err,
			"fallback_records", len(l.fallback),
		)
		l.metrics.Fallbacks.WithLabelValues(reason).Inc()
		l.metrics.Loads.WithLabelValues(string(domain.SourceFallback)).Inc()
		return Result{
			Warehouses: domain.FromRows(l.fallback),
			Source:     domain.SourceFallback,
			Reason:     err,
			LoadID:     loadID,
		}
	}

	logger.Info("sheet loaded", "records", len(warehouses))
	l.metrics.Loads.WithLabelValues(string(domain.SourceRemote)).Inc()
	return Result{
		Warehouses: warehouses,
		Source:     domain.SourceRemote,
		LoadID:     loadID,
	}
}

func (l *Loader) loadRemote(ctx context.Context, logger *slog.Logger) ([]domain.Warehouse, error) {
	body, err := l.source.FetchCSV(ctx)
	if err != nil {
		return nil, err
	}

	if domain.LooksLikeErrorPage(body) {
		if title := pageTitle(body); title != "" {
			logger.Warn("sheet returned an HTML page; publish the sheet to the web", "page_title", title)
		}
		return nil, domain.ErrErrorPage
	}

	rows := sheetcsv.Parse(body)
	warehouses := domain.Normalize(rows)
	if len(warehouses) == 0 {
		return nil, fmt.Errorf("%w: %d rows parsed", domain.ErrNoRecords, len(rows))
	}
	return warehouses, nil
}

// Classify maps a load failure to its fallback reason.
func Classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrErrorPage):
		return ReasonErrorPage
	case errors.Is(err, domain.ErrNoRecords):
		return ReasonEmpty
	case errors.Is(err, domain.ErrSourceStatus):
		return ReasonStatus
	default:
		return ReasonTransport
	}
}

// pageTitle extracts the <title> of an HTML error page for diagnostics.
func pageTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
