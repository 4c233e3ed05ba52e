// Package directory keeps the current warehouse snapshot in memory and serves
// lookups against it.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/loader"
	"github.com/couchcryptid/warehouse-directory/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// Loader produces a complete set of warehouses. It must not fail.
type Loader interface {
	Load(ctx context.Context) loader.Result
}

// Publisher receives every snapshot whose content differs from the last one
// it accepted.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Status describes the snapshot currently being served.
type Status struct {
	Count          int           `json:"count"`
	Source         domain.Source `json:"source"`
	Fingerprint    string        `json:"fingerprint"`
	LoadedAt       time.Time     `json:"loaded_at"`
	LoadID         string        `json:"load_id"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
}

type snapshot struct {
	domain.Snapshot
	index  map[string]int // lookup key -> first matching position
	status Status
}

// Directory holds the latest snapshot and refreshes it on an interval.
type Directory struct {
	loader    Loader
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	timeout   time.Duration

	current atomic.Pointer[snapshot]
	group   singleflight.Group

	mu            sync.Mutex
	lastPublished string
}

const defaultRefreshTimeout = time.Minute

// Option configures a Directory.
type Option func(*Directory)

// WithClock sets the time source used for timestamps and the refresh ticker.
func WithClock(c clockwork.Clock) Option {
	return func(d *Directory) { d.clock = c }
}

// WithInterval sets the refresh period. Zero or negative loads once.
func WithInterval(interval time.Duration) Option {
	return func(d *Directory) { d.interval = interval }
}

// WithRefreshTimeout bounds a single refresh, including publishing.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(d *Directory) { d.timeout = timeout }
}

// New creates a Directory. Pass a nil publisher to disable the change feed.
func New(l Loader, p Publisher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Directory {
	d := &Directory{
		loader:    l,
		publisher: p,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		timeout:   defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Refresh loads a new snapshot and swaps it in. Concurrent calls share one
// load. The load is detached from ctx cancellation and bounded by the refresh
// timeout instead, so a caller going away cannot replace a good snapshot with
// the fallback table.
func (d *Directory) Refresh(ctx context.Context) Status {
	v, _, _ := d.group.Do("refresh", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.refresh(loadCtx), nil
	})
	return v.(Status)
}

func (d *Directory) refresh(ctx context.Context) Status {
	res := d.loader.Load(ctx)
	snap := newSnapshot(res, d.clock.Now())
	d.current.Store(snap)
	d.metrics.RecordsLoaded.Set(float64(len(snap.Warehouses)))

	d.logger.Info("directory refreshed",
		"load_id", snap.status.LoadID,
		"source", snap.Source,
		"records", len(snap.Warehouses),
		"fingerprint", snap.Fingerprint,
	)

	d.publish(ctx, snap.Snapshot)
	return snap.status
}

func (d *Directory) publish(ctx context.Context, snap domain.Snapshot) {
	if d.publisher == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if snap.Fingerprint == d.lastPublished {
		return
	}
	if err := d.publisher.PublishSnapshot(ctx, snap); err != nil {
		d.logger.Error("publish snapshot failed", "error", err, "fingerprint", snap.Fingerprint)
		d.metrics.PublishErrors.Inc()
		return
	}
	d.lastPublished = snap.Fingerprint
	d.metrics.SnapshotsPublished.Inc()
}

func newSnapshot(res loader.Result, now time.Time) *snapshot {
	warehouses := make([]domain.Warehouse, len(res.Warehouses))
	copy(warehouses, res.Warehouses)

	index := make(map[string]int, len(warehouses))
	for i, w := range warehouses {
		key := domain.LookupKey(w.ID)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	snap := &snapshot{
		Snapshot: domain.Snapshot{
			Warehouses:  warehouses,
			Source:      res.Source,
			Fingerprint: domain.Fingerprint(warehouses),
			LoadedAt:    now,
		},
		index: index,
	}
	snap.status = Status{
		Count:       len(warehouses),
		Source:      res.Source,
		Fingerprint: snap.Fingerprint,
		LoadedAt:    now,
		LoadID:      res.LoadID,
	}
	if res.Reason != nil {
		snap.status.FallbackReason = loader.Classify(res.Reason)
	}
	return snap
}

// Lookup returns the first warehouse whose id matches, ignoring case and the
// query's surrounding whitespace.
func (d *Directory) Lookup(id string) (domain.Warehouse, bool) {
	snap := d.current.Load()
	key := domain.LookupKey(strings.TrimSpace(id))
	if snap == nil || key == "" {
		d.metrics.Lookups.WithLabelValues("miss").Inc()
		return domain.Warehouse{}, false
	}

	i, ok := snap.index[key]
	if !ok {
		d.metrics.Lookups.WithLabelValues("miss").Inc()
		return domain.Warehouse{}, false
	}
	d.metrics.Lookups.WithLabelValues("hit").Inc()
	return snap.Warehouses[i], true
}

// All returns a copy of every warehouse in the current snapshot.
func (d *Directory) All() []domain.Warehouse {
	snap := d.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]domain.Warehouse, len(snap.Warehouses))
	copy(out, snap.Warehouses)
	return out
}

// Status describes the current snapshot. The zero Status means nothing has
// been loaded yet.
func (d *Directory) Status() Status {
	snap := d.current.Load()
	if snap == nil {
		return Status{}
	}
	return snap.status
}

// CheckReadiness returns nil once a snapshot has been loaded.
func (d *Directory) CheckReadiness(_ context.Context) error {
	if d.current.Load() == nil {
		return errors.New("directory has not loaded any warehouses yet")
	}
	return nil
}

// Run loads immediately, then refreshes on every interval tick until the
// context is cancelled.
func (d *Directory) Run(ctx context.Context) error {
	d.logger.Info("directory started", "refresh_interval", d.interval)
	d.metrics.RefreshRunning.Set(1)
	defer d.metrics.RefreshRunning.Set(0)

	d.Refresh(ctx)

	if d.interval <= 0 {
		<-ctx.Done()
		d.logger.Info("directory stopping", "reason", ctx.Err())
		return nil
	}

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("directory stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			d.Refresh(ctx)
		}
	}
}
