package directory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/warehouse-directory/internal/directory"
	"github.com/couchcryptid/warehouse-directory/internal/domain"
	"github.com/couchcryptid/warehouse-directory/internal/loader"
	"github.com/couchcryptid/warehouse-directory/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLoader struct {
	mu      sync.Mutex
	results []loader.Result
	calls   atomic.Int64
	gate    chan struct{} // when set, Load blocks until it is closed
}

func (m *mockLoader) Load(_ context.Context) loader.Result {
	if m.gate != nil {
		<-m.gate
	}
	n := int(m.calls.Add(1)) - 1

	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= len(m.results) {
		n = len(m.results) - 1
	}
	return m.results[n]
}

// ctxLoader falls back when its context is done, like the real loader does
// when the sheet fetch is cancelled.
type ctxLoader struct {
	calls atomic.Int64
	good  loader.Result
	// deadline records whether the context passed to Load had one.
	deadline atomic.Bool
}

func (c *ctxLoader) Load(ctx context.Context) loader.Result {
	c.calls.Add(1)
	_, ok := ctx.Deadline()
	c.deadline.Store(ok)
	if ctx.Err() != nil {
		res := fallback()
		res.Reason = ctx.Err()
		return res
	}
	return c.good
}

type mockPublisher struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
	err   error
}

func (m *mockPublisher) PublishSnapshot(_ context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *mockPublisher) published() []domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Snapshot(nil), m.snaps...)
}

func remote(ws ...domain.Warehouse) loader.Result {
	return loader.Result{Warehouses: ws, Source: domain.SourceRemote, LoadID: "load-remote"}
}

func fallback() loader.Result {
	return loader.Result{
		Warehouses: domain.FromRows(domain.DefaultFallback()),
		Source:     domain.SourceFallback,
		Reason:     domain.ErrErrorPage,
		LoadID:     "load-fallback",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestDirectory_NotReadyBeforeFirstLoad(t *testing.T) {
	d := directory.New(&mockLoader{results: []loader.Result{fallback()}}, nil, discardLogger(), observability.NewMetricsForTesting())

	require.Error(t, d.CheckReadiness(context.Background()))
	assert.Equal(t, directory.Status{}, d.Status())
	assert.Nil(t, d.All())

	_, ok := d.Lookup("WH001")
	assert.False(t, ok)
}

func TestDirectory_RefreshAndLookup(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	ml := &mockLoader{results: []loader.Result{remote(
		domain.Warehouse{ID: "WH010", City: "Denver CO"},
		domain.Warehouse{ID: "wh010", City: "Duplicate"},
		domain.Warehouse{ID: "WH011", City: "Boulder CO"},
	)}}
	d := directory.New(ml, nil, discardLogger(), metrics, directory.WithClock(clock))

	status := d.Refresh(context.Background())

	require.NoError(t, d.CheckReadiness(context.Background()))
	assert.Equal(t, 3, status.Count)
	assert.Equal(t, domain.SourceRemote, status.Source)
	assert.Equal(t, clock.Now(), status.LoadedAt)
	assert.Equal(t, "load-remote", status.LoadID)
	assert.Empty(t, status.FallbackReason)
	assert.Equal(t, status, d.Status())

	w, ok := d.Lookup("  wh010 ")
	require.True(t, ok)
	assert.Equal(t, "Denver CO", w.City, "first match wins")

	_, ok = d.Lookup("WH999")
	assert.False(t, ok)
	_, ok = d.Lookup("   ")
	assert.False(t, ok)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Lookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Lookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RecordsLoaded), 0)
}

func TestDirectory_FallbackStatus(t *testing.T) {
	d := directory.New(&mockLoader{results: []loader.Result{fallback()}}, nil, discardLogger(), observability.NewMetricsForTesting())

	status := d.Refresh(context.Background())

	assert.Equal(t, domain.SourceFallback, status.Source)
	assert.Equal(t, loader.ReasonErrorPage, status.FallbackReason)
	assert.Equal(t, 5, status.Count)

	w, ok := d.Lookup("wh004")
	require.True(t, ok)
	assert.Equal(t, "Houston, TX", w.City)
}

func TestDirectory_AllReturnsCopy(t *testing.T) {
	d := directory.New(&mockLoader{results: []loader.Result{remote(domain.Warehouse{ID: "WH001", City: "Austin"})}}, nil, discardLogger(), observability.NewMetricsForTesting())
	d.Refresh(context.Background())

	all := d.All()
	all[0].City = "Changed"

	w, ok := d.Lookup("WH001")
	require.True(t, ok)
	assert.Equal(t, "Austin", w.City)
}

func TestDirectory_PublishesOnlyChangedSnapshots(t *testing.T) {
	a := remote(domain.Warehouse{ID: "WH001", City: "Austin"})
	b := remote(domain.Warehouse{ID: "WH001", City: "Dallas"})
	ml := &mockLoader{results: []loader.Result{a, a, b}}
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()
	d := directory.New(ml, pub, discardLogger(), metrics)

	d.Refresh(context.Background())
	d.Refresh(context.Background())
	d.Refresh(context.Background())

	snaps := pub.published()
	require.Len(t, snaps, 2)
	assert.Equal(t, "Austin", snaps[0].Warehouses[0].City)
	assert.Equal(t, "Dallas", snaps[1].Warehouses[0].City)
	assert.NotEqual(t, snaps[0].Fingerprint, snaps[1].Fingerprint)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SnapshotsPublished), 0)
}

func TestDirectory_PublishFailureIsRetriedNextRefresh(t *testing.T) {
	a := remote(domain.Warehouse{ID: "WH001"})
	pub := &mockPublisher{err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()
	d := directory.New(&mockLoader{results: []loader.Result{a}}, pub, discardLogger(), metrics)

	d.Refresh(context.Background())
	require.NoError(t, d.CheckReadiness(context.Background()), "publish failures do not block serving")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()

	d.Refresh(context.Background())
	assert.Len(t, pub.published(), 1)
}

func TestDirectory_ConcurrentRefreshesShareOneLoad(t *testing.T) {
	ml := &mockLoader{results: []loader.Result{fallback()}, gate: make(chan struct{})}
	d := directory.New(ml, nil, discardLogger(), observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	statuses := make([]directory.Status, 5)
	for i := range statuses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i] = d.Refresh(context.Background())
		}()
	}

	// Give every goroutine a chance to join the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(ml.gate)
	wg.Wait()

	assert.Equal(t, int64(1), ml.calls.Load())
	for _, s := range statuses {
		assert.Equal(t, 5, s.Count)
	}
}

func TestDirectory_Run_RefreshesOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ml := &mockLoader{results: []loader.Result{fallback(), remote(domain.Warehouse{ID: "WH900"})}}
	metrics := observability.NewMetricsForTesting()
	d := directory.New(ml, nil, discardLogger(), metrics,
		directory.WithClock(clock),
		directory.WithInterval(time.Minute),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return ml.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	blockCtx, blockCancel := context.WithTimeout(context.Background(), time.Second)
	defer blockCancel()
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return d.Status().Source == domain.SourceRemote }, time.Second, 5*time.Millisecond)

	_, ok := d.Lookup("WH900")
	assert.True(t, ok)
	assert.Equal(t, int64(2), ml.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RefreshRunning), 0)

	cancel()
	require.NoError(t, <-done)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RefreshRunning), 0)
}

func TestDirectory_Run_ZeroIntervalLoadsOnce(t *testing.T) {
	ml := &mockLoader{results: []loader.Result{fallback()}}
	d := directory.New(ml, nil, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.CheckReadiness(ctx) == nil }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), ml.calls.Load())
}

func TestDirectory_CancelledCallerKeepsRemoteSnapshot(t *testing.T) {
	cl := &ctxLoader{good: remote(domain.Warehouse{ID: "WH777", City: "Reno"})}
	pub := &mockPublisher{}
	d := directory.New(cl, pub, discardLogger(), observability.NewMetricsForTesting())

	first := d.Refresh(context.Background())
	require.Equal(t, domain.SourceRemote, first.Source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status := d.Refresh(ctx)

	assert.Equal(t, domain.SourceRemote, status.Source)
	assert.Equal(t, 1, status.Count)
	assert.Empty(t, status.FallbackReason)
	_, ok := d.Lookup("wh777")
	assert.True(t, ok)
	assert.True(t, cl.deadline.Load(), "load is bounded by the refresh timeout")
	assert.Len(t, pub.published(), 1, "no fallback snapshot is published")
}

func TestDirectory_RefreshTimeoutStillFallsBack(t *testing.T) {
	blocking := loaderFunc(func(ctx context.Context) loader.Result {
		<-ctx.Done()
		res := fallback()
		res.Reason = ctx.Err()
		return res
	})
	d := directory.New(blocking, nil, discardLogger(), observability.NewMetricsForTesting(),
		directory.WithRefreshTimeout(20*time.Millisecond),
	)

	status := d.Refresh(context.Background())

	assert.Equal(t, domain.SourceFallback, status.Source)
	assert.Equal(t, loader.ReasonTransport, status.FallbackReason)
}

type loaderFunc func(ctx context.Context) loader.Result

func (f loaderFunc) Load(ctx context.Context) loader.Result { return f(ctx) }
