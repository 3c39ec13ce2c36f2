package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/cache"
	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

type fakeFetcher struct {
	open  soc.OpenSet
	err   error
	calls int
}

func (f *fakeFetcher) OpenSections(context.Context, models.Season, int) (soc.OpenSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.open, nil
}

type fakeReconciler struct {
	calls     int
	snapshots [][]models.Tracker
	panicWith any
}

func (f *fakeReconciler) Reconcile(_ context.Context, trackers []models.Tracker, _ soc.OpenSet) {
	f.calls++
	f.snapshots = append(f.snapshots, trackers)
	if f.panicWith != nil {
		panic(f.panicWith)
	}
}

func populatedCache(t *testing.T, ids ...string) *cache.TrackerCache {
	t.Helper()
	c := cache.New(zap.NewNop())
	set := make([]models.Tracker, 0, len(ids))
	for _, id := range ids {
		set = append(set, models.Tracker{ID: id, Active: true})
	}
	c.Populate(set)
	return c
}

func newTestPoller(t *testing.T, c *cache.TrackerCache, fetcher *fakeFetcher, engine *fakeReconciler, now time.Time) *Poller {
	t.Helper()
	window, err := NewWindow("02:00", "06:30")
	require.NoError(t, err)
	p := NewPoller(c, fetcher, engine, StaticTermSource{Season: models.Fall}, window, 20*time.Second, zap.NewNop())
	p.now = func() time.Time { return now }
	return p
}

func noon() time.Time {
	return time.Date(2025, time.September, 15, 12, 0, 0, 0, time.Local)
}

func TestTickFetchesAndMatches(t *testing.T) {
	fetcher := &fakeFetcher{open: soc.OpenSet{"01234": true}}
	engine := &fakeReconciler{}
	p := newTestPoller(t, populatedCache(t, "t1"), fetcher, engine, noon())

	p.Tick(context.Background())

	assert.Equal(t, 1, fetcher.calls)
	require.Equal(t, 1, engine.calls)
	assert.Len(t, engine.snapshots[0], 1)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.CyclesRun)
	assert.Equal(t, 1, stats.LastOpenCount)
	assert.Empty(t, stats.LastError)
}

func TestTickSuppressedInsideQuietWindow(t *testing.T) {
	fetcher := &fakeFetcher{open: soc.OpenSet{}}
	engine := &fakeReconciler{}
	quiet := time.Date(2025, time.September, 15, 3, 0, 0, 0, time.Local)
	p := newTestPoller(t, populatedCache(t, "t1"), fetcher, engine, quiet)

	p.Tick(context.Background())

	assert.Zero(t, fetcher.calls, "no upstream call during the quiet window")
	assert.Zero(t, engine.calls)
	assert.Equal(t, uint64(1), p.Stats().CyclesSkipped)
}

func TestFetchFailureSkipsMatchingAndReleasesCache(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("socket timeout")}
	engine := &fakeReconciler{}
	c := populatedCache(t, "t1")
	p := newTestPoller(t, c, fetcher, engine, noon())

	p.Tick(context.Background())
	assert.Zero(t, engine.calls, "no matching on fetch failure")
	assert.Contains(t, p.Stats().LastError, "socket timeout")

	// The lock must have been released: the next tick runs normally.
	fetcher.err = nil
	fetcher.open = soc.OpenSet{}
	p.Tick(context.Background())
	assert.Equal(t, 1, engine.calls)
}

func TestPanicDuringMatchingDoesNotKillLoopOrHoldCache(t *testing.T) {
	fetcher := &fakeFetcher{open: soc.OpenSet{}}
	engine := &fakeReconciler{panicWith: "boom"}
	c := populatedCache(t, "t1")
	p := newTestPoller(t, c, fetcher, engine, noon())

	assert.NotPanics(t, func() { p.Tick(context.Background()) })

	engine.panicWith = nil
	p.Tick(context.Background())
	assert.Equal(t, 2, engine.calls, "loop keeps running after a panicked cycle")
}

func TestMidCycleReplaceVisibleNextCycle(t *testing.T) {
	fetcher := &fakeFetcher{open: soc.OpenSet{}}
	c := populatedCache(t, "t1")

	replacing := &fakeReconciler{}
	p := newTestPoller(t, c, fetcher, replacing, noon())

	// Simulate the change feed firing while matching is in flight.
	swapped := false
	engine := &hookReconciler{inner: replacing, hook: func() {
		if !swapped {
			swapped = true
			c.Replace([]models.Tracker{{ID: "t2", Active: true}})
		}
	}}
	p.engine = engine

	p.Tick(context.Background())
	require.Len(t, replacing.snapshots, 1)
	assert.Equal(t, "t1", replacing.snapshots[0][0].ID, "mid-cycle update must not be visible to this cycle")

	p.Tick(context.Background())
	require.Len(t, replacing.snapshots, 2)
	assert.Equal(t, "t2", replacing.snapshots[1][0].ID, "update visible on the next cycle")
}

type hookReconciler struct {
	inner *fakeReconciler
	hook  func()
}

func (h *hookReconciler) Reconcile(ctx context.Context, trackers []models.Tracker, open soc.OpenSet) {
	h.hook()
	h.inner.Reconcile(ctx, trackers, open)
}

func TestUnpopulatedCacheSkipsCycle(t *testing.T) {
	fetcher := &fakeFetcher{open: soc.OpenSet{}}
	engine := &fakeReconciler{}
	p := newTestPoller(t, cache.New(zap.NewNop()), fetcher, engine, noon())

	p.Tick(context.Background())

	assert.Zero(t, fetcher.calls)
	assert.Zero(t, engine.calls)
	assert.Equal(t, uint64(1), p.Stats().CyclesSkipped)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{open: soc.OpenSet{}}
	engine := &fakeReconciler{}
	p := newTestPoller(t, populatedCache(t, "t1"), fetcher, engine, noon())
	p.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
	assert.GreaterOrEqual(t, engine.calls, 2, "immediate tick plus at least one interval tick")
}
