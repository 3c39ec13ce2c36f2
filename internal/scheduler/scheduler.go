// Package scheduler drives the fixed-interval reconciliation loop:
// fetch availability, match it against the tracker cache, repeat.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

// Fetcher produces one availability snapshot per cycle.
type Fetcher interface {
	OpenSections(ctx context.Context, season models.Season, year int) (soc.OpenSet, error)
}

// Reconciler consumes the locked tracker snapshot and the availability
// snapshot.
type Reconciler interface {
	Reconcile(ctx context.Context, trackers []models.Tracker, open soc.OpenSet)
}

// Cache is the hold/replace surface of the tracker cache.
type Cache interface {
	Acquire() (snapshot []models.Tracker, release func(), ok bool)
}

// Stats is a point-in-time view of the loop for the status endpoint.
type Stats struct {
	LastCycleAt   time.Time `json:"lastCycleAt"`
	LastError     string    `json:"lastError,omitempty"`
	CyclesRun     uint64    `json:"cyclesRun"`
	CyclesSkipped uint64    `json:"cyclesSkipped"`
	LastOpenCount int       `json:"lastOpenCount"`
	LastTrackers  int       `json:"lastTrackers"`
}

// Poller owns the cycle state machine. A tick runs one cycle end to
// end; the ticker is the single re-arm point, so no outcome of a cycle
// can stop the loop.
type Poller struct {
	cache    Cache
	fetcher  Fetcher
	engine   Reconciler
	terms    TermSource
	window   Window
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger

	mu    sync.Mutex
	stats Stats
}

func NewPoller(cache Cache, fetcher Fetcher, engine Reconciler, terms TermSource, window Window, interval time.Duration, log *zap.Logger) *Poller {
	return &Poller{
		cache:    cache,
		fetcher:  fetcher,
		engine:   engine,
		terms:    terms,
		window:   window,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Run ticks immediately, then at the configured interval until ctx is
// canceled.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller starting", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopping")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one reconciliation cycle. It never panics outward: the
// ticker must keep firing regardless of what a cycle does.
func (p *Poller) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("cycle panicked", zap.Any("panic", r))
			p.recordError("cycle panicked")
		}
	}()

	now := p.now()
	if p.window.Contains(now) {
		p.recordSkip()
		p.log.Debug("inside quiet window, skipping cycle")
		return
	}

	log := p.log.With(zap.String("cycle", uuid.NewString()))

	snapshot, release, ok := p.cache.Acquire()
	if !ok {
		p.recordSkip()
		log.Warn("cache unavailable, skipping cycle")
		return
	}
	defer release()

	season, year, err := p.terms.Resolve(now)
	if err != nil {
		p.recordError(err.Error())
		log.Error("term resolution failed", zap.Error(err))
		return
	}

	open, err := p.fetcher.OpenSections(ctx, season, year)
	if err != nil {
		// No data this cycle; retried on the next tick, never fatal.
		p.recordError(err.Error())
		log.Error("availability fetch failed, skipping cycle", zap.Error(err))
		return
	}

	log.Debug("matching",
		zap.String("season", season.String()),
		zap.Int("year", year),
		zap.Int("open", len(open)),
		zap.Int("trackers", len(snapshot)),
	)
	p.engine.Reconcile(ctx, snapshot, open)
	p.recordCycle(len(open), len(snapshot))
}

// Stats returns a copy of the loop counters.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Poller) recordCycle(open, trackers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.CyclesRun++
	p.stats.LastCycleAt = p.now()
	p.stats.LastError = ""
	p.stats.LastOpenCount = open
	p.stats.LastTrackers = trackers
}

func (p *Poller) recordSkip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.CyclesSkipped++
}

func (p *Poller) recordError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.CyclesSkipped++
	p.stats.LastError = msg
}
