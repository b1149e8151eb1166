package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
	"github.com/jpalmerr/serverboard/internal/card"
	"github.com/jpalmerr/serverboard/internal/chat"
	"github.com/jpalmerr/serverboard/internal/metrics"
	"github.com/jpalmerr/serverboard/internal/store"
)

// Mode selects how refresh and reconcile passes are scheduled.
type Mode string

const (
	ModeCoupled   Mode = "coupled"
	ModeDecoupled Mode = "decoupled"
	ModeOnUpdate  Mode = "on-update"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeCoupled, ModeDecoupled, ModeOnUpdate:
		return true
	}
	return false
}

const (
	DefaultRefreshInterval   = 5 * time.Second
	DefaultReconcileInterval = time.Second
)

// Fetcher retrieves the status of one server.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (battlemetrics.Record, error)
}

// Renderer turns a record into a card.
type Renderer interface {
	Render(rec battlemetrics.Record) card.Card
}

// Reconciler publishes cards to the chat platform.
type Reconciler interface {
	Reconcile(ctx context.Context, id string, c card.Card) error
	ReconcileAll(ctx context.Context, ids []string, lookup func(id string) (card.Card, bool)) chat.Summary
}

// Result is the outcome of fetching one server.
type Result struct {
	ID        string
	Record    battlemetrics.Record
	Err       error
	CheckedAt time.Time
	Latency   time.Duration
}

// Config wires a [Scheduler].
type Config struct {
	// IDs are the servers to poll, in order.
	IDs []string

	Mode Mode

	// RefreshInterval is the time between refresh passes (and full cycles
	// in coupled mode).
	RefreshInterval time.Duration

	// ReconcileInterval is the time between reconcile passes in decoupled
	// mode. Reconcile ticks keep firing while a refresh pass is in flight.
	ReconcileInterval time.Duration

	// FetchConcurrency > 1 fans fetches out within a refresh pass.
	FetchConcurrency int

	Fetcher    Fetcher
	Store      store.Store
	Renderer   Renderer
	Reconciler Reconciler
	Logger     *slog.Logger
	Metrics    *metrics.Metrics

	// OnResult is called after every fetch, once the cache has been updated.
	// With FetchConcurrency > 1 it may be called from several goroutines.
	OnResult func(Result)
}

// Scheduler manages the refresh and reconcile timers.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewScheduler creates a [Scheduler]. Zero intervals and an empty mode take
// the package defaults.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Mode == "" {
		cfg.Mode = ModeCoupled
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultReconcileInterval
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{cfg: cfg, logger: logger}
}

// Start begins scheduling in background goroutines.
//
// The first pass runs immediately. Start is idempotent; if Stop was called
// before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.run(loopCtx)
	}()
}

// Stop halts scheduling and waits for in-flight passes to return.
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// run owns the goroutines for the configured mode. The refresh timer always
// runs here; decoupled reconcile ticks and on-update publishing get their own
// goroutine so a slow or retrying fetch never holds up chat updates.
func (s *Scheduler) run(ctx context.Context) {
	var workers sync.WaitGroup
	defer workers.Wait()

	// signalled after every refresh pass, never blocking the refresh timer
	passDone := make(chan struct{}, 1)

	switch s.cfg.Mode {
	case ModeDecoupled:
		workers.Add(1)
		go func() {
			defer workers.Done()
			s.reconcileLoop(ctx, passDone)
		}()
	case ModeOnUpdate:
		// subscribe before the first pass so no update is missed
		updates := s.cfg.Store.Subscribe()
		defer s.cfg.Store.Unsubscribe(updates)
		workers.Add(1)
		go func() {
			defer workers.Done()
			s.updateLoop(ctx, updates, passDone)
		}()
	}

	s.refreshLoop(ctx, passDone)
}

func (s *Scheduler) refreshLoop(ctx context.Context, passDone chan<- struct{}) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case passDone <- struct{}{}:
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick runs the work due on a refresh tick for the configured mode.
func (s *Scheduler) tick(ctx context.Context) {
	switch s.cfg.Mode {
	case ModeCoupled:
		s.safely("cycle", func() { s.RunOnce(ctx) })
	default:
		s.safely("refresh", func() { s.Refresh(ctx) })
	}
}

// reconcileLoop publishes the cache on its own cadence. The first snapshot
// goes out as soon as the first refresh pass completes.
func (s *Scheduler) reconcileLoop(ctx context.Context, passDone <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()

	first := passDone
	for {
		select {
		case <-ctx.Done():
			return
		case <-first:
			first = nil
		case <-ticker.C:
		}
		s.safely("reconcile", func() { s.Reconcile(ctx) })
	}
}

// updateLoop reconciles each cache update as it arrives. The subscription
// drops entries when its buffer is full, so after every refresh pass the
// cache is swept for anything newer than what was last published.
func (s *Scheduler) updateLoop(ctx context.Context, updates <-chan store.Entry, passDone <-chan struct{}) {
	published := make(map[string]time.Time, len(s.cfg.IDs))
	publish := func(e store.Entry) {
		if last, ok := published[e.ID]; ok && !e.FetchedAt.After(last) {
			return
		}
		// a failed reconcile stays unpublished and is retried on the next sweep
		if s.reconcileEntry(ctx, e) {
			published[e.ID] = e.FetchedAt
		}
	}

	var dropped uint64
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			publish(e)
		case <-passDone:
			if d := s.cfg.Store.Dropped(); d > dropped {
				s.logger.Debug("cache updates dropped by subscription, resyncing from cache", "dropped", d-dropped)
				dropped = d
			}
			for _, e := range s.cfg.Store.All() {
				if ctx.Err() != nil {
					return
				}
				publish(e)
			}
		}
	}
}

// reconcileEntry publishes one cache entry and reports whether it succeeded.
func (s *Scheduler) reconcileEntry(ctx context.Context, e store.Entry) bool {
	ok := false
	s.safely("reconcile", func() {
		c := s.cfg.Renderer.Render(e.Record)
		if err := s.cfg.Reconciler.Reconcile(ctx, e.ID, c); err != nil {
			s.logger.Warn("status message reconcile failed", "server_id", e.ID, "error", err)
			return
		}
		ok = true
	})
	return ok
}

// RunOnce performs one full cycle synchronously: refresh every server, then
// reconcile every chat message.
func (s *Scheduler) RunOnce(ctx context.Context) chat.Summary {
	s.Refresh(ctx)
	return s.Reconcile(ctx)
}

// Refresh fetches every server and stores each success. Failures leave the
// previous cache entry untouched. Returns the number of successful fetches.
func (s *Scheduler) Refresh(ctx context.Context) int {
	results := make([]bool, len(s.cfg.IDs))

	if s.cfg.FetchConcurrency <= 1 {
		for i, id := range s.cfg.IDs {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.refreshOne(ctx, id)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.cfg.FetchConcurrency)
		for i, id := range s.cfg.IDs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				results[i] = s.refreshOne(ctx, id)
				return nil
			})
		}
		_ = g.Wait()
	}

	ok := 0
	for _, r := range results {
		if r {
			ok++
		}
	}
	s.cfg.Metrics.SetCached(len(s.cfg.Store.All()))
	s.logger.Debug("refresh pass complete", "servers", len(s.cfg.IDs), "succeeded", ok)
	return ok
}

// Reconcile publishes the cached status of every server in order.
func (s *Scheduler) Reconcile(ctx context.Context) chat.Summary {
	summary := s.cfg.Reconciler.ReconcileAll(ctx, s.cfg.IDs, s.lookup)
	s.logger.Debug("reconcile pass complete",
		"created", summary.Created,
		"edited", summary.Edited,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary
}

func (s *Scheduler) lookup(id string) (card.Card, bool) {
	e, ok := s.cfg.Store.Get(id)
	if !ok {
		return card.Card{}, false
	}
	return s.cfg.Renderer.Render(e.Record), true
}

func (s *Scheduler) refreshOne(ctx context.Context, id string) bool {
	start := time.Now()
	rec, err := s.cfg.Fetcher.Fetch(ctx, id)
	checkedAt := time.Now()
	s.cfg.Metrics.ObserveFetch(err)

	res := Result{ID: id, Record: rec, Err: err, CheckedAt: checkedAt, Latency: checkedAt.Sub(start)}

	if err != nil {
		s.logger.Warn("status fetch failed", "server_id", id, "error", err)
	} else if uerr := s.cfg.Store.Update(id, rec, checkedAt); uerr != nil {
		s.logger.Error("status cache update failed", "server_id", id, "error", uerr)
		res.Err = uerr
	} else {
		s.logger.Debug("status fetched",
			"server_id", id,
			"online", rec.Online,
			"players", rec.Players,
			"latency_ms", res.Latency.Milliseconds(),
		)
	}

	if s.cfg.OnResult != nil {
		s.safely("result callback", func() { s.cfg.OnResult(res) })
	}
	return res.Err == nil
}

// safely runs fn and recovers any panic. The full stack trace is logged
// with a correlation ID; the loop keeps running.
func (s *Scheduler) safely(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler pass panicked",
				"stage", stage,
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
