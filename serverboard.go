package serverboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
	"github.com/jpalmerr/serverboard/internal/card"
	"github.com/jpalmerr/serverboard/internal/chat"
	"github.com/jpalmerr/serverboard/internal/metrics"
	"github.com/jpalmerr/serverboard/internal/poller"
	"github.com/jpalmerr/serverboard/internal/server"
	"github.com/jpalmerr/serverboard/internal/store"
)

const defaultPort = 8080

// Mode selects how refresh and reconcile passes are scheduled.
type Mode = poller.Mode

const (
	ModeCoupled   = poller.ModeCoupled
	ModeDecoupled = poller.ModeDecoupled
	ModeOnUpdate  = poller.ModeOnUpdate
)

// Messenger is a chat platform session that status cards are published
// through. Implementations must be safe to call from one goroutine at a time.
type Messenger = chat.Messenger

// Card is the platform-neutral status card handed to a [Messenger].
type Card = card.Card

// Branding holds the decorations shared by every card.
type Branding = card.Branding

// ErrMessageNotFound is returned by a [Messenger] when a stored message id
// no longer resolves.
var ErrMessageNotFound = chat.ErrMessageNotFound

// NewDiscordMessenger returns a [Messenger] that posts cards as embeds to a
// Discord channel using a bot token.
func NewDiscordMessenger(token, channelID string, logger *slog.Logger) (Messenger, error) {
	m, err := chat.NewDiscordMessenger(token, channelID, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewLogMessenger returns a [Messenger] that logs cards instead of
// publishing them.
func NewLogMessenger(logger *slog.Logger) Messenger {
	return chat.NewLogMessenger(logger)
}

// Board is the main orchestrator for status fetching, chat reconciliation
// and the HTTP endpoint.
//
// Board is created using [New] with functional options and started with
// [Board.Start]. The caller controls the lifecycle via the context passed
// to Start; cancel it to trigger graceful shutdown.
type Board struct {
	servers           []string
	messenger         Messenger
	mode              Mode
	refreshInterval   time.Duration
	reconcileInterval time.Duration
	port              int
	fetchConcurrency  int
	chatRate          rate.Limit
	chatBurst         int
	logger            *slog.Logger
	statusCallbacks   []func(StatusResult)

	client   *battlemetrics.Client
	store    *store.MemoryStore
	renderer *card.Renderer
	metrics  *metrics.Metrics
}

// New creates a new [Board] instance with the given options.
//
// At least one server must be configured via [WithServers] and a messenger
// via [WithMessenger]. Other options have sensible defaults:
//   - Mode: coupled
//   - Refresh interval: 5 seconds
//   - Reconcile interval: 1 second (decoupled mode only)
//   - Port: 8080
//   - Retries: 3 starting at 1 second
//
// Returns an error if the configuration is incomplete or any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		mode:              ModeCoupled,
		refreshInterval:   poller.DefaultRefreshInterval,
		reconcileInterval: poller.DefaultReconcileInterval,
		port:              defaultPort,
		maxRetries:        battlemetrics.DefaultMaxRetries,
		initialBackoff:    battlemetrics.DefaultInitialBackoff,
		fetchConcurrency:  1,
		chatRate:          chat.DefaultRate,
		chatBurst:         chat.DefaultBurst,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.servers) == 0 {
		return nil, errors.New("at least one server is required")
	}

	seen := make(map[string]bool, len(cfg.servers))
	for _, id := range cfg.servers {
		if seen[id] {
			return nil, fmt.Errorf("duplicate server id: %q", id)
		}
		seen[id] = true
	}

	if cfg.messenger == nil {
		return nil, errors.New("a messenger is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	mets := metrics.New()

	client, err := battlemetrics.NewClient(battlemetrics.Config{
		URLTemplate:    cfg.urlTemplate,
		Timeout:        cfg.requestTimeout,
		MaxRetries:     cfg.maxRetries,
		InitialBackoff: cfg.initialBackoff,
		Headers:        cfg.headers,
		OnRetry: func(id string, attempt int, delay time.Duration) {
			mets.ObserveRetry()
			logger.Warn("status api rate limited, retrying",
				"server_id", id,
				"attempt", attempt,
				"delay", delay.String(),
			)
		},
	})
	if err != nil {
		return nil, err
	}

	servers := make([]string, len(cfg.servers))
	copy(servers, cfg.servers)

	st := store.NewMemoryStore(servers)
	mets.TrackDroppedUpdates(st.Dropped)

	return &Board{
		servers:           servers,
		messenger:         cfg.messenger,
		mode:              cfg.mode,
		refreshInterval:   cfg.refreshInterval,
		reconcileInterval: cfg.reconcileInterval,
		port:              cfg.port,
		fetchConcurrency:  cfg.fetchConcurrency,
		chatRate:          cfg.chatRate,
		chatBurst:         cfg.chatBurst,
		logger:            logger,
		statusCallbacks:   cfg.statusCallbacks,
		client:            client,
		store:             st,
		renderer:          card.NewRenderer(cfg.branding, nil),
		metrics:           mets,
	}, nil
}

// Start serves the HTTP endpoint, opens the chat session and runs the
// scheduler.
//
// Start is a blocking call that runs until the provided context is cancelled.
// The HTTP endpoint comes up first so liveness probes succeed while the chat
// session is still connecting. The first refresh pass starts once the
// session reports ready.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to bind or the chat session cannot be opened.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("serverboard starting",
		"server_count", len(b.servers),
		"mode", string(b.mode),
		"refresh_interval", b.refreshInterval.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	// the HTTP server shuts down when this context ends, including on
	// error returns below
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := server.NewServer(b.store, b.port, b.metrics.Handler(), b.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	b.logger.Info("status endpoint available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if err := b.messenger.Open(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to open chat session: %w", err)
	}
	defer func() {
		if err := b.messenger.Close(); err != nil {
			b.logger.Error("chat session close failed", "error", err)
		}
	}()
	defer b.client.Close()

	reconciler := chat.NewReconciler(b.messenger, chat.ReconcilerConfig{
		Rate:    b.chatRate,
		Burst:   b.chatBurst,
		Logger:  b.logger,
		Metrics: b.metrics,
	})

	scheduler := b.newScheduler(reconciler, nil)
	scheduler.Start(ctx)

	<-ctx.Done()
	scheduler.Stop()
	b.logger.Info("serverboard stopped")
	return nil
}

// Refresh fetches every server once and updates the status cache without
// touching chat. Results are returned in configured order, failures
// included. Registered status callbacks fire as usual.
func (b *Board) Refresh(ctx context.Context) []StatusResult {
	var mu sync.Mutex
	byID := make(map[string]StatusResult, len(b.servers))

	scheduler := b.newScheduler(nil, func(r StatusResult) {
		mu.Lock()
		byID[r.ServerID] = r
		mu.Unlock()
	})
	scheduler.Refresh(ctx)

	results := make([]StatusResult, 0, len(b.servers))
	for _, id := range b.servers {
		if r, ok := byID[id]; ok {
			results = append(results, r)
		}
	}
	return results
}

func (b *Board) newScheduler(reconciler poller.Reconciler, collect func(StatusResult)) *poller.Scheduler {
	return poller.NewScheduler(poller.Config{
		IDs:               b.servers,
		Mode:              b.mode,
		RefreshInterval:   b.refreshInterval,
		ReconcileInterval: b.reconcileInterval,
		FetchConcurrency:  b.fetchConcurrency,
		Fetcher:           b.client,
		Store:             b.store,
		Renderer:          b.renderer,
		Reconciler:        reconciler,
		Logger:            b.logger,
		Metrics:           b.metrics,
		OnResult: func(r poller.Result) {
			public := pollerResultToPublicResult(r)
			if collect != nil {
				collect(public)
			}
			for _, cb := range b.statusCallbacks {
				invokeCallbackSafe(cb, public, b.logger)
			}
		},
	})
}

// Servers returns a copy of the configured server identifiers.
func (b *Board) Servers() []string {
	cp := make([]string, len(b.servers))
	copy(cp, b.servers)
	return cp
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// Mode returns the configured scheduling mode.
func (b *Board) Mode() Mode {
	return b.mode
}

// RefreshInterval returns the configured interval between refresh passes.
func (b *Board) RefreshInterval() time.Duration {
	return b.refreshInterval
}

// ReconcileInterval returns the configured interval between reconcile
// passes in decoupled mode.
func (b *Board) ReconcileInterval() time.Duration {
	return b.reconcileInterval
}

// pollerResultToPublicResult converts internal poller result to public API type.
func pollerResultToPublicResult(r poller.Result) StatusResult {
	res := StatusResult{
		ServerID:  r.ID,
		Latency:   r.Latency,
		CheckedAt: r.CheckedAt,
		Error:     r.Err,
	}
	if r.Err == nil {
		res.Record = fromRecord(r.Record)
		res.Tier = tierOf(r.Record)
	}
	return res
}

// invokeCallbackSafe calls a status callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(StatusResult), result StatusResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status callback panicked",
				"panic", r,
				"server_id", result.ServerID,
			)
		}
	}()
	cb(result)
}
