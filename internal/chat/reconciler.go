package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jpalmerr/serverboard/internal/card"
	"github.com/jpalmerr/serverboard/internal/metrics"
)

// Default chat operation budget; Discord allows 5 message operations per
// channel every few seconds.
const (
	DefaultRate  = rate.Limit(5)
	DefaultBurst = 5
)

// ErrChatOperation wraps every failed create, fetch or edit.
var ErrChatOperation = errors.New("chat operation failed")

// ReconcilerConfig configures a [Reconciler].
type ReconcilerConfig struct {
	// Rate limits chat operations per second. Zero uses DefaultRate;
	// rate.Inf disables throttling.
	Rate rate.Limit

	// Burst is the token bucket size. Zero uses DefaultBurst.
	Burst int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Summary counts the outcomes of one reconciliation pass.
type Summary struct {
	Created int
	Edited  int
	Skipped int
	Failed  int
}

// Reconciler keeps exactly one chat message per server identifier.
//
// Handles are created once and never removed for the lifetime of the
// Reconciler.
type Reconciler struct {
	messenger Messenger
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	handles map[string]string
}

// NewReconciler creates a reconciler for m.
func NewReconciler(m Messenger, cfg ReconcilerConfig) *Reconciler {
	limit := cfg.Rate
	if limit == 0 {
		limit = DefaultRate
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		messenger: m,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		metrics:   cfg.Metrics,
		handles:   make(map[string]string),
	}
}

// Reconcile publishes c for server id: it creates a message the first time
// and edits the same message afterwards.
//
// The stored message id is re-resolved through the platform before every
// edit. On failure the handle is kept so the next pass edits the same
// message again; nothing is retried within the call.
func (r *Reconciler) Reconcile(ctx context.Context, id string, c card.Card) error {
	messageID, ok := r.handle(id)
	if !ok {
		return r.create(ctx, id, c)
	}
	return r.edit(ctx, id, messageID, c)
}

func (r *Reconciler) create(ctx context.Context, id string, c card.Card) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: server %s: create: %w", ErrChatOperation, id, err)
	}

	messageID, err := r.messenger.Send(ctx, c)
	r.metrics.ObserveReconcile(metrics.ActionCreate, err)
	if err != nil {
		return fmt.Errorf("%w: server %s: create: %w", ErrChatOperation, id, err)
	}

	r.mu.Lock()
	r.handles[id] = messageID
	r.mu.Unlock()

	r.logger.Info("status message created", "server_id", id, "message_id", messageID)
	return nil
}

func (r *Reconciler) edit(ctx context.Context, id, messageID string, c card.Card) error {
	err := r.resolveAndEdit(ctx, messageID, c)
	r.metrics.ObserveReconcile(metrics.ActionEdit, err)
	if err != nil {
		return fmt.Errorf("%w: server %s: edit message %s: %w", ErrChatOperation, id, messageID, err)
	}

	r.logger.Debug("status message edited", "server_id", id, "message_id", messageID)
	return nil
}

func (r *Reconciler) resolveAndEdit(ctx context.Context, messageID string, c card.Card) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	resolved, err := r.messenger.Fetch(ctx, messageID)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.messenger.Edit(ctx, resolved, c)
}

// ReconcileAll reconciles ids sequentially in the given order.
//
// lookup returns the card for an id, or false when the server has no cached
// status yet; such ids are skipped. A failure is logged and the pass moves
// on to the next id.
func (r *Reconciler) ReconcileAll(ctx context.Context, ids []string, lookup func(id string) (card.Card, bool)) Summary {
	var s Summary

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		c, ok := lookup(id)
		if !ok {
			s.Skipped++
			continue
		}

		_, existed := r.handle(id)
		if err := r.Reconcile(ctx, id, c); err != nil {
			s.Failed++
			r.logger.Warn("status message reconcile failed", "server_id", id, "error", err)
			continue
		}
		if existed {
			s.Edited++
		} else {
			s.Created++
		}
	}

	return s
}

// Handles returns a copy of the server id to message id mapping.
func (r *Reconciler) Handles() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make(map[string]string, len(r.handles))
	for k, v := range r.handles {
		cp[k] = v
	}
	return cp
}

func (r *Reconciler) handle(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messageID, ok := r.handles[id]
	return messageID, ok
}
