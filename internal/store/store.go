package store

import (
	"errors"
	"time"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
)

// ErrUnknownServer is returned when updating an identifier outside the
// configured set.
var ErrUnknownServer = errors.New("server is not configured")

// Entry is the cached status of one server.
type Entry struct {
	// ID is the configured server identifier.
	ID string

	// Record is the most recent successfully fetched status.
	Record battlemetrics.Record

	// FetchedAt is when Record was fetched.
	FetchedAt time.Time
}

// Store defines the interface for the status cache.
//
// Store implementations must be safe for concurrent access: the scheduler
// writes while HTTP handlers read.
type Store interface {
	// Update replaces the entry for id and notifies all subscribers.
	// Returns ErrUnknownServer if id is not part of the configured set.
	Update(id string, rec battlemetrics.Record, fetchedAt time.Time) error

	// Get returns the entry for id, if one has been stored.
	Get(id string) (Entry, bool)

	// All returns every stored entry in configured order, skipping servers
	// that have never been fetched successfully.
	All() []Entry

	// IDs returns the configured identifiers in order.
	IDs() []string

	// Subscribe returns a channel that receives every stored entry.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Entry

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Entry)

	// Dropped returns how many updates were discarded because a
	// subscriber's buffer was full.
	Dropped() uint64
}
