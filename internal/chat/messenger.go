package chat

import (
	"context"
	"errors"

	"github.com/jpalmerr/serverboard/internal/card"
)

// ErrMessageNotFound is returned by a [Messenger] when a message id no
// longer resolves (for example after it was deleted by a moderator).
var ErrMessageNotFound = errors.New("message not found")

// Messenger is the chat platform session used by the [Reconciler].
// All operations target the single channel the messenger was built for.
type Messenger interface {
	// Open establishes the session and blocks until the platform reports it
	// is ready, or ctx is done.
	Open(ctx context.Context) error

	// Send creates a message with the card and returns its id.
	Send(ctx context.Context, c card.Card) (string, error)

	// Fetch re-resolves a message by id and returns the id reported by the
	// platform.
	Fetch(ctx context.Context, messageID string) (string, error)

	// Edit replaces the content of an existing message with the card.
	Edit(ctx context.Context, messageID string, c card.Card) error

	// Close ends the session.
	Close() error
}
