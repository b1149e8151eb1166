package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jpalmerr/serverboard/internal/card"
)

// LogMessenger is a dry-run [Messenger] that logs cards instead of posting
// them. Message ids are sequential.
type LogMessenger struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
	known  map[string]struct{}
}

// NewLogMessenger creates a dry-run messenger.
func NewLogMessenger(logger *slog.Logger) *LogMessenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMessenger{logger: logger, known: make(map[string]struct{})}
}

// Open is immediately ready.
func (l *LogMessenger) Open(context.Context) error {
	l.logger.Info("dry-run messenger ready")
	return nil
}

// Send logs the card and returns a new sequential message id.
func (l *LogMessenger) Send(_ context.Context, c card.Card) (string, error) {
	l.mu.Lock()
	l.nextID++
	id := fmt.Sprintf("dry-run-%d", l.nextID)
	l.known[id] = struct{}{}
	l.mu.Unlock()

	l.logger.Info("card posted", "message_id", id, "title", c.Title, "players", playersValue(c))
	return id, nil
}

// Fetch resolves an id issued by Send. Unknown ids return ErrMessageNotFound.
func (l *LogMessenger) Fetch(_ context.Context, messageID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.known[messageID]; !ok {
		return "", fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	return messageID, nil
}

// Edit logs the card against an existing message id.
func (l *LogMessenger) Edit(ctx context.Context, messageID string, c card.Card) error {
	if _, err := l.Fetch(ctx, messageID); err != nil {
		return err
	}
	l.logger.Info("card edited", "message_id", messageID, "title", c.Title, "players", playersValue(c))
	return nil
}

// Close is a no-op.
func (l *LogMessenger) Close() error { return nil }

func playersValue(c card.Card) string {
	for _, f := range c.Fields {
		if f.Name == "Players" {
			return f.Value
		}
	}
	return ""
}
