package serverboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// minInterval is the shortest refresh or reconcile interval accepted.
const minInterval = 100 * time.Millisecond

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	servers           []string
	messenger         Messenger
	mode              Mode
	refreshInterval   time.Duration
	reconcileInterval time.Duration
	port              int
	logger            *slog.Logger
	urlTemplate       string
	requestTimeout    time.Duration
	maxRetries        int
	initialBackoff    time.Duration
	headers           map[string]string
	fetchConcurrency  int
	chatRate          rate.Limit
	chatBurst         int
	branding          Branding
	statusCallbacks   []func(StatusResult)
}

// Option is a function that configures a [Board] instance during construction.
//
// Options return an error if validation fails; [New] stops at the first one.
type Option func(*boardConfig) error

// WithServers adds BattleMetrics server identifiers to the board.
//
// Can be called multiple times. Order is preserved: cards are created,
// and the HTTP listing is sorted, in the order servers were added.
//
// Example:
//
//	b, err := serverboard.New(
//	    serverboard.WithServers("1234567", "7654321"),
//	    serverboard.WithMessenger(m),
//	)
func WithServers(ids ...string) Option {
	return func(cfg *boardConfig) error {
		for _, id := range ids {
			if id == "" {
				return errors.New("server id cannot be empty")
			}
		}
		cfg.servers = append(cfg.servers, ids...)
		return nil
	}
}

// WithMessenger sets the chat platform session that status cards are
// published through. Required.
//
// Use [NewDiscordMessenger] for Discord, or [NewLogMessenger] to log cards
// instead of publishing them.
func WithMessenger(m Messenger) Option {
	return func(cfg *boardConfig) error {
		if m == nil {
			return errors.New("messenger cannot be nil")
		}
		cfg.messenger = m
		return nil
	}
}

// WithMode selects how refresh and reconcile passes are scheduled.
// Defaults to [ModeCoupled].
func WithMode(m Mode) Option {
	return func(cfg *boardConfig) error {
		if !m.Valid() {
			return fmt.Errorf("unknown mode %q", m)
		}
		cfg.mode = m
		return nil
	}
}

// WithRefreshInterval sets how often every server is fetched. In
// [ModeCoupled] this is also the reconcile interval. Defaults to 5 seconds.
//
// Returns an error if the interval is shorter than 100ms.
func WithRefreshInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < minInterval {
			return fmt.Errorf("refresh interval must be at least %s, got %s", minInterval, d)
		}
		cfg.refreshInterval = d
		return nil
	}
}

// WithReconcileInterval sets how often cards are published in
// [ModeDecoupled]. Ignored by the other modes. Defaults to 1 second.
//
// Returns an error if the interval is shorter than 100ms.
func WithReconcileInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < minInterval {
			return fmt.Errorf("reconcile interval must be at least %s, got %s", minInterval, d)
		}
		cfg.reconcileInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the status endpoint.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board instance.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithURLTemplate sets the status API URL as a text/template with the
// server identifier available as {{.ID}}. Defaults to
// https://api.battlemetrics.com/servers/{{.ID}}.
//
// Example:
//
//	serverboard.WithURLTemplate("http://localhost:9000/servers/{{.ID}}")
func WithURLTemplate(tmpl string) Option {
	return func(cfg *boardConfig) error {
		if tmpl == "" {
			return errors.New("url template cannot be empty")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithRequestTimeout bounds each HTTP request to the status API.
// Defaults to 10 seconds.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithRetry configures the retry policy for rate-limited (HTTP 429) fetches.
//
// A fetch makes at most maxRetries+1 attempts. The wait before retry n is
// initialDelay * 2^(n-1), unless the API supplies a Retry-After header.
// Other failures are never retried within a pass. Defaults to 3 retries
// starting at 1 second.
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(cfg *boardConfig) error {
		if maxRetries < 0 {
			return errors.New("max retries cannot be negative")
		}
		if initialDelay <= 0 {
			return errors.New("initial retry delay must be positive")
		}
		cfg.maxRetries = maxRetries
		cfg.initialBackoff = initialDelay
		return nil
	}
}

// WithHeaders adds HTTP headers sent with every status API request.
//
// Headers are specified as key-value pairs:
//
//	serverboard.WithHeaders("Authorization", "Bearer "+token)
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) Option {
	return func(cfg *boardConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		if cfg.headers == nil {
			cfg.headers = make(map[string]string, len(keyValues)/2)
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithFetchConcurrency sets how many servers are fetched at once within a
// refresh pass. Defaults to 1 (strictly sequential, in configured order).
func WithFetchConcurrency(n int) Option {
	return func(cfg *boardConfig) error {
		if n < 1 {
			return errors.New("fetch concurrency must be at least 1")
		}
		cfg.fetchConcurrency = n
		return nil
	}
}

// WithChatRate limits chat operations (create, fetch and edit) to
// perSecond with the given burst. Defaults to 5 per second, burst 5.
func WithChatRate(perSecond float64, burst int) Option {
	return func(cfg *boardConfig) error {
		if perSecond <= 0 {
			return errors.New("chat rate must be positive")
		}
		if burst < 1 {
			return errors.New("chat burst must be at least 1")
		}
		cfg.chatRate = rate.Limit(perSecond)
		cfg.chatBurst = burst
		return nil
	}
}

// WithBranding overrides the thumbnail and footer shown on every card.
// Empty fields keep their defaults.
func WithBranding(b Branding) Option {
	return func(cfg *boardConfig) error {
		cfg.branding = b
		return nil
	}
}

// WithStatusCallback registers a function to be called after every fetch.
//
// The callback runs once the cache has been updated. Multiple callbacks
// execute in registration order. Callbacks must be non-blocking; with
// [WithFetchConcurrency] above 1 they may be called from several goroutines.
// Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithStatusCallback(cb func(StatusResult)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}
