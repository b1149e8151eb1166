package battlemetrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultURLTemplate is the public BattleMetrics server endpoint.
	DefaultURLTemplate = "https://api.battlemetrics.com/servers/{{.ID}}"

	DefaultTimeout        = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second

	// maxBackoff caps both computed delays and server-supplied Retry-After hints.
	maxBackoff = 5 * time.Minute

	maxResponseBodySize = 1 << 20 // 1MB
)

// connection pooling limits; all requests go to a single API host
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Config configures a [Client]. Zero values select the package defaults.
type Config struct {
	// URLTemplate is a text/template with a single {{.ID}} placeholder.
	URLTemplate string

	// Timeout bounds every individual HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries allowed after a 429 response.
	// Negative values are treated as zero.
	MaxRetries int

	// InitialBackoff is the first retry delay; it doubles after every retry.
	InitialBackoff time.Duration

	// Headers are sent with every request (e.g. Authorization).
	Headers map[string]string

	// OnRetry, if set, is called before each rate-limit wait.
	OnRetry func(id string, attempt int, delay time.Duration)
}

// Client queries the status API for one server at a time.
//
// Client uses per-request timeouts via context rather than a global client
// timeout, so a stalled API call can never block the caller indefinitely.
// Response bodies are limited to 1MB.
type Client struct {
	httpClient     *http.Client
	tmpl           *template.Template
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	headers        map[string]string
	onRetry        func(id string, attempt int, delay time.Duration)

	// sleep and now are swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewClient creates a [Client] from cfg.
//
// Returns an error if the URL template does not parse.
func NewClient(cfg Config) (*Client, error) {
	raw := cfg.URLTemplate
	if raw == "" {
		raw = DefaultURLTemplate
	}
	tmpl, err := template.New("status-url").Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url template: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		tmpl:           tmpl,
		timeout:        timeout,
		maxRetries:     retries,
		initialBackoff: initial,
		headers:        headers,
		onRetry:        cfg.OnRetry,
		sleep:          sleepContext,
		now:            time.Now,
	}, nil
}

// URL returns the status API URL for id.
func (c *Client) URL(id string) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, struct{ ID string }{ID: url.PathEscape(id)}); err != nil {
		return "", fmt.Errorf("render url for server %s: %w", id, err)
	}
	return buf.String(), nil
}

// Fetch retrieves and parses the status of server id.
//
// A 429 response is retried up to the configured number of times. Each wait
// uses the Retry-After header when the API provides one and the current
// backoff value otherwise; the backoff value doubles after every retry. Any
// other failure returns immediately. The caller is suspended for the whole
// cumulative wait, which stops early if ctx is cancelled.
func (c *Client) Fetch(ctx context.Context, id string) (Record, error) {
	target, err := c.URL(id)
	if err != nil {
		return Record{}, &NetworkError{ID: id, Err: err}
	}

	delays := &backoff.ExponentialBackOff{
		InitialInterval:     c.initialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxBackoff,
	}
	delays.Reset()

	for attempt := 1; ; attempt++ {
		resp, err := c.get(ctx, target)
		if err != nil {
			return Record{}, &NetworkError{ID: id, Err: err}
		}

		switch {
		case resp.statusCode == http.StatusTooManyRequests:
			if attempt > c.maxRetries {
				return Record{}, &RateLimitedError{ID: id, Attempts: attempt}
			}
			delay := delays.NextBackOff()
			if hint, ok := retryAfter(resp.header.Get("Retry-After"), c.now()); ok {
				delay = hint
			}
			if c.onRetry != nil {
				c.onRetry(id, attempt, delay)
			}
			if err := c.sleep(ctx, delay); err != nil {
				return Record{}, &NetworkError{ID: id, Err: fmt.Errorf("rate limit wait interrupted: %w", err)}
			}
			continue

		case resp.statusCode < 200 || resp.statusCode >= 300:
			return Record{}, &NetworkError{ID: id, StatusCode: resp.statusCode}
		}

		return parseRecord(id, resp.body)
	}
}

// Close closes idle connections held by the client. Safe on a nil receiver.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}

type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

// get performs one GET bounded by the client timeout.
func (c *Client) get(ctx context.Context, target string) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	return response{statusCode: resp.StatusCode, header: resp.Header, body: body}, nil
}

// retryAfter parses a Retry-After header given either as delay-seconds or as
// an HTTP-date. Hints are capped at maxBackoff.
func retryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	} else {
		return 0, false
	}

	if d > maxBackoff {
		d = maxBackoff
	}
	return d, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
