package battlemetrics

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork matches every failure that did not produce a usable response:
	// transport errors, non-2xx statuses and exhausted rate-limit retries.
	ErrNetwork = errors.New("status api request failed")

	// ErrRateLimited matches a fetch that gave up after repeated 429 responses.
	ErrRateLimited = errors.New("status api rate limit exceeded")

	// ErrParse matches a 2xx response whose body did not have the expected shape.
	ErrParse = errors.New("unexpected status api response")
)

// NetworkError reports a transport failure or a non-2xx, non-429 response.
type NetworkError struct {
	ID string

	// StatusCode is zero when no response was received.
	StatusCode int

	Err error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server %s: status api returned HTTP %d", e.ID, e.StatusCode)
	}
	return fmt.Sprintf("server %s: %v", e.ID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrNetwork].
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// RateLimitedError is returned once the retry budget for 429 responses is spent.
// It matches both [ErrRateLimited] and [ErrNetwork].
type RateLimitedError struct {
	ID       string
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("server %s: rate limited after %d attempts", e.ID, e.Attempts)
}

// Is reports whether target is [ErrRateLimited] or [ErrNetwork].
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited || target == ErrNetwork
}

// ParseError reports a response body that could not be turned into a [Record].
type ParseError struct {
	ID  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("server %s: %v: %v", e.ID, ErrParse, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrParse].
func (e *ParseError) Is(target error) bool { return target == ErrParse }
