// Package battlemetrics fetches game-server status from a BattleMetrics-style
// JSON API.
//
// This package is internal to serverboard. It owns the HTTP transport used to
// query the status API, the decoding of the response into a [Record], and the
// bounded retry loop applied when the API answers 429 Too Many Requests.
//
// The main components are:
//
//   - [Client]: templated-URL HTTP client with per-request timeouts
//   - [Record]: normalized status of one remote server
//   - [NetworkError], [RateLimitedError], [ParseError]: failure taxonomy,
//     matchable with errors.Is against [ErrNetwork], [ErrRateLimited] and
//     [ErrParse]
//
// A Client never touches the cache or the chat platform; callers decide what
// to do with a successful record or a failure.
package battlemetrics
