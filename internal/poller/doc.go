// Package poller drives the fetch, cache and reconcile cycle on timers.
//
// This package is internal to serverboard. The refresh timer runs on its own
// goroutine. Reconcile ticks and on-update publishing run on a second one, so
// a refresh pass stalled on a slow or rate-limited fetch does not delay chat
// updates for servers that are already cached.
//
// Three modes are supported:
//
//   - [ModeCoupled]: one ticker; each tick refreshes every server and then
//     reconciles every chat message
//   - [ModeDecoupled]: a refresh ticker and an independent reconcile ticker
//     that publishes whatever is cached
//   - [ModeOnUpdate]: a refresh ticker; every successful cache update is
//     reconciled as soon as it arrives, and the cache is swept after each
//     refresh pass for updates the subscription dropped
//
// Servers are processed in configured order. Fetches may optionally fan out
// with a concurrency limit; chat reconciliation is always sequential.
package poller
