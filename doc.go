// Package serverboard keeps a set of chat messages in sync with the live
// status of game servers listed on BattleMetrics.
//
// serverboard is SDK-first: the CLI in cmd/serverboard is a thin wrapper
// around [New] and [Board.Start]. Each configured server gets exactly one
// status card in a chat channel. The card is created on the first pass and
// edited in place on every pass after that.
//
// # Quick Start
//
//	m, _ := serverboard.NewDiscordMessenger(token, channelID, nil)
//	b, _ := serverboard.New(
//	    serverboard.WithServers("1234567", "7654321"),
//	    serverboard.WithMessenger(m),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Scheduling Modes
//
// Refresh passes fetch every server and update the status cache. Reconcile
// passes render every cached status and publish it to chat.
//
//   - [ModeCoupled]: one timer, refresh then reconcile (default)
//   - [ModeDecoupled]: separate refresh and reconcile timers
//   - [ModeOnUpdate]: every cache update is published as soon as it lands
//
// # Status Tiers
//
// A server is [TierOffline] when the API reports it offline, [TierSeeding]
// when online with fewer than 55 players, and [TierOnline] otherwise.
//
// # HTTP Endpoint
//
// A small HTTP server runs alongside the scheduler:
//
//   - GET /: JSON list of cached statuses in configured order
//   - GET /health, GET /ping: liveness
//   - GET /metrics: Prometheus metrics
//
// # Architecture
//
// serverboard consists of several internal packages (under internal/):
//
//   - battlemetrics: HTTP client with bounded retry on 429
//   - store: in-memory status cache with pub/sub
//   - card: tier classification and card rendering
//   - chat: message reconciliation and the Discord adapter
//   - poller: refresh and reconcile scheduling
//   - server: HTTP endpoint
//   - metrics: Prometheus collectors
package serverboard
