package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/serverboard"
	"github.com/jpalmerr/serverboard/example/mockapi"
)

func main() {
	// start the mock status API (see mockapi/)
	mock := mockapi.New(time.Now().UnixNano())
	mock.RateLimitEvery = 9
	go func() {
		if err := http.ListenAndServe(":9999", mock.Routes()); err != nil {
			slog.Error("mock api error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// cards are logged instead of posted; swap in NewDiscordMessenger to publish
	board, err := serverboard.New(
		serverboard.WithServers("1001", "1002", "1003"),
		serverboard.WithMessenger(serverboard.NewLogMessenger(logger)),
		serverboard.WithURLTemplate("http://localhost:9999/servers/{{.ID}}"),
		serverboard.WithMode(serverboard.ModeDecoupled),
		serverboard.WithRefreshInterval(5*time.Second),
		serverboard.WithReconcileInterval(2*time.Second),
		serverboard.WithRetry(3, 500*time.Millisecond),
		serverboard.WithPort(8080),
		serverboard.WithLogger(logger),
		serverboard.WithStatusCallback(func(r serverboard.StatusResult) {
			if r.Error == nil && r.Tier == serverboard.TierOffline {
				logger.Warn("server went offline", "server_id", r.ServerID)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create serverboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  serverboard demo")
	fmt.Println()
	fmt.Println("  Status JSON:  http://localhost:8080/")
	fmt.Println("  Metrics:      http://localhost:8080/metrics")
	fmt.Println("  3 mock servers, cards logged to stderr")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("serverboard error", "error", err)
		os.Exit(1)
	}
}
