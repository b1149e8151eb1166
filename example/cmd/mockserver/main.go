// Standalone mock status API for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/serverboard serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/serverboard/example/mockapi"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	rateLimitEvery := flag.Int("429-every", 7, "answer every Nth request with 429 (0 disables)")
	flag.Parse()

	fmt.Printf("Mock status API starting on %s\n", *addr)
	fmt.Println("Servers drift in player count and toggle offline every 20-60s")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	h := mockapi.New(time.Now().UnixNano())
	h.RateLimitEvery = *rateLimitEvery

	srv := &http.Server{
		Addr:              *addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
