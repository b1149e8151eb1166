// Package mockapi serves a fake BattleMetrics status API for demos and
// local testing of the CLI.
//
// Every id under /servers/{id} is a server whose player count drifts on
// each request. Servers occasionally go offline, and a configurable share
// of requests is answered with 429 and a Retry-After header so the retry
// path can be observed.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxPlayers = 100

// serverState tracks the simulated status of a single server.
type serverState struct {
	online       bool
	players      int
	nextChangeAt time.Time
}

// Handler is the mock status API.
type Handler struct {
	// RateLimitEvery answers every Nth request with 429. Zero disables it.
	RateLimitEvery int

	mu       sync.Mutex
	states   map[string]*serverState
	requests int
	rng      *rand.Rand
}

// New creates a mock API handler seeded from seed.
func New(seed int64) *Handler {
	return &Handler{
		states: make(map[string]*serverState),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Routes returns the router serving /servers/{id}.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/servers/{id}", h.serveStatus)
	return r
}

func (h *Handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	h.requests++
	if h.RateLimitEvery > 0 && h.requests%h.RateLimitEvery == 0 {
		h.mu.Unlock()
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	state := h.step(id)
	doc := document(id, state)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// step advances the simulation for id. Callers hold h.mu.
func (h *Handler) step(id string) serverState {
	state, exists := h.states[id]
	if !exists {
		state = &serverState{
			online:       true,
			players:      h.rng.Intn(maxPlayers),
			nextChangeAt: time.Now().Add(h.changeDelay()),
		}
		h.states[id] = state
	}

	// drift by up to 5 players either way
	state.players += h.rng.Intn(11) - 5
	state.players = min(max(state.players, 0), maxPlayers)

	// toggle online/offline when scheduled time is reached
	if time.Now().After(state.nextChangeAt) {
		state.online = !state.online
		state.nextChangeAt = time.Now().Add(h.changeDelay())
		slog.Info("server status change", "server_id", id, "online", state.online)
	}

	return *state
}

// changeDelay returns a random delay of 20-60 seconds.
func (h *Handler) changeDelay() time.Duration {
	return time.Duration(20+h.rng.Intn(41)) * time.Second
}

type attributes struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
}

type serverDocument struct {
	Data struct {
		Type       string     `json:"type"`
		ID         string     `json:"id"`
		Attributes attributes `json:"attributes"`
	} `json:"data"`
}

func document(id string, s serverState) serverDocument {
	var doc serverDocument
	doc.Data.Type = "server"
	doc.Data.ID = id
	doc.Data.Attributes = attributes{
		Name:       "Mock Server " + id,
		Status:     "online",
		Players:    s.players,
		MaxPlayers: maxPlayers,
	}
	if !s.online {
		doc.Data.Attributes.Status = "offline"
		doc.Data.Attributes.Players = 0
	}
	return doc
}
