package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandler_ServesStatusDocument(t *testing.T) {
	h := New(1)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servers/42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var doc serverDocument
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	a := doc.Data.Attributes
	if a.Name != "Mock Server 42" || a.Status != "online" || a.MaxPlayers != maxPlayers {
		t.Errorf("attributes = %+v", a)
	}
	if a.Players < 0 || a.Players > maxPlayers {
		t.Errorf("players = %d out of range", a.Players)
	}
}

func TestHandler_RateLimitEvery(t *testing.T) {
	h := New(1)
	h.RateLimitEvery = 2
	routes := h.Routes()

	var codes []int
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servers/1", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "1" {
			t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
		}
	}

	want := []int{200, 429, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes = %v, want %v", codes, want)
			break
		}
	}
}

func TestHandler_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	New(1).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
