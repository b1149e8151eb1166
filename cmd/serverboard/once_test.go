package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunOnce(t *testing.T) {
	clearEnv(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/servers/1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"attributes":{"status":"online","players":60,"maxPlayers":100,"name":"EU #1"}}}`))
	}))
	defer api.Close()

	configPath := writeConfig(t, `
servers: ["1", "2"]
status_api:
  url_template: `+api.URL+`/servers/{{.ID}}
`)

	output, err := executeCmd(t, "once", "-c", configPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("once command error = %v", err)
	}

	var results []onceResult
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "1" || results[0].Status != "Online" || results[0].Players != 60 || results[0].Name != "EU #1" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].ID != "2" || results[1].Error == "" {
		t.Errorf("results[1] = %+v, want fetch error", results[1])
	}
}

func TestRunOnce_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, `servers: ["1"]`)

	_, err := executeCmd(t, "once", "-c", configPath, "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "log-level") {
		t.Errorf("error = %v, want invalid log level", err)
	}
}
