package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch(nil)
	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("boom"))

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("fetch success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues(ResultFailure)); got != 1 {
		t.Errorf("fetch failure = %v, want 1", got)
	}
}

func TestMetrics_ObserveReconcileAndGauge(t *testing.T) {
	m := New()

	m.ObserveReconcile(ActionCreate, nil)
	m.ObserveReconcile(ActionEdit, errors.New("gone"))
	m.ObserveRetry()
	m.SetCached(3)

	if got := testutil.ToFloat64(m.ReconcileTotal.WithLabelValues(ActionCreate, ResultSuccess)); got != 1 {
		t.Errorf("create success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ReconcileTotal.WithLabelValues(ActionEdit, ResultFailure)); got != 1 {
		t.Errorf("edit failure = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FetchRetries); got != 1 {
		t.Errorf("retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CachedServers); got != 3 {
		t.Errorf("cached = %v, want 3", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(nil)
	m.ObserveRetry()
	m.ObserveReconcile(ActionCreate, nil)
	m.SetCached(1)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveFetch(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "serverboard_fetch_total") {
		t.Error("exposition should contain serverboard_fetch_total")
	}
}

func TestMetrics_TrackDroppedUpdates(t *testing.T) {
	m := New()
	var dropped uint64 = 7
	m.TrackDroppedUpdates(func() uint64 { return dropped })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "serverboard_dropped_updates_total 7") {
		t.Errorf("exposition missing dropped updates counter:\n%s", body)
	}
}
