package serverboard

import (
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	b, err := New(WithServers("1", "2"), WithMessenger(newRecordingMessenger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := b.Servers(); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("Servers() = %v, want [1 2]", got)
	}
}

func TestNew_NoServers(t *testing.T) {
	_, err := New(WithMessenger(newRecordingMessenger()))
	if err == nil {
		t.Error("New() expected error for no servers, got nil")
	}
}

func TestNew_NoMessenger(t *testing.T) {
	_, err := New(WithServers("1"))
	if err == nil || !strings.Contains(err.Error(), "messenger") {
		t.Errorf("New() error = %v, want messenger required", err)
	}
}

func TestNew_DuplicateServers(t *testing.T) {
	_, err := New(
		WithServers("1", "2"),
		WithServers("1"),
		WithMessenger(newRecordingMessenger()),
	)
	if err == nil || !strings.Contains(err.Error(), "duplicate server id") {
		t.Errorf("New() error = %v, want error containing 'duplicate server id'", err)
	}
}

func TestNew_InvalidURLTemplate(t *testing.T) {
	_, err := New(
		WithServers("1"),
		WithMessenger(newRecordingMessenger()),
		WithURLTemplate("http://x/{{.ID"),
	)
	if err == nil {
		t.Error("New() expected error for unparsable url template")
	}
}

func TestNew_Defaults(t *testing.T) {
	b, err := New(WithServers("1"), WithMessenger(newRecordingMessenger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Port() != 8080 {
		t.Errorf("Port() = %v, want %v", b.Port(), 8080)
	}
	if b.Mode() != ModeCoupled {
		t.Errorf("Mode() = %v, want %v", b.Mode(), ModeCoupled)
	}
	if b.RefreshInterval() != 5*time.Second {
		t.Errorf("RefreshInterval() = %v, want 5s", b.RefreshInterval())
	}
	if b.ReconcileInterval() != time.Second {
		t.Errorf("ReconcileInterval() = %v, want 1s", b.ReconcileInterval())
	}
}

func TestServers_Immutability(t *testing.T) {
	ids := []string{"1", "2"}
	b, _ := New(WithServers(ids...), WithMessenger(newRecordingMessenger()))

	ids[0] = "changed"
	got := b.Servers()
	got[1] = "changed"

	if again := b.Servers(); again[0] != "1" || again[1] != "2" {
		t.Errorf("Servers() = %v, want [1 2] after caller mutation", again)
	}
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty server id", WithServers("1", "")},
		{"nil messenger", WithMessenger(nil)},
		{"unknown mode", WithMode("sometimes")},
		{"refresh too short", WithRefreshInterval(50 * time.Millisecond)},
		{"reconcile too short", WithReconcileInterval(0)},
		{"port zero", WithPort(0)},
		{"port too high", WithPort(65536)},
		{"nil logger", WithLogger(nil)},
		{"empty template", WithURLTemplate("")},
		{"zero timeout", WithRequestTimeout(0)},
		{"negative retries", WithRetry(-1, time.Second)},
		{"zero retry delay", WithRetry(3, 0)},
		{"odd headers", WithHeaders("Authorization")},
		{"zero concurrency", WithFetchConcurrency(0)},
		{"zero chat rate", WithChatRate(0, 1)},
		{"zero chat burst", WithChatRate(1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opt(&boardConfig{}); err == nil {
				t.Errorf("option %s: expected error, got nil", tt.name)
			}
		})
	}
}

func TestOptions_Valid(t *testing.T) {
	b, err := New(
		WithServers("1"),
		WithMessenger(newRecordingMessenger()),
		WithMode(ModeDecoupled),
		WithRefreshInterval(100*time.Millisecond),
		WithReconcileInterval(2*time.Second),
		WithPort(1),
		WithLogger(testLogger()),
		WithURLTemplate("http://localhost/servers/{{.ID}}"),
		WithRequestTimeout(time.Second),
		WithRetry(0, time.Millisecond),
		WithHeaders("Authorization", "Bearer x"),
		WithFetchConcurrency(4),
		WithChatRate(2, 1),
		WithBranding(Branding{FooterText: "x"}),
		WithStatusCallback(nil),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Mode() != ModeDecoupled || b.Port() != 1 || b.ReconcileInterval() != 2*time.Second {
		t.Errorf("got mode=%v port=%d reconcile=%v", b.Mode(), b.Port(), b.ReconcileInterval())
	}
	if len(b.statusCallbacks) != 0 {
		t.Errorf("nil callback registered: %d callbacks", len(b.statusCallbacks))
	}
}

func TestWithPort_ValidEdgeCases(t *testing.T) {
	for _, port := range []int{1, 65535} {
		if _, err := New(WithServers("1"), WithMessenger(newRecordingMessenger()), WithPort(port)); err != nil {
			t.Errorf("WithPort(%d) error = %v", port, err)
		}
	}
}
