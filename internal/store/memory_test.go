package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
)

func rec(name string, online bool, players int) battlemetrics.Record {
	return battlemetrics.Record{Online: online, Players: players, MaxPlayers: 100, Name: name}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore([]string{"a", "b"})
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	// should start empty
	if len(store.All()) != 0 {
		t.Errorf("All() = %v items, want 0", len(store.All()))
	}
	if got := store.IDs(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("IDs() = %v, want [a b]", got)
	}
}

func TestNewMemoryStore_CollapsesDuplicates(t *testing.T) {
	store := NewMemoryStore([]string{"a", "b", "a"})
	if got := store.IDs(); len(got) != 2 {
		t.Errorf("IDs() = %v, want 2 unique ids", got)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore([]string{"1"})
	now := time.Now()

	if err := store.Update("1", rec("Test", true, 10), now); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	e, ok := store.Get("1")
	if !ok {
		t.Fatal("Get() ok = false after Update")
	}
	if e.ID != "1" || e.Record.Name != "Test" || !e.FetchedAt.Equal(now) {
		t.Errorf("Get() = %+v", e)
	}
}

func TestMemoryStore_UpdateUnknownServer(t *testing.T) {
	store := NewMemoryStore([]string{"1"})

	err := store.Update("2", rec("X", true, 1), time.Now())
	if !errors.Is(err, ErrUnknownServer) {
		t.Errorf("Update() error = %v, want ErrUnknownServer", err)
	}
	if _, ok := store.Get("2"); ok {
		t.Error("unknown server must not be stored")
	}
}

func TestMemoryStore_UpdateReplacesWholesale(t *testing.T) {
	store := NewMemoryStore([]string{"1"})

	_ = store.Update("1", battlemetrics.Record{Online: true, Players: 60, MaxPlayers: 100, Name: "Old"}, time.Now())
	_ = store.Update("1", battlemetrics.Record{Online: false, Name: "New"}, time.Now())

	e, _ := store.Get("1")
	want := battlemetrics.Record{Online: false, Name: "New"}
	if e.Record != want {
		t.Errorf("Get().Record = %+v, want %+v (no merge with previous record)", e.Record, want)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_AllFollowsConfiguredOrderAndSkipsAbsent(t *testing.T) {
	store := NewMemoryStore([]string{"c", "a", "b"})

	_ = store.Update("b", rec("B", true, 1), time.Now())
	_ = store.Update("c", rec("C", true, 1), time.Now())

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("All() = %v items, want 2", len(all))
	}
	if all[0].ID != "c" || all[1].ID != "b" {
		t.Errorf("All() order = [%s %s], want [c b]", all[0].ID, all[1].ID)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore([]string{"1"})

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		_ = store.Update("1", rec("Test", true, 1), time.Now())
	}()

	select {
	case e := <-ch:
		if e.ID != "1" {
			t.Errorf("received ID = %v, want %v", e.ID, "1")
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore([]string{"1"})

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore([]string{"1"})

	// never read from this subscriber
	_ = store.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*subscriberBuffer; i++ {
			_ = store.Update("1", rec("Test", true, i), time.Now())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Update() blocked on slow subscriber")
	}

	if got := store.Dropped(); got != subscriberBuffer {
		t.Errorf("Dropped() = %d, want %d", got, subscriberBuffer)
	}
}

func TestMemoryStore_DroppedZeroWithoutSubscribers(t *testing.T) {
	store := NewMemoryStore([]string{"1"})
	_ = store.Update("1", rec("Test", true, 1), time.Now())

	if got := store.Dropped(); got != 0 {
		t.Errorf("Dropped() = %d, want 0", got)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore([]string{"1", "2"})

	var wg sync.WaitGroup
	const n = 100

	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < n; j++ {
				_ = store.Update("1", rec("A", true, j), time.Now())
				_ = store.Update("2", rec("B", false, 0), time.Now())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < n; j++ {
				_ = store.All()
				_, _ = store.Get("1")
			}
		}()
	}

	wg.Wait()

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}
