package storage

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// runStoreContract exercises the Store behaviors every backend must share.
// Expiry is backend-specific (wall clock vs. server clock) and is tested per
// backend instead.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.GetValue(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetValue on missing key: got %v, want ErrNotFound", err)
	}
	if err := store.UnsetValue(ctx, "missing"); err != nil {
		t.Fatalf("UnsetValue on missing key must be idempotent, got %v", err)
	}

	if err := store.SetValue(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	got, err := store.GetValue(ctx, "k1")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("GetValue returned %q, want %q", got, "v1")
	}

	// Overwrite replaces the previous entry.
	if err := store.SetValue(ctx, "k1", []byte("v2"), 0); err != nil {
		t.Fatalf("SetValue overwrite failed: %v", err)
	}
	got, err = store.GetValue(ctx, "k1")
	if err != nil || !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("GetValue after overwrite returned %q, %v", got, err)
	}

	if err := store.UnsetValue(ctx, "k1"); err != nil {
		t.Fatalf("UnsetValue failed: %v", err)
	}
	if _, err := store.GetValue(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetValue after unset: got %v, want ErrNotFound", err)
	}

	// Take returns the value exactly once.
	if err := store.SetValue(ctx, "k2", []byte("once"), 0); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	got, err = store.TakeValue(ctx, "k2")
	if err != nil || !bytes.Equal(got, []byte("once")) {
		t.Fatalf("TakeValue returned %q, %v", got, err)
	}
	if _, err := store.TakeValue(ctx, "k2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second TakeValue: got %v, want ErrNotFound", err)
	}
}

// runTakeRace asserts that concurrent TakeValue calls on one key produce
// exactly one winner.
func runTakeRace(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.SetValue(ctx, "contended", []byte("prize"), 0); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.TakeValue(ctx, "contended"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly one winner, got %d", won)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestMemoryStoreTakeRace(t *testing.T) {
	runTakeRace(t, NewMemory())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.SetValue(ctx, "short", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if _, err := store.GetValue(ctx, "short"); err != nil {
		t.Fatalf("value must be readable before expiry: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := store.GetValue(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired value: got %v, want ErrNotFound", err)
	}
}
