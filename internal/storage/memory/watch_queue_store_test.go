package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"alpha-move/internal/storage"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestWatchQueueStore_TouchedEntryIsDueImmediately(t *testing.T) {
	store := NewWatchQueueStore()
	ctx := context.Background()

	if err := store.Touch(ctx, "tokenA", t0); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	due, err := store.Due(ctx, t0, time.Hour, 24*time.Hour, 50)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due) != 1 || due[0].TokenAddress != "tokenA" {
		t.Fatalf("expected tokenA due, got %+v", due)
	}
}

func TestWatchQueueStore_RenewedNotDueUntilCooldown(t *testing.T) {
	store := NewWatchQueueStore()
	ctx := context.Background()

	if err := store.Touch(ctx, "tokenA", t0); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if err := store.Renew(ctx, "tokenA", t0); err != nil {
		t.Fatalf("Renew failed: %v", err)
	}

	for _, offset := range []time.Duration{time.Minute, 30 * time.Minute, time.Hour} {
		due, err := store.Due(ctx, t0.Add(offset), time.Hour, 24*time.Hour, 50)
		if err != nil {
			t.Fatalf("Due failed: %v", err)
		}
		if len(due) != 0 {
			t.Errorf("at +%v expected nothing due, got %d", offset, len(due))
		}
	}

	due, err := store.Due(ctx, t0.Add(time.Hour+time.Second), time.Hour, 24*time.Hour, 50)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due) != 1 {
		t.Errorf("expected entry due after cooldown, got %d", len(due))
	}
}

func TestWatchQueueStore_InactiveNotDue(t *testing.T) {
	store := NewWatchQueueStore()
	ctx := context.Background()

	if err := store.Touch(ctx, "tokenA", t0); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	due, err := store.Due(ctx, t0.Add(48*time.Hour), time.Hour, 24*time.Hour, 50)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected stale entry to be skipped, got %d", len(due))
	}
}

func TestWatchQueueStore_RenewIsMonotonic(t *testing.T) {
	store := NewWatchQueueStore()
	ctx := context.Background()

	_ = store.Touch(ctx, "tokenA", t0)
	_ = store.Renew(ctx, "tokenA", t0.Add(time.Hour))
	_ = store.Renew(ctx, "tokenA", t0)

	e, err := store.Get(ctx, "tokenA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !e.LastEnrichedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("LastEnrichedAt moved backwards: %v", e.LastEnrichedAt)
	}
}

func TestWatchQueueStore_DueOrderAndLimit(t *testing.T) {
	store := NewWatchQueueStore()
	ctx := context.Background()

	for i, addr := range []string{"a", "b", "c"} {
		_ = store.Touch(ctx, addr, t0)
		_ = store.Renew(ctx, addr, t0.Add(time.Duration(i)*time.Minute))
	}
	// "a" was enriched least recently.
	due, err := store.Due(ctx, t0.Add(3*time.Hour), time.Hour, 24*time.Hour, 2)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due) != 2 || due[0].TokenAddress != "a" || due[1].TokenAddress != "b" {
		t.Errorf("unexpected due order: %+v", due)
	}
}

func TestWatchQueueStore_RenewMissing(t *testing.T) {
	store := NewWatchQueueStore()

	err := store.Renew(context.Background(), "missing", t0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
