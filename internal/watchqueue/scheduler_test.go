package watchqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alpha-move/internal/clock"
	"alpha-move/internal/enrichment"
	"alpha-move/internal/storage/memory"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeEnricher struct {
	mu      sync.Mutex
	calls   []string
	panicOn map[string]bool
	onCall  func(n int)
}

func (f *fakeEnricher) Enrich(_ context.Context, addr string) enrichment.Report {
	f.mu.Lock()
	f.calls = append(f.calls, addr)
	n := len(f.calls)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(n)
	}
	if f.panicOn[addr] {
		panic("provider exploded")
	}
	return enrichment.Report{TokenAddress: addr}
}

func (f *fakeEnricher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingRenewStore struct {
	*memory.WatchQueueStore
}

func (failingRenewStore) Renew(context.Context, string, time.Time) error {
	return errors.New("db down")
}

func TestScheduler_TickEnrichesAndRenews(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(t0)
	store := memory.NewWatchQueueStore()
	enricher := &fakeEnricher{}

	require.NoError(t, store.Touch(ctx, "A", t0))
	require.NoError(t, store.Touch(ctx, "B", t0))

	s := New(Options{Store: store, Enricher: enricher, Clock: clk, ItemDelay: 5 * time.Second, Cooldown: time.Hour})

	res := s.Tick(ctx)
	assert.Equal(t, 2, res.Due)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, enricher.count())

	e, err := store.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, e.LastEnrichedAt.Equal(t0), "renewed at enrichment time")

	e, err = store.Get(ctx, "B")
	require.NoError(t, err)
	assert.True(t, e.LastEnrichedAt.Equal(t0.Add(5*time.Second)), "item delay elapsed before B")
}

func TestScheduler_RenewedEntryWaitsForCooldown(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(t0)
	store := memory.NewWatchQueueStore()
	enricher := &fakeEnricher{}

	require.NoError(t, store.Touch(ctx, "A", t0))
	s := New(Options{Store: store, Enricher: enricher, Clock: clk, ItemDelay: time.Second, Cooldown: time.Hour})

	require.Equal(t, 1, s.Tick(ctx).Processed)

	for i := 0; i < 5; i++ {
		clk.Advance(10 * time.Minute)
		assert.Zero(t, s.Tick(ctx).Due, "tick %d", i)
	}

	clk.Advance(10 * time.Minute)
	assert.Equal(t, 1, s.Tick(ctx).Due)
	assert.Equal(t, 2, enricher.count())
}

func TestScheduler_PanicDoesNotAbortTick(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(t0)
	store := memory.NewWatchQueueStore()
	enricher := &fakeEnricher{panicOn: map[string]bool{"A": true}}

	require.NoError(t, store.Touch(ctx, "A", t0))
	require.NoError(t, store.Touch(ctx, "B", t0))

	s := New(Options{Store: store, Enricher: enricher, Clock: clk})
	res := s.Tick(ctx)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Panicked)

	for _, addr := range []string{"A", "B"} {
		e, err := store.Get(ctx, addr)
		require.NoError(t, err)
		assert.False(t, e.LastEnrichedAt.Equal(time.Unix(0, 0)), "%s renewed", addr)
	}
}

func TestScheduler_RenewFailureIsCounted(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewWatchQueueStore()
	require.NoError(t, mem.Touch(ctx, "A", t0))

	s := New(Options{Store: failingRenewStore{mem}, Enricher: &fakeEnricher{}, Clock: clock.NewManual(t0)})
	res := s.Tick(ctx)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.RenewErrors)
	assert.Len(t, res.Errors, 1)
}

func TestScheduler_InactiveEntriesAreIgnored(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWatchQueueStore()
	enricher := &fakeEnricher{}

	require.NoError(t, store.Touch(ctx, "Old", t0.Add(-8*24*time.Hour)))

	s := New(Options{Store: store, Enricher: enricher, Clock: clock.NewManual(t0)})
	assert.Zero(t, s.Tick(ctx).Due)
	assert.Zero(t, enricher.count())
}

func TestScheduler_ConcurrentBatch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewWatchQueueStore()
	enricher := &fakeEnricher{}

	addrs := []string{"A", "B", "C", "D", "E"}
	for _, a := range addrs {
		require.NoError(t, store.Touch(ctx, a, t0))
	}

	s := New(Options{Store: store, Enricher: enricher, Clock: clock.NewManual(t0), Concurrency: 3, BatchSize: 4})
	res := s.Tick(ctx)

	assert.Equal(t, 4, res.Due)
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 4, enricher.count())
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.NewManual(t0)
	store := memory.NewWatchQueueStore()
	require.NoError(t, store.Touch(ctx, "A", t0))

	enricher := &fakeEnricher{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	s := New(Options{Store: store, Enricher: enricher, Clock: clk, Interval: time.Minute, Cooldown: time.Hour})
	err := s.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, enricher.count())
	assert.True(t, clk.Now().Sub(t0) > time.Hour, "second enrichment only after cooldown")
}
