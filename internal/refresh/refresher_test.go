package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"clobview/internal/engineapi"
	"clobview/internal/state"
	"clobview/internal/view"
)

// fakeFetcher counts cycles and can simulate a fully down engine.
type fakeFetcher struct {
	calls atomic.Int64
	down  bool
}

func (f *fakeFetcher) Quote(ctx context.Context) (engineapi.Quote, bool) {
	f.calls.Add(1)
	if f.down {
		return engineapi.Quote{}, false
	}
	bid, ask, spread := int64(10450), int64(10500), int64(50)
	return engineapi.Quote{BestBid: &bid, BestAsk: &ask, Spread: &spread}, true
}

func (f *fakeFetcher) Book(ctx context.Context) (engineapi.Book, bool) {
	if f.down {
		return engineapi.Book{}, false
	}
	return engineapi.Book{Bids: []engineapi.PriceLevel{{Price: 10450, Quantity: 100}}}, true
}

func (f *fakeFetcher) Stats(ctx context.Context) (engineapi.Stats, bool) {
	if f.down {
		return engineapi.Stats{}, false
	}
	return engineapi.Stats{ActiveOrders: 1, PoolCapacity: 100}, true
}

func (f *fakeFetcher) Trades(ctx context.Context) ([]engineapi.Trade, bool) {
	if f.down {
		return nil, false
	}
	return []engineapi.Trade{}, true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRefresher(f Fetcher, st *state.State, onRender func(view.Snapshot)) *Refresher {
	return New(f, st, testLogger(), onRender, Options{
		MinInterval:     50 * time.Millisecond,
		MaxInterval:     time.Second,
		ManualPerSecond: 1000,
	})
}

func TestRefreshNowStoresAndRenders(t *testing.T) {
	f := &fakeFetcher{}
	st := state.New(time.Second)
	var rendered atomic.Int64
	r := newTestRefresher(f, st, func(view.Snapshot) { rendered.Add(1) })

	snap, err := r.RefreshNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Unavailable || snap.Quote == nil {
		t.Fatalf("snapshot got %+v", snap)
	}
	stored, ok := st.Snapshot()
	if !ok || stored.CycleID != snap.CycleID {
		t.Fatal("snapshot not stored")
	}
	if rendered.Load() != 1 {
		t.Fatalf("render calls got %d want 1", rendered.Load())
	}
}

func TestRefreshNowAllDown(t *testing.T) {
	f := &fakeFetcher{down: true}
	st := state.New(time.Second)
	r := newTestRefresher(f, st, nil)

	snap, err := r.RefreshNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Unavailable {
		t.Fatal("want single unavailable state")
	}
	if st.BackendUp() {
		t.Fatal("backend must be marked down")
	}
}

func TestAutoRefreshCancelBeforeInterval(t *testing.T) {
	f := &fakeFetcher{}
	st := state.New(time.Second)
	r := newTestRefresher(f, st, nil)

	r.SetAuto(context.Background(), true, 200*time.Millisecond)
	// The loop fetches once immediately on enable; give it a moment.
	time.Sleep(50 * time.Millisecond)
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("calls after enable got %d want 1", got)
	}

	r.SetAuto(context.Background(), false, 0)
	before := f.calls.Load()
	time.Sleep(400 * time.Millisecond) // well past the old interval
	if got := f.calls.Load(); got != before {
		t.Fatalf("fetch issued after disable: %d -> %d", before, got)
	}

	if on, _ := st.Auto(); on {
		t.Fatal("state still reports auto on")
	}
}

func TestAutoRefreshRepeats(t *testing.T) {
	f := &fakeFetcher{}
	st := state.New(time.Second)
	r := newTestRefresher(f, st, nil)

	r.SetAuto(context.Background(), true, 60*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	r.Stop()

	if got := f.calls.Load(); got < 3 {
		t.Fatalf("expected repeated cycles, got %d", got)
	}
}

func TestIntervalClamped(t *testing.T) {
	r := newTestRefresher(&fakeFetcher{}, state.New(time.Second), nil)
	if got := r.ClampInterval(time.Millisecond); got != 50*time.Millisecond {
		t.Fatalf("low clamp got %v", got)
	}
	if got := r.ClampInterval(time.Hour); got != time.Second {
		t.Fatalf("high clamp got %v", got)
	}
	if got := r.ClampInterval(100 * time.Millisecond); got != 100*time.Millisecond {
		t.Fatalf("in-range value changed: %v", got)
	}
}

func TestManualThrottle(t *testing.T) {
	f := &fakeFetcher{}
	st := state.New(time.Second)
	r := New(f, st, testLogger(), nil, Options{
		MinInterval:     50 * time.Millisecond,
		MaxInterval:     time.Second,
		ManualPerSecond: 1, // burst of one
	})
	if _, err := r.RefreshNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RefreshNow(context.Background()); err != ErrThrottled {
		t.Fatalf("second immediate refresh got %v want ErrThrottled", err)
	}
}
