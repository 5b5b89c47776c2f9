// Package refresh drives the poll cycle: fetch the four engine resources,
// merge them into one snapshot, hand it to the renderer, then wait. One
// goroutine at most runs the auto loop and cycles never overlap; cancelling
// auto-refresh takes effect at the wait boundary, never mid-render.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"clobview/internal/engineapi"
	"clobview/internal/state"
	"clobview/internal/view"
)

// Fetcher is the read side of the engine API. *engineapi.Client satisfies it;
// tests substitute fakes.
type Fetcher interface {
	Quote(ctx context.Context) (engineapi.Quote, bool)
	Book(ctx context.Context) (engineapi.Book, bool)
	Stats(ctx context.Context) (engineapi.Stats, bool)
	Trades(ctx context.Context) ([]engineapi.Trade, bool)
}

// ErrThrottled is returned when manual refreshes arrive faster than the
// engine should be polled.
var ErrThrottled = errors.New("refresh throttled")

type Options struct {
	TradesShown int
	LevelsShown int
	MinInterval time.Duration
	MaxInterval time.Duration
	// ManualPerSecond caps operator-triggered refreshes so a hammered
	// refresh button cannot flood the engine.
	ManualPerSecond float64
}

func (o *Options) fill() {
	if o.TradesShown <= 0 {
		o.TradesShown = 10
	}
	if o.LevelsShown <= 0 {
		o.LevelsShown = 15
	}
	if o.MinInterval <= 0 {
		o.MinInterval = time.Second
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 10 * time.Second
	}
	if o.ManualPerSecond <= 0 {
		o.ManualPerSecond = 5
	}
}

type Refresher struct {
	fetch    Fetcher
	st       *state.State
	log      *slog.Logger
	onRender func(view.Snapshot)
	opts     Options
	limiter  *rate.Limiter

	cycleMu sync.Mutex // serializes cycles: no overlapping fetches

	loopMu sync.Mutex // guards the auto-loop lifecycle below
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a refresher. onRender is called with every freshly built
// snapshot after it has been stored; it may be nil.
func New(fetch Fetcher, st *state.State, logger *slog.Logger, onRender func(view.Snapshot), opts Options) *Refresher {
	opts.fill()
	return &Refresher{
		fetch:    fetch,
		st:       st,
		log:      logger,
		onRender: onRender,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.ManualPerSecond), 1),
	}
}

// RefreshNow runs one manual cycle. It is safe to call while auto-refresh is
// on; the cycle mutex keeps fetches from overlapping.
func (r *Refresher) RefreshNow(ctx context.Context) (view.Snapshot, error) {
	if !r.limiter.Allow() {
		return view.Snapshot{}, ErrThrottled
	}
	return r.cycle(ctx), nil
}

// cycle performs fetch -> merge -> store -> render for one poll.
func (r *Refresher) cycle(ctx context.Context) view.Snapshot {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	var src view.Sources
	src.Quote, src.QuoteOK = r.fetch.Quote(ctx)
	src.Book, src.BookOK = r.fetch.Book(ctx)
	src.Stats, src.StatsOK = r.fetch.Stats(ctx)
	src.Trades, src.TradesOK = r.fetch.Trades(ctx)

	snap := view.Build(src, view.Limits{TradesShown: r.opts.TradesShown, LevelsShown: r.opts.LevelsShown}, time.Now())
	r.st.SetSnapshot(snap)

	if snap.Unavailable {
		r.log.Warn("engine unavailable", slog.String("cycle", snap.CycleID))
	} else {
		r.log.Debug("cycle rendered",
			slog.String("cycle", snap.CycleID),
			slog.Bool("quote", src.QuoteOK),
			slog.Bool("book", src.BookOK),
			slog.Bool("stats", src.StatsOK),
			slog.Bool("trades", src.TradesOK),
		)
	}
	if r.onRender != nil {
		r.onRender(snap)
	}
	return snap
}

// ClampInterval bounds an operator-chosen interval to the configured range.
func (r *Refresher) ClampInterval(iv time.Duration) time.Duration {
	if iv < r.opts.MinInterval {
		return r.opts.MinInterval
	}
	if iv > r.opts.MaxInterval {
		return r.opts.MaxInterval
	}
	return iv
}

// SetAuto toggles auto-refresh. Enabling starts the loop with the clamped
// interval (restarting it if already running); disabling stops the loop at
// its current wait boundary and waits for it to exit, so no further fetch is
// issued after SetAuto returns. The clamped interval in effect is returned.
func (r *Refresher) SetAuto(ctx context.Context, enabled bool, interval time.Duration) time.Duration {
	iv := r.ClampInterval(interval)

	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	// Stop any running loop first; both branches need it.
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
		r.done = nil
	}

	if !enabled {
		// Keep the operator's last interval for the next enable.
		r.st.SetAuto(false, 0)
		r.log.Info("auto-refresh off")
		return iv
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.st.SetAuto(true, iv)
	r.log.Info("auto-refresh on", slog.Duration("interval", iv))

	go r.run(loopCtx, iv, done)
	return iv
}

// Stop shuts the auto loop down (used on process exit).
func (r *Refresher) Stop() {
	r.SetAuto(context.Background(), false, 0)
}

func (r *Refresher) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(0) // first cycle fires immediately
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		// The select can win the timer after cancellation; re-check so a
		// disabled loop never issues another fetch.
		if ctx.Err() != nil {
			return
		}
		// In-flight requests of a running cycle finish on their own 2s
		// timeout; cancellation only applies at the wait boundary above.
		r.cycle(context.WithoutCancel(ctx))
		timer.Reset(interval)
	}
}
