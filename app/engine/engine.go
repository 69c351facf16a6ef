package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/danbi-labs/joonggo-radar/app/cfg"
	"github.com/danbi-labs/joonggo-radar/app/config"
	"github.com/danbi-labs/joonggo-radar/app/database"
	"github.com/danbi-labs/joonggo-radar/app/dispatch"
	"github.com/danbi-labs/joonggo-radar/app/enrich"
	"github.com/danbi-labs/joonggo-radar/app/listing"
	"github.com/danbi-labs/joonggo-radar/app/sources"
)

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// ErrCycleInProgress is returned by RunOnce when a cycle is already
// executing.
var ErrCycleInProgress = errors.New("cycle already in progress")

// consecutiveEmptyWarning is the number of empty cycles on one platform
// after which the engine raises a warning.
const consecutiveEmptyWarning = 3

// Engine drives the monitoring loop: every cycle it snapshots the enabled
// keywords, searches the due ones across their platforms, stores and
// classifies the results, and hands notification-worthy events to the
// dispatcher.
type Engine struct {
	configCache *config.Cache
	registry    *sources.Registry
	listings    database.ListingRepository
	stats       database.StatsRepository
	dispatcher  *dispatch.Dispatcher
	filterer    *listing.Filterer
	extractor   *enrich.Extractor

	interval      time.Duration
	concurrency   int
	platformPause time.Duration
	keywordPause  time.Duration
	retryBase     time.Duration
	now           func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	runCtx context.Context
	wg     sync.WaitGroup

	cycleMu    sync.Mutex
	firstCycle bool

	emptyMu     sync.Mutex
	emptyCycles map[string]int

	events chan Event
}

// New wires an engine from its collaborators. The enrichment extractor is
// optional; pass nil to disable detail fetching.
func New(configCache *config.Cache, registry *sources.Registry,
	listings database.ListingRepository, stats database.StatsRepository,
	dispatcher *dispatch.Dispatcher, extractor *enrich.Extractor) *Engine {
	c := cfg.Get()

	return &Engine{
		configCache:   configCache,
		registry:      registry,
		listings:      listings,
		stats:         stats,
		dispatcher:    dispatcher,
		filterer:      listing.NewFilterer(),
		extractor:     extractor,
		interval:      time.Duration(c.CycleInterval) * time.Second,
		concurrency:   c.KeywordConcurrency,
		platformPause: time.Duration(c.PlatformPause) * time.Second,
		keywordPause:  time.Duration(c.KeywordPause) * time.Second,
		retryBase:     time.Second,
		now:           time.Now,
		state:         StateIdle,
		runCtx:        context.Background(),
		firstCycle:    true,
		emptyCycles:   make(map[string]int),
		events:        make(chan Event, 100),
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start launches the cycle loop. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		slog.Debug("Engine already running, ignoring Start")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.runCtx = ctx
	e.state = StateRunning
	e.mu.Unlock()

	slog.Info("Engine started",
		"interval", e.interval,
		"concurrency", e.concurrency,
		"keywords", e.configCache.GetKeywordCount())
	e.emit(Event{Type: EventStatus, Message: "모니터링 시작"})

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		e.dispatcher.Announce(ctx, "📢 중고 매물 모니터링을 시작합니다")

		if err := e.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Cycle failed", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.RunOnce(ctx); err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					if !errors.Is(err, ErrCycleInProgress) {
						slog.Error("Cycle failed", "error", err)
					}
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for in-flight work. Calling Stop on an
// idle engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		slog.Debug("Engine not running, ignoring Stop")
		return
	}
	e.state = StateStopping
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()

	// A manually triggered cycle may still hold the cycle lock; its
	// context is cancelled, so this is a short wait.
	e.cycleMu.Lock()
	e.cycleMu.Unlock()

	e.mu.Lock()
	e.state = StateIdle
	e.runCtx = context.Background()
	e.mu.Unlock()

	slog.Info("Engine stopped")
	e.emit(Event{Type: EventStatus, Message: "모니터링 중지"})
}

// RunContext returns the context governing cycles triggered outside the
// loop (e.g. the manual API trigger), so Stop cancels them too. While the
// engine is idle it is a plain background context.
func (e *Engine) RunContext() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runCtx
}

// Busy reports whether a cycle is currently executing.
func (e *Engine) Busy() bool {
	if e.cycleMu.TryLock() {
		e.cycleMu.Unlock()
		return false
	}
	return true
}

// sleep pauses for d but returns early when ctx is cancelled.
func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
