package reservation

import (
	"log/slog"
	"sync"
	"time"

	"tix/pkg/logger"
)

// WatchUpdate is emitted by the Watcher whenever the reservation's validity
// or remaining time changes. Expired is set exactly once, on the tick that
// observed the hold lapsing; an explicit Clear shows up as Valid=false with
// Expired=false.
type WatchUpdate struct {
	Valid     bool
	Expired   bool
	Remaining int
	Urgent    bool
	EventID   string
	TicketIDs []string
}

const (
	// DefaultWatchInterval is how often the watcher re-reads the store.
	DefaultWatchInterval = time.Second

	// DefaultUrgentThreshold marks the countdown as urgent when this many
	// seconds or fewer remain.
	DefaultUrgentThreshold = 30
)

// Watcher periodically re-evaluates the Manager's state and publishes
// changes. It always goes back through Manager.Status instead of caching, so
// a merge that lands between ticks is picked up on the next one. One watcher
// drives one updates channel; Stop is idempotent and releases the ticker.
type Watcher struct {
	manager         *Manager
	interval        time.Duration
	urgentThreshold int
	log             *logger.Logger

	updates   chan WatchUpdate
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithInterval overrides the tick interval (tests use a short one).
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithUrgentThreshold overrides the urgent countdown threshold in seconds.
func WithUrgentThreshold(seconds int) WatcherOption {
	return func(w *Watcher) {
		if seconds > 0 {
			w.urgentThreshold = seconds
		}
	}
}

// WithWatcherLogger overrides the default logger.
func WithWatcherLogger(log *logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWatcher returns a watcher over manager. Call Start to begin ticking.
func NewWatcher(manager *Manager, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		manager:         manager,
		interval:        DefaultWatchInterval,
		urgentThreshold: DefaultUrgentThreshold,
		log:             logger.GetDefault(),
		updates:         make(chan WatchUpdate, 1),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the tick loop and returns the updates channel. Calling
// Start again returns the same channel without spawning a second loop. The
// channel is closed when the watcher stops; consumers must drain it.
func (w *Watcher) Start() <-chan WatchUpdate {
	w.startOnce.Do(func() {
		go w.run()
	})
	return w.updates
}

// Stop halts the tick loop and closes the updates channel. Safe to call more
// than once; no tick runs after Stop returns the loop to rest.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

func (w *Watcher) run() {
	defer close(w.updates)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var (
		havePrev      bool
		prevValid     bool
		prevRemaining int
	)

	evaluate := func() bool {
		st, err := w.manager.Status()
		if err != nil {
			w.log.Error("Reservation watch read failed", slog.String("error", err.Error()))
			return true
		}

		changed := !havePrev || st.Valid() != prevValid || st.Remaining != prevRemaining
		if changed || st.Expired {
			update := WatchUpdate{
				Valid:     st.Valid(),
				Expired:   st.Expired,
				Remaining: st.Remaining,
			}
			if st.Record != nil {
				update.Urgent = st.Remaining <= w.urgentThreshold
				update.EventID = st.Record.EventID
				update.TicketIDs = st.Record.TicketIDs
			}
			select {
			case w.updates <- update:
			case <-w.done:
				return false
			}
		}

		havePrev = true
		prevValid = st.Valid()
		prevRemaining = st.Remaining
		return true
	}

	if !evaluate() {
		return
	}
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if !evaluate() {
				return
			}
		}
	}
}
