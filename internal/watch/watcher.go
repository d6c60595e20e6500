package watch

import (
	"context"
	"log"
	"time"

	"github.com/NikkeTryHard/ollie-scraper/internal/notify"
)

// After this many consecutive fetch failures the poll path is considered
// degraded and says so once, instead of only spamming per-cycle errors.
const fetchFailureThreshold = 3

// Watcher ties the change detector to its two inputs. The poll loop runs in
// Run; the Gateway client feeds observations in through Apply. Every
// observation from either path funnels through the tracker, which owns the
// one-alert-per-change guarantee.
type Watcher struct {
	tracker      *Tracker
	fetcher      Fetcher
	dispatcher   notify.Dispatcher
	pollInterval time.Duration

	fetchFailures int // consecutive; only touched by the poll goroutine
}

func NewWatcher(fetcher Fetcher, dispatcher notify.Dispatcher, pollInterval time.Duration) *Watcher {
	return &Watcher{
		tracker:      NewTracker(),
		fetcher:      fetcher,
		dispatcher:   dispatcher,
		pollInterval: pollInterval,
	}
}

// Tracker exposes the shared observation state.
func (w *Watcher) Tracker() *Tracker {
	return w.tracker
}

// Seed performs one synchronous fetch to establish the baseline before the
// loops start. Failure is only a warning -- the baseline then comes from
// whichever path observes the channel first.
func (w *Watcher) Seed(ctx context.Context) {
	name, err := w.fetcher.Fetch(ctx)
	if err != nil {
		log.Printf("Could not fetch initial channel state: %v", err)
		return
	}
	w.tracker.Observe(name)
	log.Printf("Current channel name: %q", name)
}

// Apply runs one observed value through the change detector and dispatches
// an alert on a genuine change. Dispatch is fire-and-forget; the watcher
// never blocks on or inspects alert delivery.
func (w *Watcher) Apply(source, name string) {
	change := w.tracker.Observe(name)
	if !change.Changed {
		return
	}
	log.Printf("[%s] Channel name changed: %q -> %q", source, change.Old, change.New)
	go w.dispatcher.Notify(change.New)
}

// Run executes the polling loop until ctx is cancelled. Fetch failures are
// logged and swallowed; nothing that happens here is fatal to the process.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Printf("Poll loop started (interval %s)", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Poll loop stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	name, err := w.fetcher.Fetch(ctx)
	if err != nil {
		w.fetchFailures++
		log.Printf("[POLL] fetch error: %v", err)
		if w.fetchFailures == fetchFailureThreshold {
			log.Printf("[POLL] degraded: %d consecutive fetch failures", w.fetchFailures)
		}
		return
	}
	if w.fetchFailures >= fetchFailureThreshold {
		log.Printf("[POLL] recovered after %d failures", w.fetchFailures)
	}
	w.fetchFailures = 0
	w.Apply("POLL", name)
}
