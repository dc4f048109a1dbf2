package importer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watcher drives the importer on a fixed interval. A filesystem event
// under the imports root triggers an immediate scan between ticks; the
// in-flight guard keeps at most one batch running however the scan was
// triggered, absorbing timer drift from slow model calls.
type Watcher struct {
	importer *Importer
	interval time.Duration
	notify   bool
	inFlight atomic.Bool
}

// NewWatcher creates a watcher polling every interval. When notify is set,
// fsnotify events on the imports root also trigger scans.
func NewWatcher(im *Importer, interval time.Duration, notify bool) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{importer: im, interval: interval, notify: notify}
}

// Run polls until ctx is cancelled. An in-flight batch is never
// interrupted mid-card; cancellation takes effect between scans.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	if w.notify {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return eris.Wrap(err, "watcher: create fsnotify watcher")
		}
		defer fsw.Close()
		if err := fsw.Add(w.importer.paths.ImportsDir()); err != nil {
			return eris.Wrapf(err, "watcher: watch %s", w.importer.paths.ImportsDir())
		}
		events = fsw.Events
		go func() {
			for err := range fsw.Errors {
				zap.L().Warn("watcher: fsnotify error", zap.Error(err))
			}
		}()
	}

	zap.L().Info("watcher: started",
		zap.Duration("interval", w.interval),
		zap.Bool("notify", w.notify),
	)
	w.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("watcher: stopping")
			return nil
		case <-ticker.C:
			w.Scan(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				zap.L().Debug("watcher: filesystem event", zap.String("name", ev.Name))
				w.Scan(ctx)
			}
		}
	}
}

// Scan runs one batch unless another is already in flight.
func (w *Watcher) Scan(ctx context.Context) {
	if !w.inFlight.CompareAndSwap(false, true) {
		zap.L().Debug("watcher: batch already in flight, skipping scan")
		return
	}
	defer w.inFlight.Store(false)

	results, err := w.importer.ProcessImports(ctx)
	if err != nil {
		zap.L().Error("watcher: batch failed", zap.Error(err))
		return
	}
	for _, result := range results {
		zap.L().Info("watcher: round finished",
			zap.String("round", result.RoundID),
			zap.Int("cards", len(result.Patients)),
			zap.String("error", result.Error),
		)
	}
}
