package icontheme

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches bursts of filesystem events into one rescan.
const watchDebounce = 500 * time.Millisecond

// Watch monitors the search-path roots (and the theme directories under
// them) with filesystem notifications and triggers an immediate
// staleness rescan when anything changes, instead of waiting for the
// next lookup to age past the rescan interval. Blocks until ctx is
// done.
func (t *IconTheme) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	t.addWatchTargets(watcher)

	deb := newDebouncer(watchDebounce)
	defer deb.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			deb.arm()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.log.Warn().Err(err).Msg("icon theme watcher error")
		case <-deb.c:
			deb.observed()
			if t.RescanIfNeeded() {
				t.log.Debug().Msg("icon theme rescan triggered by watcher")
			}
			// Roots may have appeared or vanished; re-sync the watch set.
			t.addWatchTargets(watcher)
		}
	}
}

// debouncer coalesces bursts of arm calls into a single value on c once
// the quiet period elapses without another arm. Single-goroutine use
// only: the owner must call observed after each receive from c.
type debouncer struct {
	quiet time.Duration
	timer *time.Timer
	c     <-chan time.Time
}

func newDebouncer(quiet time.Duration) *debouncer {
	return &debouncer{quiet: quiet}
}

// arm starts or restarts the quiet period. A timer that expired without
// its value being received is drained first, so a burst followed by
// silence fires exactly once, a full quiet period after the last arm.
func (d *debouncer) arm() {
	if d.timer == nil {
		d.timer = time.NewTimer(d.quiet)
		d.c = d.timer.C
		return
	}
	if !d.timer.Stop() {
		select {
		case <-d.c:
		default:
		}
	}
	d.timer.Reset(d.quiet)
}

// observed marks the fired value as consumed; the next arm starts a
// fresh cycle.
func (d *debouncer) observed() {
	d.timer = nil
	d.c = nil
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}

// addWatchTargets registers every existing tracked directory. Adding a
// path twice is harmless, so no bookkeeping is kept.
func (t *IconTheme) addWatchTargets(watcher *fsnotify.Watcher) {
	t.mu.Lock()
	targets := make([]string, 0, len(t.dirMtimes)+len(t.searchPath))
	targets = append(targets, t.searchPath...)
	for _, dm := range t.dirMtimes {
		if dm.exists {
			targets = append(targets, dm.path)
		}
	}
	t.mu.Unlock()

	for _, target := range targets {
		if fi, err := os.Stat(target); err != nil || !fi.IsDir() {
			continue
		}
		if err := watcher.Add(target); err != nil {
			t.log.Debug().Err(err).Str("path", target).Msg("cannot watch icon directory")
		}
	}
}
