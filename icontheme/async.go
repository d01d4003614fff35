package icontheme

import (
	"context"

	"github.com/bnema/icontheme/pixbuf"
)

// AsyncResult delivers a background render: a proxy over the rendered
// pixels, or the error that stopped it.
type AsyncResult struct {
	Pixbuf *pixbuf.Pixbuf
	Err    error
}

// LoadIconAsync renders off the calling goroutine against a deep-copied
// snapshot of the resolution inputs, so the shared info is never
// mutated concurrently. When the worker finishes, its result is adopted
// only if no synchronous load resolved the info in the meantime;
// first resolution wins either way, and the delivered handle always
// reflects the info's final state.
//
// Cancellation is advisory: a done context stops the result from being
// adopted and delivered, not necessarily the decode in flight.
func (info *IconInfo) LoadIconAsync(ctx context.Context) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	snapshot := info.dup()

	go func() {
		if err := ctx.Err(); err != nil {
			ch <- AsyncResult{Err: err}
			return
		}

		snapshot.mu.Lock()
		workErr := snapshot.ensureScaleAndPixbufLocked(false)
		snapshot.mu.Unlock()

		if err := ctx.Err(); err != nil {
			ch <- AsyncResult{Err: err}
			return
		}

		info.mu.Lock()
		if info.pb == nil && info.loadErr == nil {
			info.pb = snapshot.pb
			info.scale = snapshot.scale
			info.scaleComputed = snapshot.scaleComputed
			info.emblemsApplied = snapshot.emblemsApplied
			if workErr != nil {
				info.loadErr = workErr
			}
		}
		var res AsyncResult
		if err := info.ensureScaleAndPixbufLocked(false); err != nil {
			res.Err = err
		} else {
			res.Pixbuf = info.proxyLocked(info.pb)
		}
		info.mu.Unlock()
		ch <- res
	}()

	return ch
}

// LoadSymbolicAsync is the background form of LoadSymbolic. The
// recolored raster is rendered against a snapshot and entered into the
// shared info's memo chain unless an equivalent tuple got there first.
func (info *IconInfo) LoadSymbolicAsync(ctx context.Context, fg RGBA, success, warning, errColor *RGBA) <-chan AsyncResult {
	if !info.IsSymbolic() {
		return info.LoadIconAsync(ctx)
	}

	ch := make(chan AsyncResult, 1)
	snapshot := info.dup()

	go func() {
		if err := ctx.Err(); err != nil {
			ch <- AsyncResult{Err: err}
			return
		}

		snapshot.mu.Lock()
		rendered, workErr := snapshot.renderSymbolicLocked(fg, success, warning, errColor)
		snapshot.mu.Unlock()

		if err := ctx.Err(); err != nil {
			ch <- AsyncResult{Err: err}
			return
		}

		key := symbolicMatchKey(fg, success, warning, errColor)
		info.mu.Lock()
		node := info.findSymbolicLocked(key)
		if node == nil && workErr == nil {
			node = &symbolicNode{colors: key, pb: rendered, next: info.symbolic}
			info.symbolic = node
		}
		var res AsyncResult
		if node != nil {
			res.Pixbuf = info.proxyLocked(node.pb)
		} else {
			res.Err = workErr
		}
		info.mu.Unlock()
		ch <- res
	}()

	return ch
}
