// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"sync"
	"time"

	"github.com/relabs-tech/whereiam/internal/geo"
)

type watch struct {
	ok   geo.SuccessFunc
	fail geo.ErrorFunc
	opts geo.Options
}

type waiter struct {
	watch
	timer *time.Timer
}

// watchers is the fan-out shared by every locator: registered watches,
// pending one-shot requests and the last reading. Callbacks are always
// invoked without the lock held.
type watchers struct {
	mu      sync.Mutex
	nextID  geo.WatchID
	watches map[geo.WatchID]watch
	waiters map[*waiter]struct{}
	last    geo.Position
	have    bool
	fatal   *geo.PositionError

	// maxAccuracy is the worst accuracy (metres) a high-accuracy request
	// accepts. Zero disables the check.
	maxAccuracy float64
	now         func() time.Time
}

func newWatchers(maxAccuracy float64) *watchers {
	return &watchers{
		watches:     make(map[geo.WatchID]watch),
		waiters:     make(map[*waiter]struct{}),
		maxAccuracy: maxAccuracy,
		now:         time.Now,
	}
}

// RequestOnce answers from the cached reading when it satisfies
// opts.MaximumAge, otherwise with the next reading or error.
func (w *watchers) RequestOnce(ok geo.SuccessFunc, fail geo.ErrorFunc, opts geo.Options) {
	w.mu.Lock()
	if w.fatal != nil {
		err := w.fatal
		w.mu.Unlock()
		callFail(fail, err)
		return
	}
	if w.have && opts.MaximumAge > 0 && w.now().Sub(w.last.Timestamp) <= opts.MaximumAge {
		p := w.last
		w.mu.Unlock()
		w.dispatch(watch{ok, fail, opts}, p)
		return
	}

	wt := &waiter{watch: watch{ok, fail, opts}}
	w.waiters[wt] = struct{}{}
	if opts.Timeout > 0 {
		wt.timer = time.AfterFunc(opts.Timeout, func() {
			w.mu.Lock()
			_, pending := w.waiters[wt]
			delete(w.waiters, wt)
			w.mu.Unlock()
			if pending {
				callFail(fail, geo.NewError(geo.Timeout, "no reading within %s", opts.Timeout))
			}
		})
	}
	w.mu.Unlock()
}

// Watch registers callbacks for every future reading and error.
func (w *watchers) Watch(ok geo.SuccessFunc, fail geo.ErrorFunc, opts geo.Options) geo.WatchID {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.watches[id] = watch{ok, fail, opts}
	fatal := w.fatal
	w.mu.Unlock()

	if fatal != nil {
		callFail(fail, fatal)
	}
	return id
}

// ClearWatch removes a watch. Unknown ids are ignored.
func (w *watchers) ClearWatch(id geo.WatchID) {
	w.mu.Lock()
	delete(w.watches, id)
	w.mu.Unlock()
}

// publish fans a reading out to every watch and pending request.
func (w *watchers) publish(p geo.Position) {
	w.mu.Lock()
	w.last = p
	w.have = true
	targets := w.drainLocked()
	w.mu.Unlock()

	for _, t := range targets {
		w.dispatch(t, p)
	}
}

// publishError reports err to every watch and pending request.
func (w *watchers) publishError(err *geo.PositionError) {
	w.mu.Lock()
	targets := w.drainLocked()
	w.mu.Unlock()

	for _, t := range targets {
		callFail(t.fail, err)
	}
}

// setFatal makes every current and future request fail with err.
func (w *watchers) setFatal(err *geo.PositionError) {
	w.mu.Lock()
	w.fatal = err
	w.mu.Unlock()
	w.publishError(err)
}

func (w *watchers) watchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watches)
}

// drainLocked collects all watches and takes every pending waiter.
func (w *watchers) drainLocked() []watch {
	targets := make([]watch, 0, len(w.watches)+len(w.waiters))
	for wt := range w.waiters {
		if wt.timer != nil {
			wt.timer.Stop()
		}
		targets = append(targets, wt.watch)
	}
	clear(w.waiters)
	for _, wa := range w.watches {
		targets = append(targets, wa)
	}
	return targets
}

func (w *watchers) dispatch(t watch, p geo.Position) {
	if t.opts.EnableHighAccuracy && w.maxAccuracy > 0 && p.Accuracy > w.maxAccuracy {
		callFail(t.fail, geo.NewError(geo.PositionUnavailable,
			"accuracy %.1fm worse than %.1fm", p.Accuracy, w.maxAccuracy))
		return
	}
	if t.ok != nil {
		t.ok(p)
	}
}

func callFail(fail geo.ErrorFunc, err *geo.PositionError) {
	if fail != nil {
		fail(err)
	}
}
