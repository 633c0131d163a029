// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker keeps a consumer supplied with the latest position from a
// location source.
package tracker

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/geo"
)

// Tracker hands out subscriptions against one location source. A nil
// source means the capability is absent.
type Tracker struct {
	loc    geo.Locator
	logger *log.Entry
}

// New returns a tracker over loc. loc may be nil.
func New(loc geo.Locator, logger *log.Entry) *Tracker {
	if logger == nil {
		logger = log.WithField("component", "tracker")
	}
	return &Tracker{loc: loc, logger: logger}
}

// Supported reports whether a location source is present at all.
func (t *Tracker) Supported() bool {
	return t.loc != nil
}

// Subscription is one consumer's view of the source: a single
// latest-value slot fed by a one-shot request and a watch.
type Subscription struct {
	loc      geo.Locator
	logger   *log.Entry
	onUpdate func(geo.Position)

	// deliverMu serializes deliveries against Unsubscribe so that nothing is
	// delivered once Unsubscribe has returned.
	deliverMu sync.Mutex

	mu       sync.Mutex
	current  geo.Position
	have     bool
	closed   bool
	watching bool
	watchID  geo.WatchID
}

// Subscribe issues an immediate one-shot request and starts a continuous
// watch; both feed the same slot. onUpdate, if non-nil, is called
// synchronously for every successful reading and must not call Unsubscribe.
func (t *Tracker) Subscribe(opts geo.Options, onUpdate func(geo.Position)) *Subscription {
	s := &Subscription{loc: t.loc, logger: t.logger, onUpdate: onUpdate}
	if t.loc == nil {
		return s
	}

	t.loc.RequestOnce(s.deliver, s.fail, opts)

	id := t.loc.Watch(s.deliver, s.fail, opts)

	s.mu.Lock()
	if s.closed {
		// Unsubscribed while Watch was being registered.
		s.mu.Unlock()
		t.loc.ClearWatch(id)
		return s
	}
	s.watchID = id
	s.watching = true
	s.mu.Unlock()

	return s
}

func (s *Subscription) deliver(p geo.Position) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.current = p
	s.have = true
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(p)
	}
}

func (s *Subscription) fail(err *geo.PositionError) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || err == nil {
		return
	}
	s.logger.WithField("code", int(err.Code)).Warnf("location error: %v", err)
}

// Current returns the latest reading, if one has arrived.
func (s *Subscription) Current() (geo.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.have
}

// Unsubscribe stops the watch. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.deliverMu.Lock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.deliverMu.Unlock()
		return
	}
	s.closed = true
	id, watching := s.watchID, s.watching
	s.watching = false
	s.mu.Unlock()
	s.deliverMu.Unlock()

	if watching {
		s.loc.ClearWatch(id)
	}
}
