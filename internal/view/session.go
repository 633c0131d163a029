// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package view

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/share"
	"github.com/relabs-tech/whereiam/internal/tracker"
)

// Message types sent to an attached page.
const (
	TypeState   = "state"
	TypeReplace = "replace"
	TypeCopy    = "copy"
)

// Message is one update for an attached page.
type Message struct {
	Type  string `json:"type"`
	State *State `json:"state,omitempty"`
	Path  string `json:"path,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Sink delivers messages to the page. Send is only ever called from the
// session's writer goroutine, so messages arrive in order.
type Sink interface {
	Send(Message) error
}

// Session is one mounted page. It subscribes to the tracker on Start and
// releases the subscription on Close. A page opened on a position path is
// injected: it shows that position and never subscribes.
//
// Updates land in a one-slot outbox: the latest state replaces any unsent
// one, while the path rewrite and clipboard requests are kept. A writer
// goroutine drains it, so a slow page never holds up the location source.
type Session struct {
	tracker  *tracker.Tracker
	sink     Sink
	opts     geo.Options
	logger   *log.Entry
	router   *Router
	injected *geo.Position
	button   *share.Button

	sub *tracker.Subscription

	mu      sync.Mutex
	state   State
	closed  bool
	started bool

	// outbox, guarded by mu
	replace string
	copies  []string
	dirty   bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSession prepares a session for a page showing path.
func NewSession(tr *tracker.Tracker, path string, sink Sink, opts geo.Options, logger *log.Entry) *Session {
	if logger == nil {
		logger = log.WithField("component", "view")
	}
	s := &Session{
		tracker: tr,
		sink:    sink,
		opts:    opts,
		logger:  logger,
		router:  NewRouter(path),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if p, ok := ParsePath(path); ok {
		s.injected = &p
	}
	s.button = share.NewButton(sinkClipboard{s}, share.DefaultResetAfter, s.onShareChange)
	return s
}

// Start mounts the session and queues the first state.
func (s *Session) Start() {
	s.mu.Lock()
	if s.closed || s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.writeLoop()
	s.mu.Unlock()

	if s.injected != nil {
		s.publish(NewState(s.injected, true))
		return
	}

	s.publish(NewState(nil, s.tracker.Supported()))
	if !s.tracker.Supported() {
		return
	}
	sub := s.tracker.Subscribe(s.opts, s.onPosition)

	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.sub = sub
	}
	s.mu.Unlock()
	if closed {
		sub.Unsubscribe()
	}
}

// onPosition runs on the locator's goroutine. It only updates the outbox.
func (s *Session) onPosition(p geo.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if path, ok := s.router.Observe(p); ok {
		s.replace = path
	}
	st := NewState(&p, true)
	st.ShareLabel = s.button.Label()
	s.setStateLocked(st)
}

func (s *Session) publish(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st.ShareLabel = s.button.Label()
	s.setStateLocked(st)
}

func (s *Session) onShareChange(bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st := s.state
	st.ShareLabel = s.button.Label()
	s.setStateLocked(st)
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	s.dirty = true
	s.signal()
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// takeLocked empties the outbox: the rewrite first, then clipboard
// requests, then the latest state.
func (s *Session) takeLocked() []Message {
	var batch []Message
	if s.replace != "" {
		batch = append(batch, Message{Type: TypeReplace, Path: s.replace})
		s.replace = ""
	}
	for _, text := range s.copies {
		batch = append(batch, Message{Type: TypeCopy, Text: text})
	}
	s.copies = nil
	if s.dirty {
		st := s.state
		batch = append(batch, Message{Type: TypeState, State: &st})
		s.dirty = false
	}
	return batch
}

func (s *Session) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.takeLocked()
		s.mu.Unlock()

		for _, m := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			if err := s.sink.Send(m); err != nil {
				s.logger.Debugf("send %s: %v", m.Type, err)
			}
		}
	}
}

// Share copies url to the page's clipboard and shows the acknowledgement.
func (s *Session) Share(url string) error {
	if err := s.button.Press(url); err != nil {
		s.logger.Printf("share: %v", err)
		return err
	}
	return nil
}

// State returns the latest state, sent or still queued.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Path is the path the page currently shows.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.router.Path()
}

// Injected reports whether the session shows a position from its path.
func (s *Session) Injected() bool {
	return s.injected != nil
}

// Close unmounts the session and waits for an in-flight send to finish.
// Nothing is sent afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	close(s.done)
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.button.Stop()
	s.wg.Wait()
}

// sinkClipboard asks the page to write to its own clipboard.
type sinkClipboard struct {
	s *Session
}

func (c sinkClipboard) Copy(text string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.closed {
		return errClosed
	}
	c.s.copies = append(c.s.copies, text)
	c.s.signal()
	return nil
}

var errClosed = errors.New("session closed")
