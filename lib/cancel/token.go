// Copyright 2026 The Toby Authors
// SPDX-License-Identifier: Apache-2.0

package cancel

import "sync"

// state is shared by a Token and its Source.
type state struct {
	mutex    sync.Mutex
	canceled bool

	// parked is created by the first park call and closed by Cancel.
	parked chan struct{}
}

// Token is the consumer's read side of a cancellation flag.
type Token struct {
	state *state
}

// Source is the controller's write side of a cancellation flag.
type Source struct {
	state *state
}

// New returns a linked token and source.
func New() (Token, Source) {
	shared := &state{}
	return Token{state: shared}, Source{state: shared}
}

// Cancel sets the flag and wakes the parked consumer, if any. Calling
// it more than once has no further effect.
func (s Source) Cancel() {
	s.state.mutex.Lock()
	defer s.state.mutex.Unlock()

	if s.state.canceled {
		return
	}
	s.state.canceled = true
	if s.state.parked != nil {
		close(s.state.parked)
	}
}

// Canceled reports whether Cancel has been called.
func (t Token) Canceled() bool {
	t.state.mutex.Lock()
	defer t.state.mutex.Unlock()
	return t.state.canceled
}

// park registers the consumer as waiting and returns a channel closed
// on cancellation. The waiter is recorded on the first call only; later
// calls return the same channel.
func (t Token) park() <-chan struct{} {
	t.state.mutex.Lock()
	defer t.state.mutex.Unlock()

	if t.state.parked == nil {
		t.state.parked = make(chan struct{})
		if t.state.canceled {
			close(t.state.parked)
		}
	}
	return t.state.parked
}
