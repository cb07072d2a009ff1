// Package channel implements the single-slot request/response rendezvous
// that the dispatcher requires of each physical transport (spec.md §4.1).
// A Channel carries at most one in-flight byte message in each direction;
// state transitions are explicit and atomic under a mutex, matching the
// guarantee the original Rust dispatcher leans on from its `interchange`
// crate ("the correctness of this relies on the properties of interchange -
// requester can only send request in the idle state").
package channel

import (
	"errors"
	"sync"
)

// State is one of the four rendezvous states.
type State int

const (
	Idle State = iota
	Requested
	Processing
	Responded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Processing:
		return "processing"
	case Responded:
		return "responded"
	default:
		return "unknown"
	}
}

// ErrBusy is returned by Post when the channel already holds an
// unacknowledged request, and by Respond when called outside Processing.
var ErrBusy = errors.New("channel: busy")

// Channel is a single-slot rendezvous between a reader (producer) and the
// dispatcher (consumer). The reader side calls Post and Take; the
// dispatcher side calls TakeRequest, Respond and State.
type Channel struct {
	mu    sync.Mutex
	state State
	in    []byte
	out   []byte
}

// New returns an Idle channel.
func New() *Channel {
	return &Channel{state: Idle}
}

// State reports the current rendezvous state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Post hands a freshly-arrived byte message to the channel, moving
// Idle -> Requested. It is the reader side's half of intake; it fails if
// the channel is not Idle (a prior request/response has not yet been
// reclaimed).
func (c *Channel) Post(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return ErrBusy
	}
	c.in = message
	c.state = Requested
	return nil
}

// TakeRequest atomically moves Requested -> Processing and yields the
// pending message. It returns (nil, false) in any other state.
func (c *Channel) TakeRequest() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Requested {
		return nil, false
	}
	msg := c.in
	c.in = nil
	c.state = Processing
	return msg, true
}

// Respond posts the dispatcher's answer, moving Processing -> Responded.
// It is only valid in Processing.
func (c *Channel) Respond(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Processing {
		return ErrBusy
	}
	c.out = message
	c.state = Responded
	return nil
}

// Take reclaims a posted response, moving Responded -> Idle. It returns
// (nil, false) in any other state — this is the reader side's half of
// completion, freeing the channel for the next Post.
func (c *Channel) Take() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Responded {
		return nil, false
	}
	msg := c.out
	c.out = nil
	c.state = Idle
	return msg, true
}

// AcceptsIntake reports whether the channel can currently accept a new
// inbound request — Idle or Requested, per spec.md invariant 3 ("no
// outbound is pending on either").
func (c *Channel) AcceptsIntake() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Idle || c.state == Requested
}
