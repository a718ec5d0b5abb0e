// Package realtimetest provides an in-memory transport, a manually driven scheduler,
// and an event recorder for testing code built on realtime.Manager.
package realtimetest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/pkg/wire"
)

// ErrClosed is returned by reads and writes on a closed Conn.
var ErrClosed = errors.New("realtimetest: connection closed")

// Responder produces the reply to a frame written by the client, or nil for no reply.
type Responder func(f wire.Frame) *wire.Frame

// Transport is a realtime.Transport whose dials succeed unless failures are queued.
type Transport struct {
	Responder Responder

	mu          sync.Mutex
	failures    []error
	credentials []string
	conns       []*Conn
}

// NewTransport creates a transport that accepts every dial.
func NewTransport() *Transport {
	return &Transport{}
}

// FailNext makes the next n dials fail with err.
func (t *Transport) FailNext(n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for range n {
		t.failures = append(t.failures, err)
	}
}

func (t *Transport) Dial(_ context.Context, credential string) (realtime.Conn, error) {
	t.mu.Lock()
	t.credentials = append(t.credentials, credential)

	if len(t.failures) > 0 {
		err := t.failures[0]
		t.failures = t.failures[1:]
		t.mu.Unlock()
		return nil, err
	}

	c := newConn(t.Responder)
	t.conns = append(t.conns, c)
	t.mu.Unlock()
	return c, nil
}

// Dials returns the number of dial attempts so far.
func (t *Transport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.credentials)
}

// Credentials returns the credential presented on each dial.
func (t *Transport) Credentials() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.credentials...)
}

// Last returns the most recently opened connection, or nil.
func (t *Transport) Last() *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

// Conn is an in-memory realtime.Conn.
type Conn struct {
	responder Responder
	incoming  chan readResult
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []wire.Frame
}

type readResult struct {
	frame wire.Frame
	err   error
}

func newConn(r Responder) *Conn {
	return &Conn{
		responder: r,
		incoming:  make(chan readResult, 64),
		closed:    make(chan struct{}),
	}
}

func (c *Conn) ReadFrame() (wire.Frame, error) {
	select {
	case r := <-c.incoming:
		return r.frame, r.err
	case <-c.closed:
		return wire.Frame{}, ErrClosed
	}
}

func (c *Conn) WriteFrame(f wire.Frame) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.mu.Lock()
	c.written = append(c.written, f)
	c.mu.Unlock()

	if c.responder != nil {
		if reply := c.responder(f); reply != nil {
			c.incoming <- readResult{frame: *reply}
		}
	}
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Push delivers an event frame to the client.
func (c *Conn) Push(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	c.incoming <- readResult{frame: wire.Frame{Type: wire.TypeEvent, Event: event, Data: data}}
}

// Deliver hands the client an arbitrary frame.
func (c *Conn) Deliver(f wire.Frame) {
	c.incoming <- readResult{frame: f}
}

// Drop fails the client's pending read with err, simulating a transport failure
// or, with wire.ErrServerClosed, a deliberate server close.
func (c *Conn) Drop(err error) {
	c.incoming <- readResult{err: err}
}

// Written returns the frames the client has sent.
func (c *Conn) Written() []wire.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wire.Frame(nil), c.written...)
}

// Scheduler is a realtime.Scheduler that only fires when told to.
type Scheduler struct {
	mu    sync.Mutex
	tasks []*Task
}

// Task is one scheduled call.
type Task struct {
	Delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (s *Scheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &Task{Delay: d, fn: fn}
	s.tasks = append(s.tasks, task)

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if task.fired || task.cancelled {
			return false
		}
		task.cancelled = true
		return true
	}
}

// Delays returns the delay of every task ever scheduled, in order.
func (s *Scheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Delay
	}
	return out
}

// Pending returns the number of tasks neither fired nor cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}

// FireNext runs the oldest pending task on the calling goroutine. It reports
// whether a task ran.
func (s *Scheduler) FireNext() bool {
	s.mu.Lock()
	var next *Task
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			next = t
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return false
	}
	next.fired = true
	s.mu.Unlock()

	next.fn()
	return true
}

// Recorded is one delivered event.
type Recorded struct {
	Event   string
	Payload json.RawMessage
}

// Recorder captures deliveries for a set of events.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// Subscriber is the subscribe half of realtime.Manager.
type Subscriber interface {
	Subscribe(event string, fn realtime.Handler) func()
}

// Record subscribes to each event and records every delivery.
func Record(sub Subscriber, events ...string) *Recorder {
	r := &Recorder{}
	for _, name := range events {
		sub.Subscribe(name, func(payload json.RawMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, Recorded{Event: name, Payload: payload})
		})
	}
	return r
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

// Payloads returns the payloads recorded for event, in order.
func (r *Recorder) Payloads(event string) []json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []json.RawMessage
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// WaitFor blocks until at least n deliveries of event were recorded or the timeout
// expires. It reports whether the count was reached.
func (r *Recorder) WaitFor(event string, n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(r.Payloads(event)) >= n {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-ticker.C:
		}
	}
}

// AssertCount fails the test unless exactly n deliveries of event arrive within the timeout.
func (r *Recorder) AssertCount(t *testing.T, event string, n int) {
	t.Helper()
	r.WaitFor(event, n, time.Second)
	if got := len(r.Payloads(event)); got != n {
		t.Errorf("expected %d %q deliveries, got %d", n, event, got)
	}
}
