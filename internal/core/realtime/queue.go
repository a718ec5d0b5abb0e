package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

type delivery struct {
	event   string
	payload json.RawMessage
}

// deliveryQueue is an unbounded FIFO drained by a single goroutine. Producers never
// block, so a subscriber may call back into the Manager without deadlocking.
type deliveryQueue struct {
	mu    sync.Mutex
	items []delivery
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newDeliveryQueue() *deliveryQueue {
	return &deliveryQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (q *deliveryQueue) push(event string, payload json.RawMessage) {
	q.mu.Lock()
	q.items = append(q.items, delivery{event: event, payload: payload})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *deliveryQueue) reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

func (q *deliveryQueue) stop() {
	q.once.Do(func() { close(q.done) })
}

func (q *deliveryQueue) next() (delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return delivery{}, false
	}
	d := q.items[0]
	q.items = q.items[1:]
	return d, true
}

func (q *deliveryQueue) run(ctx context.Context, deliver func(event string, payload json.RawMessage)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			return
		case <-q.wake:
		}

		for {
			d, ok := q.next()
			if !ok {
				break
			}
			deliver(d.event, d.payload)
		}
	}
}
