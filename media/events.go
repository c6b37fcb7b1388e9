package media

import (
	"errors"
	"sync"

	"github.com/zoynulabedin/snowlightv2-sub000/player"
)

// ErrUnsupportedFormat is returned for files no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// eventQueue delivers element events on its own goroutine, in order, so
// no subscriber ever runs inside a command call. post never blocks, which
// lets a subscriber issue commands that post more events.
type eventQueue struct {
	player.Emitter

	mu      sync.Mutex
	pending []player.Event
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *eventQueue) run() {
	for {
		select {
		case <-q.wake:
		case <-q.done:
			return
		}

		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, ev := range batch {
			q.Emit(ev)
		}
	}
}

// post queues ev. Events posted after close are dropped.
func (q *eventQueue) post(ev player.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}
