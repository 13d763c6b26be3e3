package pipeline

import "sync"

// AsyncSink forwards events to another sink from its own goroutine, in
// order, through an unbounded queue. Emit never blocks on the consumer, so a
// slow terminal cannot stall the runner. Close flushes what is queued.
type AsyncSink struct {
	next Sink

	mu     sync.Mutex
	queue  []Event
	closed bool
	notify chan struct{}
	done   chan struct{}
}

// NewAsyncSink starts the dispatcher goroutine for next.
func NewAsyncSink(next Sink) *AsyncSink {
	a := &AsyncSink{
		next:   next,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

// Emit queues e. Events emitted after Close are dropped.
func (a *AsyncSink) Emit(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.queue = append(a.queue, e)
	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Close stops accepting events and waits until every queued event has been
// delivered. It is safe to call more than once.
func (a *AsyncSink) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.notify)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *AsyncSink) loop() {
	defer close(a.done)
	for {
		_, open := <-a.notify
		for {
			a.mu.Lock()
			batch := a.queue
			a.queue = nil
			a.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, e := range batch {
				a.next.Emit(e)
			}
		}
		if !open {
			return
		}
	}
}
