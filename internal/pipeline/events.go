package pipeline

import (
	"sync"
	"time"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// EventType classifies messages emitted during a run.
type EventType string

const (
	EventTypeState    EventType = "state"    // Runner changed state.
	EventTypeNote     EventType = "note"     // A file or target was excluded while scanning.
	EventTypeProgress EventType = "progress" // One job finished.
	EventTypeInfo     EventType = "info"     // Informational message.
	EventTypeSummary  EventType = "summary"  // Run finished; Summary is set.
)

// Event is one message of the run's event stream. Fields that do not apply
// to the event's type are left zero.
type Event struct {
	Seq       int64     `json:"seq,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId"`
	Type      EventType `json:"type"`
	State     State     `json:"state,omitempty"`
	Message   string    `json:"message,omitempty"`

	// Note and progress events.
	RelPath string           `json:"relPath,omitempty"`
	Target  string           `json:"target,omitempty"`
	Note    planner.NoteKind `json:"note,omitempty"`

	// Progress events.
	Index       int                 `json:"index,omitempty"` // 1-based.
	Total       int                 `json:"total,omitempty"`
	Destination string              `json:"destination,omitempty"`
	Outcome     planner.OutcomeKind `json:"outcome,omitempty"`
	ErrorKind   planner.ErrorKind   `json:"errorKind,omitempty"`
	Detail      string              `json:"detail,omitempty"`
	ElapsedMs   int64               `json:"elapsedMs,omitempty"`

	Summary *Summary `json:"summary,omitempty"`
}

// Elapsed returns ElapsedMs as a duration.
func (e Event) Elapsed() time.Duration {
	return time.Duration(e.ElapsedMs) * time.Millisecond
}

// Sink receives the events of a run. Emit is called from the runner's
// goroutine and must not block for long; wrap slow consumers in an
// [AsyncSink].
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans events out to several sinks in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiSink []Sink

func (m multiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// EventBus stores recent events and provides incremental reads. Only the
// newest maxEvents are kept; a reader that falls further behind sees a gap
// in Seq and should re-read the runner's snapshot.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns its sequence number, stamping the
// time if the event has none.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Emit implements Sink.
func (b *EventBus) Emit(event Event) { b.Publish(event) }

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// LastSeq returns the sequence number of the newest event, or 0.
func (b *EventBus) LastSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextSeq
}
