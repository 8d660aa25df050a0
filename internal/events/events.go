// Package events carries stage lifecycle notifications from executors and
// stage functions to whoever is watching the build.
package events

import "time"

// Classifies an event.
type Kind string

const (
	StageStarted  Kind = "stage-started"
	StageFinished Kind = "stage-finished"
	StageFailed   Kind = "stage-failed"
	StageOutput   Kind = "stage-output"
)

// One notification about a stage.
type Event struct {
	Job     string    // Job identifier (package name).
	Stage   string    // Stage name within the job.
	Kind    Kind      // What happened.
	Message string    // Human-readable detail, may be empty.
	Time    time.Time // When it happened.
}

// A bounded, non-blocking event sink.
//
// Publishing never blocks the build: when the buffer is full the event is
// dropped. Consumers drain [Queue.Events] until the queue is closed.
type Queue struct {
	ch chan Event
}

// Creates a queue buffering up to size events.
func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Event, size)}
}

// Publishes an event, stamping it with the current time if unset.
// Drops the event when the buffer is full.
func (q *Queue) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case q.ch <- e:
	default:
	}
}

// Returns the channel consumers drain.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Closes the queue. Publish must not be called after Close.
func (q *Queue) Close() {
	close(q.ch)
}
