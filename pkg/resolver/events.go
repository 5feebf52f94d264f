package resolver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/matzehuels/haven/pkg/maven"
)

// Level classifies an Event.
type Level int

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a progress notification emitted during a run.
type Event struct {
	RunID      string    `json:"run_id"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	Coordinate string    `json:"coordinate,omitempty"`
	Time       time.Time `json:"time"`
}

// eventBuffer is the capacity of Run.Events. Events beyond it are dropped
// rather than stalling the traversal.
const eventBuffer = 256

// Run is a resolution executing on its own goroutine.
type Run struct {
	events  chan Event
	done    chan struct{}
	dropped atomic.Int64

	outcome *Outcome
	err     error
}

// Go starts resolving root on a new goroutine. Events are delivered both to
// opts.Observer, if set, and to [Run.Events].
func (r *Resolver) Go(ctx context.Context, root maven.Coordinate, opts Options) *Run {
	run := &Run{
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}

	observer := opts.Observer
	opts.Observer = func(e Event) {
		if observer != nil {
			observer(e)
		}
		select {
		case run.events <- e:
		default:
			run.dropped.Add(1)
		}
	}

	go func() {
		run.outcome, run.err = r.Resolve(ctx, root, opts)
		close(run.events)
		close(run.done)
	}()
	return run
}

// Events returns the event stream. It is closed when the run ends.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Done is closed when the run ends.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run ends and returns its result.
func (r *Run) Wait() (*Outcome, error) {
	<-r.done
	return r.outcome, r.err
}

// Dropped returns how many events did not fit into the stream buffer.
func (r *Run) Dropped() int64 {
	return r.dropped.Load()
}
