package job

import (
	"time"

	"github.com/dkoosis/playv/pkg/labs"
)

// EventType distinguishes posted events.
type EventType int

const (
	// EventBusy carries the gate state in Busy.
	EventBusy EventType = iota
	// EventStarted marks the start of one job.
	EventStarted
	// EventOutput is one visible line; Header marks a section header.
	EventOutput
	// EventDiagnostic is a synthetic line produced by playv itself.
	EventDiagnostic
	// EventDirectory moves the caller's directory context to Problem.
	EventDirectory
	// EventStatus sets the verdict of Problem in the status table.
	EventStatus
	// EventTable replaces the whole status table with Records.
	EventTable
	// EventCompleted carries the Result of one job.
	EventCompleted
)

func (t EventType) String() string {
	switch t {
	case EventBusy:
		return "busy"
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventDiagnostic:
		return "diagnostic"
	case EventDirectory:
		return "directory"
	case EventStatus:
		return "status"
	case EventTable:
		return "table"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Event is a unit of progress posted to the caller.
type Event struct {
	Type    EventType
	JobID   string
	Line    string
	Header  bool
	Busy    bool
	Problem labs.Problem
	Verdict labs.Verdict
	Records []labs.StatusRecord
	Result  *Result
	// Restore marks the directory event that ends a batch.
	Restore bool
	// Batch is set on events that belong to a multi-job batch.
	Batch bool
	When  time.Time
}

// Poster delivers events to the caller's control loop. Implementations must
// preserve the order of calls.
type Poster func(Event)

// ChannelPoster posts events to ch, blocking when it is full.
func ChannelPoster(ch chan<- Event) Poster {
	return func(e Event) { ch <- e }
}
