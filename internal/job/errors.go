package job

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBusy is returned by Submit while another submission holds the gate.
	ErrBusy = errors.New("another job is running")
	// ErrEmptyBatch is returned for a batch with nothing to do.
	ErrEmptyBatch = errors.New("batch has no jobs")
	// ErrNoCommand is returned for a spec without a program.
	ErrNoCommand = errors.New("job has no command")
)

// SpawnError reports a command that could not be started.
type SpawnError struct {
	Command []string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StreamError reports a failure while reading a job's output.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("read output: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
