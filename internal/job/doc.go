// Package job runs build and simulation commands for one lab problem at a time.
//
// # Execution model
//
// A Runner owns a single-slot Gate. Submit and SubmitBatch acquire the gate
// synchronously and return ErrBusy when another submission holds it; the
// work itself runs on one worker goroutine. A batch runs its jobs in order
// inside a single acquisition.
//
// The worker never touches caller state. Everything the caller needs
// (visible lines, diagnostics, status updates, completion, busy/idle) is
// posted as an Event through the Poster supplied to NewRunner, in the order
// it happened. Each submission posts exactly one busy event first and one
// idle event last, so a caller that sees idle has received every result of
// that submission.
//
// # Output handling
//
// A job's stdout and stderr share one pipe. Chunks read from it are split into
// lines, every line is kept for the error report, and the visible-span
// classifier decides which lines are posted as output. Running jobs cannot be
// cancelled; the context passed to Submit only stops a batch between jobs.
package job
