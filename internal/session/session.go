// Package session holds the state owned by the control loop: the status table,
// the selected problem, the working-directory label and the busy flag.
//
// A Session is changed only from the control loop, either by user input or by
// applying events posted by the job runner. It is not safe for concurrent use.
package session

import (
	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/labs"
)

// Summary counts verdicts in the status table.
type Summary struct {
	Pass  int
	Fail  int
	Unset int
}

// Total is the number of rows.
func (s Summary) Total() int { return s.Pass + s.Fail + s.Unset }

// Session is the control loop's view of the lab tree.
type Session struct {
	records []labs.StatusRecord
	index   map[string]int
	cursor  int
	cwd     labs.Problem
	busy    bool
}

// New returns a session over records with the first row selected.
func New(records []labs.StatusRecord) *Session {
	s := &Session{}
	s.setRecords(records)
	if len(s.records) > 0 {
		s.cwd = s.records[0].Problem
	}
	return s
}

// Records returns the status table in display order.
func (s *Session) Records() []labs.StatusRecord {
	return s.records
}

// Cursor is the index of the selected row.
func (s *Session) Cursor() int { return s.cursor }

// Busy reports whether a submission is in progress.
func (s *Session) Busy() bool { return s.busy }

// SetBusy sets the busy flag. The job runner's events normally do this.
func (s *Session) SetBusy(b bool) { s.busy = b }

// Cwd is the directory context the next job will use.
func (s *Session) Cwd() labs.Problem { return s.cwd }

// Selected returns the selected problem.
func (s *Session) Selected() (labs.Problem, bool) {
	if len(s.records) == 0 {
		return labs.Problem{}, false
	}
	return s.records[s.cursor].Problem, true
}

// Problems returns every problem in table order.
func (s *Session) Problems() []labs.Problem {
	out := make([]labs.Problem, len(s.records))
	for i, r := range s.records {
		out[i] = r.Problem
	}
	return out
}

// Move shifts the selection by delta rows, clamped to the table. It is
// refused with job.ErrBusy while a job runs.
func (s *Session) Move(delta int) error {
	if s.busy {
		return job.ErrBusy
	}
	if len(s.records) == 0 {
		return nil
	}
	s.cursor = clamp(s.cursor+delta, len(s.records))
	s.cwd = s.records[s.cursor].Problem
	return nil
}

// Select moves the selection to the problem with key. It reports false for
// an unknown key.
func (s *Session) Select(key string) (bool, error) {
	if s.busy {
		return false, job.ErrBusy
	}
	i, ok := s.index[key]
	if !ok {
		return false, nil
	}
	s.cursor = i
	s.cwd = s.records[i].Problem
	return true, nil
}

// Verdict returns the verdict recorded for key.
func (s *Session) Verdict(key string) (labs.Verdict, bool) {
	i, ok := s.index[key]
	if !ok {
		return labs.Unset, false
	}
	return s.records[i].Verdict, true
}

// Summary counts the verdicts in the table.
func (s *Session) Summary() Summary {
	var sum Summary
	for _, r := range s.records {
		switch r.Verdict {
		case labs.Pass:
			sum.Pass++
		case labs.Fail:
			sum.Fail++
		default:
			sum.Unset++
		}
	}
	return sum
}

// Apply folds one runner event into the session. It reports whether any
// session state changed.
func (s *Session) Apply(e job.Event) bool {
	switch e.Type {
	case job.EventBusy:
		changed := s.busy != e.Busy
		s.busy = e.Busy
		return changed
	case job.EventStatus:
		i, ok := s.index[e.Problem.Key()]
		if !ok {
			return false
		}
		s.records[i].Verdict = e.Verdict
		return true
	case job.EventTable:
		prev, hadPrev := s.Selected()
		s.setRecords(e.Records)
		if hadPrev {
			if i, ok := s.index[prev.Key()]; ok {
				s.cursor = i
			}
		}
		return true
	case job.EventDirectory:
		s.cwd = e.Problem
		if e.Restore {
			if i, ok := s.index[e.Problem.Key()]; ok {
				s.cursor = i
			}
		}
		return true
	default:
		return false
	}
}

func (s *Session) setRecords(records []labs.StatusRecord) {
	s.records = append([]labs.StatusRecord(nil), records...)
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.index[r.Key()] = i
	}
	s.cursor = clamp(s.cursor, len(s.records))
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
