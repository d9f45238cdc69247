package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/labs"
)

func sample() []labs.StatusRecord {
	return []labs.StatusRecord{
		{Problem: labs.Problem{Lab: "lab1", Name: "adder", Dir: "/l/lab1/adder"}, Verdict: labs.Pass},
		{Problem: labs.Problem{Lab: "lab1", Name: "mux", Dir: "/l/lab1/mux"}},
		{Problem: labs.Problem{Lab: "lab2", Dir: "/l/lab2"}, Verdict: labs.Fail},
	}
}

func TestSession_RefusesSelection_When_Busy(t *testing.T) {
	t.Parallel()

	s := New(sample())
	s.Apply(job.Event{Type: job.EventBusy, Busy: true})

	assert.ErrorIs(t, s.Move(1), job.ErrBusy)
	_, err := s.Select("lab2")
	assert.ErrorIs(t, err, job.ErrBusy)
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, "lab1/adder", s.Cwd().Key())

	s.Apply(job.Event{Type: job.EventBusy, Busy: false})
	require.NoError(t, s.Move(1))
	assert.Equal(t, "lab1/mux", s.Cwd().Key())
}

func TestSession_ClampsCursor_When_MovedPastEnds(t *testing.T) {
	t.Parallel()

	s := New(sample())
	require.NoError(t, s.Move(-5))
	assert.Equal(t, 0, s.Cursor())
	require.NoError(t, s.Move(10))
	assert.Equal(t, 2, s.Cursor())
	p, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, labs.UnnamedLabel, p.Label())
}

func TestSession_UpdatesRow_When_StatusEventApplied(t *testing.T) {
	t.Parallel()

	s := New(sample())
	mux := labs.Problem{Lab: "lab1", Name: "mux"}

	assert.True(t, s.Apply(job.Event{Type: job.EventStatus, Problem: mux, Verdict: labs.Fail}))
	v, ok := s.Verdict("lab1/mux")
	require.True(t, ok)
	assert.Equal(t, labs.Fail, v)

	assert.False(t, s.Apply(job.Event{Type: job.EventStatus, Problem: labs.Problem{Lab: "nope"}, Verdict: labs.Pass}))
	assert.Equal(t, Summary{Pass: 1, Fail: 2}, s.Summary())
}

func TestSession_KeepsSelection_When_TableReplaced(t *testing.T) {
	t.Parallel()

	s := New(sample())
	_, err := s.Select("lab1/mux")
	require.NoError(t, err)

	fresh := sample()[1:]
	fresh[0].Verdict = labs.Pass
	s.Apply(job.Event{Type: job.EventTable, Records: fresh})

	assert.Len(t, s.Records(), 2)
	assert.Equal(t, 0, s.Cursor())
	v, _ := s.Verdict("lab1/mux")
	assert.Equal(t, labs.Pass, v)
	_, ok := s.Verdict("lab1/adder")
	assert.False(t, ok)
}

func TestSession_TracksBatchDirectory_When_DirectoryEventsApplied(t *testing.T) {
	t.Parallel()

	s := New(sample())
	recs := sample()
	s.Apply(job.Event{Type: job.EventBusy, Busy: true})
	s.Apply(job.Event{Type: job.EventDirectory, Problem: recs[2].Problem, Batch: true})

	assert.Equal(t, "lab2", s.Cwd().Key())
	assert.Equal(t, 0, s.Cursor(), "batch progress does not move the selection")

	s.Apply(job.Event{Type: job.EventDirectory, Problem: recs[1].Problem, Restore: true})
	assert.Equal(t, "lab1/mux", s.Cwd().Key())
	assert.Equal(t, 1, s.Cursor())
}

func TestSession_HandlesEmptyTable_When_NoRecords(t *testing.T) {
	t.Parallel()

	s := New(nil)
	_, ok := s.Selected()
	assert.False(t, ok)
	require.NoError(t, s.Move(1))
	assert.Empty(t, s.Problems())
	assert.Equal(t, 0, s.Summary().Total())
}
