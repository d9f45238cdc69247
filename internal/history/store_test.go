package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/labs"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_ListsNewestFirst_When_EntriesAppended(t *testing.T) {
	t.Parallel()

	s, _ := openStore(t)
	defer s.Close()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(Entry{ID: name, Lab: "lab1", Problem: name, StartedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	two, err := s.List(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, []string{two[0].ID, two[1].ID})
}

func TestStore_RecordsJobResult_When_RecorderUsed(t *testing.T) {
	t.Parallel()

	s, path := openStore(t)
	var rec job.Recorder = s
	start := time.Now()
	require.NoError(t, rec.Record(job.Result{
		JobID:     "j1",
		Problem:   labs.Problem{Lab: "lab2", Name: "mux"},
		Command:   []string{"make", "test"},
		TestJob:   true,
		Verdict:   labs.Fail,
		ExitCode:  2,
		Err:       errors.New("boom"),
		StartedAt: start,
		Duration:  1500 * time.Millisecond,
	}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.List(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, "lab2/mux", e.Key())
	assert.Equal(t, labs.Fail, e.Verdict)
	assert.Equal(t, "boom", e.Error)
	assert.Equal(t, 2, e.ExitCode)
	assert.Equal(t, 1500*time.Millisecond, e.Duration)
	assert.True(t, e.StartedAt.Equal(start))
}

func TestStore_RejectsEntry_When_StartTimeMissing(t *testing.T) {
	t.Parallel()

	s, _ := openStore(t)
	defer s.Close()
	assert.Error(t, s.Append(Entry{ID: "x"}))
}
