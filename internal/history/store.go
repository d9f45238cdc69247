// Package history keeps an append-only audit trail of finished jobs in a
// bbolt database. Status resolution never reads it.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/labs"
)

const bucketJobs = "jobs"

// keyLayout is fixed width in UTC so keys sort by start time.
const keyLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded job.
type Entry struct {
	ID               string        `json:"id"`
	Lab              string        `json:"lab"`
	Problem          string        `json:"problem,omitempty"`
	Command          []string      `json:"command"`
	TestJob          bool          `json:"test_job"`
	Verdict          labs.Verdict  `json:"verdict"`
	SawVisibleOutput bool          `json:"saw_visible_output"`
	ExitCode         int           `json:"exit_code"`
	Error            string        `json:"error,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

// Key is the lab/problem identifier of the entry.
func (e Entry) Key() string {
	return labs.Problem{Lab: e.Lab, Name: e.Problem}.Key()
}

// FromResult converts a job result to an entry.
func FromResult(r job.Result) Entry {
	e := Entry{
		ID:               r.JobID,
		Lab:              r.Problem.Lab,
		Problem:          r.Problem.Name,
		Command:          r.Command,
		TestJob:          r.TestJob,
		Verdict:          r.Verdict,
		SawVisibleOutput: r.SawVisibleOutput,
		ExitCode:         r.ExitCode,
		StartedAt:        r.StartedAt,
		Duration:         r.Duration,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}

// Store is a bbolt-backed job history.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketJobs))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends r. It implements job.Recorder.
func (s *Store) Record(r job.Result) error {
	return s.Append(FromResult(r))
}

// Append stores e.
func (s *Store) Append(e Entry) error {
	if e.StartedAt.IsZero() {
		return errors.New("history entry has no start time")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	key := e.StartedAt.UTC().Format(keyLayout) + "/" + e.ID

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketJobs)).Put([]byte(key), data)
	})
}

// List returns up to n entries, newest first. n <= 0 returns every entry.
func (s *Store) List(n int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketJobs)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if n > 0 && len(out) == n {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal key %s: %w", string(k), err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
