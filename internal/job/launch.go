package job

import (
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dkoosis/playv/pkg/stream"
)

// Launch starts a helper program (editor, waveform viewer) in dir without
// taking the gate and without waiting for it. Its output goes to the log.
// Launch never posts events: it runs on the control loop, which is also the
// only reader of the event channel.
func (r *Runner) Launch(argv []string, dir string) error {
	if len(argv) == 0 || argv[0] == "" {
		return ErrNoCommand
	}
	// #nosec G204 -- helper commands come from the user's own configuration
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	detach(cmd)
	out := &logWriter{log: r.log.With(zap.String("helper", argv[0]))}
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Start(); err != nil {
		serr := &SpawnError{Command: argv, Err: err}
		r.log.Warn("launch failed", zap.Error(serr))
		return serr
	}
	r.log.Debug("launched helper", zap.String("cmd", strings.Join(argv, " ")), zap.Int("pid", cmd.Process.Pid))
	go func() {
		err := cmd.Wait()
		out.flush()
		if code := exitStatus(err); code != 0 {
			r.log.Debug("helper exited", zap.String("cmd", argv[0]), zap.Int("exit", code))
		}
	}()
	return nil
}

// logWriter forwards complete lines written to it as debug log entries.
type logWriter struct {
	mu    sync.Mutex
	log   *zap.Logger
	split stream.Splitter
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for line := range w.split.Feed(string(p)) {
		w.log.Debug(line)
	}
	return len(p), nil
}

func (w *logWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rest := w.split.Pending(); rest != "" {
		w.log.Debug(rest)
	}
	w.split.Close()
}
