//go:build unix

package job

import (
	"errors"
	"os/exec"
	"syscall"
)

// detach runs the command in its own process group so terminal signals sent
// to playv do not reach it.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// exitStatus extracts the exit code from the error returned by Wait.
// It returns -1 when the process did not exit normally.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		return ws.ExitStatus()
	}
	return exitErr.ExitCode()
}
