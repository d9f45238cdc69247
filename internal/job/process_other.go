//go:build !unix

package job

import (
	"errors"
	"os/exec"
)

// detach is a no-op on non-Unix platforms.
func detach(cmd *exec.Cmd) {}

// exitStatus extracts the exit code from the error returned by Wait.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
