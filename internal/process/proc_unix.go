//go:build !windows

package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureProcess puts the child in its own process group so a timeout
// kills everything it spawned.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killTree(cmd.Process.Pid)
	}
}

func killTree(pid int) error {
	killDescendants(pid)
	// Negative PID targets the whole process group.
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
