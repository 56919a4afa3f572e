//go:build windows

package process

import (
	"errors"
	"os"
	"os/exec"
)

func configureProcess(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return killTree(cmd.Process.Pid)
	}
}

func killTree(pid int) error {
	killDescendants(pid)
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
