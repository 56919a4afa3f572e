package process

import (
	"os"
	"path/filepath"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// descendants returns the PIDs of every process below pid, deepest last.
func descendants(pid int) ([]int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	children := make(map[int][]int)
	for _, p := range procs {
		children[p.PPid()] = append(children[p.PPid()], p.Pid())
	}

	var out []int
	queue := []int{pid}
	seen := map[int]bool{pid: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}

// killDescendants kills every process below pid. Errors are ignored; the
// processes may already have exited.
func killDescendants(pid int) {
	pids, err := descendants(pid)
	if err != nil {
		return
	}
	for i := len(pids) - 1; i >= 0; i-- {
		if p, err := os.FindProcess(pids[i]); err == nil {
			_ = p.Kill()
		}
	}
}

// RunningInstances returns the PIDs of processes whose executable name
// matches exeName, ignoring case.
func RunningInstances(exeName string) ([]int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	want := filepath.Base(exeName)
	var pids []int
	for _, p := range procs {
		if strings.EqualFold(p.Executable(), want) {
			pids = append(pids, p.Pid())
		}
	}
	return pids, nil
}
