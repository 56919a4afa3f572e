package process

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/novalys/ve-runner/internal/command"
)

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "NOVALYS.VISUALEXPERT.CONSOLE.EXE")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecRunner_WritesStdoutToSink(t *testing.T) {
	exe := writeScript(t, `echo "args: $*"`)
	out := filepath.Join(t.TempDir(), "out.log")
	f, err := os.Create(out)
	if err != nil {
		t.Fatal(err)
	}

	r := NewExecRunner(nil)
	res, err := r.Run(context.Background(), command.Invocation{Path: exe, Args: []string{"-a", "-p", "My Project"}}, f, 0)
	f.Close()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "args: -a -p My Project") {
		t.Errorf("unexpected output: %q", data)
	}
}

func TestExecRunner_ArgumentsAreNotSplit(t *testing.T) {
	exe := writeScript(t, `echo "$#"; for a in "$@"; do echo "[$a]"; done`)

	var buf bytes.Buffer
	r := NewExecRunner(nil)
	_, err := r.Run(context.Background(), command.Invocation{Path: exe, Args: []string{"-p", "O'Brien Sales"}}, &buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "2\n[-p]\n[O'Brien Sales]\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestExecRunner_NonZeroExitIsNotAnError(t *testing.T) {
	exe := writeScript(t, "echo failing; exit 3")

	var buf bytes.Buffer
	res, err := NewExecRunner(nil).Run(context.Background(), command.Invocation{Path: exe}, &buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "NOVALYS.VISUALEXPERT.CONSOLE.EXE")

	var buf bytes.Buffer
	_, err := NewExecRunner(nil).Run(context.Background(), command.Invocation{Path: missing}, &buf, 0)
	if !errors.Is(err, ErrStart) {
		t.Errorf("expected ErrStart, got %v", err)
	}
}

func TestExecRunner_NotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	path := filepath.Join(t.TempDir(), "NOVALYS.VISUALEXPERT.CONSOLE.EXE")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	_, err := NewExecRunner(nil).Run(context.Background(), command.Invocation{Path: path}, &buf, 0)
	if !errors.Is(err, ErrStart) {
		t.Errorf("expected ErrStart, got %v", err)
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	exe := writeScript(t, "sleep 30")

	var buf bytes.Buffer
	start := time.Now()
	res, err := NewExecRunner(nil).Run(context.Background(), command.Invocation{Path: exe, Args: []string{"-L"}}, &buf, 200*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut to be set")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("runner did not terminate the child promptly: %v", elapsed)
	}
}

func TestExecRunner_ContextCancellation(t *testing.T) {
	exe := writeScript(t, "sleep 30")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	var buf bytes.Buffer
	_, err := NewExecRunner(nil).Run(ctx, command.Invocation{Path: exe}, &buf, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecRunner_StderrIsSeparate(t *testing.T) {
	exe := writeScript(t, "echo out; echo err >&2")

	var stdout, stderr bytes.Buffer
	r := &ExecRunner{Stderr: &stderr}
	if _, err := r.Run(context.Background(), command.Invocation{Path: exe}, &stdout, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != "out\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if stderr.String() != "err\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunningInstances_NoMatch(t *testing.T) {
	pids, err := RunningInstances("NO-SUCH-PROCESS-3f9c2a.EXE")
	if err != nil {
		t.Skipf("process listing unavailable: %v", err)
	}
	if len(pids) != 0 {
		t.Errorf("expected no instances, got %v", pids)
	}
}

func TestDescendants_UnknownPID(t *testing.T) {
	pids, err := descendants(-12345)
	if err != nil {
		t.Skipf("process listing unavailable: %v", err)
	}
	if len(pids) != 0 {
		t.Errorf("expected no descendants, got %v", pids)
	}
}
