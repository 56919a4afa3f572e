// Package integration provides end-to-end tests for the verun binary using a
// fake console executable.
//
// The fake is a shell script installed under the console executable's name.
// It prints the success markers the real console prints, can be told to fail
// one action, and writes a project listing file when asked to list projects.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const consoleExeName = "NOVALYS.VISUALEXPERT.CONSOLE.EXE"

// fakeConsole is the script behind the fake console executable. FAKE_VE_FAIL
// names the action to fail: analyze, reference or codereview.
const fakeConsole = `#!/bin/sh
echo "$@" >> "$FAKE_VE_LOG"
case "$1" in
-a)
	if [ "$FAKE_VE_FAIL" = "analyze" ]; then
		echo "Project $3 could not be loaded"
		exit 1
	fi
	echo "Analysis completed successfully for the project $3"
	if [ "$4" = "-O" ]; then
		echo "<testsuites/>" > "$5"
	fi
	;;
-d)
	if [ "$FAKE_VE_FAIL" = "$5" ]; then
		echo "Documentation error"
		exit 3
	fi
	echo "Documentation generated for the project $3"
	;;
-L)
	mkdir -p "$PROGRAMDATA/Novalys/Visual Expert"
	printf '\357\273\277Alpha\r\nBeta Project\r\n\r\n' > "$PROGRAMDATA/Novalys/Visual Expert/VEProjectsList.txt"
	;;
esac
exit 0
`

// testEnv holds paths and state for integration test execution.
type testEnv struct {
	bin        string // Path to built verun binary
	installDir string // Directory holding the fake console executable
	workDir    string // Working directory for verun, with no config file
	dataDir    string // Stand-in for PROGRAMDATA
	logPath    string // Invocations recorded by the fake console
	outputDir  string // Captured output files
	fail       string
}

// setupTestEnv builds the verun binary and installs the fake console.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake console is a shell script")
	}

	rootDir := findRepoRoot(t)
	bin := filepath.Join(t.TempDir(), "verun")
	build := exec.Command("go", "build", "-o", bin, "./cmd/verun")
	build.Dir = rootDir
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build verun: %v\n%s", err, out)
	}

	installDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(installDir, consoleExeName), []byte(fakeConsole), 0755); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		bin:        bin,
		installDir: installDir,
		workDir:    t.TempDir(),
		dataDir:    t.TempDir(),
		logPath:    filepath.Join(t.TempDir(), "invocations.log"),
		outputDir:  t.TempDir(),
	}
}

func (e *testEnv) environ() []string {
	var env []string
	for _, v := range os.Environ() {
		if strings.HasPrefix(v, "VERUN_") || strings.HasPrefix(v, "PROGRAMDATA=") {
			continue
		}
		env = append(env, v)
	}
	return append(env,
		"PROGRAMDATA="+e.dataDir,
		"FAKE_VE_LOG="+e.logPath,
		"FAKE_VE_FAIL="+e.fail,
		"VERUN_OUTPUT_DIR="+e.outputDir,
	)
}

// run executes verun with the given args and returns stdout, stderr, and exit code.
func (e *testEnv) run(args ...string) (stdout, stderr string, exitCode int) {
	cmd := exec.Command(e.bin, args...)
	cmd.Dir = e.workDir
	cmd.Env = e.environ()

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// invocations returns the argument lines the fake console received.
func (e *testEnv) invocations(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.logPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// capturedFiles returns the output files verun wrote.
func (e *testEnv) capturedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.outputDir)
	if err != nil {
		t.Fatal(err)
	}
	var files []string
	for _, entry := range entries {
		files = append(files, filepath.Join(e.outputDir, entry.Name()))
	}
	return files
}

// findRepoRoot walks up to find the go.mod file.
func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

func TestVersion(t *testing.T) {
	env := setupTestEnv(t)
	stdout, _, code := env.run("--version")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout, "verun ") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestHelp(t *testing.T) {
	env := setupTestEnv(t)
	stdout, _, code := env.run("run", "--help")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	for _, want := range []string{"Actions:", "--analyze", "--install-path", "--report-path"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help missing %q:\n%s", want, stdout)
		}
	}
}

func TestAnalyzeOnly_Succeeds(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, code := env.run("run", "-i", env.installDir, "-p", "Demo App")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}

	calls := env.invocations(t)
	if len(calls) != 1 || calls[0] != "-a -p Demo App" {
		t.Errorf("invocations = %q", calls)
	}
	if !strings.Contains(stderr, "Succeeded") {
		t.Errorf("expected success summary:\n%s", stderr)
	}
}

func TestAllActions_CodeReviewFails(t *testing.T) {
	env := setupTestEnv(t)
	env.fail = "codereview"

	_, stderr, code := env.run("run", "-i", env.installDir, "-p", "Demo", "-d", "-c")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\nstderr: %s", code, stderr)
	}

	calls := env.invocations(t)
	want := []string{"-a -p Demo", "-d -p Demo -t reference", "-d -p Demo -t codereview"}
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Errorf("invocations = %q, want %q", calls, want)
	}
	if !strings.Contains(stderr, "✗ Generate Code Review Documentation") {
		t.Errorf("expected failed code review line:\n%s", stderr)
	}
	if files := env.capturedFiles(t); len(files) != 1 {
		t.Errorf("shared capture wrote %d files, want 1", len(files))
	}
}

func TestAnalyzeFails_LaterActionsStillRun(t *testing.T) {
	env := setupTestEnv(t)
	env.fail = "analyze"

	_, stderr, code := env.run("run", "-i", env.installDir, "-p", "Demo", "-d")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\nstderr: %s", code, stderr)
	}
	if calls := env.invocations(t); len(calls) != 2 {
		t.Errorf("invocations = %q, want 2", calls)
	}
	if !strings.Contains(stderr, "✓ Generate Reference Documentation") {
		t.Errorf("expected reference doc to succeed:\n%s", stderr)
	}
}

func TestAnalyzeWithReport(t *testing.T) {
	env := setupTestEnv(t)
	report := filepath.Join(t.TempDir(), "report.xml")

	_, stderr, code := env.run("run", "-i", env.installDir, "-p", "Demo", "--report", "-o", report)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	calls := env.invocations(t)
	if len(calls) != 1 || calls[0] != "-a -p Demo -O "+report+" --ReportFormat JUNIT" {
		t.Errorf("invocations = %q", calls)
	}
	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestReportWithoutPath_IsConfigError(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, code := env.run("run", "-i", env.installDir, "-p", "Demo", "--report")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2\nstderr: %s", code, stderr)
	}
	if calls := env.invocations(t); len(calls) != 0 {
		t.Errorf("console started %d times, want 0", len(calls))
	}
}

func TestPerActionCapture(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, code := env.run("run", "-i", env.installDir, "-p", "Demo", "-d", "-c", "--capture", "per-action")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if files := env.capturedFiles(t); len(files) != 3 {
		t.Errorf("per-action capture wrote %d files, want 3", len(files))
	}
}

func TestMissingExecutable_IsPathError(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, code := env.run("run", "-i", t.TempDir(), "-p", "Demo")
	if code != 2 {
		t.Fatalf("exit code = %d, want 2\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, consoleExeName) {
		t.Errorf("expected executable name in error:\n%s", stderr)
	}
}

func TestCheck(t *testing.T) {
	env := setupTestEnv(t)

	if _, stderr, code := env.run("check", "-i", env.installDir); code != 0 {
		t.Errorf("check exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if _, _, code := env.run("check", "-i", t.TempDir()); code != 2 {
		t.Errorf("check on empty dir exit code = %d, want 2", code)
	}
	if _, _, code := env.run("check"); code != 2 {
		t.Errorf("check against the default install path exit code = %d, want 2", code)
	}
}

func TestProjects(t *testing.T) {
	env := setupTestEnv(t)
	stdout, stderr, code := env.run("projects", "-i", env.installDir)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	if stdout != "Alpha\nBeta Project\n" {
		t.Errorf("projects output = %q", stdout)
	}
	if calls := env.invocations(t); len(calls) != 1 || calls[0] != "-L" {
		t.Errorf("invocations = %q", calls)
	}
}

func TestProjects_ListingFileOverride(t *testing.T) {
	env := setupTestEnv(t)
	listing := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(listing, []byte("Only\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, code := env.run("projects", "-i", env.installDir, "--projects-file", listing)
	if code != 0 || stdout != "Only\n" {
		t.Errorf("got %q (exit %d), want %q", stdout, code, "Only\n")
	}
}

func TestConfigFile(t *testing.T) {
	env := setupTestEnv(t)
	content := "install_path: " + env.installDir + "\nproject: FromFile\nreference_doc: true\n"
	if err := os.WriteFile(filepath.Join(env.workDir, ".verun.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := env.run("run")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nstderr: %s", code, stderr)
	}
	calls := env.invocations(t)
	if len(calls) != 2 || calls[1] != "-d -p FromFile -t reference" {
		t.Errorf("invocations = %q", calls)
	}

	if _, _, code := env.run("config", "validate"); code != 0 {
		t.Errorf("config validate exit code = %d, want 0", code)
	}
}
