package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/novalys/ve-runner/internal/config"
	"github.com/novalys/ve-runner/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvInstallPath, config.EnvProject, config.EnvCapture,
		config.EnvOutputDir, config.EnvListTimeout, config.EnvProjectsFile,
	} {
		t.Setenv(key, "")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if code := run([]string{"config", "init"}); code != 0 {
		t.Fatalf("config init exit code = %d, want 0", code)
	}
	if _, err := os.Stat(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatalf("expected %s to be created: %v", config.ConfigFileName, err)
	}
}

func TestConfigInit_FailsIfExists(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("project: Keep\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if code := run([]string{"config", "init"}); code != domain.ExitError.Int() {
		t.Errorf("config init exit code = %d, want %d", code, domain.ExitError.Int())
	}
	if code := run([]string{"config", "init", "--force"}); code != 0 {
		t.Errorf("config init --force exit code = %d, want 0", code)
	}
}

func TestConfigInit_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")

	if code := run([]string{"config", "init", "--config", path}); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to be created: %v", path, err)
	}
}

func TestConfigValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"valid", "install_path: /opt/ve\nproject: Demo\n", 0},
		{"no action is a warning", "install_path: /opt/ve\nanalyze: false\n", 0},
		{"empty install path", "install_path: \"\"\nproject: Demo\n", domain.ExitError.Int()},
		{"missing project", "install_path: /opt/ve\nanalyze: true\n", domain.ExitError.Int()},
		{"report without path", "install_path: /opt/ve\nproject: Demo\nreport:\n  enabled: true\n", domain.ExitError.Int()},
		{"bad capture", "install_path: /opt/ve\nproject: Demo\ncapture: never\n", domain.ExitError.Int()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), config.ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if code := run([]string{"config", "validate", "--config", path}); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestConfigShow_ReflectsFlags(t *testing.T) {
	clearEnv(t)

	root := newRootCmd()
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "--no-config", "--project", "FromFlag", "--list-timeout", "45"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}

	for _, want := range []string{"project: FromFlag", "list_timeout: 45s", "capture: shared"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigShow_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvProject, "FromEnv")

	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, []byte("project: FromFile\n"), 0644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out.String(), "project: FromEnv") {
		t.Errorf("env value not applied:\n%s", out.String())
	}
}

func TestConfigShow_BadListTimeoutFlag(t *testing.T) {
	clearEnv(t)
	if code := run([]string{"config", "show", "--no-config", "--list-timeout", "soon"}); code != domain.ExitError.Int() {
		t.Errorf("exit code = %d, want %d", code, domain.ExitError.Int())
	}
}
