package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteStarter when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

const starterConfig = `# verun configuration
# Precedence: flags > VERUN_* environment variables > this file > defaults.

# Directory holding NOVALYS.VISUALEXPERT.CONSOLE.EXE.
install_path: 'C:\Program Files\Novalys\Visual Expert 2023\'

# Extra arguments appended to every console invocation.
# default_args: ""

# Visual Expert project to process.
project: ""

analyze: true
reference_doc: false
code_review_doc: false

report:
  enabled: false
  path: ""
  format: JUNIT

# shared: one output file per run. per-action: one file per action.
capture: shared

# Where captured output files go. Empty uses the system temp directory.
# output_dir: ""

# Bound on the list-projects invocation.
list_timeout: 300s

# Override the listing file written by the console executable.
# projects_file: ""
`

// WriteStarter writes a commented starter config to path. An existing file
// is only replaced when force is set.
func WriteStarter(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if _, err := f.WriteString(starterConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Close()
}

// resolvedFile mirrors the file layout for rendering resolved values.
type resolvedFile struct {
	InstallPath   string       `yaml:"install_path"`
	DefaultArgs   string       `yaml:"default_args"`
	Project       string       `yaml:"project"`
	Analyze       bool         `yaml:"analyze"`
	ReferenceDoc  bool         `yaml:"reference_doc"`
	CodeReviewDoc bool         `yaml:"code_review_doc"`
	Report        resolvedRept `yaml:"report"`
	Capture       string       `yaml:"capture"`
	OutputDir     string       `yaml:"output_dir"`
	ListTimeout   string       `yaml:"list_timeout"`
	ProjectsFile  string       `yaml:"projects_file"`
}

type resolvedRept struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Format  string `yaml:"format"`
}

// Render returns r in config file syntax.
func Render(r ResolvedConfig) (string, error) {
	out, err := yaml.Marshal(resolvedFile{
		InstallPath:   r.InstallPath,
		DefaultArgs:   r.DefaultArgs,
		Project:       r.Project,
		Analyze:       r.Analyze,
		ReferenceDoc:  r.ReferenceDoc,
		CodeReviewDoc: r.CodeReviewDoc,
		Report: resolvedRept{
			Enabled: r.ReportEnabled,
			Path:    r.ReportPath,
			Format:  r.ReportFormat,
		},
		Capture:      r.Capture,
		OutputDir:    r.OutputDir,
		ListTimeout:  r.ListTimeout.String(),
		ProjectsFile: r.ProjectsFile,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}
