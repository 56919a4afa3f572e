// Package config loads and resolves verun configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/novalys/ve-runner/internal/capture"
	"github.com/novalys/ve-runner/internal/command"
	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/install"
	"github.com/novalys/ve-runner/internal/process"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = ".verun.yaml"

// Duration is a YAML duration. Accepts Go duration strings ("5m", "300s")
// and plain numbers of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// ParseDuration parses a Go duration or a plain number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Config represents the .verun.yaml file. Nil fields were not set.
type Config struct {
	InstallPath   *string      `yaml:"install_path"`
	DefaultArgs   *string      `yaml:"default_args"`
	Project       *string      `yaml:"project"`
	Analyze       *bool        `yaml:"analyze"`
	ReferenceDoc  *bool        `yaml:"reference_doc"`
	CodeReviewDoc *bool        `yaml:"code_review_doc"`
	Report        ReportConfig `yaml:"report"`
	Capture       *string      `yaml:"capture"`
	OutputDir     *string      `yaml:"output_dir"`
	ListTimeout   *Duration    `yaml:"list_timeout"`
	ProjectsFile  *string      `yaml:"projects_file"`
}

// ReportConfig holds the analysis report settings.
type ReportConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Path    *string `yaml:"path"`
	Format  *string `yaml:"format"`
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Path     string
	Found    bool
	Warnings []string
}

// Load reads the config file at path, or ConfigFileName in the working
// directory when path is empty. A missing default file is not an error;
// a missing explicit file is.
func Load(path string) (*LoadResult, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return LoadFromPathWithWarnings(path)
	}
	dir, err := os.Getwd()
	if err != nil {
		return &LoadResult{Config: &Config{}}, nil
	}
	return LoadFromDirWithWarnings(dir)
}

// LoadFromDirWithWarnings reads ConfigFileName from dir.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	return LoadFromPathWithWarnings(filepath.Join(dir, ConfigFileName))
}

// LoadFromPathWithWarnings reads a config file and returns warnings for unknown keys.
// Returns an empty config (not error) if the file doesn't exist.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}, Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	return &LoadResult{Config: &cfg, Path: path, Found: true, Warnings: warnings}, nil
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{
	"install_path", "default_args", "project",
	"analyze", "reference_doc", "code_review_doc", "report",
	"capture", "output_dir", "list_timeout", "projects_file",
}

// knownReportKeys are the valid keys under the "report" section.
var knownReportKeys = []string{"enabled", "path", "format"}

func checkUnknownKeys(data []byte) []string {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}

	var warnings []string
	for _, key := range sortedKeys(raw) {
		if !slices.Contains(knownTopLevelKeys, key) {
			warnings = append(warnings, unknownKeyWarning(key, "", knownTopLevelKeys))
		}
	}
	if report, ok := raw["report"].(map[string]any); ok {
		for _, key := range sortedKeys(report) {
			if !slices.Contains(knownReportKeys, key) {
				warnings = append(warnings, unknownKeyWarning(key, "report", knownReportKeys))
			}
		}
	}
	return warnings
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func unknownKeyWarning(key, section string, known []string) string {
	warning := fmt.Sprintf("unknown key %q in %s", key, ConfigFileName)
	if section != "" {
		warning = fmt.Sprintf("unknown key %q in %s section of %s", key, section, ConfigFileName)
	}
	if suggestion := findSimilar(key, known); suggestion != "" {
		warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return warning
}

// findSimilar returns the candidate closest to input, or "" if none is
// within 3 edits.
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		if dist := levenshtein(input, candidate); dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}
	return bestMatch
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Validate checks the values that can be checked without the rest of the
// resolution chain.
func (c *Config) Validate() error {
	if c.Capture != nil {
		if _, err := capture.ParseMode(*c.Capture); err != nil {
			return fmt.Errorf("capture: %w", err)
		}
	}
	if c.Report.Format != nil {
		if _, err := domain.ParseReportFormat(*c.Report.Format); err != nil {
			return fmt.Errorf("report.format: %w", err)
		}
	}
	if c.ListTimeout != nil && *c.ListTimeout <= 0 {
		return fmt.Errorf("list_timeout must be > 0, got %s", c.ListTimeout.AsDuration())
	}
	return nil
}

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	InstallPath:  install.DefaultInstallPath,
	Analyze:      true,
	ReportFormat: string(domain.ReportFormatJUnit),
	Capture:      string(capture.ModeShared),
	ListTimeout:  process.ListTimeout,
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	InstallPath   string
	DefaultArgs   string
	Project       string
	Analyze       bool
	ReferenceDoc  bool
	CodeReviewDoc bool
	ReportEnabled bool
	ReportPath    string
	ReportFormat  string
	Capture       string
	OutputDir     string
	ListTimeout   time.Duration
	ProjectsFile  string
}

// Installation returns the console installation described by r.
func (r ResolvedConfig) Installation() install.Installation {
	return install.Installation{Dir: r.InstallPath, DefaultArgs: r.DefaultArgs}
}

// Request returns the action request described by r.
func (r ResolvedConfig) Request() domain.ActionRequest {
	format, err := domain.ParseReportFormat(r.ReportFormat)
	if err != nil {
		format = domain.ReportFormat(r.ReportFormat)
	}
	return domain.ActionRequest{
		ProjectName:              r.Project,
		DoAnalysis:               r.Analyze,
		CreateReferenceDocument:  r.ReferenceDoc,
		CreateCodeReviewDocument: r.CodeReviewDoc,
		GenerateReport:           r.ReportEnabled,
		ReportPath:               r.ReportPath,
		ReportFormat:             format,
	}
}

// CaptureMode returns the parsed capture mode.
func (r ResolvedConfig) CaptureMode() (capture.Mode, error) {
	return capture.ParseMode(r.Capture)
}

// ErrNoAction is reported by Check when no action is enabled.
var ErrNoAction = errors.New("no action enabled: set at least one of analyze, reference_doc, code_review_doc")

// Check validates the resolved values as a whole. Problems that would stop
// a run are returned as errors; the rest are warnings.
func (r ResolvedConfig) Check() (warnings []string, err error) {
	var errs []error
	if strings.TrimSpace(r.InstallPath) == "" {
		errs = append(errs, install.ErrMissingInstallPath)
	}
	if _, perr := capture.ParseMode(r.Capture); perr != nil {
		errs = append(errs, perr)
	}
	if _, perr := domain.ParseReportFormat(r.ReportFormat); perr != nil {
		errs = append(errs, perr)
	}
	if r.ListTimeout <= 0 {
		errs = append(errs, fmt.Errorf("list timeout must be > 0, got %s", r.ListTimeout))
	}

	req := r.Request()
	if !req.HasAction() {
		warnings = append(warnings, ErrNoAction.Error())
	} else if req.ProjectName == "" {
		errs = append(errs, domain.ErrNoProject)
	}
	if req.DoAnalysis && req.GenerateReport && req.ReportPath == "" {
		errs = append(errs, errors.New("report path is required when report generation is enabled"))
	}
	if req.GenerateReport && !req.DoAnalysis {
		warnings = append(warnings, "report is enabled but analyze is off; no report will be generated")
	}
	if _, terr := command.Tokenize(r.DefaultArgs); terr != nil {
		errs = append(errs, fmt.Errorf("default args: %w", terr))
	}

	return warnings, errors.Join(errs...)
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	InstallPathSet   bool
	DefaultArgsSet   bool
	ProjectSet       bool
	AnalyzeSet       bool
	ReferenceDocSet  bool
	CodeReviewDocSet bool
	ReportEnabledSet bool
	ReportPathSet    bool
	ReportFormatSet  bool
	CaptureSet       bool
	OutputDirSet     bool
	ListTimeoutSet   bool
	ProjectsFileSet  bool
}

// Environment variable names.
const (
	EnvInstallPath  = "VERUN_INSTALL_PATH"
	EnvProject      = "VERUN_PROJECT"
	EnvCapture      = "VERUN_CAPTURE"
	EnvOutputDir    = "VERUN_OUTPUT_DIR"
	EnvListTimeout  = "VERUN_LIST_TIMEOUT"
	EnvProjectsFile = "VERUN_PROJECTS_FILE"
)

// EnvState captures env var values and whether they were set.
type EnvState struct {
	InstallPath     string
	InstallPathSet  bool
	Project         string
	ProjectSet      bool
	Capture         string
	CaptureSet      bool
	OutputDir       string
	OutputDirSet    bool
	ListTimeout     time.Duration
	ListTimeoutSet  bool
	ProjectsFile    string
	ProjectsFileSet bool
}

// LoadEnvState reads environment variables and returns their state.
// Unparsable durations are ignored.
func LoadEnvState() EnvState {
	var state EnvState

	if v := os.Getenv(EnvInstallPath); v != "" {
		state.InstallPath, state.InstallPathSet = v, true
	}
	if v := os.Getenv(EnvProject); v != "" {
		state.Project, state.ProjectSet = v, true
	}
	if v := os.Getenv(EnvCapture); v != "" {
		state.Capture, state.CaptureSet = v, true
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		state.OutputDir, state.OutputDirSet = v, true
	}
	if v := os.Getenv(EnvListTimeout); v != "" {
		if d, err := ParseDuration(v); err == nil && d > 0 {
			state.ListTimeout, state.ListTimeoutSet = d, true
		}
	}
	if v := os.Getenv(EnvProjectsFile); v != "" {
		state.ProjectsFile, state.ProjectsFileSet = v, true
	}

	return state
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	if cfg != nil {
		setString(&result.InstallPath, cfg.InstallPath)
		setString(&result.DefaultArgs, cfg.DefaultArgs)
		setString(&result.Project, cfg.Project)
		setBool(&result.Analyze, cfg.Analyze)
		setBool(&result.ReferenceDoc, cfg.ReferenceDoc)
		setBool(&result.CodeReviewDoc, cfg.CodeReviewDoc)
		setBool(&result.ReportEnabled, cfg.Report.Enabled)
		setString(&result.ReportPath, cfg.Report.Path)
		setString(&result.ReportFormat, cfg.Report.Format)
		setString(&result.Capture, cfg.Capture)
		setString(&result.OutputDir, cfg.OutputDir)
		if cfg.ListTimeout != nil {
			result.ListTimeout = cfg.ListTimeout.AsDuration()
		}
		setString(&result.ProjectsFile, cfg.ProjectsFile)
	}

	if envState.InstallPathSet {
		result.InstallPath = envState.InstallPath
	}
	if envState.ProjectSet {
		result.Project = envState.Project
	}
	if envState.CaptureSet {
		result.Capture = envState.Capture
	}
	if envState.OutputDirSet {
		result.OutputDir = envState.OutputDir
	}
	if envState.ListTimeoutSet {
		result.ListTimeout = envState.ListTimeout
	}
	if envState.ProjectsFileSet {
		result.ProjectsFile = envState.ProjectsFile
	}

	if flagState.InstallPathSet {
		result.InstallPath = flagValues.InstallPath
	}
	if flagState.DefaultArgsSet {
		result.DefaultArgs = flagValues.DefaultArgs
	}
	if flagState.ProjectSet {
		result.Project = flagValues.Project
	}
	if flagState.AnalyzeSet {
		result.Analyze = flagValues.Analyze
	}
	if flagState.ReferenceDocSet {
		result.ReferenceDoc = flagValues.ReferenceDoc
	}
	if flagState.CodeReviewDocSet {
		result.CodeReviewDoc = flagValues.CodeReviewDoc
	}
	if flagState.ReportEnabledSet {
		result.ReportEnabled = flagValues.ReportEnabled
	}
	if flagState.ReportPathSet {
		result.ReportPath = flagValues.ReportPath
	}
	if flagState.ReportFormatSet {
		result.ReportFormat = flagValues.ReportFormat
	}
	if flagState.CaptureSet {
		result.Capture = flagValues.Capture
	}
	if flagState.OutputDirSet {
		result.OutputDir = flagValues.OutputDir
	}
	if flagState.ListTimeoutSet {
		result.ListTimeout = flagValues.ListTimeout
	}
	if flagState.ProjectsFileSet {
		result.ProjectsFile = flagValues.ProjectsFile
	}

	return result
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
