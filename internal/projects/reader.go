// Package projects discovers the projects known to the console executable.
package projects

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ProgramDataEnv names the environment variable holding the shared
// application-data root the console executable writes its listing file under.
const ProgramDataEnv = "PROGRAMDATA"

// ListingFileName is the listing file location relative to ProgramDataEnv.
var ListingFileName = filepath.Join("Novalys", "Visual Expert", "VEProjectsList.txt")

const bom = '\uFEFF'

// maxLineSize caps a single project name line.
const maxLineSize = 1024 * 1024

// ListingFilePath returns the listing file path derived from the environment.
// Returns an empty string if ProgramDataEnv is unset.
func ListingFilePath() string {
	root := os.Getenv(ProgramDataEnv)
	if root == "" {
		return ""
	}
	return filepath.Join(root, ListingFileName)
}

// Reader parses listing files. It never returns an error: a missing or
// unreadable file yields an empty list and a diagnostic.
type Reader struct {
	Logger hclog.Logger
}

// NewReader creates a Reader. A nil logger discards diagnostics.
func NewReader(logger hclog.Logger) *Reader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Reader{Logger: logger}
}

// ReadFile returns the lines of the listing file at path in file order,
// blank lines included. A byte-order mark leading the first line is
// stripped when that line holds more than one character. Invalid UTF-8 is
// replaced with U+FFFD.
func (r *Reader) ReadFile(path string) []string {
	logger := r.logger()
	projects := []string{}

	if path == "" {
		logger.Debug("no listing file location", "env", ProgramDataEnv)
		return projects
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to open listing file", "path", path, "error", err)
		}
		return projects
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, unicode.UTF8.NewDecoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = stripLeadingBOM(line)
			first = false
		}
		projects = append(projects, line)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("failed to read listing file", "path", path, "error", err)
		return []string{}
	}

	logger.Debug("read listing file", "path", path, "projects", len(projects))
	return projects
}

func stripLeadingBOM(line string) string {
	if utf8.RuneCountInString(line) <= 1 {
		return line
	}
	if r, size := utf8.DecodeRuneInString(line); r == bom {
		return line[size:]
	}
	return line
}

func (r *Reader) logger() hclog.Logger {
	if r.Logger == nil {
		return hclog.NewNullLogger()
	}
	return r.Logger
}

// Selectable returns the non-blank entries of projects.
func Selectable(projects []string) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
