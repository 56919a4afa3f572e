package projects

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/novalys/ve-runner/internal/command"
	"github.com/novalys/ve-runner/internal/install"
	"github.com/novalys/ve-runner/internal/process"
)

// Lister returns the projects known to the installation at installPath.
type Lister interface {
	Projects(ctx context.Context, installPath string) []string
}

// Options configures a Cache.
type Options struct {
	Runner process.Runner
	// ListingFile overrides the listing file location. Empty derives it
	// from ProgramDataEnv on every rebuild.
	ListingFile string
	// DefaultArgs are appended to the list-projects invocation.
	DefaultArgs string
	// Timeout bounds the list-projects invocation. Zero uses process.ListTimeout.
	Timeout time.Duration
	Logger  hclog.Logger
}

type entry struct {
	installPath string
	projects    []string
}

// Cache holds the project list for the most recently requested
// installation. It keeps at most one entry; a request for another
// installation, or a cached empty list, triggers a rebuild.
// A Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	current atomic.Pointer[entry]

	runner      process.Runner
	reader      *Reader
	listingFile string
	defaultArgs string
	timeout     time.Duration
	logger      hclog.Logger
}

// NewCache creates an empty Cache.
func NewCache(opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	runner := opts.Runner
	if runner == nil {
		runner = process.NewExecRunner(logger)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = process.ListTimeout
	}
	return &Cache{
		runner:      runner,
		reader:      NewReader(logger),
		listingFile: opts.ListingFile,
		defaultArgs: opts.DefaultArgs,
		timeout:     timeout,
		logger:      logger,
	}
}

// Projects implements Lister. The returned slice is a copy.
func (c *Cache) Projects(ctx context.Context, installPath string) []string {
	if projects, ok := c.lookup(installPath); ok {
		return projects
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if projects, ok := c.lookup(installPath); ok {
		return projects
	}

	projects := c.rebuild(ctx, installPath)
	c.current.Store(&entry{installPath: installPath, projects: projects})
	return slices.Clone(projects)
}

// Invalidate drops the cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Store(nil)
}

func (c *Cache) lookup(installPath string) ([]string, bool) {
	e := c.current.Load()
	if e == nil || e.installPath != installPath || len(e.projects) == 0 {
		return nil, false
	}
	c.logger.Debug("project list cache hit", "install_path", installPath, "projects", len(e.projects))
	return slices.Clone(e.projects), true
}

func (c *Cache) rebuild(ctx context.Context, installPath string) []string {
	c.logger.Debug("rebuilding project list", "install_path", installPath)

	exe, err := install.Installation{Dir: installPath}.ExecutablePath()
	if err != nil {
		c.logger.Warn("cannot list projects", "install_path", installPath, "error", err)
		return []string{}
	}

	builder, err := command.NewBuilder(exe, c.defaultArgs)
	if err != nil {
		c.logger.Warn("cannot list projects", "error", err)
		return []string{}
	}

	_, err = c.runner.Run(ctx, builder.ListProjects(), io.Discard, c.timeout)
	switch {
	case err == nil:
	case errors.Is(err, process.ErrTimeout):
		// The tool may have written the file before hanging.
		c.logger.Warn("list projects timed out, reading listing file anyway", "timeout", c.timeout)
	default:
		c.logger.Warn("list projects failed", "error", err)
		return []string{}
	}

	path := c.listingFile
	if path == "" {
		path = ListingFilePath()
	}
	projects := c.reader.ReadFile(path)
	c.logger.Debug("project list rebuilt", "install_path", installPath, "projects", len(projects))
	return projects
}
