// Package bridge exposes the LASR script API (process, readAddress,
// sig_scan, ...) to a gopher-lua state on top of the target host ports.
//
// All bridge functions are forgiving: a call with arguments of the wrong
// kind, against a process that is gone, or on memory that cannot be read
// returns nil (or false) and logs the reason instead of raising.
package bridge

import (
	"log/slog"

	"github.com/CryZe/lasr-compiler/application/scanner"
	"github.com/CryZe/lasr-compiler/application/settings"
	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
)

// Context is the explicit runtime state shared by every bridge call and the
// scheduler: the host, the attached process and the settings of the script.
type Context struct {
	host     ports.Host
	logger   *slog.Logger
	settings *settings.Registry
	scanner  *scanner.Scanner

	pid  entities.ProcessID
	base entities.Address
	// name is the attached process, wanted the last name passed to process().
	name   string
	wanted string
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSettings sets the settings registry.
func WithSettings(r *settings.Registry) Option {
	return func(c *Context) {
		if r != nil {
			c.settings = r
		}
	}
}

// WithScanner sets the signature scanner.
func WithScanner(s *scanner.Scanner) Option {
	return func(c *Context) {
		if s != nil {
			c.scanner = s
		}
	}
}

// NewContext returns a detached context for host.
func NewContext(host ports.Host, opts ...Option) *Context {
	c := &Context{host: host, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings == nil {
		c.settings = settings.NewRegistry(host, settings.WithLogger(c.logger))
	}
	if c.scanner == nil {
		c.scanner = scanner.New()
	}
	return c
}

// Host returns the target host.
func (c *Context) Host() ports.Host { return c.host }

// Logger returns the diagnostics logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Settings returns the settings registry.
func (c *Context) Settings() *settings.Registry { return c.settings }

// PID returns the attached handle, zero when detached.
func (c *Context) PID() entities.ProcessID { return c.pid }

// Base returns the main module base of the attached process.
func (c *Context) Base() entities.Address { return c.base }

// ProcessName returns the attached process name.
func (c *Context) ProcessName() string { return c.name }

// Wanted returns the last process name the script asked for.
func (c *Context) Wanted() string { return c.wanted }

// Attached reports whether a process handle is held. It does not check
// that the process is still open; see Validate.
func (c *Context) Attached() bool { return c.pid.Valid() }

// Attach attaches to name, detaching from any other process first. The
// attach only succeeds once the host also reports the main module.
func (c *Context) Attach(name string) (entities.ProcessID, bool) {
	c.wanted = name
	if c.pid.Valid() {
		if c.name == name && c.host.IsOpen(c.pid) {
			return c.pid, true
		}
		c.Detach()
	}

	pid, ok := c.host.Attach(name)
	if !ok {
		c.logger.Debug("bridge: process not found", "process", name)
		return 0, false
	}
	base, ok := c.host.ModuleAddress(pid, name)
	if !ok {
		c.logger.Debug("bridge: main module not loaded yet", "process", name)
		c.host.Detach(pid)
		return 0, false
	}
	c.pid, c.base, c.name = pid, base, name
	c.logger.Info("bridge: attached", "process", name, "pid", uint64(pid), "base", uint64(base))
	return pid, true
}

// Reattach retries the last requested process.
func (c *Context) Reattach() bool {
	if c.wanted == "" {
		return false
	}
	_, ok := c.Attach(c.wanted)
	return ok
}

// Detach drops the attached process. The requested name is kept so the
// scheduler can search for it again.
func (c *Context) Detach() {
	if !c.pid.Valid() {
		return
	}
	c.host.Detach(c.pid)
	c.logger.Info("bridge: detached", "process", c.name)
	c.pid, c.base, c.name = 0, 0, ""
}

// Validate checks the attached handle with the host and detaches when the
// process is gone.
func (c *Context) Validate() bool {
	if !c.pid.Valid() {
		return false
	}
	if c.host.IsOpen(c.pid) {
		return true
	}
	c.logger.Info("bridge: process exited", "process", c.name)
	c.Detach()
	return false
}

// Print writes msg to the host log sink.
func (c *Context) Print(msg string) {
	c.host.PrintMessage(msg)
}

// reader reads from the attached process.
func (c *Context) reader() ports.MemoryReader {
	return ports.ProcessReader(c.host, c.pid)
}

// memoryMaps lists the mapped ranges of the attached process.
func (c *Context) memoryMaps() []entities.MemoryMap {
	n, ok := c.host.MemoryRangeCount(c.pid)
	if !ok {
		return nil
	}
	maps := make([]entities.MemoryMap, 0, n)
	for i := uint64(0); i < n; i++ {
		m, ok := c.host.MemoryRange(c.pid, i)
		if !ok {
			continue
		}
		m.Name = ""
		maps = append(maps, m)
	}
	return maps
}
