// Package runtime boots an embedded script: it builds a sandboxed gopher-lua
// state, installs the bridge, runs the top-level chunk and hands the
// resolved callbacks to the scheduler.
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CryZe/lasr-compiler/application/bridge"
	"github.com/CryZe/lasr-compiler/application/scanner"
	"github.com/CryZe/lasr-compiler/application/scheduler"
	"github.com/CryZe/lasr-compiler/application/settings"
	"github.com/CryZe/lasr-compiler/domain/entities"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/CryZe/lasr-compiler/domain/ports"
	"github.com/CryZe/lasr-compiler/internal/region"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// ChunkName names the script in Lua error messages.
const ChunkName = "autosplitter"

// ErrNoUpdate is wrapped by the ScriptLoadError of a script without an
// update function.
var ErrNoUpdate = errors.New("script does not define an update function")

// Runtime is a booted script.
type Runtime struct {
	L      *lua.LState
	ctx    *bridge.Context
	sched  *scheduler.Scheduler
	logger *slog.Logger
}

type options struct {
	logger *slog.Logger
	config entities.Config
}

// Option configures New.
type Option func(*options)

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConfig sets the runtime limits. Zero fields keep their defaults.
func WithConfig(cfg entities.Config) Option {
	return func(o *options) {
		o.config = cfg.Merge()
	}
}

// New boots script against host. Syntax errors, a failing top-level chunk
// and a missing update function are reported as ScriptLoadErrors.
func New(host ports.Host, script []byte, opts ...Option) (*Runtime, error) {
	o := &options{logger: slog.Default(), config: entities.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}

	reg := settings.NewRegistry(host,
		settings.WithLogger(o.logger),
		settings.WithMaxTickRate(o.config.MaxTickRate),
	)
	sc := scanner.New(
		scanner.WithChunkSize(o.config.ScanChunkSize),
		scanner.WithBudget(o.config.ScanBudget),
	)
	c := bridge.NewContext(host,
		bridge.WithLogger(o.logger),
		bridge.WithSettings(reg),
		bridge.WithScanner(sc),
	)

	L := newState()
	bridge.Register(L, c)

	chunk, err := parse.Parse(bytes.NewReader(script), ChunkName)
	if err != nil {
		L.Close()
		return nil, &domainerrors.ScriptLoadError{Stage: "parse", Err: err}
	}
	proto, err := lua.Compile(chunk, ChunkName)
	if err != nil {
		L.Close()
		return nil, &domainerrors.ScriptLoadError{Stage: "parse", Err: err}
	}
	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 0, nil); err != nil {
		L.Close()
		return nil, &domainerrors.ScriptLoadError{Stage: "run", Err: err}
	}

	cbs, err := resolve(L)
	if err != nil {
		L.Close()
		return nil, &domainerrors.ScriptLoadError{Stage: "resolve", Err: err}
	}
	// Variables set by the top-level chunk are forwarded right away.
	c.Settings().Variables().Flush(host)

	o.logger.Debug("runtime: script loaded", "bytes", len(script), "callbacks", len(cbs))
	return &Runtime{
		L:      L,
		ctx:    c,
		sched:  scheduler.New(L, c, cbs, scheduler.WithLogger(o.logger)),
		logger: o.logger,
	}, nil
}

// FromRegion boots the script stored in an embedded-script region image.
func FromRegion(host ports.Host, image []byte, opts ...Option) (*Runtime, error) {
	script, err := region.Decode(image)
	if err != nil {
		return nil, &domainerrors.ScriptLoadError{Stage: "region", Err: err}
	}
	if len(script) == 0 {
		return nil, &domainerrors.ScriptLoadError{Stage: "region", Err: errors.New("no script embedded")}
	}
	return New(host, script, opts...)
}

// resolve looks the lifecycle callbacks up by name.
func resolve(L *lua.LState) (scheduler.Callbacks, error) {
	cbs := scheduler.Callbacks{}
	for _, name := range entities.Callbacks {
		switch v := L.GetGlobal(name).(type) {
		case *lua.LFunction:
			cbs[name] = v
		case *lua.LNilType:
		default:
			return nil, fmt.Errorf("%s must be a function, got %s", name, v.Type())
		}
	}
	if cbs[entities.CallbackUpdate] == nil {
		return nil, ErrNoUpdate
	}
	return cbs, nil
}

// Startup runs the startup callback.
func (r *Runtime) Startup(ctx context.Context) error {
	return r.sched.Startup(ctx)
}

// Tick runs one full tick.
func (r *Runtime) Tick(ctx context.Context) error {
	return r.sched.Tick(ctx)
}

// Invoke runs one lifecycle callback and returns its answer.
func (r *Runtime) Invoke(ctx context.Context, name string) (entities.Value, error) {
	return r.sched.Invoke(ctx, name)
}

// State returns the scheduler state.
func (r *Runtime) State() scheduler.State {
	return r.sched.State()
}

// Context returns the bridge context.
func (r *Runtime) Context() *bridge.Context {
	return r.ctx
}

// Close detaches and releases the interpreter.
func (r *Runtime) Close() {
	r.ctx.Detach()
	r.L.Close()
}
