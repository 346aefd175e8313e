// Package guest adapts a runtime to the functions the auto splitter module
// exports. The script is booted lazily from the embedded region on the
// first call; panics are recovered and break the runtime.
package guest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/CryZe/lasr-compiler/application/runtime"
	"github.com/CryZe/lasr-compiler/application/scheduler"
	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
	"github.com/CryZe/lasr-compiler/internal/abi"
)

// Exports serves the module exports. It is not safe for concurrent use.
type Exports struct {
	host   ports.Host
	image  []byte
	logger *slog.Logger
	opts   []runtime.Option

	rt     *runtime.Runtime
	booted bool
	broken bool
}

// New returns exports that boot the script stored in the region image.
func New(host ports.Host, image []byte, logger *slog.Logger, opts ...runtime.Option) *Exports {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exports{
		host:   host,
		image:  image,
		logger: logger,
		opts:   append([]runtime.Option{runtime.WithLogger(logger)}, opts...),
	}
}

// Broken reports whether the runtime failed to boot, failed startup or
// panicked.
func (e *Exports) Broken() bool {
	if e.broken {
		return true
	}
	return e.rt != nil && e.rt.State() == scheduler.Broken
}

func (e *Exports) boot() *runtime.Runtime {
	if e.booted {
		return e.rt
	}
	e.booted = true
	rt, err := runtime.FromRegion(e.host, e.image, e.opts...)
	if err != nil {
		e.logger.Error("guest: script failed to load", "error", err)
		e.broken = true
		return nil
	}
	e.rt = rt
	return rt
}

// guard runs f with the booted runtime. A panic marks the exports broken.
func (e *Exports) guard(export string, f func(ctx context.Context, rt *runtime.Runtime)) {
	defer func() {
		if r := recover(); r != nil {
			e.broken = true
			e.logger.Error("guest: panic recovered",
				"export", export,
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	if e.broken {
		return
	}
	rt := e.boot()
	if rt == nil {
		return
	}
	f(context.Background(), rt)
}

func (e *Exports) status() int32 {
	if e.Broken() {
		return abi.StatusBroken
	}
	return abi.StatusOK
}

// Startup runs the startup callback.
func (e *Exports) Startup() int32 {
	e.guard(entities.CallbackStartup, func(ctx context.Context, rt *runtime.Runtime) {
		if err := rt.Startup(ctx); err != nil {
			e.logger.Error("guest: startup failed", "error", err)
		}
	})
	return e.status()
}

// Tick runs a full tick: attach handling, callbacks and timer actions.
func (e *Exports) Tick() int32 {
	e.guard("tick", func(ctx context.Context, rt *runtime.Runtime) {
		if err := rt.Tick(ctx); err != nil {
			e.logger.Debug("guest: tick reported errors", "error", err)
		}
	})
	return e.status()
}

// State runs the state callback.
func (e *Exports) State() {
	e.invoke(entities.CallbackState)
}

// Answer runs a boolean callback and encodes its result.
func (e *Exports) Answer(name string) int32 {
	return abi.Answer(e.invoke(name))
}

// GameTime runs the gameTime callback. The result is in milliseconds.
func (e *Exports) GameTime() float64 {
	return abi.GameTime(e.invoke(entities.CallbackGameTime))
}

func (e *Exports) invoke(name string) entities.Value {
	v := entities.Absent()
	e.guard(name, func(ctx context.Context, rt *runtime.Runtime) {
		var err error
		v, err = rt.Invoke(ctx, name)
		if err != nil {
			e.logger.Debug("guest: callback reported errors", "callback", name, "error", err)
		}
	})
	return v
}
