package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	lasr "github.com/CryZe/lasr-compiler"
	"github.com/CryZe/lasr-compiler/domain/entities"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/CryZe/lasr-compiler/domain/ports"
	"github.com/CryZe/lasr-compiler/infrastructure/wazero"
	"github.com/CryZe/lasr-compiler/internal/abi"
	wz "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Executor manages the lifecycle of auto splitter artifacts.
type Executor struct {
	runtime       wz.Runtime
	runtimeConfig wz.RuntimeConfig
	logger        *slog.Logger
	stderr        io.Writer
	maxString     uint32
}

// NewExecutor creates a wazero runtime whose env module is backed by host.
func NewExecutor(ctx context.Context, host ports.Host, opts ...Option) (*Executor, error) {
	e := &Executor{
		runtimeConfig: wz.NewRuntimeConfig(),
		logger:        slog.Default(),
		stderr:        io.Discard,
		maxString:     wazero.DefaultMaxStringSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	rt := wz.NewRuntimeWithConfig(ctx, e.runtimeConfig)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	err := wazero.RegisterWithRuntime(ctx, rt, host,
		wazero.WithLogger(e.logger),
		wazero.WithMaxStringSize(e.maxString),
	)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	return e, nil
}

// Close releases the runtime and every instance loaded from it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Instance is an instantiated artifact.
type Instance struct {
	module api.Module
}

// LoadArtifact instantiates an assembled artifact and runs its reactor
// initializer.
func (e *Executor) LoadArtifact(ctx context.Context, wasm []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile artifact: %w", err)
	}
	cfg := wz.NewModuleConfig().WithStderr(e.stderr)
	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate artifact: %w", err)
	}

	if init := mod.ExportedFunction(lasr.ExportInitialize); init != nil {
		if _, err := init.Call(ctx); err != nil {
			mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}
	return &Instance{module: mod}, nil
}

// Memory exposes the guest's linear memory.
func (i *Instance) Memory() api.Memory {
	return i.module.Memory()
}

// Has reports whether the artifact exports name.
func (i *Instance) Has(name string) bool {
	return i.module.ExportedFunction(name) != nil
}

// Startup calls the startup export. A broken status maps to ErrBroken.
func (i *Instance) Startup(ctx context.Context) error {
	return i.status(ctx, lasr.ExportStartup)
}

// Tick calls the tick export. A broken status maps to ErrBroken.
func (i *Instance) Tick(ctx context.Context) error {
	return i.status(ctx, lasr.ExportTick)
}

// State calls the state export.
func (i *Instance) State(ctx context.Context) error {
	_, err := i.call(ctx, lasr.ExportState)
	return err
}

// Answer calls one of the boolean exports (update, start, split, isLoading,
// reset) and decodes its result.
func (i *Instance) Answer(ctx context.Context, name string) (entities.Value, error) {
	res, err := i.call(ctx, name)
	if err != nil {
		return entities.Absent(), err
	}
	if len(res) != 1 {
		return entities.Absent(), fmt.Errorf("export %q returned %d values", name, len(res))
	}
	return abi.DecodeAnswer(int32(res[0])), nil
}

// GameTime calls the gameTime export. The value is in milliseconds.
func (i *Instance) GameTime(ctx context.Context) (entities.Value, error) {
	res, err := i.call(ctx, lasr.ExportGameTime)
	if err != nil {
		return entities.Absent(), err
	}
	if len(res) != 1 {
		return entities.Absent(), fmt.Errorf("export %q returned %d values", lasr.ExportGameTime, len(res))
	}
	return abi.DecodeGameTime(api.DecodeF64(res[0])), nil
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.module.Close(ctx)
}

func (i *Instance) status(ctx context.Context, name string) error {
	res, err := i.call(ctx, name)
	if err != nil {
		return err
	}
	if len(res) != 1 {
		return fmt.Errorf("export %q returned %d values", name, len(res))
	}
	if int32(res[0]) != abi.StatusOK {
		return domainerrors.ErrBroken
	}
	return nil
}

func (i *Instance) call(ctx context.Context, name string) ([]uint64, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("artifact does not export %q", name)
	}
	res, err := fn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	return res, nil
}
