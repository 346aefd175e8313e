package wazero

import (
	"context"
	"log/slog"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
	"github.com/CryZe/lasr-compiler/internal/abi"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// DefaultMaxStringSize bounds strings read from guest memory.
const DefaultMaxStringSize = 1 << 20

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	Logger *slog.Logger

	// ModuleName is the host module name (default: "env").
	ModuleName string

	// MaxStringSize limits strings read from guest memory. Larger strings
	// are treated as unreadable.
	MaxStringSize uint32
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "env").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxStringSize sets the maximum string size read from guest memory.
func WithMaxStringSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxStringSize = size
	}
}

// WithLogger sets the logger for rejected guest calls.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = l
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:    "env",
		MaxStringSize: DefaultMaxStringSize,
		Logger:        slog.Default(),
	}
}

// Imports lists the functions RegisterWithRuntime exports.
var Imports = []string{
	"process_attach",
	"process_detach",
	"process_is_open",
	"process_read",
	"process_get_module_address",
	"process_get_module_size",
	"process_get_memory_range_count",
	"process_get_memory_range_address",
	"process_get_memory_range_size",
	"process_get_memory_range_flags",
	"runtime_set_tick_rate",
	"runtime_print_message",
	"timer_get_state",
	"timer_start",
	"timer_split",
	"timer_reset",
	"timer_set_variable",
	"timer_set_game_time",
	"timer_pause_game_time",
	"timer_resume_game_time",
	"user_settings_add_bool",
}

type adapter struct {
	host ports.Host
	cfg  AdapterConfig
}

// RegisterWithRuntime instantiates the env host module backed by host.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, host ports.Host, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	a := &adapter{host: host, cfg: cfg}

	fns := map[string]any{
		"process_attach":                   a.processAttach,
		"process_detach":                   a.processDetach,
		"process_is_open":                  a.processIsOpen,
		"process_read":                     a.processRead,
		"process_get_module_address":       a.moduleAddress,
		"process_get_module_size":          a.moduleSize,
		"process_get_memory_range_count":   a.rangeCount,
		"process_get_memory_range_address": a.rangeAddress,
		"process_get_memory_range_size":    a.rangeSize,
		"process_get_memory_range_flags":   a.rangeFlags,
		"runtime_set_tick_rate":            a.setTickRate,
		"runtime_print_message":            a.printMessage,
		"timer_get_state":                  a.timerState,
		"timer_start":                      func(context.Context) { host.Start() },
		"timer_split":                      func(context.Context) { host.Split() },
		"timer_reset":                      func(context.Context) { host.Reset() },
		"timer_set_variable":               a.setVariable,
		"timer_set_game_time":              a.setGameTime,
		"timer_pause_game_time":            func(context.Context) { host.PauseGameTime() },
		"timer_resume_game_time":           func(context.Context) { host.ResumeGameTime() },
		"user_settings_add_bool":           a.addBoolSetting,
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range Imports {
		builder.NewFunctionBuilder().WithFunc(fns[name]).Export(name)
	}
	_, err := builder.Instantiate(ctx)
	return err
}

// readString copies a guest string. Oversized or out of bounds strings
// report false.
func (a *adapter) readString(ctx context.Context, m api.Module, fn string, ptr, n uint32) (string, bool) {
	if n > a.cfg.MaxStringSize {
		a.cfg.Logger.WarnContext(ctx, "wazero: guest string too large", "function", fn, "size", n, "max", a.cfg.MaxStringSize)
		return "", false
	}
	b, ok := m.Memory().Read(ptr, n)
	if !ok {
		a.cfg.Logger.WarnContext(ctx, "wazero: guest string out of bounds", "function", fn, "ptr", ptr, "size", n)
		return "", false
	}
	return string(b), true
}

func boolCode(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (a *adapter) processAttach(ctx context.Context, m api.Module, ptr, n uint32) uint64 {
	name, ok := a.readString(ctx, m, "process_attach", ptr, n)
	if !ok {
		return 0
	}
	pid, ok := a.host.Attach(name)
	if !ok {
		return 0
	}
	return uint64(pid)
}

func (a *adapter) processDetach(_ context.Context, pid uint64) {
	a.host.Detach(entities.ProcessID(pid))
}

func (a *adapter) processIsOpen(_ context.Context, pid uint64) uint32 {
	return boolCode(a.host.IsOpen(entities.ProcessID(pid)))
}

func (a *adapter) processRead(ctx context.Context, m api.Module, pid, addr uint64, ptr, n uint32) uint32 {
	if size := m.Memory().Size(); ptr > size || n > size-ptr {
		a.cfg.Logger.WarnContext(ctx, "wazero: read buffer out of bounds", "ptr", ptr, "size", n)
		return 0
	}
	buf := make([]byte, n)
	if !a.host.Read(entities.ProcessID(pid), entities.Address(addr), buf) {
		return 0
	}
	if !m.Memory().Write(ptr, buf) {
		return 0
	}
	return 1
}

func (a *adapter) moduleAddress(ctx context.Context, m api.Module, pid uint64, ptr, n uint32) uint64 {
	name, ok := a.readString(ctx, m, "process_get_module_address", ptr, n)
	if !ok {
		return 0
	}
	addr, ok := a.host.ModuleAddress(entities.ProcessID(pid), name)
	if !ok {
		return 0
	}
	return uint64(addr)
}

func (a *adapter) moduleSize(ctx context.Context, m api.Module, pid uint64, ptr, n uint32) uint64 {
	name, ok := a.readString(ctx, m, "process_get_module_size", ptr, n)
	if !ok {
		return 0
	}
	size, _ := a.host.ModuleSize(entities.ProcessID(pid), name)
	return size
}

func (a *adapter) rangeCount(_ context.Context, pid uint64) uint64 {
	n, _ := a.host.MemoryRangeCount(entities.ProcessID(pid))
	return n
}

func (a *adapter) memoryRange(pid, idx uint64) entities.MemoryMap {
	r, _ := a.host.MemoryRange(entities.ProcessID(pid), idx)
	return r
}

func (a *adapter) rangeAddress(_ context.Context, pid, idx uint64) uint64 {
	return uint64(a.memoryRange(pid, idx).Base)
}

func (a *adapter) rangeSize(_ context.Context, pid, idx uint64) uint64 {
	return a.memoryRange(pid, idx).Size
}

func (a *adapter) rangeFlags(_ context.Context, pid, idx uint64) uint64 {
	return a.memoryRange(pid, idx).Flags
}

func (a *adapter) setTickRate(_ context.Context, hz float64) {
	a.host.SetTickRate(hz)
}

func (a *adapter) printMessage(ctx context.Context, m api.Module, ptr, n uint32) {
	if msg, ok := a.readString(ctx, m, "runtime_print_message", ptr, n); ok {
		a.host.PrintMessage(msg)
	}
}

func (a *adapter) timerState(context.Context) uint32 {
	return uint32(a.host.TimerState())
}

func (a *adapter) setVariable(ctx context.Context, m api.Module, kp, kn, vp, vn uint32) {
	key, ok := a.readString(ctx, m, "timer_set_variable", kp, kn)
	if !ok {
		return
	}
	value, ok := a.readString(ctx, m, "timer_set_variable", vp, vn)
	if !ok {
		return
	}
	a.host.SetVariable(key, value)
}

func (a *adapter) setGameTime(_ context.Context, secs int64, nanos int32) {
	a.host.SetGameTime(abi.JoinDuration(secs, nanos))
}

func (a *adapter) addBoolSetting(ctx context.Context, m api.Module, kp, kn, dp, dn, def uint32) uint32 {
	key, ok := a.readString(ctx, m, "user_settings_add_bool", kp, kn)
	if !ok {
		return def
	}
	desc, _ := a.readString(ctx, m, "user_settings_add_bool", dp, dn)
	return boolCode(a.host.AddBoolSetting(key, desc, def != 0))
}
