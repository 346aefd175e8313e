package wazero

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/internal/testutil"
	"github.com/CryZe/lasr-compiler/internal/wasmbin"
	"github.com/CryZe/lasr-compiler/testing/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	i32 = wasmbin.ValueTypeI32
	i64 = wasmbin.ValueTypeI64
	f64 = wasmbin.ValueTypeF64
)

// guest imports a few env functions and wraps each in an export taking its
// arguments as parameters. "game.exe" is stored at 16; reads land at 64.
func guest() []byte {
	imp := func(name string, params, results []byte) testutil.FuncImport {
		return testutil.FuncImport{Module: "env", Name: name, Params: params, Results: results}
	}
	forward := func(export string, fn uint32, params, results []byte) testutil.Func {
		var body []byte
		for i := range params {
			body = append(body, testutil.LocalGet(uint32(i))...)
		}
		return testutil.Func{Export: export, Params: params, Results: results, Body: testutil.Ops(body, testutil.Call(fn))}
	}
	return testutil.BuildModule(testutil.ModuleSpec{
		Imports: []testutil.FuncImport{
			imp("process_attach", []byte{i32, i32}, []byte{i64}),
			imp("process_read", []byte{i64, i64, i32, i32}, []byte{i32}),
			imp("timer_get_state", nil, []byte{i32}),
			imp("timer_set_variable", []byte{i32, i32, i32, i32}, nil),
			imp("timer_set_game_time", []byte{i64, i32}, nil),
			imp("user_settings_add_bool", []byte{i32, i32, i32, i32, i32}, []byte{i32}),
			imp("process_get_memory_range_size", []byte{i64, i64}, []byte{i64}),
			imp("process_get_module_address", []byte{i64, i32, i32}, []byte{i64}),
			imp("runtime_set_tick_rate", []byte{f64}, nil),
			imp("process_is_open", []byte{i64}, []byte{i32}),
		},
		Funcs: []testutil.Func{
			forward("attach", 0, []byte{i32, i32}, []byte{i64}),
			forward("read", 1, []byte{i64, i64, i32, i32}, []byte{i32}),
			forward("state", 2, nil, []byte{i32}),
			forward("set_var", 3, []byte{i32, i32, i32, i32}, nil),
			forward("game_time", 4, []byte{i64, i32}, nil),
			forward("setting", 5, []byte{i32, i32, i32, i32, i32}, []byte{i32}),
			forward("range_size", 6, []byte{i64, i64}, []byte{i64}),
			forward("module_address", 7, []byte{i64, i32, i32}, []byte{i64}),
			forward("tick_rate", 8, []byte{f64}, nil),
			forward("is_open", 9, []byte{i64}, []byte{i32}),
		},
		MemoryPages: 1,
		Data:        []testutil.Segment{{Offset: 16, Data: []byte("game.exe")}},
	})
}

func instantiate(t *testing.T, host *hosttest.FakeHost, opts ...AdapterOption) api.Module {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	require.NoError(t, RegisterWithRuntime(ctx, r, host, opts...))
	mod, err := r.Instantiate(ctx, guest())
	require.NoError(t, err)
	return mod
}

func call(t *testing.T, mod api.Module, name string, args ...uint64) []uint64 {
	t.Helper()
	res, err := mod.ExportedFunction(name).Call(context.Background(), args...)
	require.NoError(t, err, name)
	return res
}

func newHost() *hosttest.FakeHost {
	host := hosttest.New()
	host.AddProcess(&hosttest.Process{
		Name:    "game.exe",
		Modules: []entities.Module{{Name: "game.exe", Base: 0x1000, Size: 0x10}},
		Regions: []hosttest.Region{{Base: 0x1000, Data: []byte{0xde, 0xad, 0xbe, 0xef}}},
	})
	return host
}

func TestProcessImports(t *testing.T) {
	host := newHost()
	mod := instantiate(t, host)

	pid := call(t, mod, "attach", 16, 8)[0]
	assert.Equal(t, uint64(1), pid)
	assert.Equal(t, []uint64{1}, call(t, mod, "is_open", pid))
	assert.Equal(t, []uint64{0x1000}, call(t, mod, "module_address", pid, 16, 8))
	assert.Equal(t, []uint64{0}, call(t, mod, "module_address", pid, 16, 4))
	assert.Equal(t, []uint64{4}, call(t, mod, "range_size", pid, 0))

	assert.Equal(t, []uint64{1}, call(t, mod, "read", pid, 0x1000, 64, 4))
	got, ok := mod.Memory().Read(64, 4)
	require.True(t, ok)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got)

	assert.Equal(t, []uint64{0}, call(t, mod, "read", pid, 0x2000, 64, 4), "unmapped")
	assert.Equal(t, []uint64{0}, call(t, mod, "read", pid, 0x1000, 70000, 4), "guest buffer out of bounds")
	assert.Equal(t, []uint64{0}, call(t, mod, "attach", 24, 4), "unknown name")
}

type countingHost struct {
	*hosttest.FakeHost
	reads int
}

func (h *countingHost) Read(pid entities.ProcessID, addr entities.Address, buf []byte) bool {
	h.reads++
	return h.FakeHost.Read(pid, addr, buf)
}

func TestProcessReadChecksGuestBufferFirst(t *testing.T) {
	ctx := context.Background()
	host := &countingHost{FakeHost: newHost()}
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	require.NoError(t, RegisterWithRuntime(ctx, r, host))
	mod, err := r.Instantiate(ctx, guest())
	require.NoError(t, err)

	pid := call(t, mod, "attach", 16, 8)[0]
	assert.Equal(t, []uint64{0}, call(t, mod, "read", pid, 0x1000, 0xfff0, 0xffffffff))
	assert.Equal(t, []uint64{0}, call(t, mod, "read", pid, 0x1000, 0x20000, 1))
	assert.Zero(t, host.reads, "no host read for a buffer outside guest memory")

	assert.Equal(t, []uint64{1}, call(t, mod, "read", pid, 0x1000, 0xfffc, 4))
	assert.Equal(t, 1, host.reads)
}

func TestTimerImports(t *testing.T) {
	host := newHost()
	host.State = entities.TimerPaused
	host.BoolSettings["game"] = false
	mod := instantiate(t, host)

	assert.Equal(t, []uint64{2}, call(t, mod, "state"))

	call(t, mod, "set_var", 16, 4, 20, 4)
	hosttest.AssertVariable(t, host, "game", ".exe")

	call(t, mod, "game_time", 1, 500_000_000)
	assert.Equal(t, 1500*time.Millisecond, host.GameTime)

	assert.Equal(t, []uint64{0}, call(t, mod, "setting", 16, 4, 0, 0, 1))
	assert.Equal(t, []string{"game"}, host.Declared)

	call(t, mod, "tick_rate", api.EncodeF64(30))
	assert.Equal(t, 30.0, host.TickRate)
}

func TestMaxStringSize(t *testing.T) {
	host := newHost()
	mod := instantiate(t, host, WithMaxStringSize(4))

	assert.Equal(t, []uint64{0}, call(t, mod, "attach", 16, 8))
	assert.Zero(t, host.AttachCalls)
}

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, "env", cfg.ModuleName)
	assert.Equal(t, uint32(DefaultMaxStringSize), cfg.MaxStringSize)

	WithModuleName("custom")(&cfg)
	assert.Equal(t, "custom", cfg.ModuleName)
}

func TestImportsCoverAdapter(t *testing.T) {
	assert.Len(t, Imports, 21)
	seen := map[string]bool{}
	for _, name := range Imports {
		assert.False(t, seen[name], fmt.Sprintf("duplicate import %s", name))
		seen[name] = true
	}
}
