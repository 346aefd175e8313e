package bridge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/CryZe/lasr-compiler/domain/entities"
	lua "github.com/yuin/gopher-lua"
)

// Globals lists the functions Register installs, besides the bit library.
var Globals = []string{
	"process",
	"detach",
	"readAddress",
	"getPID",
	"sig_scan",
	"getBaseAddress",
	"getModuleSize",
	"sizeOf",
	"getMaps",
	"print",
	"print_tbl",
	"shallow_copy_tbl",
	"setVariable",
	"addSetting",
}

const handleTypeName = "lasr.process"

var (
	errNotAttached = errors.New("no process attached")
	errStaleHandle = errors.New("process handle is no longer attached")
)

// Register installs the script API into L. It must run before the script's
// top-level chunk.
func Register(L *lua.LState, c *Context) {
	mt := L.NewTypeMetatable(handleTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(handleToString))

	fns := map[string]lua.LGFunction{
		"process":          c.process,
		"detach":           c.detach,
		"readAddress":      c.readAddress,
		"getPID":           c.getPID,
		"sig_scan":         c.sigScan,
		"getBaseAddress":   c.getBaseAddress,
		"getModuleSize":    c.getModuleSize,
		"sizeOf":           c.sizeOf,
		"getMaps":          c.getMaps,
		"print":            c.print,
		"print_tbl":        c.printTable,
		"shallow_copy_tbl": c.shallowCopyTable,
		"setVariable":      c.setVariable,
		"addSetting":       c.addSetting,
	}
	for _, name := range Globals {
		L.SetGlobal(name, L.NewFunction(fns[name]))
	}
	L.SetGlobal("bit", newBitLib(L))
}

// ToValue converts a script value to the boundary union. Tables, functions
// and coroutines have no boundary form and report false.
func ToValue(lv lua.LValue) (entities.Value, bool) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return entities.Absent(), true
	case lua.LBool:
		return entities.Bool(bool(v)), true
	case lua.LNumber:
		return entities.Number(float64(v)), true
	case lua.LString:
		return entities.String(string(v)), true
	case *lua.LUserData:
		if pid, ok := v.Value.(entities.ProcessID); ok {
			return entities.Handle(pid), true
		}
	}
	return entities.Absent(), false
}

// FromValue converts a boundary value to a script value.
func FromValue(L *lua.LState, v entities.Value) lua.LValue {
	switch v.Kind() {
	case entities.KindBool:
		b, _ := v.AsBool()
		return lua.LBool(b)
	case entities.KindNumber:
		n, _ := v.AsNumber()
		return lua.LNumber(n)
	case entities.KindString:
		s, _ := v.AsString()
		return lua.LString(s)
	case entities.KindHandle:
		pid, _ := v.AsHandle()
		return newHandle(L, pid)
	default:
		return lua.LNil
	}
}

func newHandle(L *lua.LState, pid entities.ProcessID) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = pid
	L.SetMetatable(ud, L.GetTypeMetatable(handleTypeName))
	return ud
}

func handleOf(lv lua.LValue) (entities.ProcessID, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return 0, false
	}
	pid, ok := ud.Value.(entities.ProcessID)
	return pid, ok
}

func handleToString(L *lua.LState) int {
	pid, _ := handleOf(L.Get(1))
	L.Push(lua.LString(fmt.Sprintf("process: %d", uint64(pid))))
	return 1
}

// args views the call arguments past an optional leading process handle.
type args struct {
	L   *lua.LState
	off int
}

func (a args) get(i int) lua.LValue { return a.L.Get(i + a.off) }
func (a args) top() int             { return a.L.GetTop() - a.off }

// args strips a leading handle argument. It fails when the handle is not
// the attached process.
func (c *Context) args(L *lua.LState) (args, error) {
	if pid, ok := handleOf(L.Get(1)); ok {
		if pid != c.pid || !c.pid.Valid() {
			return args{}, errStaleHandle
		}
		return args{L: L, off: 1}, nil
	}
	return args{L: L}, nil
}

// reject logs a HostBridgeError and returns nil to the script.
func (c *Context) reject(L *lua.LState, fn string, arg int, err error) int {
	c.logger.Warn("bridge: call rejected", "error", &domainerrors.HostBridgeError{Function: fn, Arg: arg, Err: err})
	L.Push(lua.LNil)
	return 1
}

// toInt accepts numbers and numeric strings.
func toInt(lv lua.LValue) (int64, bool) {
	switch v := lv.(type) {
	case lua.LNumber:
		return floatToInt(float64(v)), true
	case lua.LString:
		s := strings.TrimSpace(string(v))
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f), true
		}
	}
	return 0, false
}

func floatToInt(f float64) int64 {
	if f >= math.MaxInt64 {
		return int64(uint64(f))
	}
	return int64(f)
}

// pushAddress pushes an address as a number, keeping negative offsets
// negative.
func pushAddress(L *lua.LState, addr entities.Address) {
	L.Push(lua.LNumber(float64(int64(addr))))
}

func typeError(want string, got lua.LValue) error {
	return fmt.Errorf("%s expected, got %s", want, got.Type())
}
