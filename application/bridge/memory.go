package bridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/CryZe/lasr-compiler/domain/entities"
	lua "github.com/yuin/gopher-lua"
)

const (
	msgNilAddress     = "[readAddress] The address argument cannot be nil. Check your auto splitter code."
	msgReadFailed     = "[readAddress] Failed to read process memory"
	msgBadStringSize  = "[readAddress] Invalid string size, please read documentation"
	msgBadByteSize    = "[readAddress] Invalid byte array size, please read documentation"
	msgBadValueFormat = "[readAddress] Invalid value type: %s"
)

var (
	errBadStringSize = errors.New("invalid string size")
	errBadByteSize   = errors.New("invalid byte array size")
	errBadValueType  = errors.New("invalid value type")
)

func errModuleNotFound(name string) error {
	return fmt.Errorf("module %q not found", name)
}

// valueType decodes one readAddress type from process memory.
type valueType struct {
	decode func(L *lua.LState, b []byte) (lua.LValue, bool)
	size   int
}

func number(v float64) (lua.LValue, bool) { return lua.LNumber(v), true }

var le = binary.LittleEndian

var fixedTypes = map[string]valueType{
	"sbyte":  {size: 1, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(int8(b[0]))) }},
	"byte":   {size: 1, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(b[0])) }},
	"short":  {size: 2, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(int16(le.Uint16(b)))) }},
	"ushort": {size: 2, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(le.Uint16(b))) }},
	"int":    {size: 4, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(int32(le.Uint32(b)))) }},
	"uint":   {size: 4, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(le.Uint32(b))) }},
	"long":   {size: 8, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(int64(le.Uint64(b)))) }},
	"ulong":  {size: 8, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return number(float64(le.Uint64(b))) }},
	"float": {size: 4, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) {
		return number(float64(math.Float32frombits(le.Uint32(b))))
	}},
	"double": {size: 8, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) {
		return number(math.Float64frombits(le.Uint64(b)))
	}},
	"bool": {size: 1, decode: func(_ *lua.LState, b []byte) (lua.LValue, bool) { return lua.LBool(b[0] != 0), true }},
}

// parseValueType resolves a type name: a fixed type, stringN (N >= 2, read
// up to the first NUL) or byteN (N >= 1, returned as a 1-based table).
func parseValueType(name string) (valueType, error) {
	if vt, ok := fixedTypes[name]; ok {
		return vt, nil
	}
	if rem, ok := strings.CutPrefix(name, "string"); ok {
		n, err := strconv.Atoi(rem)
		if err != nil || n < 2 {
			return valueType{}, errBadStringSize
		}
		return valueType{size: n, decode: decodeString}, nil
	}
	if rem, ok := strings.CutPrefix(name, "byte"); ok {
		n, err := strconv.Atoi(rem)
		if err != nil || n < 1 {
			return valueType{}, errBadByteSize
		}
		return valueType{size: n, decode: decodeBytes}, nil
	}
	return valueType{}, errBadValueType
}

func decodeString(_ *lua.LState, b []byte) (lua.LValue, bool) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if !utf8.Valid(b) {
		return lua.LNil, false
	}
	return lua.LString(b), true
}

func decodeBytes(L *lua.LState, b []byte) (lua.LValue, bool) {
	tbl := L.CreateTable(len(b), 0)
	for i, v := range b {
		tbl.RawSetInt(i+1, lua.LNumber(v))
	}
	return tbl, true
}

// sizeOfType is the looser rule of sizeOf: any stringN, byteN with N given.
func sizeOfType(name string) (int, bool) {
	if vt, ok := fixedTypes[name]; ok {
		return vt.size, true
	}
	if rem, ok := strings.CutPrefix(name, "string"); ok {
		if n, err := strconv.Atoi(rem); err == nil && n >= 0 {
			return n, true
		}
	}
	if rem, ok := strings.CutPrefix(name, "byte"); ok && rem != "" {
		if n, err := strconv.Atoi(rem); err == nil && n >= 0 {
			return n, true
		}
	}
	return 0, false
}

// sizeOf(type) returns the byte size of a readAddress type.
func (c *Context) sizeOf(L *lua.LState) int {
	name, ok := L.Get(1).(lua.LString)
	if !ok {
		return c.reject(L, "sizeOf", 1, typeError("type name", L.Get(1)))
	}
	n, ok := sizeOfType(string(name))
	if !ok {
		return c.reject(L, "sizeOf", 1, fmt.Errorf("unsupported type %q", string(name)))
	}
	L.Push(lua.LNumber(n))
	return 1
}

// readAddress(type, module, offset, ...path) or readAddress(type, offset, ...path).
//
// A string second argument names a module and the third is the offset into
// it; a number is an offset from the main module. Every further argument
// dereferences the current address as a pointer (32-bit while the address
// fits in 32 bits, 64-bit above) and adds itself to the result.
func (c *Context) readAddress(L *lua.LState) int {
	const fn = "readAddress"
	a, err := c.args(L)
	if err != nil {
		return c.reject(L, fn, 1, err)
	}
	typeName, ok := a.get(1).(lua.LString)
	if !ok {
		return c.reject(L, fn, 1, typeError("type name", a.get(1)))
	}
	if !c.Attached() {
		return c.reject(L, fn, 0, errNotAttached)
	}

	var addr entities.Address
	next := 3
	switch target := a.get(2).(type) {
	case *lua.LNilType:
		c.Print(msgNilAddress)
		L.Push(lua.LNil)
		return 1
	case lua.LString:
		base, _ := c.host.ModuleAddress(c.pid, string(target))
		off, ok := optInt(a.get(3))
		if !ok {
			return c.reject(L, fn, 3, typeError("offset", a.get(3)))
		}
		addr = base + entities.Address(off)
		next = 4
	default:
		off, ok := toInt(target)
		if !ok {
			return c.reject(L, fn, 2, typeError("module name or offset", target))
		}
		addr = c.base + entities.Address(off)
	}

	buf := make([]byte, 8)
	for i := next; i <= a.top(); i++ {
		width := 8
		if addr <= math.MaxUint32 {
			width = 4
		}
		if !c.host.Read(c.pid, addr, buf[:width]) {
			c.Print(msgReadFailed)
			L.Push(lua.LNil)
			return 1
		}
		if width == 4 {
			addr = entities.Address(le.Uint32(buf))
		} else {
			addr = entities.Address(le.Uint64(buf))
		}
		off, ok := toInt(a.get(i))
		if !ok {
			return c.reject(L, fn, i+a.off, typeError("offset", a.get(i)))
		}
		addr += entities.Address(off)
	}

	vt, err := parseValueType(string(typeName))
	if err != nil {
		switch {
		case errors.Is(err, errBadStringSize):
			c.Print(msgBadStringSize)
		case errors.Is(err, errBadByteSize):
			c.Print(msgBadByteSize)
		default:
			c.Print(fmt.Sprintf(msgBadValueFormat, string(typeName)))
		}
		L.Push(lua.LNil)
		return 1
	}

	raw := make([]byte, vt.size)
	if !c.host.Read(c.pid, addr, raw) {
		c.Print(msgReadFailed)
		L.Push(lua.LNil)
		return 1
	}
	v, ok := vt.decode(L, raw)
	if !ok {
		c.Print(msgReadFailed)
	}
	L.Push(v)
	return 1
}

// optInt is toInt with nil reading as zero.
func optInt(lv lua.LValue) (int64, bool) {
	if lv == lua.LNil {
		return 0, true
	}
	return toInt(lv)
}
