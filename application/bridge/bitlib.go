package bridge

import (
	"fmt"
	"math"
	"math/bits"

	lua "github.com/yuin/gopher-lua"
)

// newBitLib builds the LuaJIT-compatible "bit" module: 32-bit operations on
// numbers, results as signed 32-bit values.
func newBitLib(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"tobit":   bitToBit,
		"band":    bitFold(func(a, b uint32) uint32 { return a & b }, math.MaxUint32),
		"bor":     bitFold(func(a, b uint32) uint32 { return a | b }, 0),
		"bxor":    bitFold(func(a, b uint32) uint32 { return a ^ b }, 0),
		"bnot":    bitNot,
		"lshift":  bitShift(func(x uint32, n uint) uint32 { return x << n }),
		"rshift":  bitShift(func(x uint32, n uint) uint32 { return x >> n }),
		"arshift": bitShift(func(x uint32, n uint) uint32 { return uint32(int32(x) >> n) }),
		"rol":     bitShift(func(x uint32, n uint) uint32 { return bits.RotateLeft32(x, int(n)) }),
		"ror":     bitShift(func(x uint32, n uint) uint32 { return bits.RotateLeft32(x, -int(n)) }),
		"tohex":   bitToHex,
		"bswap":   bitSwap,
	})
}

// toBit reduces argument n modulo 2^32.
func toBit(L *lua.LState, n int) uint32 {
	f := math.Trunc(float64(L.CheckNumber(n)))
	f = math.Mod(f, 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

func pushBit(L *lua.LState, v uint32) int {
	L.Push(lua.LNumber(int32(v)))
	return 1
}

func bitToBit(L *lua.LState) int {
	return pushBit(L, toBit(L, 1))
}

func bitFold(op func(a, b uint32) uint32, init uint32) lua.LGFunction {
	return func(L *lua.LState) int {
		v := init
		for i := 1; i <= L.GetTop(); i++ {
			v = op(v, toBit(L, i))
		}
		return pushBit(L, v)
	}
}

func bitNot(L *lua.LState) int {
	return pushBit(L, ^toBit(L, 1))
}

func bitShift(op func(x uint32, n uint) uint32) lua.LGFunction {
	return func(L *lua.LState) int {
		x := toBit(L, 1)
		n := uint(toBit(L, 2) & 31)
		return pushBit(L, op(x, n))
	}
}

// bitToHex(x [, n]) prints the low n nibbles of x; a negative n selects
// upper case.
func bitToHex(L *lua.LState) int {
	x := toBit(L, 1)
	digits := L.OptInt(2, 8)
	format := "%08x"
	if digits < 0 {
		format = "%08X"
		digits = -digits
	}
	digits = min(max(digits, 1), 8)
	full := fmt.Sprintf(format, x)
	L.Push(lua.LString(full[8-digits:]))
	return 1
}

func bitSwap(L *lua.LState) int {
	return pushBit(L, bits.ReverseBytes32(toBit(L, 1)))
}
