package bridge

import (
	"errors"

	"github.com/CryZe/lasr-compiler/application/scanner"
	"github.com/CryZe/lasr-compiler/domain/entities"
	lua "github.com/yuin/gopher-lua"
)

// sig_scan(pattern, offset [, start, size [, absolute]]) searches the
// attached process for pattern and returns the match plus offset, relative
// to the main module base unless absolute is true. Without start and size
// every mapped range is searched; start is an absolute address.
func (c *Context) sigScan(L *lua.LState) int {
	const fn = "sig_scan"
	a, err := c.args(L)
	if err != nil {
		return c.reject(L, fn, 1, err)
	}
	src, ok := a.get(1).(lua.LString)
	if !ok {
		return c.reject(L, fn, 1, typeError("signature", a.get(1)))
	}
	pattern, err := scanner.ParsePattern(string(src))
	if err != nil {
		return c.reject(L, fn, 1, err)
	}
	offset, ok := optInt(a.get(2))
	if !ok {
		return c.reject(L, fn, 2, typeError("offset", a.get(2)))
	}
	if !c.Attached() {
		return c.reject(L, fn, 0, errNotAttached)
	}

	var regions []entities.MemoryMap
	if a.get(3) != lua.LNil || a.get(4) != lua.LNil {
		start, ok := toInt(a.get(3))
		if !ok {
			return c.reject(L, fn, 3, typeError("start address", a.get(3)))
		}
		size, ok := toInt(a.get(4))
		if !ok || size <= 0 {
			return c.reject(L, fn, 4, errors.New("size must be a positive number"))
		}
		regions = []entities.MemoryMap{{Base: entities.Address(start), Size: uint64(size)}}
	} else {
		regions = c.memoryMaps()
	}
	absolute := lua.LVAsBool(a.get(5))

	found, ok := c.scanner.Scan(c.reader(), pattern, regions)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	addr := found + entities.Address(offset)
	if !absolute {
		addr -= c.base
	}
	pushAddress(L, addr)
	return 1
}
