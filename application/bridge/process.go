package bridge

import (
	lua "github.com/yuin/gopher-lua"
)

// process(name [, sort]) attaches to name and returns a handle, or nil when
// the process is not running yet. It never blocks; the scheduler retries the
// name every tick while searching.
func (c *Context) process(L *lua.LState) int {
	name, ok := L.Get(1).(lua.LString)
	if !ok || name == "" {
		return c.reject(L, "process", 1, typeError("process name", L.Get(1)))
	}
	if sort, ok := L.Get(2).(lua.LString); ok && sort != "first" && sort != "last" {
		c.Print("[process] Invalid sort argument. Use 'first' or 'last'. Falling back to first")
	}

	pid, ok := c.Attach(string(name))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(newHandle(L, pid))
	return 1
}

// detach() drops the attached process and returns to searching.
func (c *Context) detach(L *lua.LState) int {
	c.Detach()
	return 0
}

// getPID() is always 0: the target host does not expose process ids.
func (c *Context) getPID(L *lua.LState) int {
	L.Push(lua.LNumber(0))
	return 1
}

// getBaseAddress([module]) returns the base of module, or of the main module.
func (c *Context) getBaseAddress(L *lua.LState) int {
	const fn = "getBaseAddress"
	a, err := c.args(L)
	if err != nil {
		return c.reject(L, fn, 1, err)
	}
	if !c.Attached() {
		return c.reject(L, fn, 0, errNotAttached)
	}
	switch m := a.get(1).(type) {
	case *lua.LNilType:
		pushAddress(L, c.base)
	case lua.LString:
		addr, ok := c.host.ModuleAddress(c.pid, string(m))
		if !ok {
			return c.reject(L, fn, 1, errModuleNotFound(string(m)))
		}
		pushAddress(L, addr)
	default:
		return c.reject(L, fn, 1, typeError("module name", m))
	}
	return 1
}

// getModuleSize([module]) returns the size of module, or of the main module.
func (c *Context) getModuleSize(L *lua.LState) int {
	const fn = "getModuleSize"
	a, err := c.args(L)
	if err != nil {
		return c.reject(L, fn, 1, err)
	}
	if !c.Attached() {
		return c.reject(L, fn, 0, errNotAttached)
	}
	module := c.name
	switch m := a.get(1).(type) {
	case *lua.LNilType:
	case lua.LString:
		module = string(m)
	default:
		return c.reject(L, fn, 1, typeError("module name", m))
	}
	size, ok := c.host.ModuleSize(c.pid, module)
	if !ok {
		return c.reject(L, fn, 1, errModuleNotFound(module))
	}
	L.Push(lua.LNumber(float64(size)))
	return 1
}

// getMaps() lists the memory ranges of the attached process as
// { {name, start, end, size, flags}, ... }. Names are always empty.
func (c *Context) getMaps(L *lua.LState) int {
	const fn = "getMaps"
	a, err := c.args(L)
	if err != nil {
		return c.reject(L, fn, 1, err)
	}
	if a.top() != 0 {
		L.Push(lua.LNil)
		return 1
	}
	if !c.Attached() {
		return c.reject(L, fn, 0, errNotAttached)
	}

	tbl := L.NewTable()
	for i, m := range c.memoryMaps() {
		entry := L.NewTable()
		entry.RawSetString("name", lua.LString(m.Name))
		entry.RawSetString("start", lua.LNumber(float64(m.Base)))
		entry.RawSetString("end", lua.LNumber(float64(m.End())))
		entry.RawSetString("size", lua.LNumber(float64(m.Size)))
		entry.RawSetString("flags", lua.LNumber(float64(m.Flags)))
		tbl.RawSetInt(i+1, entry)
	}
	L.Push(tbl)
	return 1
}
