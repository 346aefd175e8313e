package runtime

import (
	lua "github.com/yuin/gopher-lua"
)

var stdlibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
	{lua.OsLibName, lua.OpenOs},
	{lua.CoroutineLibName, lua.OpenCoroutine},
}

// Globals and os fields removed from the script environment. Scripts may
// read the clock but not touch the file system or the process.
var (
	strippedGlobals = []string{"dofile", "loadfile", "require", "module"}
	strippedOs      = []string{"execute", "exit", "remove", "rename", "tmpname", "setenv"}
)

// newState builds an interpreter with only the sandboxed libraries.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range stdlibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if os, ok := L.GetGlobal(lua.OsLibName).(*lua.LTable); ok {
		for _, name := range strippedOs {
			os.RawSetString(name, lua.LNil)
		}
	}
	return L
}
