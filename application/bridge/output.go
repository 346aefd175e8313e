package bridge

import (
	"errors"
	"sort"
	"strings"

	"github.com/CryZe/lasr-compiler/application/settings"
	lua "github.com/yuin/gopher-lua"
)

// print(...) joins the tostring of every argument with tabs.
func (c *Context) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	c.Print(strings.Join(parts, "\t"))
	return 0
}

type pair struct {
	key, value lua.LValue
}

// sortedPairs returns the entries of tbl with numeric keys first, in order,
// then every other key by its string form.
func sortedPairs(tbl *lua.LTable) []pair {
	var out []pair
	tbl.ForEach(func(k, v lua.LValue) {
		out = append(out, pair{k, v})
	})
	sort.SliceStable(out, func(i, j int) bool {
		ni, iNum := out[i].key.(lua.LNumber)
		nj, jNum := out[j].key.(lua.LNumber)
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum != jNum:
			return iNum
		default:
			return out[i].key.String() < out[j].key.String()
		}
	})
	return out
}

// print_tbl(t) prints one "key: value" line per entry.
func (c *Context) printTable(L *lua.LState) int {
	tbl, ok := L.Get(1).(*lua.LTable)
	if !ok {
		c.Print("[print_tbl] Argument is not a table or no argument passed.")
		return 0
	}
	if L.GetTop() > 1 {
		c.Print("[print_tbl] Too many arguments passed, only pass a single table")
		return 0
	}
	for _, p := range sortedPairs(tbl) {
		c.Print(L.ToStringMeta(p.key).String() + ": " + L.ToStringMeta(p.value).String())
	}
	return 0
}

// shallow_copy_tbl(t) returns a new table with the same entries.
func (c *Context) shallowCopyTable(L *lua.LState) int {
	src, ok := L.Get(1).(*lua.LTable)
	if !ok {
		c.Print("[shallow_copy_tbl] Argument is not a table or no argument passed.")
		L.Push(lua.LNil)
		return 1
	}
	if L.GetTop() > 1 {
		c.Print("[shallow_copy_tbl] Too many arguments passed, only pass a single table")
		L.Push(lua.LNil)
		return 1
	}
	out := L.CreateTable(src.Len(), 0)
	src.ForEach(func(k, v lua.LValue) {
		out.RawSet(k, v)
	})
	L.Push(out)
	return 1
}

// setVariable(key, value) buffers a variable for the end of the tick. The
// value is stored as its tostring.
func (c *Context) setVariable(L *lua.LState) int {
	var key string
	switch k := L.Get(1).(type) {
	case lua.LString:
		key = string(k)
	case lua.LNumber:
		key = k.String()
	default:
		c.reject(L, "setVariable", 1, typeError("key", k))
		return 0
	}
	c.settings.Variables().Set(key, L.ToStringMeta(L.Get(2)).String())
	return 0
}

// addSetting(key, default [, description]) declares a user setting and
// returns its current value.
func (c *Context) addSetting(L *lua.LState) int {
	const fn = "addSetting"
	key, ok := L.Get(1).(lua.LString)
	if !ok {
		return c.reject(L, fn, 1, typeError("key", L.Get(1)))
	}
	def, ok := ToValue(L.Get(2))
	if !ok || def.IsAbsent() {
		return c.reject(L, fn, 2, typeError("boolean, number or string", L.Get(2)))
	}
	desc := ""
	if d, ok := L.Get(3).(lua.LString); ok {
		desc = string(d)
	}

	v, err := c.settings.Declare(string(key), def, desc)
	switch {
	case errors.Is(err, settings.ErrDuplicateSetting):
		c.logger.Warn("bridge: setting declared twice, keeping the first", "key", string(key))
	case err != nil:
		return c.reject(L, fn, 2, err)
	}
	L.Push(FromValue(L, v))
	return 1
}
