package entities

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags a Value.
type ValueKind uint8

// Value kinds crossing the script/host boundary.
const (
	KindAbsent ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindHandle
)

func (k ValueKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindHandle:
		return "handle"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the tagged union exchanged between scripts and the host bridge.
// The zero Value is Absent.
type Value struct {
	str    string
	num    float64
	handle ProcessID
	kind   ValueKind
	b      bool
}

// Absent returns the value that carries no answer.
func Absent() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps n.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Handle wraps a process handle.
func Handle(pid ProcessID) Value { return Value{kind: KindHandle, handle: pid} }

// Kind reports the tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v carries no answer.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsHandle returns the handle payload.
func (v Value) AsHandle() (ProcessID, bool) { return v.handle, v.kind == KindHandle }

// Truthy follows script truthiness: only Absent and false are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindAbsent:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// String renders v the way a script's tostring would.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return v.str
	case KindHandle:
		return fmt.Sprintf("process: %d", uint64(v.handle))
	default:
		return "nil"
	}
}

// FormatNumber prints integral values without a fraction and everything
// else with up to 14 significant digits.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		return strconv.FormatInt(int64(n), 10)
	default:
		return strconv.FormatFloat(n, 'g', 14, 64)
	}
}
