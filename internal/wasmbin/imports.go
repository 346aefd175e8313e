package wasmbin

import "fmt"

// ExternKind classifies imports and exports.
type ExternKind byte

// Extern kinds.
const (
	ExternFunc   ExternKind = 0
	ExternTable  ExternKind = 1
	ExternMemory ExternKind = 2
	ExternGlobal ExternKind = 3
	ExternTag    ExternKind = 4
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	case ExternTag:
		return "tag"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Limits describes a memory or table size.
type Limits struct {
	Min    uint64 `json:"min"`
	Max    uint64 `json:"max,omitempty"`
	HasMax bool   `json:"has_max,omitempty"`
}

// Import is one import section entry.
type Import struct {
	Module string     `json:"module"`
	Name   string     `json:"name"`
	Kind   ExternKind `json:"kind"`
	// TypeIndex is set for function and tag imports.
	TypeIndex uint32 `json:"type_index,omitempty"`
}

// Export is one export section entry.
type Export struct {
	Name  string     `json:"name"`
	Kind  ExternKind `json:"kind"`
	Index uint32     `json:"index"`
}

func readLimits(r *reader) (Limits, error) {
	var l Limits
	flags, err := r.byte()
	if err != nil {
		return l, err
	}
	read := r.u64
	if flags&0x04 == 0 {
		read = func() (uint64, error) {
			v, err := r.u32()
			return uint64(v), err
		}
	}
	if l.Min, err = read(); err != nil {
		return l, err
	}
	if flags&0x01 != 0 {
		l.HasMax = true
		if l.Max, err = read(); err != nil {
			return l, err
		}
	}
	return l, nil
}

// ParseImports decodes an import section payload.
func ParseImports(payload []byte) ([]Import, error) {
	r := &reader{buf: payload}
	count, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: import count: %v", ErrMalformed, err)
	}
	out := make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		imp, err := readImport(r)
		if err != nil {
			return nil, fmt.Errorf("%w: import %d: %v", ErrMalformed, i, err)
		}
		out = append(out, imp)
	}
	return out, nil
}

func readImport(r *reader) (Import, error) {
	var imp Import
	var err error
	if imp.Module, err = r.name(); err != nil {
		return imp, err
	}
	if imp.Name, err = r.name(); err != nil {
		return imp, err
	}
	kind, err := r.byte()
	if err != nil {
		return imp, err
	}
	imp.Kind = ExternKind(kind)
	switch imp.Kind {
	case ExternFunc:
		imp.TypeIndex, err = r.u32()
	case ExternTable:
		if _, err = r.byte(); err == nil {
			_, err = readLimits(r)
		}
	case ExternMemory:
		_, err = readLimits(r)
	case ExternGlobal:
		if _, err = r.byte(); err == nil {
			_, err = r.byte()
		}
	case ExternTag:
		if _, err = r.byte(); err == nil {
			imp.TypeIndex, err = r.u32()
		}
	default:
		err = fmt.Errorf("unknown import kind %d", kind)
	}
	return imp, err
}

// ParseExports decodes an export section payload.
func ParseExports(payload []byte) ([]Export, error) {
	r := &reader{buf: payload}
	count, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: export count: %v", ErrMalformed, err)
	}
	out := make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		var e Export
		if e.Name, err = r.name(); err != nil {
			return nil, fmt.Errorf("%w: export %d: %v", ErrMalformed, i, err)
		}
		kind, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("%w: export %d: %v", ErrMalformed, i, err)
		}
		e.Kind = ExternKind(kind)
		if e.Index, err = r.u32(); err != nil {
			return nil, fmt.Errorf("%w: export %d: %v", ErrMalformed, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseMemories decodes a memory section payload.
func ParseMemories(payload []byte) ([]Limits, error) {
	r := &reader{buf: payload}
	count, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: memory count: %v", ErrMalformed, err)
	}
	out := make([]Limits, 0, count)
	for i := uint32(0); i < count; i++ {
		l, err := readLimits(r)
		if err != nil {
			return nil, fmt.Errorf("%w: memory %d: %v", ErrMalformed, i, err)
		}
		out = append(out, l)
	}
	return out, nil
}
