package entities

// ProcessID is an opaque handle to an attached process. Zero means none.
type ProcessID uint64

// Valid reports whether the handle names a process at all. It says nothing
// about whether the process is still open.
func (p ProcessID) Valid() bool { return p != 0 }

// Address is a location in a target process, absolute or module relative.
type Address uint64

// Module describes a loaded module of the attached process.
type Module struct {
	Name string  `json:"name" yaml:"name" toml:"name" validate:"required"`
	Base Address `json:"base" yaml:"base,omitempty" toml:"base"`
	Size uint64  `json:"size" yaml:"size,omitempty" toml:"size"`
}

// Memory range flags reported by the host.
const (
	MemoryRead    uint64 = 1 << 1
	MemoryWrite   uint64 = 1 << 2
	MemoryExecute uint64 = 1 << 3
	MemoryPath    uint64 = 1 << 4
)

// MemoryMap is one mapped range of the attached process. Name is always
// empty: the target host does not report mapping names.
type MemoryMap struct {
	Name  string
	Base  Address
	Size  uint64
	Flags uint64
}

// End returns the first address past the range.
func (m MemoryMap) End() Address { return m.Base + Address(m.Size) }

// Contains reports whether addr falls inside the range.
func (m MemoryMap) Contains(addr Address) bool {
	return addr >= m.Base && uint64(addr-m.Base) < m.Size
}
