// Package wasmbin reads and rewrites the section layer of WebAssembly
// binaries. It understands just enough of the format to locate and append
// data segments, list imports and exports, and add custom sections; function
// bodies and every other section are carried through untouched.
package wasmbin

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrMalformed reports a binary that does not follow the wasm layout.
var ErrMalformed = errors.New("wasmbin: malformed module")

// Magic and Version open every wasm binary.
var (
	Magic   = []byte{0x00, 'a', 's', 'm'}
	Version = []byte{0x01, 0x00, 0x00, 0x00}
)

// Section identifiers.
const (
	SectionCustom    byte = 0
	SectionType      byte = 1
	SectionImport    byte = 2
	SectionFunction  byte = 3
	SectionTable     byte = 4
	SectionMemory    byte = 5
	SectionGlobal    byte = 6
	SectionExport    byte = 7
	SectionStart     byte = 8
	SectionElement   byte = 9
	SectionCode      byte = 10
	SectionData      byte = 11
	SectionDataCount byte = 12
	SectionTag       byte = 13
)

// Value types.
const (
	ValueTypeI32 byte = 0x7f
	ValueTypeI64 byte = 0x7e
	ValueTypeF32 byte = 0x7d
	ValueTypeF64 byte = 0x7c
)

// PageSize is the size of one linear memory page.
const PageSize = 65536

// Section is one top-level section. Payload excludes the id and size prefix.
type Section struct {
	Payload []byte
	ID      byte
}

// CustomName returns the name of a custom section and the bytes after it.
func (s Section) CustomName() (string, []byte, error) {
	if s.ID != SectionCustom {
		return "", nil, fmt.Errorf("%w: section %d is not custom", ErrMalformed, s.ID)
	}
	r := &reader{buf: s.Payload}
	name, err := r.name()
	if err != nil {
		return "", nil, err
	}
	return name, s.Payload[r.off:], nil
}

// NewCustomSection builds a custom section carrying body under name.
func NewCustomSection(name string, body []byte) Section {
	payload := AppendUint32(nil, uint32(len(name)))
	payload = append(payload, name...)
	payload = append(payload, body...)
	return Section{ID: SectionCustom, Payload: payload}
}

// Module is a parsed binary: its sections in file order.
type Module struct {
	Sections []Section
}

// Parse splits bin into sections. Section payloads alias bin.
func Parse(bin []byte) (*Module, error) {
	if len(bin) < 8 || !bytes.Equal(bin[:4], Magic) {
		return nil, fmt.Errorf("%w: missing magic header", ErrMalformed)
	}
	if !bytes.Equal(bin[4:8], Version) {
		return nil, fmt.Errorf("%w: unsupported version % x", ErrMalformed, bin[4:8])
	}

	m := &Module{}
	r := &reader{buf: bin, off: 8}
	for !r.done() {
		id, _ := r.byte()
		if id > SectionTag {
			return nil, fmt.Errorf("%w: unknown section id %d at offset %d", ErrMalformed, id, r.off-1)
		}
		payload, err := r.vec()
		if err != nil {
			return nil, fmt.Errorf("%w: section %d: %v", ErrMalformed, id, err)
		}
		m.Sections = append(m.Sections, Section{ID: id, Payload: payload})
	}
	return m, nil
}

// Bytes encodes the module back into a binary.
func (m *Module) Bytes() []byte {
	size := 8
	for _, s := range m.Sections {
		size += 1 + 5 + len(s.Payload)
	}
	out := make([]byte, 0, size)
	out = append(out, Magic...)
	out = append(out, Version...)
	for _, s := range m.Sections {
		out = append(out, s.ID)
		out = AppendUint32(out, uint32(len(s.Payload)))
		out = append(out, s.Payload...)
	}
	return out
}

// Index returns the position of the first section with id, or -1.
// Custom sections are looked up by name with CustomIndex.
func (m *Module) Index(id byte) int {
	for i, s := range m.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// CustomIndex returns the position of the custom section called name, or -1.
func (m *Module) CustomIndex(name string) int {
	for i, s := range m.Sections {
		if s.ID != SectionCustom {
			continue
		}
		if n, _, err := s.CustomName(); err == nil && n == name {
			return i
		}
	}
	return -1
}

// Imports lists the import section entries.
func (m *Module) Imports() ([]Import, error) {
	i := m.Index(SectionImport)
	if i < 0 {
		return nil, nil
	}
	return ParseImports(m.Sections[i].Payload)
}

// Exports lists the export section entries.
func (m *Module) Exports() ([]Export, error) {
	i := m.Index(SectionExport)
	if i < 0 {
		return nil, nil
	}
	return ParseExports(m.Sections[i].Payload)
}

// Memories returns the limits of memories defined (not imported) by the module.
func (m *Module) Memories() ([]Limits, error) {
	i := m.Index(SectionMemory)
	if i < 0 {
		return nil, nil
	}
	return ParseMemories(m.Sections[i].Payload)
}

// DataSegments parses the data section. A module without one has no segments.
func (m *Module) DataSegments() ([]DataSegment, error) {
	i := m.Index(SectionData)
	if i < 0 {
		return nil, nil
	}
	return ParseDataSection(m.Sections[i].Payload)
}
