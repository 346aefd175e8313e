// Package assembler embeds a script into the runtime template, producing a
// self-contained auto splitter module, and reads scripts back out of
// finished artifacts.
package assembler

import (
	"errors"
	"fmt"
	"unicode/utf8"

	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/CryZe/lasr-compiler/internal/region"
	"github.com/CryZe/lasr-compiler/internal/wasmbin"
)

// DefaultCompiler is recorded in the manifest unless WithCompilerVersion
// overrides it.
const DefaultCompiler = "lasr"

type options struct {
	compiler      string
	maxScriptSize int
}

// Option configures Assemble.
type Option func(*options)

// WithMaxScriptSize rejects scripts above n bytes even when the region
// would hold them.
func WithMaxScriptSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxScriptSize = n
		}
	}
}

// WithCompilerVersion sets the compiler string recorded in the manifest.
func WithCompilerVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.compiler = v
		}
	}
}

// Assemble returns a copy of template with script embedded in its region.
// Imports, exports, types and code are carried over byte for byte; the
// script travels in one extra active data segment covering the region's
// length field and payload, and a lasr.manifest custom section describes
// it. The output depends only on the inputs.
func Assemble(template, script []byte, opts ...Option) ([]byte, error) {
	o := &options{compiler: DefaultCompiler}
	for _, opt := range opts {
		opt(o)
	}

	m, err := wasmbin.Parse(template)
	if err != nil {
		return nil, corrupt(err)
	}
	if m.CustomIndex(ManifestSection) >= 0 {
		return nil, corrupt(errors.New("template already carries an embedded script"))
	}
	segs, err := m.DataSegments()
	if err != nil {
		return nil, corrupt(err)
	}
	loc, err := locate(segs)
	if err != nil {
		return nil, corrupt(err)
	}
	if loc.header.Length != 0 {
		return nil, corrupt(errors.New("template already carries an embedded script"))
	}
	if err := checkMemory(m, loc); err != nil {
		return nil, corrupt(err)
	}

	limit := int(loc.header.Capacity)
	if o.maxScriptSize > 0 && o.maxScriptSize < limit {
		limit = o.maxScriptSize
	}
	if len(script) > limit {
		return nil, &domainerrors.AssemblyError{Kind: domainerrors.ScriptTooLarge, Size: len(script), Limit: limit}
	}
	if !utf8.Valid(script) {
		return nil, &domainerrors.AssemblyError{Kind: domainerrors.InvalidEncoding, Offset: invalidOffset(script)}
	}

	segs = append(segs, wasmbin.NewActiveSegment(loc.addr+region.LengthOffset, region.EncodeBody(script)))
	m.Sections[m.Index(wasmbin.SectionData)].Payload = wasmbin.EncodeDataSection(segs)
	if i := m.Index(wasmbin.SectionDataCount); i >= 0 {
		n, _, err := wasmbin.DecodeUint32(m.Sections[i].Payload)
		if err != nil {
			return nil, corrupt(fmt.Errorf("data count section: %w", err))
		}
		m.Sections[i].Payload = wasmbin.AppendUint32(nil, n+1)
	}

	body, err := MarshalManifest(newManifest(script, o.compiler, loc.header.Capacity, loc.addr))
	if err != nil {
		return nil, err
	}
	m.Sections = append(m.Sections, wasmbin.NewCustomSection(ManifestSection, body))
	return m.Bytes(), nil
}

func corrupt(err error) error {
	return &domainerrors.AssemblyError{Kind: domainerrors.TemplateCorrupt, Err: err}
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

// location is the region found in a module's data segments.
type location struct {
	header region.Header
	addr   uint32
}

// locate finds the single region marker among the active data segments.
func locate(segs []wasmbin.DataSegment) (location, error) {
	var found []location
	for _, seg := range segs {
		if !seg.Active() {
			continue
		}
		for _, off := range region.Locate(seg.Init) {
			addr := seg.Offset + uint32(off)
			h, err := region.ReadHeader(overlay(segs, uint64(addr), uint64(addr)+region.HeaderSize))
			if err != nil {
				return location{}, fmt.Errorf("region header at %#x: %w", addr, err)
			}
			found = append(found, location{header: h, addr: addr})
		}
	}
	switch len(found) {
	case 0:
		return location{}, errors.New("no script region marker found")
	case 1:
		return found[0], nil
	default:
		return location{}, fmt.Errorf("%d script region markers found, want exactly one", len(found))
	}
}

// overlay returns memory [start, end) as instantiation leaves it: zero
// filled, then every active segment applied in order. Linkers trim trailing
// zeros from segments, so a header may end before its capacity field does.
func overlay(segs []wasmbin.DataSegment, start, end uint64) []byte {
	image := make([]byte, end-start)
	for _, seg := range segs {
		if !seg.Active() || seg.End() <= start || uint64(seg.Offset) >= end {
			continue
		}
		src := seg.Init
		dst := image
		if off := uint64(seg.Offset); off >= start {
			dst = image[off-start:]
		} else {
			src = src[start-off:]
		}
		copy(dst, src)
	}
	return image
}

// checkMemory verifies the region fits the initial pages of memory 0. An
// imported memory is sized by the host and is not checked.
func checkMemory(m *wasmbin.Module, loc location) error {
	mems, err := m.Memories()
	if err != nil {
		return err
	}
	if len(mems) == 0 {
		imports, err := m.Imports()
		if err != nil {
			return err
		}
		for _, imp := range imports {
			if imp.Kind == wasmbin.ExternMemory {
				return nil
			}
		}
		return errors.New("template has no linear memory")
	}
	end := uint64(loc.addr) + region.HeaderSize + uint64(loc.header.Capacity)
	if limit := mems[0].Min * wasmbin.PageSize; end > limit {
		return fmt.Errorf("region ends at %#x, past initial memory of %#x bytes", end, limit)
	}
	return nil
}
