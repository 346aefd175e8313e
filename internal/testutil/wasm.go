package testutil

import (
	"encoding/binary"
	"math"

	"github.com/CryZe/lasr-compiler/internal/region"
	"github.com/CryZe/lasr-compiler/internal/wasmbin"
)

// FuncImport is an imported function.
type FuncImport struct {
	Module, Name    string
	Params, Results []byte
}

// Func is a defined function. Body holds the instructions without the
// trailing end opcode. A non-empty Export name exports it.
type Func struct {
	Export          string
	Params, Results []byte
	Body            []byte
}

// Segment is an active data segment on memory 0.
type Segment struct {
	Data   []byte
	Offset uint32
}

// ModuleSpec describes a small wasm module for tests.
type ModuleSpec struct {
	Imports []FuncImport
	Funcs   []Func
	Data    []Segment
	// MemoryPages, when non-zero, defines memory 0 exported as "memory".
	MemoryPages uint32
	// DataCount adds a data count section.
	DataCount bool
}

// I32Const encodes i32.const v.
func I32Const(v int32) []byte { return wasmbin.AppendInt32([]byte{0x41}, v) }

// F64Const encodes f64.const v.
func F64Const(v float64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{0x44}, math.Float64bits(v))
}

// Call encodes a call of function index fn.
func Call(fn uint32) []byte { return wasmbin.AppendUint32([]byte{0x10}, fn) }

// LocalGet encodes local.get i.
func LocalGet(i uint32) []byte { return wasmbin.AppendUint32([]byte{0x20}, i) }

// Ops concatenates instructions.
func Ops(ops ...[]byte) []byte {
	var out []byte
	for _, op := range ops {
		out = append(out, op...)
	}
	return out
}

func vec(items ...[]byte) []byte {
	out := wasmbin.AppendUint32(nil, uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func name(s string) []byte {
	return append(wasmbin.AppendUint32(nil, uint32(len(s))), s...)
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(wasmbin.AppendUint32(out, uint32(len(params))), params...)
	out = append(wasmbin.AppendUint32(out, uint32(len(results))), results...)
	return out
}

// BuildModule encodes spec as a wasm binary.
func BuildModule(spec ModuleSpec) []byte {
	m := &wasmbin.Module{}
	add := func(id byte, payload []byte) {
		m.Sections = append(m.Sections, wasmbin.Section{ID: id, Payload: payload})
	}

	var types, imports, funcs, exports, bodies [][]byte
	for _, imp := range spec.Imports {
		idx := uint32(len(types))
		types = append(types, funcType(imp.Params, imp.Results))
		imports = append(imports, append(append(name(imp.Module), name(imp.Name)...), wasmbin.AppendUint32([]byte{byte(wasmbin.ExternFunc)}, idx)...))
	}
	for i, fn := range spec.Funcs {
		idx := uint32(len(types))
		types = append(types, funcType(fn.Params, fn.Results))
		funcs = append(funcs, wasmbin.AppendUint32(nil, idx))
		if fn.Export != "" {
			exports = append(exports, wasmbin.AppendUint32(append(name(fn.Export), byte(wasmbin.ExternFunc)), uint32(len(spec.Imports)+i)))
		}
		body := append([]byte{0x00}, fn.Body...) // no locals
		body = append(body, 0x0b)
		bodies = append(bodies, append(wasmbin.AppendUint32(nil, uint32(len(body))), body...))
	}
	if spec.MemoryPages > 0 {
		exports = append(exports, append(name("memory"), byte(wasmbin.ExternMemory), 0x00))
	}

	if len(types) > 0 {
		add(wasmbin.SectionType, vec(types...))
	}
	if len(imports) > 0 {
		add(wasmbin.SectionImport, vec(imports...))
	}
	if len(funcs) > 0 {
		add(wasmbin.SectionFunction, vec(funcs...))
	}
	if spec.MemoryPages > 0 {
		add(wasmbin.SectionMemory, vec(wasmbin.AppendUint32([]byte{0x00}, spec.MemoryPages)))
	}
	if len(exports) > 0 {
		add(wasmbin.SectionExport, vec(exports...))
	}
	if spec.DataCount {
		add(wasmbin.SectionDataCount, wasmbin.AppendUint32(nil, uint32(len(spec.Data))))
	}
	if len(bodies) > 0 {
		add(wasmbin.SectionCode, vec(bodies...))
	}
	if len(spec.Data) > 0 {
		segs := make([]wasmbin.DataSegment, len(spec.Data))
		for i, d := range spec.Data {
			segs[i] = wasmbin.NewActiveSegment(d.Offset, d.Data)
		}
		add(wasmbin.SectionData, wasmbin.EncodeDataSection(segs))
	}
	return m.Bytes()
}

// TemplateRegionOffset is where TemplateModule places its script region.
const TemplateRegionOffset = 1024

// TemplateSpec describes a minimal runtime template: env imports,
// an exported tick function and a region of capacity bytes whose header
// segment stops before the zero length field.
func TemplateSpec(capacity uint32) ModuleSpec {
	header := make([]byte, region.LengthOffset)
	copy(header, region.Magic)
	header[region.CapacityOffset] = byte(capacity)
	header[region.CapacityOffset+1] = byte(capacity >> 8)
	header[region.CapacityOffset+2] = byte(capacity >> 16)
	header[region.CapacityOffset+3] = byte(capacity >> 24)

	end := uint64(TemplateRegionOffset) + region.HeaderSize + uint64(capacity)
	pages := uint32((end + wasmbin.PageSize - 1) / wasmbin.PageSize)

	i32 := wasmbin.ValueTypeI32
	return ModuleSpec{
		Imports: []FuncImport{
			{Module: "env", Name: "timer_set_variable", Params: []byte{i32, i32, i32, i32}},
			{Module: "env", Name: "runtime_print_message", Params: []byte{i32, i32}},
		},
		Funcs: []Func{{
			Export:  "tick",
			Results: []byte{i32},
			// timer_set_variable("x", "1") from the bytes at 16.
			Body: Ops(I32Const(16), I32Const(1), I32Const(17), I32Const(1), Call(0), I32Const(0)),
		}},
		MemoryPages: pages,
		Data: []Segment{
			{Offset: 16, Data: []byte("x1")},
			{Offset: TemplateRegionOffset, Data: header},
		},
	}
}

// TemplateModule builds TemplateSpec(capacity).
func TemplateModule(capacity uint32) []byte {
	return BuildModule(TemplateSpec(capacity))
}
