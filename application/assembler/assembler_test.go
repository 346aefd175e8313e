package assembler_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/CryZe/lasr-compiler/application/assembler"
	"github.com/CryZe/lasr-compiler/application/runtime"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/CryZe/lasr-compiler/internal/region"
	"github.com/CryZe/lasr-compiler/internal/testutil"
	"github.com/CryZe/lasr-compiler/internal/wasmbin"
	"github.com/CryZe/lasr-compiler/testing/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const script = `function update() setVariable("x", "1") end`

func TestAssembleRoundTrip(t *testing.T) {
	template := testutil.TemplateModule(256)
	out, err := assembler.Assemble(template, []byte(script))
	require.NoError(t, err)

	got, err := assembler.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, script, string(got))
}

func TestAssembleTrimmedHeaderSegment(t *testing.T) {
	// The Go wasm linker drops trailing zero bytes from data segments, so
	// the capacity 1<<20 (00 00 10 00) is stored as three bytes.
	spec := testutil.TemplateSpec(region.DefaultCapacity)
	spec.Data[1].Data = bytes.TrimRight(spec.Data[1].Data, "\x00")
	require.Len(t, spec.Data[1].Data, region.CapacityOffset+3)
	template := testutil.BuildModule(spec)

	out, err := assembler.Assemble(template, []byte(script))
	require.NoError(t, err)

	got, err := assembler.Extract(out)
	require.NoError(t, err)
	assert.Equal(t, script, string(got))

	report, err := assembler.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(region.DefaultCapacity), report.Capacity)
	assert.Equal(t, uint32(region.DefaultCapacity), report.Manifest.Capacity)
}

func TestAssembleEmptyScript(t *testing.T) {
	out, err := assembler.Assemble(testutil.TemplateModule(64), nil)
	require.NoError(t, err)

	got, err := assembler.Extract(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssembleIsDeterministic(t *testing.T) {
	template := testutil.TemplateModule(256)
	a, err := assembler.Assemble(template, []byte(script))
	require.NoError(t, err)
	b, err := assembler.Assemble(template, []byte(script))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssembleKeepsModuleSurface(t *testing.T) {
	template := testutil.TemplateModule(256)
	out, err := assembler.Assemble(template, []byte(script))
	require.NoError(t, err)

	before, err := wasmbin.Parse(template)
	require.NoError(t, err)
	after, err := wasmbin.Parse(out)
	require.NoError(t, err)

	require.Len(t, after.Sections, len(before.Sections)+1)
	for i, s := range before.Sections {
		if s.ID == wasmbin.SectionData {
			continue
		}
		assert.Equal(t, s, after.Sections[i], "section %d changed", s.ID)
	}
	name, _, err := after.Sections[len(after.Sections)-1].CustomName()
	require.NoError(t, err)
	assert.Equal(t, assembler.ManifestSection, name)

	segs, err := after.DataSegments()
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, uint32(testutil.TemplateRegionOffset+region.LengthOffset), segs[2].Offset)
}

func TestAssembleSizeLimits(t *testing.T) {
	template := testutil.TemplateModule(64)

	_, err := assembler.Assemble(template, bytes.Repeat([]byte("a"), 64))
	require.NoError(t, err, "a script filling the region fits")

	_, err = assembler.Assemble(template, bytes.Repeat([]byte("a"), 65))
	testutil.AssertAssemblyKind(t, err, domainerrors.ScriptTooLarge)
	var aerr *domainerrors.AssemblyError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 65, aerr.Size)
	assert.Equal(t, 64, aerr.Limit)
	assert.ErrorIs(t, err, &domainerrors.AssemblyError{Kind: domainerrors.ScriptTooLarge})

	_, err = assembler.Assemble(template, bytes.Repeat([]byte("a"), 11), assembler.WithMaxScriptSize(10))
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 10, aerr.Limit)
}

func TestAssembleRejectsInvalidUTF8(t *testing.T) {
	_, err := assembler.Assemble(testutil.TemplateModule(64), []byte{'o', 'k', 0xff, 'x'})
	testutil.AssertAssemblyKind(t, err, domainerrors.InvalidEncoding)
	var aerr *domainerrors.AssemblyError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 2, aerr.Offset)
}

func TestAssembleRejectsCorruptTemplates(t *testing.T) {
	twoMarkers := testutil.TemplateSpec(64)
	twoMarkers.Data = append(twoMarkers.Data, testutil.Segment{Offset: 4096, Data: twoMarkers.Data[1].Data})

	noMarker := testutil.TemplateSpec(64)
	noMarker.Data = noMarker.Data[:1]

	tooSmall := testutil.TemplateSpec(1 << 20)
	tooSmall.MemoryPages = 1

	noMemory := testutil.TemplateSpec(64)
	noMemory.MemoryPages = 0

	assembled, err := assembler.Assemble(testutil.TemplateModule(64), []byte(script))
	require.NoError(t, err)

	truncated := testutil.TemplateModule(64)
	truncated = truncated[:len(truncated)-3]

	tests := map[string][]byte{
		"not wasm":          []byte("#!/bin/lua\n"),
		"truncated":         truncated,
		"no marker":         testutil.BuildModule(noMarker),
		"two markers":       testutil.BuildModule(twoMarkers),
		"region past pages": testutil.BuildModule(tooSmall),
		"no memory":         testutil.BuildModule(noMemory),
		"already assembled": assembled,
	}
	for name, template := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := assembler.Assemble(template, []byte(script))
			testutil.AssertAssemblyKind(t, err, domainerrors.TemplateCorrupt)
		})
	}
}

func TestAssembleUpdatesDataCount(t *testing.T) {
	spec := testutil.TemplateSpec(64)
	spec.DataCount = true
	out, err := assembler.Assemble(testutil.BuildModule(spec), []byte(script))
	require.NoError(t, err)

	m, err := wasmbin.Parse(out)
	require.NoError(t, err)
	n, _, err := wasmbin.DecodeUint32(m.Sections[m.Index(wasmbin.SectionDataCount)].Payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)

	r := wazero.NewRuntime(context.Background())
	defer r.Close(context.Background())
	_, err = r.CompileModule(context.Background(), out)
	assert.NoError(t, err)
}

func TestInspect(t *testing.T) {
	template := testutil.TemplateModule(256)
	out, err := assembler.Assemble(template, []byte(script), assembler.WithCompilerVersion("lasr 1.2.3"))
	require.NoError(t, err)

	report, err := assembler.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(testutil.TemplateRegionOffset), report.RegionAddress)
	assert.Equal(t, uint32(256), report.Capacity)
	assert.Equal(t, len(script), report.ScriptLength)
	assert.Len(t, report.Imports, 2)
	assert.Equal(t, "timer_set_variable", report.Imports[0].Name)

	require.NotNil(t, report.Manifest)
	sum := sha256.Sum256([]byte(script))
	assert.Equal(t, assembler.Manifest{
		Compiler:      "lasr 1.2.3",
		ScriptSHA256:  hex.EncodeToString(sum[:]),
		Format:        assembler.ManifestFormat,
		ScriptLength:  len(script),
		Capacity:      256,
		RegionAddress: testutil.TemplateRegionOffset,
	}, *report.Manifest)

	bare, err := assembler.Inspect(template)
	require.NoError(t, err)
	assert.Nil(t, bare.Manifest)
	assert.Zero(t, bare.ScriptLength)

	_, err = assembler.Extract(template)
	assert.ErrorIs(t, err, assembler.ErrNoScript)
}

func TestManifestVerify(t *testing.T) {
	out, err := assembler.Assemble(testutil.TemplateModule(64), []byte(script))
	require.NoError(t, err)
	report, err := assembler.Inspect(out)
	require.NoError(t, err)

	assert.NoError(t, report.Manifest.Verify([]byte(script)))
	assert.Error(t, report.Manifest.Verify([]byte(script+" ")))
	assert.Error(t, report.Manifest.Verify([]byte(`function update() setVariable("y", "1") end`)))
}

func envModule(t *testing.T, r wazero.Runtime, vars map[string]string) {
	t.Helper()
	read := func(m api.Module, ptr, n uint32) string {
		b, ok := m.Memory().Read(ptr, n)
		require.True(t, ok)
		return string(b)
	}
	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, kp, kl, vp, vl uint32) {
			vars[read(m, kp, kl)] = read(m, vp, vl)
		}).
		Export("timer_set_variable").
		NewFunctionBuilder().
		WithFunc(func(context.Context, api.Module, uint32, uint32) {}).
		Export("runtime_print_message").
		Instantiate(context.Background())
	require.NoError(t, err)
}

func TestArtifactRunsUnderWazero(t *testing.T) {
	ctx := context.Background()
	template := testutil.TemplateModule(256)
	out, err := assembler.Assemble(template, []byte(script))
	require.NoError(t, err)

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	tmpl, err := r.CompileModule(ctx, template)
	require.NoError(t, err)
	art, err := r.CompileModule(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, importNames(tmpl), importNames(art))
	assert.Equal(t, exportNames(tmpl), exportNames(art))

	vars := map[string]string{}
	envModule(t, r, vars)
	mod, err := r.InstantiateModule(ctx, art, wazero.NewModuleConfig())
	require.NoError(t, err)

	image, ok := mod.Memory().Read(testutil.TemplateRegionOffset, region.HeaderSize+256)
	require.True(t, ok)
	embedded, err := region.Decode(image)
	require.NoError(t, err)
	assert.Equal(t, script, string(embedded))

	res, err := mod.ExportedFunction("tick").Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, res)
	assert.Equal(t, map[string]string{"x": "1"}, vars)
}

func importNames(m wazero.CompiledModule) []string {
	var out []string
	for _, f := range m.ImportedFunctions() {
		mod, name, _ := f.Import()
		out = append(out, mod+"."+name)
	}
	return out
}

func exportNames(m wazero.CompiledModule) map[string]bool {
	out := map[string]bool{}
	for name := range m.ExportedFunctions() {
		out[name] = true
	}
	for name := range m.ExportedMemories() {
		out[name] = true
	}
	return out
}

func TestEndToEndTick(t *testing.T) {
	out, err := assembler.Assemble(testutil.TemplateModule(1024), []byte(script))
	require.NoError(t, err)
	extracted, err := assembler.Extract(out)
	require.NoError(t, err)

	host := hosttest.New()
	rt, err := runtime.New(host, extracted)
	require.NoError(t, err)
	defer rt.Close()

	require.NoError(t, rt.Tick(context.Background()))
	hosttest.AssertVariable(t, host, "x", "1")
}
