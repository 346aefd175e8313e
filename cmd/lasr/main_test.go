package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/CryZe/lasr-compiler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lasrCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestUsage(t *testing.T) {
	code, _, stderr := lasrCmd(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, _ = lasrCmd(t, "help")
	assert.Equal(t, 0, code)

	code, _, stderr = lasrCmd(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, _, stderr = lasrCmd(t, "compile")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: lasr compile")

	code, _, _ = lasrCmd(t, "inspect", "-h")
	assert.Equal(t, 0, code)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := lasrCmd(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "lasr ")
}

func TestSchema(t *testing.T) {
	code, stdout, _ := lasrCmd(t, "schema", "scenario")
	require.Equal(t, 0, code)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"processes"`)

	code, _, stderr := lasrCmd(t, "schema", "plugin")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown schema")
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "dir/splitter.wasm", defaultOutput("dir/splitter.lua"))
	assert.Equal(t, "splitter.wasm", defaultOutput("splitter"))
}

func TestCompileExtractInspect(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "runtime.wasm", testutil.TemplateModule(256))
	script := `function update() setVariable("x", "1") end`
	scriptPath := writeFile(t, dir, "splitter.lua", []byte(script))

	code, _, stderr := lasrCmd(t, "compile", "-template", tmpl, scriptPath)
	require.Equal(t, 0, code, stderr)
	artifact := filepath.Join(dir, "splitter.wasm")
	require.FileExists(t, artifact)

	code, stdout, _ := lasrCmd(t, "extract", artifact)
	require.Equal(t, 0, code)
	assert.Equal(t, script, stdout)

	code, stdout, _ = lasrCmd(t, "inspect", artifact)
	require.Equal(t, 0, code)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.EqualValues(t, len(script), report["script_length"])
	assert.Contains(t, stdout, "script_sha256")

	code, stdout, _ = lasrCmd(t, "run", artifact)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `tick 1: x = "1"`)

	other := filepath.Join(dir, "other.wasm")
	code, _, _ = lasrCmd(t, "compile", "-template", tmpl, "-o", other, scriptPath, filepath.Join(dir, "ignored.wasm"))
	require.Equal(t, 0, code)
	assert.FileExists(t, other)
	assert.NoFileExists(t, filepath.Join(dir, "ignored.wasm"))
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "runtime.wasm", testutil.TemplateModule(8))
	scriptPath := writeFile(t, dir, "big.lua", []byte("function update() end"))

	code, _, stderr := lasrCmd(t, "compile", "-template", tmpl, scriptPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "lasr compile:")

	code, _, stderr = lasrCmd(t, "compile", "-template", filepath.Join(dir, "missing.wasm"), scriptPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "loading template")
}

func TestCompileUsesProjectTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "runtime.wasm", testutil.TemplateModule(256))
	project := writeFile(t, dir, "lasr.toml", []byte("template = \"runtime.wasm\"\nmax_script_size = 4\n"))
	scriptPath := writeFile(t, dir, "s.lua", []byte("function update() end"))

	code, _, stderr := lasrCmd(t, "compile", "-project", project, scriptPath)
	assert.Equal(t, 1, code, "project max_script_size applies")
	assert.Contains(t, stderr, "lasr compile:")

	code, _, stderr = lasrCmd(t, "compile", "-project", project, "-max-size", "1000", scriptPath)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(dir, "s.wasm"))
}

func TestRunScriptWithImage(t *testing.T) {
	dir := t.TempDir()
	image := writeFile(t, dir, "game.bin", []byte{0x10, 0x2a})
	scriptPath := writeFile(t, dir, "s.lua", []byte(`
local p
function update()
  if not p then p = process("game.exe") end
  if p then setVariable("b", tostring(readAddress("byte", 1))) end
  print("tick")
end
`))

	code, stdout, stderr := lasrCmd(t, "run", "-ticks", "2", "-process", "game.exe", "-image", image, scriptPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `tick 1: b = "42"`)
	assert.Contains(t, stdout, "variables:\n  b = \"42\"")
	assert.Equal(t, 2, bytes.Count([]byte(stdout), []byte("tick\n")))
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := writeFile(t, dir, "scenario.yaml", []byte(`
ticks: 1
timer:
  state: running
processes:
  - name: game.exe
    modules:
      - name: game.exe
        base: 0x400000
        size: 0x100
`))
	scriptPath := writeFile(t, dir, "s.lua", []byte(`
process("game.exe")
function update() return true end
function split() return true end
`))

	code, stdout, stderr := lasrCmd(t, "run", "-scenario", scenario, scriptPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "tick 1: split")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.lua", []byte(`function startup() error("no") end function update() end`))

	code, _, stderr := lasrCmd(t, "run", broken)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "tick 1")

	code, _, stderr = lasrCmd(t, "run", "-image", broken, broken)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-image needs -process")

	syntax := writeFile(t, dir, "syntax.lua", []byte(`function update( end`))
	code, _, _ = lasrCmd(t, "run", syntax)
	assert.Equal(t, 1, code)
}
