package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/CryZe/lasr-compiler/domain/entities"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProjectYAML(t *testing.T) {
	p, err := ParseProjectYAML([]byte(`
template: runtime.wasm
max_script_size: 4096
ticks: 10
runtime:
  log_level: debug
  max_tick_rate: 60
`))
	require.NoError(t, err)
	assert.Equal(t, "runtime.wasm", p.Template)
	assert.Equal(t, uint32(4096), p.MaxScriptSize)
	assert.Equal(t, 10, p.Ticks)
	assert.Equal(t, "debug", p.Runtime.LogLevel)
	assert.Equal(t, 60.0, p.Runtime.MaxTickRate)
}

func TestParseProjectTOML(t *testing.T) {
	p, err := ParseProjectTOML([]byte(`
template = "runtime.wasm"
scenario = "game.yaml"

[runtime]
scan_budget = 1024
`))
	require.NoError(t, err)
	assert.Equal(t, "runtime.wasm", p.Template)
	assert.Equal(t, "game.yaml", p.Scenario)
	assert.Equal(t, uint64(1024), p.Runtime.ScanBudget)
}

func TestProjectErrors(t *testing.T) {
	_, err := ParseProjectYAML([]byte("templat: x\n"))
	assert.Error(t, err, "unknown yaml key")

	_, err = ParseProjectTOML([]byte("templat = \"x\"\n"))
	assert.ErrorContains(t, err, `unknown key "templat"`)

	_, err = ParseProjectYAML([]byte("runtime:\n  log_level: loud\n"))
	var cfgErr *domainerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Project.Runtime.LogLevel", cfgErr.Field)

	_, err = ParseProjectYAML([]byte("ticks: -1\n"))
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEmptyProject(t *testing.T) {
	p, err := ParseProjectYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, Project{}, *p)
}

func TestFindAndLoadProject(t *testing.T) {
	dir := t.TempDir()
	_, err := FindProject(dir)
	assert.ErrorIs(t, err, ErrNoProject)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lasr.toml"), []byte(`template = "rt.wasm"`), 0o600))
	path, err := FindProject(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lasr.toml"), path)

	p, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rt.wasm"), p.Resolve(p.Template))
	assert.Equal(t, "/abs.wasm", p.Resolve("/abs.wasm"))
	assert.Empty(t, p.Resolve(""))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lasr.yaml"), []byte("template: y.wasm\n"), 0o600))
	path, err = FindProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "lasr.yaml", filepath.Base(path))
}

const scenarioYAML = `
ticks: 3
timer:
  state: running
settings:
  splitOnBoss: false
processes:
  - name: game.exe
    modules:
      - name: game.exe
        base: 0x400000
        size: 0x1000
    regions:
      - base: 0x400000
        hex: "de ad be ef"
        flags: [read, execute]
      - base: 0x500000
        size: 16
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Ticks)
	assert.Equal(t, entities.TimerRunning, s.Timer.TimerState())
	assert.Equal(t, map[string]bool{"splitOnBoss": false}, s.Settings)
	require.Len(t, s.Processes, 1)

	p := s.Processes[0]
	assert.Equal(t, entities.Address(0x400000), p.Modules[0].Base)
	require.Len(t, p.Regions, 2)

	data, err := p.Regions[0].Bytes("")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)
	assert.Equal(t, entities.MemoryRead|entities.MemoryExecute, p.Regions[0].MemoryFlags())

	data, err = p.Regions[1].Bytes("")
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestScenarioRegionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mem.bin"), []byte{1, 2, 3}, 0o600))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
processes:
  - name: game.exe
    regions:
      - base: 4096
        file: mem.bin
`), 0o600))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	data, err := s.Processes[0].Regions[0].Bytes(s.Dir)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "processes:\n  - modules: []\n", "Name"},
		{"bad timer", "timer:\n  state: sprinting\n", "State"},
		{"bad flag", "processes:\n  - name: a\n    regions:\n      - base: 1\n        size: 1\n        flags: [fly]\n", "Flags"},
		{"no contents", "processes:\n  - name: a\n    regions:\n      - base: 1\n", "exactly one of"},
		{"two sources", "processes:\n  - name: a\n    regions:\n      - base: 1\n        size: 1\n        hex: '00'\n", "exactly one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	bad, err := ParseScenario([]byte("processes:\n  - name: a\n    regions:\n      - base: 1\n        hex: zz\n"))
	require.NoError(t, err)
	_, err = bad.Processes[0].Regions[0].Bytes("")
	assert.Error(t, err)
}

func TestGenerateSchema(t *testing.T) {
	for _, kind := range []string{SchemaProject, SchemaScenario} {
		t.Run(kind, func(t *testing.T) {
			out, err := GenerateSchema(kind)
			require.NoError(t, err)
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(out, &decoded))
			assert.Contains(t, decoded, "properties")
		})
	}

	out, err := GenerateSchema(SchemaScenario)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"processes"`)
	assert.NotContains(t, string(out), `"Dir"`)

	_, err = GenerateSchema("plugin")
	assert.ErrorContains(t, err, "unknown schema")
}
