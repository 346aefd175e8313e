package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CryZe/lasr-compiler/domain/entities"
)

// Scenario describes a simulated target host.
type Scenario struct {
	Processes []ProcessSpec `json:"processes,omitempty" yaml:"processes,omitempty" validate:"dive"`
	Timer     TimerSpec     `json:"timer,omitempty" yaml:"timer,omitempty"`

	// Settings are the stored user choices for boolean settings.
	Settings map[string]bool `json:"settings,omitempty" yaml:"settings,omitempty"`

	// Ticks is the number of ticks to run.
	Ticks int `json:"ticks,omitempty" yaml:"ticks,omitempty" validate:"omitempty,min=1"`

	Dir string `json:"-" yaml:"-"`
}

// ProcessSpec is one attachable process.
type ProcessSpec struct {
	Name    string            `json:"name" yaml:"name" validate:"required"`
	Modules []entities.Module `json:"modules,omitempty" yaml:"modules,omitempty" validate:"dive"`
	Regions []RegionSpec      `json:"regions,omitempty" yaml:"regions,omitempty" validate:"dive"`
}

// RegionSpec is a readable memory range. Its contents come from exactly
// one of Hex, File or Size (zero filled).
type RegionSpec struct {
	Base  entities.Address `json:"base" yaml:"base"`
	Hex   string           `json:"hex,omitempty" yaml:"hex,omitempty" jsonschema:"description=Contents as hex digits; whitespace is ignored"`
	File  string           `json:"file,omitempty" yaml:"file,omitempty" jsonschema:"description=Contents read from a file relative to the scenario"`
	Size  uint64           `json:"size,omitempty" yaml:"size,omitempty" jsonschema:"description=Zero filled size in bytes"`
	Flags []string         `json:"flags,omitempty" yaml:"flags,omitempty" validate:"dive,oneof=read write execute path"`
}

// TimerSpec is the initial timer.
type TimerSpec struct {
	State string `json:"state,omitempty" yaml:"state,omitempty" validate:"omitempty,oneof=not_running running paused ended"`
}

// TimerState maps the state name onto the timer phase.
func (t TimerSpec) TimerState() entities.TimerState {
	switch t.State {
	case "running":
		return entities.TimerRunning
	case "paused":
		return entities.TimerPaused
	case "ended":
		return entities.TimerEnded
	default:
		return entities.TimerNotRunning
	}
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := decodeYAML(data, &s); err != nil {
		return nil, err
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	for i, p := range s.Processes {
		for j, r := range p.Regions {
			if err := r.check(); err != nil {
				return nil, fmt.Errorf("processes[%d].regions[%d]: %w", i, j, err)
			}
		}
	}
	return &s, nil
}

func (r RegionSpec) check() error {
	n := 0
	if r.Hex != "" {
		n++
	}
	if r.File != "" {
		n++
	}
	if r.Size != 0 {
		n++
	}
	if n != 1 {
		return fmt.Errorf("region at %#x needs exactly one of hex, file or size", uint64(r.Base))
	}
	return nil
}

// Bytes returns the region contents. File paths resolve against dir.
func (r RegionSpec) Bytes(dir string) ([]byte, error) {
	switch {
	case r.Hex != "":
		b, err := hex.DecodeString(strings.Join(strings.Fields(r.Hex), ""))
		if err != nil {
			return nil, fmt.Errorf("region at %#x: %w", uint64(r.Base), err)
		}
		return b, nil
	case r.File != "":
		path := r.File
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		return os.ReadFile(path)
	default:
		return make([]byte, r.Size), nil
	}
}

// MemoryFlags folds the flag names into host memory flags.
func (r RegionSpec) MemoryFlags() uint64 {
	var flags uint64
	for _, f := range r.Flags {
		switch f {
		case "read":
			flags |= entities.MemoryRead
		case "write":
			flags |= entities.MemoryWrite
		case "execute":
			flags |= entities.MemoryExecute
		case "path":
			flags |= entities.MemoryPath
		}
	}
	return flags
}
