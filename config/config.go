// Package config loads the lasr project file and run scenarios.
//
// A project file (lasr.yaml, lasr.yml or lasr.toml) supplies defaults for
// the command line. A scenario describes the fake target host `lasr run`
// executes an artifact against.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/CryZe/lasr-compiler/domain/entities"
	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProjectFiles are the project file names looked up, in order.
var ProjectFiles = []string{"lasr.yaml", "lasr.yml", "lasr.toml"}

// ErrNoProject is returned by FindProject when dir holds no project file.
var ErrNoProject = errors.New("no project file")

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// Project holds command line defaults.
type Project struct {
	// Template is the runtime template compile embeds scripts into.
	Template string `json:"template,omitempty" yaml:"template,omitempty" toml:"template" jsonschema:"description=Path of the runtime template module"`

	// MaxScriptSize overrides the template's region capacity when smaller.
	MaxScriptSize uint32 `json:"max_script_size,omitempty" yaml:"max_script_size,omitempty" toml:"max_script_size"`

	// Scenario is the default scenario file for run.
	Scenario string `json:"scenario,omitempty" yaml:"scenario,omitempty" toml:"scenario"`

	// Ticks is the default number of ticks run executes.
	Ticks int `json:"ticks,omitempty" yaml:"ticks,omitempty" toml:"ticks" validate:"omitempty,min=1"`

	Runtime entities.Config `json:"runtime,omitempty" yaml:"runtime,omitempty" toml:"runtime"`

	// Dir is the directory the project file was loaded from. Relative
	// paths resolve against it.
	Dir string `json:"-" yaml:"-" toml:"-"`
}

// Resolve returns path relative to the project directory.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.Dir == "" {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// FindProject returns the first project file in dir.
func FindProject(dir string) (string, error) {
	for _, name := range ProjectFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoProject, dir)
}

// LoadProject reads and validates a project file. The format follows the
// file extension.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p *Project
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		p, err = ParseProjectTOML(data)
	} else {
		p, err = ParseProjectYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Dir = filepath.Dir(path)
	return p, nil
}

// ParseProjectYAML decodes a YAML project file. Unknown keys are rejected.
func ParseProjectYAML(data []byte) (*Project, error) {
	var p Project
	if err := decodeYAML(data, &p); err != nil {
		return nil, err
	}
	return &p, Validate(&p)
}

// ParseProjectTOML decodes a TOML project file. Unknown keys are rejected.
func ParseProjectTOML(data []byte) (*Project, error) {
	var p Project
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return &p, Validate(&p)
}

func decodeYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate runs the struct tag validations on v. The first failing field
// is reported as a ConfigError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return &domainerrors.ConfigError{
			Field: f.Namespace(),
			Err:   fmt.Errorf("failed %q check", f.Tag()),
		}
	}
	return &domainerrors.ConfigError{Err: err}
}
