package assembler

import (
	"errors"
	"fmt"

	"github.com/CryZe/lasr-compiler/internal/region"
	"github.com/CryZe/lasr-compiler/internal/wasmbin"
)

// ErrNoScript is returned by Extract for a template that was never
// assembled. An assembled empty script extracts as empty.
var ErrNoScript = errors.New("artifact has no embedded script")

// Report describes an artifact.
type Report struct {
	Manifest      *Manifest        `json:"manifest,omitempty"`
	Imports       []wasmbin.Import `json:"imports"`
	Exports       []wasmbin.Export `json:"exports"`
	RegionAddress uint32           `json:"region_address"`
	Capacity      uint32           `json:"capacity"`
	ScriptLength  int              `json:"script_length"`
}

// Extract returns the script embedded in artifact. The data segments are
// applied over the region in order, the same way instantiation fills
// linear memory.
func Extract(artifact []byte) ([]byte, error) {
	m, err := wasmbin.Parse(artifact)
	if err != nil {
		return nil, corrupt(err)
	}
	script, _, err := extract(m)
	if err != nil {
		return nil, err
	}
	if len(script) == 0 && m.CustomIndex(ManifestSection) < 0 {
		return nil, ErrNoScript
	}
	return script, nil
}

func extract(m *wasmbin.Module) ([]byte, location, error) {
	segs, err := m.DataSegments()
	if err != nil {
		return nil, location{}, corrupt(err)
	}
	loc, err := locate(segs)
	if err != nil {
		return nil, location{}, corrupt(err)
	}

	start := uint64(loc.addr)
	end := start + region.HeaderSize + uint64(loc.header.Capacity)
	image := overlay(segs, start, end)

	script, err := region.Decode(image)
	if err != nil {
		return nil, loc, corrupt(err)
	}
	return script, loc, nil
}

// Inspect reports the region, manifest and module surface of artifact. It
// also accepts a bare template.
func Inspect(artifact []byte) (*Report, error) {
	m, err := wasmbin.Parse(artifact)
	if err != nil {
		return nil, corrupt(err)
	}
	script, loc, err := extract(m)
	if err != nil {
		return nil, err
	}
	r := &Report{
		RegionAddress: loc.addr,
		Capacity:      loc.header.Capacity,
		ScriptLength:  len(script),
	}
	if r.Imports, err = m.Imports(); err != nil {
		return nil, corrupt(err)
	}
	if r.Exports, err = m.Exports(); err != nil {
		return nil, corrupt(err)
	}
	if i := m.CustomIndex(ManifestSection); i >= 0 {
		_, body, err := m.Sections[i].CustomName()
		if err != nil {
			return nil, corrupt(err)
		}
		if r.Manifest, err = UnmarshalManifest(body); err != nil {
			return nil, corrupt(err)
		}
		if err := r.Manifest.Verify(script); err != nil {
			return nil, corrupt(fmt.Errorf("manifest: %w", err))
		}
	}
	return r, nil
}
