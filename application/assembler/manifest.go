package assembler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ManifestSection is the custom section describing the embedded script.
const ManifestSection = "lasr.manifest"

// ManifestFormat is the manifest layout version.
const ManifestFormat = 1

// Manifest records what was embedded into an artifact.
type Manifest struct {
	Compiler      string `cbor:"2,keyasint" json:"compiler"`
	ScriptSHA256  string `cbor:"4,keyasint" json:"script_sha256"`
	Format        int    `cbor:"1,keyasint" json:"format"`
	ScriptLength  int    `cbor:"3,keyasint" json:"script_length"`
	Capacity      uint32 `cbor:"5,keyasint" json:"capacity"`
	RegionAddress uint32 `cbor:"6,keyasint" json:"region_address"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("assembler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

func newManifest(script []byte, compiler string, capacity, addr uint32) *Manifest {
	sum := sha256.Sum256(script)
	return &Manifest{
		Format:        ManifestFormat,
		Compiler:      compiler,
		ScriptLength:  len(script),
		ScriptSHA256:  hex.EncodeToString(sum[:]),
		Capacity:      capacity,
		RegionAddress: addr,
	}
}

// MarshalManifest serializes m as canonical CBOR.
func MarshalManifest(m *Manifest) ([]byte, error) {
	return cborEncMode.Marshal(m)
}

// UnmarshalManifest decodes a manifest section body.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("assembler: unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Verify checks that script matches the recorded length and digest.
func (m *Manifest) Verify(script []byte) error {
	if len(script) != m.ScriptLength {
		return fmt.Errorf("manifest records %d script bytes, region holds %d", m.ScriptLength, len(script))
	}
	sum := sha256.Sum256(script)
	if got := hex.EncodeToString(sum[:]); got != m.ScriptSHA256 {
		return fmt.Errorf("script digest %s does not match manifest %s", got, m.ScriptSHA256)
	}
	return nil
}
