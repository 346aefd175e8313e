package hosttest

import (
	"testing"

	"github.com/CryZe/lasr-compiler/config"
	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromScenario(t *testing.T) {
	s, err := config.ParseScenario([]byte(`
timer:
  state: paused
settings:
  auto: true
processes:
  - name: game.exe
    modules:
      - name: game.exe
        base: 0x1000
        size: 0x100
    regions:
      - base: 0x1000
        hex: "0102"
        flags: [read]
`))
	require.NoError(t, err)

	h, err := FromScenario(s)
	require.NoError(t, err)
	assert.Equal(t, entities.TimerPaused, h.TimerState())
	assert.True(t, h.AddBoolSetting("auto", "", false))

	pid, ok := h.Attach("game.exe")
	require.True(t, ok)
	base, ok := h.ModuleAddress(pid, "game.exe")
	require.True(t, ok)
	assert.Equal(t, entities.Address(0x1000), base)

	buf := make([]byte, 2)
	require.True(t, h.Read(pid, 0x1000, buf))
	assert.Equal(t, []byte{1, 2}, buf)

	r, ok := h.MemoryRange(pid, 0)
	require.True(t, ok)
	assert.Equal(t, entities.MemoryRead, r.Flags)
}
