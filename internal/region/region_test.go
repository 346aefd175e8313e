package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	script := []byte(`process("game.exe")`)
	buf, err := Encode(script, 64)
	require.NoError(t, err)
	assert.Len(t, buf, HeaderSize+64)

	h, err := ReadHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, Header{Capacity: 64, Length: uint32(len(script))}, h)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, script, got)
}

func TestEncodeEmptyAndFull(t *testing.T) {
	buf, err := Encode(nil, 8)
	require.NoError(t, err)
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Empty(t, got)

	full := []byte("12345678")
	buf, err = Encode(full, 8)
	require.NoError(t, err)
	got, err = Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, full, got)

	_, err = Encode([]byte("123456789"), 8)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte("short"))
	assert.ErrorIs(t, err, ErrTruncated)

	buf, err := Encode([]byte("abc"), 4)
	require.NoError(t, err)

	bad := append([]byte{}, buf...)
	bad[0] = 'X'
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrNoMagic)

	bad = append([]byte{}, buf...)
	bad[LengthOffset] = 9
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Decode(buf[:PayloadOffset+2])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestLocate(t *testing.T) {
	data := append([]byte("xx"), Magic...)
	data = append(data, "yy"...)
	data = append(data, Magic...)
	assert.Equal(t, []int{2, 2 + len(Magic) + 2}, Locate(data))
	assert.Empty(t, Locate([]byte("nothing here")))
}

func TestEncodeBody(t *testing.T) {
	assert.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c'}, EncodeBody([]byte("abc")))
}

func TestHasMagic(t *testing.T) {
	assert.True(t, HasMagic([]byte(Magic+"rest")))
	assert.False(t, HasMagic([]byte(Magic[:len(Magic)-1])))
	assert.False(t, HasMagic([]byte("LASR-SCRIPT-v2\xa5\x5a")))
}
