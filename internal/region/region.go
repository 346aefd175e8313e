// Package region defines the reserved script region shared by the assembler
// and the runtime bootstrap.
//
// Layout, little endian:
//
//	0   magic   [16]byte  "LASR-SCRIPT-v1\xA5\x5A"
//	16  cap     uint32    payload capacity
//	20  len     uint32    script length, 0 when no script is embedded
//	24  payload [cap]byte
package region

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	magicHead = "LASR-SCRIPT-"
	magicTail = "v1\xa5\x5a"

	// Magic marks the start of the region. Code linked into the runtime
	// must use HasMagic so the binary holds no copy of Magic besides the
	// region itself.
	Magic = magicHead + magicTail

	// CapacityOffset, LengthOffset and PayloadOffset locate the header fields.
	CapacityOffset = 16
	LengthOffset   = 20
	PayloadOffset  = 24

	// HeaderSize is the number of bytes before the payload.
	HeaderSize = PayloadOffset

	// DefaultCapacity is the payload capacity of the shipped runtime.
	DefaultCapacity = 1 << 20
)

var (
	// ErrNoMagic is returned when a buffer does not start with Magic.
	ErrNoMagic = errors.New("region: missing magic")

	// ErrTruncated is returned when a buffer is shorter than the header or
	// the payload it declares.
	ErrTruncated = errors.New("region: truncated")

	// ErrTooLarge is returned when the script does not fit the capacity.
	ErrTooLarge = errors.New("region: script exceeds capacity")
)

// Header is the decoded fixed part of a region.
type Header struct {
	Capacity uint32
	Length   uint32
}

// ReadHeader decodes the header at the start of buf. Only the magic and the
// capacity are required; a missing length field reads as zero.
func ReadHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < CapacityOffset+4 {
		return h, ErrTruncated
	}
	if !HasMagic(buf) {
		return h, ErrNoMagic
	}
	h.Capacity = binary.LittleEndian.Uint32(buf[CapacityOffset:])
	if len(buf) >= LengthOffset+4 {
		h.Length = binary.LittleEndian.Uint32(buf[LengthOffset:])
	}
	return h, nil
}

// HasMagic reports whether buf starts with Magic.
func HasMagic(buf []byte) bool {
	return len(buf) >= len(magicHead)+len(magicTail) &&
		string(buf[:len(magicHead)]) == magicHead &&
		string(buf[len(magicHead):len(magicHead)+len(magicTail)]) == magicTail
}

// Encode returns a full region image of the given capacity holding script.
func Encode(script []byte, capacity uint32) ([]byte, error) {
	if uint64(len(script)) > uint64(capacity) {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(script), capacity)
	}
	buf := make([]byte, HeaderSize+int(capacity))
	copy(buf, Magic)
	binary.LittleEndian.PutUint32(buf[CapacityOffset:], capacity)
	copy(buf[LengthOffset:], EncodeBody(script))
	return buf, nil
}

// EncodeBody returns the length field followed by script; this is what the
// assembler writes at the region's LengthOffset.
func EncodeBody(script []byte) []byte {
	body := make([]byte, 4+len(script))
	binary.LittleEndian.PutUint32(body, uint32(len(script)))
	copy(body[4:], script)
	return body
}

// Decode returns the script stored in a region image. The result aliases buf.
func Decode(buf []byte) ([]byte, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.Length > h.Capacity {
		return nil, fmt.Errorf("%w: length %d > capacity %d", ErrTooLarge, h.Length, h.Capacity)
	}
	end := uint64(PayloadOffset) + uint64(h.Length)
	if end > uint64(len(buf)) {
		return nil, ErrTruncated
	}
	return buf[PayloadOffset:end], nil
}

// Locate returns the offsets of every magic occurrence in data.
func Locate(data []byte) []int {
	var out []int
	magic := []byte(Magic)
	for off := 0; ; {
		i := bytes.Index(data[off:], magic)
		if i < 0 {
			return out
		}
		out = append(out, off+i)
		off += i + 1
	}
}
