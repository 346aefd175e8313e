package wasmbin

import "errors"

var (
	// ErrOverflow is returned when a LEB128 value does not fit its target width.
	ErrOverflow = errors.New("wasmbin: leb128 overflow")

	// ErrUnexpectedEOF is returned when an encoded value runs past the buffer.
	ErrUnexpectedEOF = errors.New("wasmbin: unexpected end of input")
)

// AppendUint32 appends v to dst as unsigned LEB128.
func AppendUint32(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
			continue
		}
		return append(dst, b)
	}
}

// AppendInt32 appends v to dst as signed LEB128.
func AppendInt32(dst []byte, v int32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// DecodeUint32 decodes an unsigned LEB128 value and returns it with the
// number of bytes consumed.
func DecodeUint32(buf []byte) (uint32, int, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ {
		if i >= len(buf) {
			return 0, 0, ErrUnexpectedEOF
		}
		b := buf[i]
		if i == 4 && b&0xf0 != 0 {
			return 0, 0, ErrOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrOverflow
}

// DecodeUint64 decodes an unsigned 64-bit LEB128 value.
func DecodeUint64(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < 10; i++ {
		if i >= len(buf) {
			return 0, 0, ErrUnexpectedEOF
		}
		b := buf[i]
		if i == 9 && b&0xfe != 0 {
			return 0, 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrOverflow
}

// DecodeInt32 decodes a signed LEB128 value.
func DecodeInt32(buf []byte) (int32, int, error) {
	var result int32
	var shift uint
	for i := 0; i < 5; i++ {
		if i >= len(buf) {
			return 0, 0, ErrUnexpectedEOF
		}
		b := buf[i]
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 32 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, ErrOverflow
}
