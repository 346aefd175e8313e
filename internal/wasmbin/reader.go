package wasmbin

import (
	"fmt"
	"unicode/utf8"
)

// reader walks a section payload.
type reader struct {
	buf []byte
	off int
}

func (r *reader) done() bool { return r.off >= len(r.buf) }

func (r *reader) byte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	v, n, err := DecodeUint32(r.buf[r.off:])
	if err != nil {
		return 0, fmt.Errorf("at offset %d: %w", r.off, err)
	}
	r.off += n
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	v, n, err := DecodeUint64(r.buf[r.off:])
	if err != nil {
		return 0, fmt.Errorf("at offset %d: %w", r.off, err)
	}
	r.off += n
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, n, err := DecodeInt32(r.buf[r.off:])
	if err != nil {
		return 0, fmt.Errorf("at offset %d: %w", r.off, err)
	}
	r.off += n
	return v, nil
}

func (r *reader) bytes(n uint32) ([]byte, error) {
	if uint64(r.off)+uint64(n) > uint64(len(r.buf)) {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

// vec reads a length-prefixed byte vector.
func (r *reader) vec() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.bytes(n)
}

func (r *reader) name() (string, error) {
	b, err := r.vec()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: name is not valid UTF-8", ErrMalformed)
	}
	return string(b), nil
}
