package wasmbin

import "fmt"

// Data segment modes.
const (
	DataActive         uint32 = 0
	DataPassive        uint32 = 1
	DataActiveExplicit uint32 = 2
)

const (
	opI32Const byte = 0x41
	opEnd      byte = 0x0b
)

// DataSegment is one entry of the data section.
type DataSegment struct {
	Init []byte
	// raw is the original encoding, reused when the segment is written back.
	raw  []byte
	expr []byte

	Mode   uint32
	Memory uint32
	// Offset is valid when OffsetKnown, i.e. the offset expression is a
	// single i32.const.
	Offset      uint32
	OffsetKnown bool
}

// NewActiveSegment returns an active segment on memory 0 at offset.
func NewActiveSegment(offset uint32, init []byte) DataSegment {
	return DataSegment{Mode: DataActive, Offset: offset, OffsetKnown: true, Init: init}
}

// Active reports whether the segment is copied into memory 0 at
// instantiation at a known offset.
func (d DataSegment) Active() bool {
	return d.Mode != DataPassive && d.Memory == 0 && d.OffsetKnown
}

// End returns the first address past the segment.
func (d DataSegment) End() uint64 {
	return uint64(d.Offset) + uint64(len(d.Init))
}

// ParseDataSection decodes a data section payload.
func ParseDataSection(payload []byte) ([]DataSegment, error) {
	r := &reader{buf: payload}
	count, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("%w: data count: %v", ErrMalformed, err)
	}
	segs := make([]DataSegment, 0, count)
	for i := uint32(0); i < count; i++ {
		start := r.off
		seg, err := readDataSegment(r)
		if err != nil {
			return nil, fmt.Errorf("%w: data segment %d: %v", ErrMalformed, i, err)
		}
		seg.raw = payload[start:r.off]
		segs = append(segs, seg)
	}
	if !r.done() {
		return nil, fmt.Errorf("%w: %d trailing bytes in data section", ErrMalformed, len(payload)-r.off)
	}
	return segs, nil
}

func readDataSegment(r *reader) (DataSegment, error) {
	var seg DataSegment
	mode, err := r.u32()
	if err != nil {
		return seg, err
	}
	seg.Mode = mode
	switch mode {
	case DataActive:
	case DataPassive:
		seg.Init, err = r.vec()
		return seg, err
	case DataActiveExplicit:
		if seg.Memory, err = r.u32(); err != nil {
			return seg, err
		}
	default:
		return seg, fmt.Errorf("unknown segment mode %d", mode)
	}
	exprStart := r.off
	if err := skipConstExpr(r); err != nil {
		return seg, err
	}
	seg.expr = r.buf[exprStart:r.off]
	if seg.expr[0] == opI32Const && len(seg.expr) >= 3 {
		if v, n, err := DecodeInt32(seg.expr[1:]); err == nil && n+2 == len(seg.expr) {
			seg.Offset = uint32(v)
			seg.OffsetKnown = true
		}
	}
	seg.Init, err = r.vec()
	return seg, err
}

// skipConstExpr advances past a constant expression. Only the opcodes legal
// in data offsets are understood.
func skipConstExpr(r *reader) error {
	for {
		op, err := r.byte()
		if err != nil {
			return err
		}
		switch op {
		case opEnd:
			return nil
		case opI32Const:
			_, err = r.i32()
		case 0x42: // i64.const
			_, err = r.u64()
		case 0x23: // global.get
			_, err = r.u32()
		case 0x6a, 0x6b, 0x6c, 0x7c, 0x7d, 0x7e: // extended const arithmetic
		default:
			return fmt.Errorf("unsupported opcode 0x%02x in offset expression", op)
		}
		if err != nil {
			return err
		}
	}
}

// AppendDataSegment encodes seg onto dst.
func AppendDataSegment(dst []byte, seg DataSegment) []byte {
	if seg.raw != nil {
		return append(dst, seg.raw...)
	}
	dst = AppendUint32(dst, seg.Mode)
	if seg.Mode == DataActiveExplicit {
		dst = AppendUint32(dst, seg.Memory)
	}
	if seg.Mode != DataPassive {
		if seg.expr != nil {
			dst = append(dst, seg.expr...)
		} else {
			dst = append(dst, opI32Const)
			dst = AppendInt32(dst, int32(seg.Offset))
			dst = append(dst, opEnd)
		}
	}
	dst = AppendUint32(dst, uint32(len(seg.Init)))
	return append(dst, seg.Init...)
}

// EncodeDataSection encodes segs as a data section payload.
func EncodeDataSection(segs []DataSegment) []byte {
	out := AppendUint32(nil, uint32(len(segs)))
	for _, s := range segs {
		out = AppendDataSegment(out, s)
	}
	return out
}
