// Package scanner searches process memory for byte signatures.
package scanner

import (
	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/domain/ports"
)

// Scanner runs bounded, chunked signature scans.
type Scanner struct {
	chunkSize int
	budget    uint64
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithChunkSize sets the read granularity.
func WithChunkSize(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithBudget caps the bytes one Scan may request from the reader.
func WithBudget(n uint64) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.budget = n
		}
	}
}

// New returns a Scanner with the runtime defaults.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		chunkSize: entities.DefaultScanChunkSize,
		budget:    entities.DefaultScanBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the absolute address of the first match of p inside regions,
// visiting regions in order. Only addresses inside regions are read. A failed
// read drops the bytes carried over from the previous chunk, so a match is
// never reported across an unreadable gap.
func (s *Scanner) Scan(r ports.MemoryReader, p Pattern, regions []entities.MemoryMap) (entities.Address, bool) {
	if len(p) == 0 {
		return 0, false
	}
	budget := s.budget
	chunk := make([]byte, s.chunkSize)
	window := make([]byte, 0, s.chunkSize+len(p)-1)

	for _, reg := range regions {
		window = window[:0]
		var windowBase entities.Address

		for off := uint64(0); off < reg.Size; {
			n := reg.Size - off
			if n > uint64(s.chunkSize) {
				n = uint64(s.chunkSize)
			}
			if n > budget {
				n = budget
			}
			if n == 0 {
				return 0, false
			}
			addr := reg.Base + entities.Address(off)
			off += n
			budget -= n

			if !r.ReadMemory(addr, chunk[:n]) {
				window = window[:0]
				continue
			}
			if len(window) == 0 {
				windowBase = addr
			}
			window = append(window, chunk[:n]...)
			if i := p.Index(window); i >= 0 {
				return windowBase + entities.Address(i), true
			}

			keep := len(p) - 1
			if keep > len(window) {
				keep = len(window)
			}
			drop := len(window) - keep
			windowBase += entities.Address(drop)
			window = window[:copy(window, window[drop:])]
		}
	}
	return 0, false
}
