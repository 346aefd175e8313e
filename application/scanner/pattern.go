package scanner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPattern is returned for a pattern without tokens.
var ErrEmptyPattern = errors.New("signature is empty")

// Matcher tests one byte: b&Mask == Value. A zero mask matches anything.
type Matcher struct {
	Value byte
	Mask  byte
}

// Matches reports whether b satisfies m.
func (m Matcher) Matches(b byte) bool {
	return b&m.Mask == m.Value
}

// Pattern is an ordered list of byte matchers.
type Pattern []Matcher

// ParsePattern parses whitespace separated tokens such as "48 8B ?? 4? ?5".
// "?" and "??" are full wildcards; a "?" in either nibble position masks
// just that nibble.
func ParsePattern(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, ErrEmptyPattern
	}
	p := make(Pattern, 0, len(fields))
	for _, tok := range fields {
		m, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		p = append(p, m)
	}
	return p, nil
}

func parseToken(tok string) (Matcher, error) {
	if tok == "?" || tok == "??" {
		return Matcher{}, nil
	}
	if len(tok) != 2 {
		return Matcher{}, fmt.Errorf("signature token %q must be 2 hex chars or '?' wildcards", tok)
	}
	hi, hiMask, err := nibble(tok[0])
	if err != nil {
		return Matcher{}, err
	}
	lo, loMask, err := nibble(tok[1])
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{Value: hi<<4 | lo, Mask: hiMask<<4 | loMask}, nil
}

func nibble(c byte) (value, mask byte, err error) {
	switch {
	case c == '?':
		return 0, 0, nil
	case c >= '0' && c <= '9':
		return c - '0', 0xf, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, 0xf, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, 0xf, nil
	}
	return 0, 0, fmt.Errorf("signature contains non-hex character %q", c)
}

// MatchAt reports whether p matches the start of data.
func (p Pattern) MatchAt(data []byte) bool {
	if len(data) < len(p) {
		return false
	}
	for i, m := range p {
		if !m.Matches(data[i]) {
			return false
		}
	}
	return true
}

// Index returns the first offset in data where p matches, or -1.
func (p Pattern) Index(data []byte) int {
	for i := 0; i+len(p) <= len(data); i++ {
		if p.MatchAt(data[i:]) {
			return i
		}
	}
	return -1
}

func (p Pattern) String() string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i, m := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for _, shift := range []uint{4, 0} {
			if (m.Mask>>shift)&0xf == 0 {
				sb.WriteByte('?')
			} else {
				sb.WriteByte(hex[(m.Value>>shift)&0xf])
			}
		}
	}
	return sb.String()
}
