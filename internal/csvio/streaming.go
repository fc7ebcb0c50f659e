package csvio

// streaming.go provides readers that clean up user-provided files while
// streaming, without loading them into memory:
//
//   - SkipBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - NewUTF8Sanitizer replaces invalid UTF-8 bytes with '?'
//
// Use Sanitize to apply both in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader that drops a leading UTF-8 BOM if present.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes with '?'
// on the fly. Multi-byte sequences split across reads are held back until
// complete, so valid input passes through unchanged.
type UTF8Sanitizer struct {
	reader  io.Reader
	scratch [4096]byte
	pending []byte
	err     error

	// carry counts bytes of an already validated rune that were cut off by
	// a short p and still have to be emitted.
	carry int
}

// NewUTF8Sanitizer creates a streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{reader: r}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n := s.drain(p)
		if n > 0 {
			return n, nil
		}
		if s.err != nil {
			return 0, s.err
		}

		m, err := s.reader.Read(s.scratch[:])
		s.pending = append(s.pending, s.scratch[:m]...)
		if err != nil {
			s.err = err
		}
	}
}

// drain copies as many complete runes from pending into p as fit.
func (s *UTF8Sanitizer) drain(p []byte) int {
	n := 0
	for n < len(p) && len(s.pending) > 0 {
		if s.carry > 0 {
			k := copy(p[n:], s.pending[:min(s.carry, len(s.pending))])
			n += k
			s.carry -= k
			s.pending = s.pending[k:]
			continue
		}

		if s.pending[0] < utf8.RuneSelf {
			p[n] = s.pending[0]
			n++
			s.pending = s.pending[1:]
			continue
		}

		r, size := utf8.DecodeRune(s.pending)
		if r == utf8.RuneError && size == 1 {
			if !utf8.FullRune(s.pending) && s.err == nil {
				// Possibly the start of a sequence split across reads.
				break
			}
			p[n] = '?'
			n++
			s.pending = s.pending[1:]
			continue
		}

		if n+size > len(p) {
			if n > 0 {
				break
			}
			// p is narrower than the rune: emit what fits now.
			k := copy(p, s.pending[:size])
			n = k
			s.carry = size - k
			s.pending = s.pending[k:]
			break
		}
		copy(p[n:], s.pending[:size])
		n += size
		s.pending = s.pending[size:]
	}
	return n
}

// Sanitize wraps r with BOM skipping followed by UTF-8 sanitization.
// The BOM must be stripped first, before any byte-level processing.
func Sanitize(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(SkipBOM(r))
}
