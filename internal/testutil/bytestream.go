package testutil

import "encoding/binary"

// ByteStream hands out values derived from fuzz input, one byte at a time.
//
// An exhausted stream yields zeros, so the same input always produces the
// same command stream and short inputs still produce valid output.
type ByteStream struct {
	data []byte
	pos  int
}

// NewByteStream wraps data. The slice is not copied.
func NewByteStream(data []byte) *ByteStream {
	return &ByteStream{data: data}
}

// HasMore reports whether unread bytes remain.
func (s *ByteStream) HasMore() bool {
	return s.pos < len(s.data)
}

// NextByte returns the next byte, or 0 once exhausted.
func (s *ByteStream) NextByte() byte {
	if s.pos >= len(s.data) {
		return 0
	}

	b := s.data[s.pos]
	s.pos++

	return b
}

// NextInt returns a value in [0, n). n <= 0 yields 0.
func (s *ByteStream) NextInt(n int) int {
	if n <= 0 {
		return 0
	}

	return int(s.NextByte()) % n
}

// NextBool consumes one byte.
func (s *ByteStream) NextBool() bool {
	return s.NextByte()&1 == 1
}

// NextPercent reports whether the next byte falls below rate percent.
func (s *ByteStream) NextPercent(rate int) bool {
	return s.NextInt(100) < rate
}

// NextUint16 consumes two bytes, little endian.
func (s *ByteStream) NextUint16() uint16 {
	return binary.LittleEndian.Uint16([]byte{s.NextByte(), s.NextByte()})
}

// NextKey returns a key in [1, maxKey]. Two bytes are consumed so key ranges
// beyond 256 are reachable.
func (s *ByteStream) NextKey(maxKey int) int {
	if maxKey <= 1 {
		_ = s.NextUint16()

		return 1
	}

	return 1 + int(s.NextUint16())%maxKey
}

// NextWord returns a lower-case ASCII word of length 1..maxLen.
func (s *ByteStream) NextWord(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	word := make([]byte, 1+s.NextInt(maxLen))
	for i := range word {
		word[i] = 'a' + s.NextByte()%26
	}

	return string(word)
}
