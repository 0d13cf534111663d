package classfile

import (
	"encoding/binary"
)

// reader is a big-endian cursor over an in-memory byte slice. The first
// failure sticks: later reads return zero values and leave err untouched.
type reader struct {
	buf  []byte
	pos  int
	base int // offset of buf[0] within the enclosing class file
	err  error
}

func newReader(buf []byte, base int) *reader {
	return &reader{buf: buf, base: base}
}

// offset is the absolute position of the next byte.
func (r *reader) offset() int {
	return r.base + r.pos
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = corruptf(r.offset(), "truncated input: need %d bytes, have %d", n, r.remaining())
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) readU1() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readU2() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) readU4() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) readI4() int32 {
	return int32(r.readU4())
}

// readBytes returns a copy so decoded structures never alias the input.
func (r *reader) readBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// sub carves the next n bytes off as an independent reader that keeps
// absolute offsets.
func (r *reader) sub(n int) *reader {
	start := r.offset()
	b := r.take(n)
	if r.err != nil {
		return &reader{base: start, err: r.err}
	}
	return newReader(b, start)
}
