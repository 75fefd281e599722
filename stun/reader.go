package stun

// reader is a bounds-checked cursor over a received datagram.
type reader struct {
	b   []byte
	off int
}

func newReader(b []byte) *reader {
	return &reader{b: b}
}

func (r *reader) remaining() int {
	return len(r.b) - r.off
}

// next returns the following n bytes without copying them.
func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrTruncated
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	v, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return readU16(v), nil
}

// skipUpTo advances by n bytes or to the end of the buffer.
func (r *reader) skipUpTo(n int) {
	r.off += min(n, r.remaining())
}
