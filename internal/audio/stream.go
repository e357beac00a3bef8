package audio

import "sync/atomic"

// byteStream feeds the device callback. It reports drained once a whole
// callback has been served after the data ran out, so the tail is heard.
type byteStream struct {
	data  []byte
	pos   int
	empty atomic.Bool
	done  atomic.Bool
}

func newByteStream(data []byte) *byteStream {
	return &byteStream{data: data}
}

func (s *byteStream) fill(out []byte) {
	if s.empty.Load() {
		clear(out)
		s.done.Store(true)
		return
	}
	n := copy(out, s.data[s.pos:])
	s.pos += n
	if n < len(out) {
		clear(out[n:])
	}
	if s.pos >= len(s.data) {
		s.empty.Store(true)
	}
}

func (s *byteStream) drained() bool {
	return s.done.Load()
}
