package feed

import "github.com/danmuck/msgsink/internal/framing"

// Framer turns pushed bytes into messages. *framing.Stream implements it.
type Framer interface {
	Push(b byte) bool
	PopMessage() ([]byte, framing.Boundary)
}

// SinkFramer adapts a linear *framing.Sink. A completed message is held until
// the next Pop or the next pushed byte, whichever comes first.
type SinkFramer struct {
	sink     *framing.Sink
	boundary framing.Boundary
}

func NewSinkFramer(s *framing.Sink) *SinkFramer {
	return &SinkFramer{sink: s}
}

func (f *SinkFramer) Push(b byte) bool {
	f.boundary = framing.None
	_, boundary := f.sink.Push(b)
	if boundary == framing.None {
		return false
	}
	f.boundary = boundary
	return true
}

func (f *SinkFramer) PopMessage() ([]byte, framing.Boundary) {
	if f.boundary == framing.None {
		return nil, framing.None
	}
	boundary := f.boundary
	f.boundary = framing.None
	return f.sink.Message(), boundary
}
