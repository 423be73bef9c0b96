package framing

import "fmt"

// Sink is a fixed-capacity linear byte sink. Bytes are pushed one at a time and
// Push reports when they form a complete message.
//
// A message ends when:
// - a terminator arrives (the terminator is not part of the message),
// - the message so far equals one of the exceptional sequences,
// - the buffer becomes full.
//
// Terminators arriving on an empty message are ignored, so CR LF pairs and
// repeated terminators never produce empty messages.
type Sink struct {
	cfg   Config
	terms terminatorSet
	seqs  matchers

	buf  []byte
	n    int
	last int
}

// NewSink validates cfg and allocates the sink buffer.
func NewSink(cfg Config) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("framing: new sink: %w", err)
	}
	cfg = cfg.clone()
	return &Sink{
		cfg:   cfg,
		terms: newTerminatorSet(cfg.Terminators),
		seqs:  newMatchers(cfg.Sequences),
		buf:   make([]byte, cfg.Capacity),
	}, nil
}

// MustNewSink is NewSink for configurations fixed at build time.
func MustNewSink(cfg Config) *Sink {
	s, err := NewSink(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Push feeds one byte. When the returned Boundary is not None the returned
// slice holds the completed message. It aliases the sink buffer and is only
// valid until the next Push or Clear.
func (s *Sink) Push(b byte) ([]byte, Boundary) {
	if s.terms.has(b) {
		if s.n == 0 {
			return nil, None
		}
		return s.complete(Terminator)
	}

	s.last = 0
	s.buf[s.n] = b
	s.n++
	if s.seqs.feed(b) {
		return s.complete(Sequence)
	}
	if s.n == len(s.buf) {
		return s.complete(Overflow)
	}
	return nil, None
}

func (s *Sink) complete(reason Boundary) ([]byte, Boundary) {
	end := s.n
	s.last = end
	s.n = 0
	s.seqs.reset()
	return s.buf[:end], reason
}

// Message returns an owned copy of the most recently completed message. It is
// empty once the next message has started and after Clear.
func (s *Sink) Message() []byte {
	out := make([]byte, s.last)
	copy(out, s.buf[:s.last])
	return out
}

// Pending returns the bytes accumulated since the last boundary. The slice is
// borrowed like the one returned by Push.
func (s *Sink) Pending() []byte {
	return s.buf[:s.n]
}

// Clear drops the partial message and returns the sink to Idle.
func (s *Sink) Clear() {
	s.n = 0
	s.last = 0
	s.seqs.reset()
}

func (s *Sink) Len() int { return s.n }

func (s *Sink) Cap() int { return len(s.buf) }

func (s *Sink) State() State {
	if s.n == 0 {
		return Idle
	}
	return Accumulating
}

// Config returns a copy of the sink configuration.
func (s *Sink) Config() Config {
	return s.cfg.clone()
}
