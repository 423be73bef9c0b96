package framing

import "fmt"

// DefaultMaxMessages is the end-offset queue depth used when StreamConfig
// leaves MaxMessages unset.
const DefaultMaxMessages = 16

// StreamConfig configures a Stream. Capacity bounds a single message.
// MaxMessages bounds how many completed messages wait for Pop.
type StreamConfig struct {
	Config
	MaxMessages int
}

// Stats counts stream activity since construction or Reset.
type Stats struct {
	Bytes      uint64
	Terminated uint64
	Sequenced  uint64
	Overflowed uint64
	Popped     uint64
	Evicted    uint64
}

// Completed is the number of messages that reached a boundary.
func (st Stats) Completed() uint64 {
	return st.Terminated + st.Sequenced + st.Overflowed
}

// Stream accepts single bytes and hands out whole messages. It is meant for
// byte-received interrupts: Push is bounded and never allocates, Pop is called
// later from the consumer and copies one message out.
//
// Bytes live in a cyclic buffer. Each completion records the end index of the
// message in a second cyclic queue; Pop dequeues the oldest end index and
// copies the span starting at the read index.
//
// A message holds at most Capacity bytes. A byte arriving while the pending
// message is full first completes that message with an Overflow boundary and
// then starts the next one. When MaxMessages messages are already waiting, a
// new completion evicts the oldest one.
type Stream struct {
	cfg   StreamConfig
	terms terminatorSet
	seqs  matchers

	data ring[byte]
	ends ring[mark]

	pending int
	last    Boundary
	stats   Stats
}

// NewStream validates cfg and allocates the stream storage. Terminators
// default to DefaultTerminators and MaxMessages to DefaultMaxMessages.
func NewStream(cfg StreamConfig) (*Stream, error) {
	if cfg.Terminators == nil {
		cfg.Terminators = DefaultTerminators()
	}
	if cfg.MaxMessages == 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.MaxMessages < 0 {
		return nil, fmt.Errorf("framing: new stream: %w", ErrZeroMaxMessages)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("framing: new stream: %w", err)
	}
	cfg.Config = cfg.Config.clone()
	return &Stream{
		cfg:   cfg,
		terms: newTerminatorSet(cfg.Terminators),
		seqs:  newMatchers(cfg.Sequences),
		// Room for every queued message plus the pending one, and one spare
		// slot so a span never covers the whole storage.
		data: newRing[byte](cfg.Capacity*(cfg.MaxMessages+1) + 1),
		ends: newRing[mark](cfg.MaxMessages),
	}, nil
}

// MustNewStream is NewStream for configurations fixed at build time.
func MustNewStream(cfg StreamConfig) *Stream {
	s, err := NewStream(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Push feeds one byte and reports whether at least one message was completed
// and queued.
func (s *Stream) Push(b byte) bool {
	s.stats.Bytes++
	if s.terms.has(b) {
		if s.pending == 0 {
			return false
		}
		s.enqueue(Terminator)
		return true
	}

	completed := false
	if s.pending == s.cfg.Capacity {
		s.enqueue(Overflow)
		completed = true
	}
	s.data.push(b)
	s.pending++
	if s.seqs.feed(b) {
		s.enqueue(Sequence)
		return true
	}
	return completed
}

// mark is one queued completion: the data index just past the message and
// the boundary that ended it.
type mark struct {
	end      int
	boundary Boundary
}

func (s *Stream) enqueue(reason Boundary) {
	if s.ends.full() {
		s.evictOldest()
	}
	s.ends.push(mark{end: s.data.head, boundary: reason})
	s.pending = 0
	s.seqs.reset()
	s.last = reason
	switch reason {
	case Terminator:
		s.stats.Terminated++
	case Sequence:
		s.stats.Sequenced++
	case Overflow:
		s.stats.Overflowed++
	}
}

func (s *Stream) evictOldest() {
	m, ok := s.ends.pop()
	if !ok {
		return
	}
	s.data.discard(spanLen(s.data.tail, m.end, s.data.size()))
	s.stats.Evicted++
}

// Pop removes the oldest completed message and returns it in a fresh slice.
// It returns nil when no message is waiting.
func (s *Stream) Pop() []byte {
	msg, _ := s.PopMessage()
	return msg
}

// PopMessage is Pop that also reports how the message ended. It returns
// (nil, None) when no message is waiting.
func (s *Stream) PopMessage() ([]byte, Boundary) {
	m, ok := s.ends.pop()
	if !ok {
		return nil, None
	}
	out := make([]byte, spanLen(s.data.tail, m.end, s.data.size()))
	s.data.popInto(out)
	s.stats.Popped++
	return out, m.boundary
}

// PopString is Pop for text protocols. It returns "" when no message is
// waiting.
func (s *Stream) PopString() string {
	return string(s.Pop())
}

// IsEmpty reports whether no completed message is waiting.
func (s *Stream) IsEmpty() bool {
	return s.ends.empty()
}

// Len is the number of completed messages waiting for Pop.
func (s *Stream) Len() int {
	return s.ends.len()
}

// Pending is the length of the message being accumulated.
func (s *Stream) Pending() int {
	return s.pending
}

// LastBoundary is the boundary of the most recent completion.
func (s *Stream) LastBoundary() Boundary {
	return s.last
}

// Clear drops the partial message. Completed messages stay queued.
func (s *Stream) Clear() {
	s.data.truncate(s.pending)
	s.pending = 0
	s.seqs.reset()
}

// Reset drops everything, including queued messages and stats.
func (s *Stream) Reset() {
	s.data.reset()
	s.ends.reset()
	s.pending = 0
	s.seqs.reset()
	s.last = None
	s.stats = Stats{}
}

func (s *Stream) State() State {
	if s.pending == 0 {
		return Idle
	}
	return Accumulating
}

func (s *Stream) Stats() Stats {
	return s.stats
}

func (s *Stream) Config() StreamConfig {
	cfg := s.cfg
	cfg.Config = s.cfg.Config.clone()
	return cfg
}
