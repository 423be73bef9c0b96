package framing

// sequenceMatcher tracks one exceptional sequence against the current message.
// It can only match when aligned to the first byte of the message; after the
// first mismatch it stays inactive until reset.
type sequenceMatcher struct {
	pattern []byte
	cursor  int
	active  bool
}

func (m *sequenceMatcher) reset() {
	m.cursor = 0
	m.active = true
}

// advance feeds b and reports whether the sequence is now fully matched.
func (m *sequenceMatcher) advance(b byte) bool {
	if !m.active {
		return false
	}
	if m.pattern[m.cursor] != b {
		m.active = false
		return false
	}
	m.cursor++
	if m.cursor == len(m.pattern) {
		m.active = false
		return true
	}
	return false
}

// matchers is the ordered matcher collection of one sink. searching goes false
// once no matcher can still succeed for the current message.
type matchers struct {
	set       []sequenceMatcher
	searching bool
}

func newMatchers(seqs [][]byte) matchers {
	ms := matchers{set: make([]sequenceMatcher, len(seqs))}
	for i, seq := range seqs {
		ms.set[i] = sequenceMatcher{pattern: seq}
	}
	ms.reset()
	return ms
}

func (ms *matchers) reset() {
	for i := range ms.set {
		ms.set[i].reset()
	}
	ms.searching = len(ms.set) > 0
}

// feed advances every viable matcher with b. It returns true when one of them
// completes. Sequences are distinct, so at most one can complete per byte
// unless one is a prefix of another, in which case the shorter one wins.
func (ms *matchers) feed(b byte) bool {
	if !ms.searching {
		return false
	}
	viable := false
	for i := range ms.set {
		if ms.set[i].advance(b) {
			return true
		}
		if ms.set[i].active {
			viable = true
		}
	}
	ms.searching = viable
	return false
}
