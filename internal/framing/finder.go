package framing

// Finder spots a fixed sequence anywhere in a byte stream fed one byte at a
// time. Unlike exceptional sequences it is not anchored to a message start.
//
// The cursor restarts on every mismatch and after every match, so overlapping
// occurrences are not reported: "ugauga" is found twice in "ugaugaugauga".
type Finder struct {
	seq []byte
	i   int
}

// NewFinder returns a Finder for seq. seq must not be empty.
func NewFinder(seq []byte) (*Finder, error) {
	if len(seq) == 0 {
		return nil, ErrEmptySequence
	}
	return &Finder{seq: append([]byte(nil), seq...)}, nil
}

// Found feeds b and reports whether it completes the sequence.
func (f *Finder) Found(b byte) bool {
	if b != f.seq[f.i] {
		f.i = 0
		return false
	}
	f.i++
	if f.i == len(f.seq) {
		f.i = 0
		return true
	}
	return false
}

func (f *Finder) Reset() {
	f.i = 0
}
