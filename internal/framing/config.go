package framing

import (
	"bytes"
	"fmt"
)

// Config is the construction-time framing configuration. It is copied on
// construction and immutable for the lifetime of a sink.
type Config struct {
	Capacity    int
	Terminators []byte
	Sequences   [][]byte
}

// DefaultTerminators returns NUL, CR and LF.
func DefaultTerminators() []byte {
	return []byte{0, '\r', '\n'}
}

// ExceptionalChars expands every byte of chars into a one-byte sequence.
func ExceptionalChars(chars string) [][]byte {
	out := make([][]byte, 0, len(chars))
	for i := 0; i < len(chars); i++ {
		out = append(out, []byte{chars[i]})
	}
	return out
}

// Validate reports the first contract violation in cfg.
func (cfg Config) Validate() error {
	if cfg.Capacity <= 0 {
		return ErrZeroCapacity
	}
	var terms [256]bool
	for _, t := range cfg.Terminators {
		terms[t] = true
	}
	for i, seq := range cfg.Sequences {
		if len(seq) == 0 {
			return fmt.Errorf("sequence[%d]: %w", i, ErrEmptySequence)
		}
		if len(seq) > cfg.Capacity {
			return fmt.Errorf("sequence[%d] len=%d capacity=%d: %w", i, len(seq), cfg.Capacity, ErrSequenceTooLong)
		}
		for _, b := range seq {
			if terms[b] {
				return fmt.Errorf("sequence[%d] byte=0x%02X: %w", i, b, ErrSequenceHasTerminator)
			}
		}
		for j := 0; j < i; j++ {
			if bytes.Equal(cfg.Sequences[j], seq) {
				return fmt.Errorf("sequence[%d] equals sequence[%d]: %w", i, j, ErrDuplicateSequence)
			}
		}
	}
	return nil
}

func (cfg Config) clone() Config {
	out := Config{
		Capacity:    cfg.Capacity,
		Terminators: append([]byte(nil), cfg.Terminators...),
		Sequences:   make([][]byte, len(cfg.Sequences)),
	}
	for i, seq := range cfg.Sequences {
		out.Sequences[i] = append([]byte(nil), seq...)
	}
	return out
}

type terminatorSet [256]bool

func newTerminatorSet(terms []byte) terminatorSet {
	var set terminatorSet
	for _, t := range terms {
		set[t] = true
	}
	return set
}

func (s *terminatorSet) has(b byte) bool {
	return s[b]
}
