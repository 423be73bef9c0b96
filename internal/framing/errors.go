package framing

import "errors"

var (
	ErrZeroCapacity          = errors.New("framing: capacity must be positive")
	ErrZeroMaxMessages       = errors.New("framing: max messages must be positive")
	ErrEmptySequence         = errors.New("framing: empty exceptional sequence")
	ErrSequenceHasTerminator = errors.New("framing: exceptional sequence contains a terminator")
	ErrDuplicateSequence     = errors.New("framing: duplicate exceptional sequence")
	ErrSequenceTooLong       = errors.New("framing: exceptional sequence longer than capacity")
)
