package framing

// Boundary reports why a message ended.
type Boundary uint8

const (
	// None means the pushed byte did not complete a message.
	None Boundary = iota
	Terminator
	Sequence
	Overflow
)

func (b Boundary) String() string {
	switch b {
	case None:
		return "none"
	case Terminator:
		return "terminator"
	case Sequence:
		return "sequence"
	case Overflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// State is the sink state machine position.
type State uint8

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	if s == Idle {
		return "idle"
	}
	return "accumulating"
}
