// Package irq binds byte handlers to interrupt vectors.
//
// Hardware vector tables hold plain function pointers, so the object that
// handles a vector has to be reachable from a free function. Here that is an
// explicit registration: the handler is built once with process lifetime,
// enabled on its vector before interrupts are unmasked, and the vector entry
// point calls Fire. Default is the process-wide table; it is never torn down.
package irq

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/msgsink/internal/framing"
)

// Vector identifies one interrupt source, e.g. a USART receive line.
type Vector uint16

// Handler receives one byte from a vector.
type Handler func(b byte)

var (
	ErrAlreadyEnabled = errors.New("irq: vector already enabled")
	ErrNilHandler     = errors.New("irq: nil handler")
)

// Table maps vectors to handlers.
type Table struct {
	mu       sync.RWMutex
	handlers map[Vector]Handler
}

// Default is the process-wide vector table used by Enable and Fire.
var Default = NewTable()

func NewTable() *Table {
	return &Table{handlers: make(map[Vector]Handler)}
}

// Enable binds h to v. A vector is bound at most once.
func (t *Table) Enable(v Vector, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handlers[v]; ok {
		return fmt.Errorf("vector %d: %w", v, ErrAlreadyEnabled)
	}
	t.handlers[v] = h
	return nil
}

// Fire delivers b to the handler bound to v. It reports false when v has no
// handler.
func (t *Table) Fire(v Vector, b byte) bool {
	t.mu.RLock()
	h, ok := t.handlers[v]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	h(b)
	return true
}

func (t *Table) Enabled(v Vector) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.handlers[v]
	return ok
}

// EnableStream binds the Push of s to v. onMessage, when set, runs each time
// a pushed byte completes a message; it runs in the firing context and must
// stay short.
func (t *Table) EnableStream(v Vector, s *framing.Stream, onMessage func()) error {
	return t.Enable(v, func(b byte) {
		if s.Push(b) && onMessage != nil {
			onMessage()
		}
	})
}

func Enable(v Vector, h Handler) error { return Default.Enable(v, h) }

func Fire(v Vector, b byte) bool { return Default.Fire(v, b) }

func EnableStream(v Vector, s *framing.Stream, onMessage func()) error {
	return Default.EnableStream(v, s, onMessage)
}
