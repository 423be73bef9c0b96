// Package framing owns byte-at-a-time message framing.
//
// Ownership boundary:
// - linear sink with borrowed message views (Sink)
// - cyclic stream with a queue of completed messages (Stream)
// - left-anchored exceptional sequence matching shared by both
// - unanchored sequence finding (Finder)
//
// Nothing in this package is safe for concurrent use. A sink or stream is fed
// from exactly one context (an interrupt handler, a reader goroutine) and
// drained from one consumer.
package framing
