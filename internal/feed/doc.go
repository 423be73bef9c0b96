// Package feed drives framers from byte sources.
//
// Ownership boundary:
// - Pump: one io.Reader into one framer, messages out to a Handler
// - Server: TCP accept loop, one stream per connection
// - per-session counters, logs and metrics
//
// A framer is owned by the goroutine running its pump. Handlers shared by a
// Server run concurrently, one call at a time per connection.
package feed
