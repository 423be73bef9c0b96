package feed

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/msgsink/internal/framing"
	"github.com/danmuck/msgsink/internal/observability"
	"github.com/rs/zerolog"
)

// Feed server configuration.
type ServerConfig struct {
	Stream      framing.StreamConfig
	ReadTimeout time.Duration
	ChunkSize   int
	Metrics     *observability.Metrics
	Logger      zerolog.Logger
}

// SessionInfo is a point-in-time view of one connection.
type SessionInfo struct {
	ID        string    `json:"id"`
	Remote    string    `json:"remote"`
	StartedAt time.Time `json:"started_at"`
	Bytes     uint64    `json:"bytes"`
	Messages  uint64    `json:"messages"`
}

// Totals summarize every session the server has run, live or finished.
type Totals struct {
	Sessions uint64 `json:"sessions"`
	Bytes    uint64 `json:"bytes"`
	Messages uint64 `json:"messages"`
}

type session struct {
	pump    *Pump
	conn    net.Conn
	remote  string
	started time.Time
}

// Server accepts TCP connections and frames each one with its own stream.
type Server struct {
	cfg     ServerConfig
	handler Handler

	mu       sync.Mutex
	stream   framing.StreamConfig
	sessions map[string]*session

	total    atomic.Uint64
	bytes    atomic.Uint64
	messages atomic.Uint64
}

// NewServer validates the stream configuration once so per-connection
// construction cannot fail.
func NewServer(cfg ServerConfig, h Handler) (*Server, error) {
	if _, err := framing.NewStream(cfg.Stream); err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		handler:  h,
		stream:   cfg.Stream,
		sessions: make(map[string]*session),
	}, nil
}

// SetStream replaces the stream configuration used for connections accepted
// from now on. Live sessions keep the stream they started with.
func (s *Server) SetStream(cfg framing.StreamConfig) error {
	if _, err := framing.NewStream(cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.stream = cfg
	s.mu.Unlock()
	return nil
}

// Feed accept loop on an existing listener. Cancelling ctx closes the
// listener and every live connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAll()
		_ = ln.Close()
	}()

	s.cfg.Logger.Info().Str("addr", ln.Addr().String()).Msg("feed.Server.Serve listening")
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.closeAll()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.mu.Lock()
	stream := framing.MustNewStream(s.stream)
	s.mu.Unlock()

	var r deadlineReader
	r.conn = conn
	r.timeout = s.cfg.ReadTimeout
	pump := NewPump(&r, stream, s.handler, PumpConfig{
		Source:    "tcp",
		ChunkSize: s.cfg.ChunkSize,
		Metrics:   s.cfg.Metrics,
		Logger:    s.cfg.Logger.With().Str("remote", remote).Logger(),
	})
	s.track(pump.ID(), &session{pump: pump, conn: conn, remote: remote, started: time.Now()})

	log := s.cfg.Logger.With().Str("session", pump.ID()).Str("remote", remote).Logger()
	log.Info().Msg("feed.session client connected")
	err := pump.Run(ctx)
	s.untrack(pump.ID())
	bytes, messages := pump.Counters()
	s.bytes.Add(bytes)
	s.messages.Add(messages)
	if err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
		log.Warn().Err(err).Msg("feed.handleConn pump failed")
	}
	log.Info().Uint64("bytes", bytes).Uint64("messages", messages).Msg("feed.session client disconnected")
}

func (s *Server) track(id string, sess *session) {
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.total.Add(1)
	if m := s.cfg.Metrics; m != nil {
		m.SessionsActive.Inc()
	}
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if m := s.cfg.Metrics; m != nil {
		m.SessionsActive.Dec()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		_ = sess.conn.Close()
	}
}

// Snapshot returns the live sessions ordered by start time.
func (s *Server) Snapshot() []SessionInfo {
	s.mu.Lock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for id, sess := range s.sessions {
		bytes, messages := sess.pump.Counters()
		out = append(out, SessionInfo{
			ID:        id,
			Remote:    sess.remote,
			StartedAt: sess.started,
			Bytes:     bytes,
			Messages:  messages,
		})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Totals counts finished sessions fully and live sessions up to now.
func (s *Server) Totals() Totals {
	t := Totals{
		Sessions: s.total.Load(),
		Bytes:    s.bytes.Load(),
		Messages: s.messages.Load(),
	}
	for _, info := range s.Snapshot() {
		t.Bytes += info.Bytes
		t.Messages += info.Messages
	}
	return t
}

// deadlineReader arms a read deadline before every read when timeout is set.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	}
	return r.conn.Read(p)
}
