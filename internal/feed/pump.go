package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/danmuck/msgsink/internal/framing"
	"github.com/danmuck/msgsink/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultChunkSize = 512

// Message is one framed message delivered to a Handler.
type Message struct {
	Session  string
	Seq      uint64
	Boundary framing.Boundary
	Data     []byte
	At       time.Time
}

// Handler consumes messages. A returned error stops the pump.
type Handler func(Message) error

// PumpConfig carries the optional parts of a Pump.
type PumpConfig struct {
	// Source labels logs and metrics, e.g. "stdin" or a remote address.
	Source    string
	ChunkSize int
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

// Pump reads a byte source, pushes every byte into its framer and hands each
// completed message to the handler.
type Pump struct {
	id      string
	cfg     PumpConfig
	r       io.Reader
	framer  Framer
	handler Handler
	now     func() time.Time

	bytes    atomic.Uint64
	messages atomic.Uint64
	evicted  uint64
}

func NewPump(r io.Reader, f Framer, h Handler, cfg PumpConfig) *Pump {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Source == "" {
		cfg.Source = "reader"
	}
	id := uuid.NewString()
	cfg.Logger = cfg.Logger.With().Str("session", id).Str("source", cfg.Source).Logger()
	return &Pump{
		id:      id,
		cfg:     cfg,
		r:       r,
		framer:  f,
		handler: h,
		now:     time.Now,
	}
}

func (p *Pump) ID() string { return p.id }

// Counters returns bytes read and messages delivered so far. It is safe to
// call while Run is active.
func (p *Pump) Counters() (bytes, messages uint64) {
	return p.bytes.Load(), p.messages.Load()
}

// Run pumps until the source reports EOF, ctx is done, or the source or the
// handler fails. EOF and cancellation return nil. A partial message left at
// EOF is not delivered.
//
// Reads happen on a separate goroutine so a Read blocked on a quiet source
// does not hold Run past cancellation. That goroutine exits once the
// pending Read returns.
func (p *Pump) Run(ctx context.Context) error {
	log := p.cfg.Logger
	log.Debug().Msg("feed.Pump.Run start")
	defer func() {
		bytes, messages := p.Counters()
		log.Debug().Uint64("bytes", bytes).Uint64("messages", messages).Msg("feed.Pump.Run stop")
	}()

	buf := make([]byte, p.cfg.ChunkSize)
	more := make(chan struct{})
	reads := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)
	go p.readLoop(buf, more, reads, stop)

	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case more <- struct{}{}:
		case <-ctx.Done():
			return nil
		}
		var res readResult
		select {
		case res = <-reads:
		case <-ctx.Done():
			return nil
		}
		// buf is ours until the next send on more.
		if res.n > 0 {
			if herr := p.push(buf[:res.n]); herr != nil {
				return herr
			}
		}
		if res.err != nil {
			if errors.Is(res.err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("feed: read %s: %w", p.cfg.Source, res.err)
		}
	}
}

type readResult struct {
	n   int
	err error
}

// readLoop performs one Read into buf per request on more.
func (p *Pump) readLoop(buf []byte, more <-chan struct{}, reads chan<- readResult, stop <-chan struct{}) {
	for {
		select {
		case <-more:
		case <-stop:
			return
		}
		n, err := p.r.Read(buf)
		select {
		case reads <- readResult{n: n, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

func (p *Pump) push(chunk []byte) error {
	p.bytes.Add(uint64(len(chunk)))
	if m := p.cfg.Metrics; m != nil {
		m.BytesTotal.WithLabelValues(p.cfg.Source).Add(float64(len(chunk)))
	}
	for _, b := range chunk {
		if !p.framer.Push(b) {
			continue
		}
		if err := p.drain(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pump) drain() error {
	p.recordEvictions()
	for {
		data, boundary := p.framer.PopMessage()
		if boundary == framing.None {
			return nil
		}
		msg := Message{
			Session:  p.id,
			Seq:      p.messages.Add(1),
			Boundary: boundary,
			Data:     data,
			At:       p.now(),
		}
		if m := p.cfg.Metrics; m != nil {
			m.MessagesTotal.WithLabelValues(p.cfg.Source, boundary.String()).Inc()
			m.MessageBytes.WithLabelValues(p.cfg.Source).Observe(float64(len(data)))
		}
		p.cfg.Logger.Trace().Uint64("seq", msg.Seq).Stringer("boundary", boundary).Int("len", len(data)).Msg("feed.Pump message")
		if err := p.handler(msg); err != nil {
			return fmt.Errorf("feed: handler seq=%d: %w", msg.Seq, err)
		}
	}
}

func (p *Pump) recordEvictions() {
	st, ok := p.framer.(interface{ Stats() framing.Stats })
	if !ok {
		return
	}
	evicted := st.Stats().Evicted
	if evicted == p.evicted {
		return
	}
	delta := evicted - p.evicted
	p.evicted = evicted
	p.cfg.Logger.Warn().Uint64("evicted", delta).Msg("feed.Pump queued messages evicted")
	if m := p.cfg.Metrics; m != nil {
		m.EvictedTotal.WithLabelValues(p.cfg.Source).Add(float64(delta))
	}
}
