package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danmuck/msgsink/internal/admin"
	"github.com/danmuck/msgsink/internal/config"
	"github.com/danmuck/msgsink/internal/feed"
	"github.com/danmuck/msgsink/internal/framing"
	"github.com/danmuck/msgsink/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := observability.InitLogger("sinkctl")
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "sinkctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("sinkctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "sinkctl config file (toml)")
	profilePath := fs.String("profile", "", "framing profile (toml or yaml)")
	input := fs.String("input", "", "input file, - for stdin")
	listen := fs.String("listen", "", "tcp listen address; overrides -input")
	adminAddr := fs.String("admin", "", "admin http listen address")
	format := fs.String("format", "", "output format: quoted|hex|raw")
	watch := fs.Bool("watch", false, "reload the profile for new connections when it changes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultRunConfig()
	if *configPath != "" {
		loaded, err := loadRunConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "profile":
			cfg.ProfilePath = *profilePath
		case "input":
			cfg.Input = *input
		case "listen":
			cfg.Listen = *listen
		case "admin":
			cfg.AdminAddr = *adminAddr
		case "format":
			cfg.Format = *format
		case "watch":
			cfg.Watch = *watch
		}
	})
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := cfg.validateMode(); err != nil {
		return err
	}

	profile := config.DefaultProfile()
	if cfg.ProfilePath != "" {
		p, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return err
		}
		profile = p
	}
	streamCfg, err := profile.StreamConfig()
	if err != nil {
		return err
	}
	logger.Info().
		Str("profile", profile.Name).
		Int("capacity", streamCfg.Capacity).
		Int("max_messages", streamCfg.MaxMessages).
		Msg("sinkctl.run profile loaded")

	var active atomic.Pointer[config.Profile]
	active.Store(&profile)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	out := &printer{w: stdout, format: cfg.Format, sessions: cfg.Listen != ""}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var stats admin.StatsSource
	if cfg.Listen != "" {
		srv, err := feed.NewServer(feed.ServerConfig{
			Stream:      streamCfg,
			ReadTimeout: cfg.ReadTimeout,
			ChunkSize:   cfg.ReadChunk,
			Metrics:     metrics,
			Logger:      logger,
		}, out.handle)
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Listen, err)
		}
		stats = srv
		g.Go(func() error {
			return srv.Serve(gctx, ln)
		})
		if cfg.ProfilePath != "" && cfg.Watch {
			g.Go(func() error {
				return config.WatchProfile(gctx, cfg.ProfilePath, logger, func(p config.Profile) {
					next, err := p.StreamConfig()
					if err == nil {
						err = srv.SetStream(next)
					}
					if err != nil {
						logger.Warn().Err(err).Msg("sinkctl.run profile reload rejected")
						return
					}
					active.Store(&p)
				})
			})
		}
	} else {
		r, source, closeInput, err := openInput(cfg.Input, stdin)
		if err != nil {
			return err
		}
		defer closeInput()
		stream, err := framing.NewStream(streamCfg)
		if err != nil {
			return err
		}
		pump := feed.NewPump(r, stream, out.handle, feed.PumpConfig{
			Source:    source,
			ChunkSize: cfg.ReadChunk,
			Metrics:   metrics,
			Logger:    logger,
		})
		stats = &pumpStats{pump: pump, started: time.Now()}
		g.Go(func() error {
			// Input exhaustion ends the run, admin included.
			defer cancel()
			return pump.Run(gctx)
		})
	}

	if cfg.AdminAddr != "" {
		a := admin.New(admin.Config{
			ID:          "sinkctl",
			Addr:        cfg.AdminAddr,
			CORSOrigins: cfg.CORSOrigins,
			Profile:     func() config.Profile { return *active.Load() },
			Stats:       stats,
			Gatherer:    prometheus.Gatherers{reg, prometheus.DefaultGatherer},
			Logger:      logger,
		})
		g.Go(func() error {
			return a.Serve(gctx)
		})
	}
	return g.Wait()
}

func openInput(path string, stdin io.Reader) (io.Reader, string, func(), error) {
	if path == "" || path == "-" {
		return stdin, "stdin", func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open input: %w", err)
	}
	return f, "file", func() { _ = f.Close() }, nil
}

// pumpStats exposes a single stdin or file pump to the admin surface.
type pumpStats struct {
	pump    *feed.Pump
	started time.Time
}

func (s *pumpStats) Snapshot() []feed.SessionInfo {
	bytes, messages := s.pump.Counters()
	return []feed.SessionInfo{{
		ID:        s.pump.ID(),
		Remote:    "local",
		StartedAt: s.started,
		Bytes:     bytes,
		Messages:  messages,
	}}
}

func (s *pumpStats) Totals() feed.Totals {
	bytes, messages := s.pump.Counters()
	return feed.Totals{Sessions: 1, Bytes: bytes, Messages: messages}
}
