package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/msgsink/internal/config"
	"github.com/danmuck/msgsink/internal/feed"
	"github.com/danmuck/msgsink/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const version = "0.1.0"

// StatsSource reports feed activity. *feed.Server implements it.
type StatsSource interface {
	Snapshot() []feed.SessionInfo
	Totals() feed.Totals
}

// Admin HTTP surface configuration.
type Config struct {
	ID          string
	Addr        string
	CORSOrigins []string
	// Profile returns the active framing profile; nil serves DefaultProfile.
	Profile func() config.Profile
	Stats   StatsSource
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// Admin serves health, stats and metrics for one sinkctl process.
type Admin struct {
	cfg      Config
	router   *gin.Engine
	appeared time.Time
}

func New(cfg Config) *Admin {
	if cfg.ID == "" {
		cfg.ID = "sinkctl"
	}
	if cfg.Profile == nil {
		cfg.Profile = config.DefaultProfile
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(cfg.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	a := &Admin{cfg: cfg, router: r, appeared: time.Now()}
	a.registerRoutes()
	return a
}

func (a *Admin) Handler() http.Handler {
	return a.router
}

func (a *Admin) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(a.appeared).String(),
			"service": a.cfg.ID,
			"version": version,
		})
	})

	a.router.GET("/profile", func(c *gin.Context) {
		p := a.cfg.Profile()
		c.JSON(http.StatusOK, gin.H{
			"name":              p.Name,
			"capacity":          p.Capacity,
			"max_messages":      p.MaxMessages,
			"terminators":       p.Terminators,
			"sequences":         p.Sequences,
			"exceptional_chars": p.ExceptionalChars,
		})
	})

	a.router.GET("/stats", func(c *gin.Context) {
		if a.cfg.Stats == nil {
			c.JSON(http.StatusOK, gin.H{
				"totals":   feed.Totals{},
				"sessions": []feed.SessionInfo{},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"totals":   a.cfg.Stats.Totals(),
			"sessions": a.cfg.Stats.Snapshot(),
		})
	})

	a.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.cfg.Gatherer, promhttp.HandlerOpts{})))
}

// Serve listens on cfg.Addr until ctx is done, then shuts down gracefully.
func (a *Admin) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.cfg.Logger.Info().Str("addr", a.cfg.Addr).Msg("admin.Serve listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
