// Package server exposes the batch runner over HTTP: start and cancel runs,
// read the current summary, poll the event log, and follow events live over
// a WebSocket. Prometheus metrics are served on /metrics.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/logging"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/metrics"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
)

// Options wires a Server.
type Options struct {
	Runner  *pipeline.Runner
	Bus     *pipeline.EventBus
	Hub     *Hub
	Base    config.Config // Defaults for runs started over the API.
	Version string

	Metrics  *metrics.Metrics     // Optional HTTP request metrics.
	Gatherer prometheus.Gatherer // Served on /metrics. Nil uses the default registry.

	Log *logging.Logger

	ShutdownTimeout time.Duration // Default 10s.
}

// Server is the HTTP control surface.
type Server struct {
	runner  *pipeline.Runner
	bus     *pipeline.EventBus
	hub     *Hub
	base    config.Config
	version string
	metrics *metrics.Metrics
	log     *logging.Logger

	runCtx          context.Context
	shutdownTimeout time.Duration
	upgrader        websocket.Upgrader
	engine          *gin.Engine
}

// New builds the router. Runs started through it live as long as the
// context later passed to Run (or forever, when only Handler is used).
func New(opts Options) *Server {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if opts.Log == nil {
		opts.Log = logging.NewWriterLogger(io.Discard, false)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		runner:          opts.Runner,
		bus:             opts.Bus,
		hub:             opts.Hub,
		base:            opts.Base,
		version:         opts.Version,
		metrics:         opts.Metrics,
		log:             opts.Log,
		runCtx:          context.Background(),
		shutdownTimeout: opts.ShutdownTimeout,
		upgrader:        newUpgrader(opts.Base.CORSOrigins),
	}

	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    s.log.Writer("HTTP"),
		SkipPaths: []string{"/health", "/metrics"},
	}))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(opts.Base.CORSOrigins))
	if s.metrics != nil {
		r.Use(s.withMetrics())
	}

	metricsHandler := promhttp.Handler()
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/runs", s.startRun)
		api.POST("/runs/cancel", s.cancelRun)
		api.GET("/runs/current", s.currentRun)
		api.GET("/events", s.events)
		api.GET("/ws", s.follow)
	}

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then cancels any active run, shuts
// the listener down and waits for the run's last job to finish. Both are
// bounded by the shutdown timeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.runCtx = ctx
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("Control server listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.runner.Cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down control server")
	err := srv.Shutdown(shutdownCtx)

	if s.runner.Running() {
		s.log.Info("Waiting for the current file to finish")
	}
	if !s.runner.Wait(shutdownCtx) {
		s.log.Warn("Run %s still active after %s", s.runner.Snapshot().RunID, s.shutdownTimeout)
		if err == nil {
			err = shutdownCtx.Err()
		}
	}
	return err
}

// corsMiddleware allows the configured origins, or every origin when none
// are configured.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type"}
	return cors.New(cfg)
}

// withMetrics records every request's status and latency.
func (s *Server) withMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "wavconv",
		"version":   s.version,
		"timestamp": time.Now().Unix(),
	})
}
