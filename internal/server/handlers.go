package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
)

// RunRequest overrides the server's defaults for one run. Absent fields
// keep the defaults.
type RunRequest struct {
	Source           string  `json:"source"`
	Output           *string `json:"output"`
	Mode             string  `json:"mode"`
	Traversal        string  `json:"traversal"`
	Bits             []int   `json:"bits"`
	TrimSilence      *bool   `json:"trimSilence"`
	SilenceThreshold string  `json:"silenceThreshold"`
	Overwrite        *bool   `json:"overwrite"`
	Timeout          string  `json:"timeout"`
}

// apply layers r over base.
func (r RunRequest) apply(base config.Config) (config.Config, error) {
	cfg := base
	if r.Source != "" {
		cfg.SourceDir = r.Source
	}
	if r.Output != nil {
		cfg.OutputDir = *r.Output
	}
	if r.Mode != "" {
		m, err := config.ParseMode(r.Mode)
		if err != nil {
			return cfg, err
		}
		if m != cfg.Mode {
			cfg.Traversal = ""
			cfg.Bits = nil
		}
		cfg.Mode = m
	}
	if r.Traversal != "" {
		cfg.Traversal = config.Traversal(r.Traversal)
	}
	if r.Bits != nil {
		cfg.Bits = r.Bits
	}
	if r.TrimSilence != nil {
		cfg.TrimSilence = *r.TrimSilence
	}
	if r.SilenceThreshold != "" {
		cfg.SilenceThreshold = r.SilenceThreshold
	}
	if r.Overwrite != nil {
		cfg.Overwrite = *r.Overwrite
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return cfg, errors.New("invalid timeout: " + r.Timeout)
		}
		cfg.JobTimeout = d
	}
	return cfg, nil
}

func (s *Server) startRun(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	cfg, err := req.apply(s.base)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, _, err := s.runner.Start(s.runCtx, &cfg)
	switch {
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.log.Info("Run %s started for %s", runID, cfg.SourceDir)
	c.JSON(http.StatusAccepted, gin.H{"runId": runID, "state": pipeline.StateScanning})
}

func (s *Server) cancelRun(c *gin.Context) {
	if !s.runner.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "no run in progress"})
		return
	}
	s.runner.Cancel()
	snap := s.runner.Snapshot()
	s.log.Warn("Run %s cancellation requested", snap.RunID)
	c.JSON(http.StatusAccepted, gin.H{"runId": snap.RunID, "state": s.runner.State()})
}

func (s *Server) currentRun(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":   s.runner.State(),
		"running": s.runner.Running(),
		"summary": s.runner.Snapshot(),
	})
}

// events returns the logged events after ?since=. The log is bounded: when
// the first returned Seq is not since+1, older events were evicted and the
// client should reconcile with /api/runs/current.
func (s *Server) events(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
		return
	}
	events := s.bus.Since(since)
	if events == nil {
		events = []pipeline.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "lastSeq": s.bus.LastSeq()})
}

// follow upgrades to a WebSocket that streams events of one run (?runId=)
// or of every run. The first message confirms the subscription. Delivery
// is in order but lossy: a client that falls behind is disconnected, and it
// should resume from /api/events and /api/runs/current.
func (s *Server) follow(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(s.hub, conn, c.Query("runId"))
	client.send <- pipeline.Event{
		Timestamp: time.Now().UTC(),
		RunID:     client.runID,
		Type:      pipeline.EventTypeInfo,
		State:     s.runner.State(),
		Message:   "subscribed",
	}
	if !s.hub.RegisterClient(client) {
		conn.Close()
		return
	}
	client.StartPumps()
}
