package report

import (
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/display"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/logging"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// Console logs run events through the leveled logger.
type Console struct {
	log *logging.Logger

	// Quiet suppresses per-job success lines and scan notes; failures and
	// the summary are always logged. Set while a progress bar is drawn.
	Quiet bool

	// Before, when set, runs ahead of every line written. The progress bar
	// uses it to clear itself.
	Before func()
}

// NewConsole returns a Console writing to log.
func NewConsole(log *logging.Logger) *Console {
	return &Console{log: log}
}

// Emit implements pipeline.Sink.
func (c *Console) Emit(e pipeline.Event) {
	switch e.Type {
	case pipeline.EventTypeState:
		if e.State == pipeline.StateConverting {
			c.prepare()
			c.log.Debug("Converting")
		}
	case pipeline.EventTypeInfo:
		c.prepare()
		c.log.Info("%s", e.Message)
	case pipeline.EventTypeNote:
		c.note(e)
	case pipeline.EventTypeProgress:
		c.progress(e)
	case pipeline.EventTypeSummary:
		if e.Summary != nil {
			c.prepare()
			c.summary(*e.Summary)
		}
	}
}

func (c *Console) prepare() {
	if c.Before != nil {
		c.Before()
	}
}

func (c *Console) note(e pipeline.Event) {
	switch e.Note {
	case planner.NoteWalkError:
		c.prepare()
		c.log.Warn("Cannot read %s: %s", e.RelPath, e.Detail)
		return
	case planner.NoteInternal:
		c.prepare()
		c.log.Error("Run stopped: %s", e.Detail)
		return
	}
	if c.Quiet {
		return
	}
	c.prepare()
	subject := e.RelPath
	if e.Target != "" {
		subject += " (" + e.Target + ")"
	}
	if e.Note == planner.NoteFiltered {
		c.log.Debug("Skip (%s): %s: %s", e.Note, subject, e.Detail)
		return
	}
	c.log.Skip("Skip (%s): %s: %s", e.Note, subject, e.Detail)
}

func (c *Console) progress(e pipeline.Event) {
	switch e.Outcome {
	case planner.OutcomeSuccess:
		if c.Quiet {
			return
		}
		c.prepare()
		c.log.Success("[%d/%d] %s -> %s", e.Index, e.Total, e.RelPath, e.Destination)
		if e.Detail != "" {
			c.log.Debug("  %s", e.Detail)
		}
	case planner.OutcomeSkipped:
		if c.Quiet {
			return
		}
		c.prepare()
		c.log.Skip("[%d/%d] %s (%s): %s", e.Index, e.Total, e.RelPath, e.Target, e.Detail)
	default:
		c.prepare()
		c.log.Error("[%d/%d] %s (%s): %s", e.Index, e.Total, e.RelPath, e.Target, e.Detail)
	}
}

func (c *Console) summary(s pipeline.Summary) {
	c.log.Info("Converted: %d | Skipped: %d | Errors: %d", s.Converted, s.Skipped, s.Errored)
	if s.Filtered > 0 {
		c.log.Info("  Excluded while scanning: %d", s.Filtered)
	}
	if s.Converted > 0 {
		c.log.Info("  Written: %s in %s", display.FormatBytes(s.OutputBytes), display.FormatElapsed(s.Elapsed()))
	}
	switch {
	case s.Cancelled:
		c.log.Warn("Cancelled: %d of %d jobs not attempted", s.Unattempted(), s.Total)
	case s.Errored > 0:
		c.log.Error("Finished with %d error(s)", s.Errored)
	case s.Total > 0:
		c.log.Success("All done")
	}
}
