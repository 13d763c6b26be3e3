package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/audio"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/config"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/logging"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/naming"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/planner"
)

// ErrAlreadyRunning is returned by Start while a run is in progress.
var ErrAlreadyRunning = errors.New("a conversion run is already in progress")

// Encoder converts one job. Implementations report every failure through
// the outcome; the context carries the per-job deadline, if any.
type Encoder interface {
	Convert(ctx context.Context, job planner.Job) planner.Outcome
}

// Classifier turns a discovered path into a SourceFile.
type Classifier interface {
	Classify(ctx context.Context, root, path string) audio.SourceFile
}

// Runner executes conversion batches, one at a time.
type Runner struct {
	enc  Encoder
	cls  Classifier
	sink Sink
	log  *logging.Logger

	cancel atomic.Bool

	mu      sync.Mutex
	running bool
	idle    chan struct{} // Closed when the active run has finished.
	state   State
	summary Summary
}

// NewRunner wires a runner. sink receives every event synchronously from
// the run's goroutine; a nil sink or logger discards output.
func NewRunner(enc Encoder, cls Classifier, sink Sink, log *logging.Logger) *Runner {
	if sink == nil {
		sink = Discard
	}
	if log == nil {
		log = logging.NewWriterLogger(io.Discard, false)
	}
	return &Runner{enc: enc, cls: cls, sink: sink, log: log, state: StateIdle}
}

// Run executes one batch and waits for it. Configuration errors are
// returned before the runner leaves its current state.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (Summary, error) {
	_, done, err := r.Start(ctx, cfg)
	if err != nil {
		return Summary{}, err
	}
	return <-done, nil
}

// Start validates cfg and launches a batch on its own goroutine. It returns
// the run id and a channel that delivers the final summary once. Cancelling
// ctx has the same effect as [Runner.Cancel].
func (r *Runner) Start(ctx context.Context, cfg *config.Config) (string, <-chan Summary, error) {
	c, err := prepare(cfg)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	if r.running || !isValidTransition(r.state, StateScanning) {
		r.mu.Unlock()
		return "", nil, ErrAlreadyRunning
	}
	id := uuid.NewString()
	r.running = true
	r.idle = make(chan struct{})
	idle := r.idle
	r.cancel.Store(false)
	r.state = StateScanning
	r.summary = Summary{RunID: id, State: StateScanning, StartedAt: time.Now()}
	sum := r.summary
	r.mu.Unlock()

	r.emit(Event{RunID: id, Type: EventTypeState, State: StateScanning})
	r.log.Debug("Run %s: scanning %s (%s, %s)", id, c.SourceDir, c.Mode, c.Traversal)

	done := make(chan Summary, 1)
	go func() {
		final := r.guard(ctx, c, sum)
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		close(idle)
		done <- final
		close(done)
	}()
	return id, done, nil
}

// Cancel asks the active run to stop before its next job. The job in flight
// finishes normally.
func (r *Runner) Cancel() {
	r.cancel.Store(true)
}

// Wait blocks until no run is in progress or ctx is done. It reports
// whether the runner is idle.
func (r *Runner) Wait(ctx context.Context) bool {
	r.mu.Lock()
	idle := r.idle
	r.mu.Unlock()
	if idle == nil {
		return true
	}
	select {
	case <-idle:
		return true
	case <-ctx.Done():
		return !r.Running()
	}
}

// State returns the runner's current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a copy of the current (or last) run's summary.
func (r *Runner) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// prepare validates a private copy of cfg and makes its paths absolute.
func prepare(cfg *config.Config) (*config.Config, error) {
	c := *cfg
	c.Bits = append([]int(nil), cfg.Bits...)
	if err := c.ValidateRun(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(c.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrSourceNotFound, err)
	}
	c.SourceDir = abs
	if c.OutputDir != "" {
		out, err := filepath.Abs(c.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("output directory: %w", err)
		}
		c.OutputDir = out
	}
	return &c, nil
}

// guard runs execute and turns a panic outside a job (a classifier or a
// sink, say) into a cancelled run instead of a crashed process.
func (r *Runner) guard(ctx context.Context, cfg *config.Config, sum Summary) (final Summary) {
	defer func() {
		if p := recover(); p != nil {
			final = r.abort(p, debug.Stack())
		}
	}()
	return r.execute(ctx, cfg, sum)
}

// abort ends a run that panicked. A run already in a terminal state keeps
// it; otherwise it becomes cancelled with the counters published so far.
func (r *Runner) abort(p any, stack []byte) Summary {
	r.mu.Lock()
	sum := r.summary
	if r.state.Terminal() {
		r.mu.Unlock()
		r.log.Error("Run %s: panic after finishing: %v", sum.RunID, p)
		return sum
	}
	sum.State = StateCancelled
	sum.Cancelled = true
	sum.FinishedAt = time.Now()
	r.state = StateCancelled
	r.summary = sum
	r.mu.Unlock()

	r.log.Debug("Run %s aborted: %v\n%s", sum.RunID, p, stack)

	r.safeEmit(Event{
		RunID:  sum.RunID,
		Type:   EventTypeNote,
		State:  StateCancelled,
		Note:   planner.NoteInternal,
		Detail: fmt.Sprintf("panic: %v", p),
	})
	final := sum
	r.safeEmit(Event{RunID: sum.RunID, Type: EventTypeSummary, State: StateCancelled, Summary: &final})
	return sum
}

func (r *Runner) execute(ctx context.Context, cfg *config.Config, sum Summary) Summary {
	jobs, filtered, stopped := r.scan(ctx, cfg, sum.RunID)
	sum.Total = len(jobs)
	sum.Filtered = filtered
	r.publish(sum)

	if stopped {
		sum.Cancelled = true
		return r.finish(sum, StateCancelled)
	}
	if len(jobs) == 0 {
		r.emit(Event{RunID: sum.RunID, Type: EventTypeInfo, Message: "no matching files found"})
		return r.finish(sum, StateCompleted)
	}

	sum.State = StateConverting
	r.transition(sum, StateConverting)

	for i, job := range jobs {
		if r.stopRequested(ctx) {
			sum.Cancelled = true
			break
		}

		start := time.Now()
		out := r.attempt(ctx, cfg, job)
		elapsed := time.Since(start)

		switch out.Kind {
		case planner.OutcomeSuccess:
			sum.Converted++
			if fi, err := os.Stat(out.Destination); err == nil {
				sum.OutputBytes += fi.Size()
			}
		case planner.OutcomeSkipped:
			sum.Skipped++
		default:
			sum.Errored++
		}
		r.publish(sum)

		r.emit(Event{
			RunID:       sum.RunID,
			Type:        EventTypeProgress,
			State:       StateConverting,
			Index:       i + 1,
			Total:       len(jobs),
			RelPath:     job.Source.RelPath,
			Target:      job.Spec.Target.String(),
			Destination: job.Destination,
			Outcome:     out.Kind,
			ErrorKind:   out.ErrorKind,
			Detail:      out.Message(),
			ElapsedMs:   elapsed.Milliseconds(),
		})
	}

	if sum.Cancelled {
		return r.finish(sum, StateCancelled)
	}
	return r.finish(sum, StateCompleted)
}

// scan discovers, classifies and plans. stopped is set when a cancellation
// arrived before every file was classified.
func (r *Runner) scan(ctx context.Context, cfg *config.Config, runID string) (jobs []planner.Job, filtered int, stopped bool) {
	paths, walkNotes := Discover(cfg.SourceDir, cfg.Traversal)
	for _, n := range walkNotes {
		filtered++
		r.note(runID, n)
	}

	targets := planner.Targets(cfg)
	claims := naming.NewClaimRegistry()
	for _, path := range paths {
		if r.stopRequested(ctx) {
			return jobs, filtered, true
		}
		sf := r.cls.Classify(ctx, cfg.SourceDir, path)
		planned, notes := planner.Plan(cfg, targets, &sf, claims)
		for _, n := range notes {
			r.note(runID, n)
		}
		if len(planned) == 0 {
			filtered++
			continue
		}
		r.log.Debug("Planned %s (%s): %d job(s)", sf.RelPath, sf.Format, len(planned))
		jobs = append(jobs, planned...)
	}
	return jobs, filtered, false
}

// attempt runs one job. The encoder never sees the caller's cancellation,
// only the per-job timeout, and a panic becomes an internal failure.
func (r *Runner) attempt(ctx context.Context, cfg *config.Config, job planner.Job) (out planner.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Debug("panic converting %s: %v\n%s", job.Source.RelPath, p, debug.Stack())
			out = planner.Failed(job.Destination, planner.ErrorInternal, fmt.Sprintf("panic: %v", p))
		}
	}()

	if !job.Spec.Overwrite {
		if _, err := os.Lstat(job.Destination); err == nil {
			return planner.Skipped(job.Destination, "destination exists")
		}
	}

	jctx := context.WithoutCancel(ctx)
	if cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(jctx, cfg.JobTimeout)
		defer cancel()
	}
	return r.enc.Convert(jctx, job)
}

func (r *Runner) stopRequested(ctx context.Context) bool {
	return r.cancel.Load() || ctx.Err() != nil
}

func (r *Runner) finish(sum Summary, to State) Summary {
	sum.State = to
	sum.FinishedAt = time.Now()
	r.transition(sum, to)
	final := sum
	r.emit(Event{RunID: sum.RunID, Type: EventTypeSummary, State: to, Summary: &final})
	return sum
}

// transition applies a state change and announces it. An edge outside the
// state machine is a bug in this package.
func (r *Runner) transition(sum Summary, to State) {
	r.mu.Lock()
	from := r.state
	if !isValidTransition(from, to) {
		r.mu.Unlock()
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", from, to))
	}
	r.state = to
	r.summary = sum
	r.mu.Unlock()

	r.emit(Event{RunID: sum.RunID, Type: EventTypeState, State: to})
}

func (r *Runner) publish(sum Summary) {
	r.mu.Lock()
	r.summary = sum
	r.mu.Unlock()
}

func (r *Runner) note(runID string, n planner.Note) {
	e := Event{
		RunID:   runID,
		Type:    EventTypeNote,
		State:   StateScanning,
		RelPath: n.RelPath,
		Note:    n.Kind,
		Detail:  n.Detail,
	}
	if n.Target.BitDepth != 0 {
		e.Target = n.Target.String()
	}
	r.emit(e)
}

// safeEmit delivers e, dropping it if the sink panics.
func (r *Runner) safeEmit(e Event) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Debug("sink panicked on %s event: %v", e.Type, p)
		}
	}()
	r.emit(e)
}

func (r *Runner) emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	r.sink.Emit(e)
}
