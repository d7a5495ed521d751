package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	DefaultRestartDelay = 5 * time.Second
	DefaultStopGrace    = 5 * time.Second
)

// ErrStopped is returned by Start after Stop has been called.
var ErrStopped = errors.New("worker supervisor stopped")

// Config tunes one Supervisor.
type Config struct {
	Kind         Kind
	NewProcess   ProcessFactory
	RestartDelay time.Duration
	StopGrace    time.Duration
	Logger       *zerolog.Logger
	Publisher    EventPublisher
}

// handle is one generation of a worker process. It is replaced on restart.
type handle struct {
	proc       Process
	generation uint64
	ready      atomic.Bool
	pending    *PendingTable
}

// Supervisor keeps one worker process of a given kind running and
// correlates requests written to it with the lines it prints back.
type Supervisor struct {
	kind         Kind
	newProcess   ProcessFactory
	restartDelay time.Duration
	stopGrace    time.Duration
	log          zerolog.Logger
	publisher    EventPublisher

	mu           sync.Mutex
	cur          *handle
	generation   uint64
	restarts     uint64
	stopped      bool
	restartTimer *time.Timer
	lastExit     string

	writeMu  sync.Mutex // serializes writes to the current stdin
	launchMu sync.Mutex // held across Process.Start; Stop waits on it
}

// NewSupervisor constructs a Supervisor; call Start to launch the process.
func NewSupervisor(cfg Config) *Supervisor {
	s := &Supervisor{
		kind:         cfg.Kind,
		newProcess:   cfg.NewProcess,
		restartDelay: cfg.RestartDelay,
		stopGrace:    cfg.StopGrace,
		publisher:    cfg.Publisher,
	}
	if s.restartDelay <= 0 {
		s.restartDelay = DefaultRestartDelay
	}
	if s.stopGrace <= 0 {
		s.stopGrace = DefaultStopGrace
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	l := zerolog.Nop()
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	s.log = l.With().Str("component", "worker").Str("worker", string(cfg.Kind)).Logger()
	workerReady.WithLabelValues(string(s.kind)).Set(0)
	return s
}

// Kind returns the worker kind this supervisor owns.
func (s *Supervisor) Kind() Kind { return s.kind }

// Start launches a new process generation unless one is already live.
// A launch failure schedules a restart just like an exit does.
func (s *Supervisor) Start() error {
	s.launchMu.Lock()
	defer s.launchMu.Unlock()
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.cur != nil {
		s.mu.Unlock()
		return nil
	}
	s.generation++
	h := &handle{
		proc:       s.newProcess(),
		generation: s.generation,
		pending:    NewPendingTable(s.kind),
	}
	s.cur = h
	s.mu.Unlock()

	out := newLineSplitter(func(line string) { s.handleLine(h, line) })
	diag := newLineSplitter(func(line string) {
		s.log.Warn().Str("stream", "stderr").Uint64("generation", h.generation).Msg(line)
	})
	err := h.proc.Start(Observer{
		Stdout: func(b []byte) { _, _ = out.Write(b) },
		Stderr: func(b []byte) { _, _ = diag.Write(b) },
		Exit: func(err error) {
			out.Flush()
			diag.Flush()
			s.onExit(h, err)
		},
	})
	if err != nil {
		s.mu.Lock()
		if s.cur == h {
			s.cur = nil
		}
		s.lastExit = err.Error()
		s.scheduleRestartLocked()
		s.mu.Unlock()
		h.pending.FailAll(crashError{kind: s.kind, msg: s.kind.DisplayName() + " worker failed to start"})
		s.log.Error().Err(err).Uint64("generation", h.generation).Dur("restart_in", s.restartDelay).Msg("worker failed to start")
		s.publisher.Publish(Event{Name: "worker_start_failed", Worker: s.kind, Fields: map[string]any{"error": err.Error(), "generation": h.generation}})
		return err
	}

	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		// Stop is blocked on launchMu and terminates h once we return.
		return ErrStopped
	}
	s.log.Info().Int("pid", h.proc.PID()).Uint64("generation", h.generation).Msg("worker started")
	s.publisher.Publish(Event{Name: "worker_start", Worker: s.kind, Fields: map[string]any{"pid": h.proc.PID(), "generation": h.generation}})
	return nil
}

// scheduleRestartLocked arms the fixed-delay restart. Caller holds s.mu.
func (s *Supervisor) scheduleRestartLocked() {
	if s.stopped || s.restartTimer != nil {
		return
	}
	s.restartTimer = time.AfterFunc(s.restartDelay, func() {
		s.mu.Lock()
		s.restartTimer = nil
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.restarts++
		n := s.restarts
		s.mu.Unlock()
		workerRestartsTotal.WithLabelValues(string(s.kind)).Inc()
		s.log.Info().Uint64("restarts", n).Msg("restarting worker")
		s.publisher.Publish(Event{Name: "worker_restart", Worker: s.kind, Fields: map[string]any{"restarts": n}})
		_ = s.Start()
	})
}

// onExit retires h, fails everything still pending on it and, unless the
// supervisor is stopped, schedules the next generation.
func (s *Supervisor) onExit(h *handle, err error) {
	h.ready.Store(false)
	reason := exitReason(err)
	s.mu.Lock()
	if s.cur == h {
		s.cur = nil
		workerReady.WithLabelValues(string(s.kind)).Set(0)
	}
	s.lastExit = reason
	stopped := s.stopped
	s.scheduleRestartLocked()
	s.mu.Unlock()

	failed := h.pending.FailAll(crashError{kind: s.kind, msg: s.kind.DisplayName() + " worker exited with requests pending"})
	ev := s.log.Warn()
	if stopped {
		ev = s.log.Info()
	}
	ev.Str("reason", reason).Uint64("generation", h.generation).Int("failed_pending", failed).Bool("restart", !stopped).Msg("worker exited")
	s.publisher.Publish(Event{Name: "worker_exit", Worker: s.kind, Fields: map[string]any{"reason": reason, "generation": h.generation, "failed_pending": failed}})
}

func exitReason(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}

// handleLine processes one complete stdout line of generation h.
func (s *Supervisor) handleLine(h *handle, line string) {
	if line == protocol.ReadySentinel {
		if !h.ready.Swap(true) {
			s.mu.Lock()
			current := s.cur == h
			s.mu.Unlock()
			if current {
				workerReady.WithLabelValues(string(s.kind)).Set(1)
			}
			s.log.Info().Uint64("generation", h.generation).Msg("worker ready")
			s.publisher.Publish(Event{Name: "worker_ready", Worker: s.kind, Fields: map[string]any{"generation": h.generation}})
		}
		return
	}
	resp, err := protocol.DecodeResponse(line)
	if err != nil {
		workerResponsesTotal.WithLabelValues(string(s.kind), "malformed").Inc()
		s.log.Debug().Str("line", line).Msg("discarding malformed worker line")
		return
	}
	o := Outcome{Value: resp.Value}
	if resp.Err != nil {
		o.Err = s.replyError(resp.Err)
	}
	if !h.pending.Resolve(resp.ID, o) {
		workerResponsesTotal.WithLabelValues(string(s.kind), "stale").Inc()
		s.log.Debug().Str("id", resp.ID).Msg("dropping response for unknown or expired id")
	}
}

func (s *Supervisor) replyError(err error) error {
	var re *protocol.RemoteError
	if errors.As(err, &re) {
		return protocolError{kind: s.kind, msg: re.Message}
	}
	return protocolError{kind: s.kind, msg: "invalid result from " + s.kind.DisplayName() + " worker"}
}

// readyHandle returns the live generation if it has announced READY.
func (s *Supervisor) readyHandle() (*handle, error) {
	s.mu.Lock()
	h := s.cur
	s.mu.Unlock()
	if h == nil || !h.ready.Load() {
		return nil, unavailableError{kind: s.kind}
	}
	return h, nil
}

func (s *Supervisor) writeTo(h *handle, line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	s.writeMu.Lock()
	err := h.proc.Write([]byte(line))
	s.writeMu.Unlock()
	if err != nil {
		return protocolError{kind: s.kind, msg: "failed to write to " + s.kind.DisplayName() + " worker: " + err.Error()}
	}
	return nil
}

// Write sends one line to the worker. It fails immediately, without retry,
// if the worker is absent, not ready, or the write is rejected.
func (s *Supervisor) Write(line string) error {
	h, err := s.readyHandle()
	if err != nil {
		return err
	}
	return s.writeTo(h, line)
}

// Call performs one correlated round trip: register req.ID, write the
// request line and wait for the response, the deadline, or the process
// exit, whichever comes first. An issued call cannot be canceled.
func (s *Supervisor) Call(req protocol.Request, timeout time.Duration) (float64, error) {
	h, err := s.readyHandle()
	if err != nil {
		return 0, err
	}
	line, err := protocol.EncodeRequest(req)
	if err != nil {
		return 0, protocolError{kind: s.kind, msg: err.Error()}
	}
	ch, err := h.pending.Register(req.ID, timeout)
	if err != nil {
		return 0, err
	}
	gauge := workerPending.WithLabelValues(string(s.kind))
	gauge.Inc()
	defer gauge.Dec()
	if err := s.writeTo(h, line); err != nil {
		if h.pending.Remove(req.ID) {
			workerResponsesTotal.WithLabelValues(string(s.kind), "write_error").Inc()
			return 0, err
		}
		// Already resolved by the deadline or the exit; report that instead.
	}
	o := <-ch
	workerResponsesTotal.WithLabelValues(string(s.kind), outcomeLabel(o.Err)).Inc()
	return o.Value, o.Err
}

// Ready reports whether the live generation has announced READY.
func (s *Supervisor) Ready() bool {
	_, err := s.readyHandle()
	return err == nil
}

// WaitReady blocks until the worker is ready or ctx is done.
func (s *Supervisor) WaitReady(ctx context.Context) error {
	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for {
		if s.Ready() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Stop terminates the worker (SIGTERM, then kill after the grace period)
// and suppresses further restarts. Stopped is terminal.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
	s.mu.Unlock()

	// A launch in flight finishes first, so its process is seen and stopped.
	s.launchMu.Lock()
	s.mu.Lock()
	h := s.cur
	s.mu.Unlock()
	s.launchMu.Unlock()
	s.publisher.Publish(Event{Name: "worker_stop", Worker: s.kind, Fields: map[string]any{}})
	if h == nil {
		return nil
	}
	s.log.Info().Int("pid", h.proc.PID()).Dur("grace", s.stopGrace).Msg("stopping worker")
	done := make(chan error, 1)
	go func() { done <- h.proc.Stop(s.stopGrace) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status is a point-in-time view of a supervised worker.
type Status struct {
	Kind       Kind
	State      State
	Ready      bool
	PID        int
	Generation uint64
	Restarts   uint64
	Pending    int
	LastExit   string
}

// Status returns a snapshot of the supervisor state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Kind:       s.kind,
		Generation: s.generation,
		Restarts:   s.restarts,
		LastExit:   s.lastExit,
	}
	switch {
	case s.stopped:
		st.State = StateStopped
	case s.cur == nil && s.generation > 0:
		st.State = StateCrashed
	case s.cur != nil && s.cur.ready.Load():
		st.State = StateReady
	default:
		st.State = StateStarting
	}
	if h := s.cur; h != nil {
		st.Ready = h.ready.Load()
		st.PID = h.proc.PID()
		st.Pending = h.pending.Len()
	}
	return st
}
