// Package workertest provides an in-memory worker.Process for tests.
package workertest

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/internal/worker"
)

// ErrKilled is the exit error reported after a forced kill.
var ErrKilled = errors.New("signal: killed")

// FakeProcess records stdin writes and lets the test drive stdout,
// stderr and the exit. Stdout deliveries are serialized like a real pipe.
type FakeProcess struct {
	// Set before Start.
	StartErr error
	WriteErr error
	// AutoReady prints READY during Start.
	AutoReady bool
	// IgnoreTerm makes Stop wait out the grace period and kill.
	IgnoreTerm bool
	// Respond returns the reply line for each request, "" for none.
	Respond func(req protocol.Request) string
	// OnStart runs in its own goroutine once the process is running.
	OnStart func(p *FakeProcess)
	// BeforeStart runs synchronously at the top of Start, e.g. to hold a
	// launch in progress.
	BeforeStart func()

	pid int

	outMu sync.Mutex // serializes stdout/stderr/exit delivery
	mu    sync.Mutex
	obs   worker.Observer
	state int // 0 new, 1 running, 2 exited
	lines []string
	sigs  []string
	wrote chan string
	exit  chan struct{}
}

// NewFakeProcess returns an unstarted fake with the given pid.
func NewFakeProcess(pid int) *FakeProcess {
	return &FakeProcess{pid: pid, wrote: make(chan string, 1024), exit: make(chan struct{})}
}

func (p *FakeProcess) Start(obs worker.Observer) error {
	if p.BeforeStart != nil {
		p.BeforeStart()
	}
	if p.StartErr != nil {
		return p.StartErr
	}
	p.mu.Lock()
	p.obs = obs
	p.state = 1
	p.mu.Unlock()
	if p.AutoReady {
		p.Emit(protocol.ReadySentinel + "\n")
	}
	if p.OnStart != nil {
		go p.OnStart(p)
	}
	return nil
}

func (p *FakeProcess) Write(b []byte) error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()
	if state != 1 {
		return errors.New("write |1: broken pipe")
	}
	if p.WriteErr != nil {
		return p.WriteErr
	}
	for _, line := range strings.Split(strings.TrimSuffix(string(b), "\n"), "\n") {
		p.mu.Lock()
		p.lines = append(p.lines, line)
		p.mu.Unlock()
		select {
		case p.wrote <- line:
		default:
		}
		if p.Respond != nil {
			if req, err := protocol.DecodeRequest(line); err == nil {
				if reply := p.Respond(req); reply != "" {
					p.Emit(reply)
				}
			}
		}
	}
	return nil
}

func (p *FakeProcess) Stop(grace time.Duration) error {
	p.mu.Lock()
	if p.state != 1 {
		p.mu.Unlock()
		return nil
	}
	p.sigs = append(p.sigs, "SIGTERM")
	ignore := p.IgnoreTerm
	p.mu.Unlock()
	if !ignore {
		p.Exit(nil)
		return nil
	}
	select {
	case <-p.exit:
		return nil
	case <-time.After(grace):
	}
	p.mu.Lock()
	p.sigs = append(p.sigs, "SIGKILL")
	p.mu.Unlock()
	p.Exit(ErrKilled)
	return nil
}

func (p *FakeProcess) PID() int { return p.pid }

// Emit delivers s on stdout exactly as given; s need not end in a newline.
func (p *FakeProcess) Emit(s string) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	p.mu.Lock()
	obs, running := p.obs, p.state == 1
	p.mu.Unlock()
	if running && obs.Stdout != nil {
		obs.Stdout([]byte(s))
	}
}

// EmitStderr delivers s on stderr.
func (p *FakeProcess) EmitStderr(s string) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	p.mu.Lock()
	obs, running := p.obs, p.state == 1
	p.mu.Unlock()
	if running && obs.Stderr != nil {
		obs.Stderr([]byte(s))
	}
}

// Exit ends the process with err. Only the first call has an effect.
func (p *FakeProcess) Exit(err error) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	p.mu.Lock()
	if p.state != 1 {
		p.mu.Unlock()
		return
	}
	p.state = 2
	obs := p.obs
	p.mu.Unlock()
	close(p.exit)
	if obs.Exit != nil {
		obs.Exit(err)
	}
}

// Exited reports whether the process has exited.
func (p *FakeProcess) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == 2
}

// Lines returns every line written to stdin so far.
func (p *FakeProcess) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

// Signals returns the signals delivered by Stop, in order.
func (p *FakeProcess) Signals() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sigs...)
}

// NextLine waits up to timeout for the next stdin line.
func (p *FakeProcess) NextLine(timeout time.Duration) (string, bool) {
	select {
	case l := <-p.wrote:
		return l, true
	case <-time.After(timeout):
		return "", false
	}
}

// Factory creates FakeProcesses and remembers every generation.
type Factory struct {
	// Configure, if set, is applied to each new process before it is returned.
	Configure func(*FakeProcess)

	mu    sync.Mutex
	procs []*FakeProcess
}

// New implements worker.ProcessFactory.
func (f *Factory) New() worker.Process {
	f.mu.Lock()
	p := NewFakeProcess(1000 + len(f.procs))
	f.procs = append(f.procs, p)
	f.mu.Unlock()
	if f.Configure != nil {
		f.Configure(p)
	}
	return p
}

// Count returns how many processes were created.
func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.procs)
}

// Latest returns the most recent process, or nil.
func (f *Factory) Latest() *FakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.procs) == 0 {
		return nil
	}
	return f.procs[len(f.procs)-1]
}

// WaitCount waits until at least n processes were created.
func (f *Factory) WaitCount(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.Count() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return f.Count() >= n
}

// Converting answers every request with the locally computed result,
// or an ERROR line when the units do not convert.
func Converting(req protocol.Request) string {
	v, err := units.Convert(req.Value, req.From, req.To)
	return protocol.EncodeResponse(req.ID, v, err)
}
