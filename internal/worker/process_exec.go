package worker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Command describes how to launch a worker executable.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string // appended to the parent environment
}

// execProcess runs a worker as an OS child process with piped stdio.
type execProcess struct {
	command Command

	mu      sync.Mutex // guards cmd and stdin
	writeMu sync.Mutex // serializes stdin writes
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	done    chan struct{}
}

// NewExecProcess returns an unstarted Process for command.
func NewExecProcess(command Command) Process {
	return &execProcess{command: command, done: make(chan struct{})}
}

// ExecFactory returns a ProcessFactory launching command on every call.
func ExecFactory(command Command) ProcessFactory {
	return func() Process { return NewExecProcess(command) }
}

func (p *execProcess) Start(obs Observer) error {
	if p.command.Path == "" {
		return errors.New("worker command is empty")
	}
	cmd := exec.Command(p.command.Path, p.command.Args...)
	cmd.Dir = p.command.Dir
	if len(p.command.Env) > 0 {
		cmd.Env = append(os.Environ(), p.command.Env...)
	}
	// Parent ends of the pipes created so far; closed if the launch fails.
	var opened []io.Closer
	fail := func(err error) error {
		for _, c := range opened {
			_ = c.Close()
		}
		return err
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail(fmt.Errorf("create stdin pipe: %w", err))
	}
	opened = append(opened, stdin)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail(fmt.Errorf("create stdout pipe: %w", err))
	}
	opened = append(opened, stdout)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fail(fmt.Errorf("create stderr pipe: %w", err))
	}
	opened = append(opened, stderr)
	if err := cmd.Start(); err != nil {
		return fail(fmt.Errorf("start %s: %w", p.command.Path, err))
	}
	p.mu.Lock()
	p.cmd = cmd
	p.stdin = stdin
	p.mu.Unlock()

	var readers sync.WaitGroup
	readers.Add(2)
	go pump(stdout, obs.Stdout, &readers)
	go pump(stderr, obs.Stderr, &readers)
	go func() {
		// Wait must not run before the pipes are drained.
		readers.Wait()
		err := cmd.Wait()
		close(p.done)
		if obs.Exit != nil {
			obs.Exit(err)
		}
	}()
	return nil
}

// pump copies r to fn chunk by chunk until EOF or a read error.
func pump(r io.Reader, fn func([]byte), wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 && fn != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			fn(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (p *execProcess) Write(b []byte) error {
	p.mu.Lock()
	stdin := p.stdin
	p.mu.Unlock()
	if stdin == nil {
		return errors.New("process not started")
	}
	select {
	case <-p.done:
		return errors.New("process exited")
	default:
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err := stdin.Write(b)
	return err
}

func (p *execProcess) Stop(grace time.Duration) error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	select {
	case <-p.done:
		return nil
	default:
	}
	// Try to gracefully terminate first, then fall back to kill.
	_ = cmd.Process.Signal(syscall.SIGTERM)
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-p.done:
		return nil
	case <-t.C:
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", cmd.Process.Pid, err)
	}
	<-p.done
	return nil
}

func (p *execProcess) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
