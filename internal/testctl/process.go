package testctl

import (
	"os"
	"os/exec"
	"sync"
	"time"
)

// ProcManager tracks started processes and can stop them all on cleanup.
type ProcManager struct {
	mu    sync.Mutex
	procs []*exec.Cmd
}

func NewProcManager() *ProcManager { return &ProcManager{} }

func (pm *ProcManager) Add(cmd *exec.Cmd) {
	pm.mu.Lock()
	pm.procs = append(pm.procs, cmd)
	pm.mu.Unlock()
}

// StopAll interrupts every tracked process and kills those still running
// after grace. It proceeds best-effort.
func (pm *ProcManager) StopAll(grace time.Duration) {
	pm.mu.Lock()
	procs := append([]*exec.Cmd(nil), pm.procs...)
	pm.procs = nil
	pm.mu.Unlock()
	var wg sync.WaitGroup
	for _, c := range procs {
		if c == nil || c.Process == nil {
			continue
		}
		wg.Add(1)
		go func(c *exec.Cmd) {
			defer wg.Done()
			_ = c.Process.Signal(os.Interrupt)
			done := make(chan struct{})
			go func() { _ = c.Wait(); close(done) }()
			select {
			case <-done:
			case <-time.After(grace):
				_ = c.Process.Kill()
				<-done
			}
		}(c)
	}
	wg.Wait()
}

// package-level default manager used by helpers
var defaultProcManager = NewProcManager()

// TrackProcess registers a process with the default manager for later cleanup.
func TrackProcess(cmd *exec.Cmd) { defaultProcManager.Add(cmd) }

func stopProcesses() { defaultProcManager.StopAll(5 * time.Second) }
