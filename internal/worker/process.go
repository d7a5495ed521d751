package worker

import "time"

// Observer receives a process's output and its exit.
//
// Stdout and Stderr are each called from a single goroutine with raw
// chunks that need not be line aligned. Exit is called exactly once,
// after both output streams have been drained.
type Observer struct {
	Stdout func([]byte)
	Stderr func([]byte)
	Exit   func(error)
}

// Process is the narrow boundary around one external worker process, so
// tests can substitute an in-memory fake for a real executable.
type Process interface {
	// Start launches the process and begins delivering to obs.
	// A non-nil error means the process never started and Exit is not called.
	Start(obs Observer) error
	// Write sends raw bytes to the process's stdin.
	Write(p []byte) error
	// Stop asks the process to terminate and kills it after grace.
	// It returns once the process has exited.
	Stop(grace time.Duration) error
	// PID identifies the process, 0 if unknown.
	PID() int
}

// ProcessFactory creates a fresh, unstarted process for a restart.
type ProcessFactory func() Process
