package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/worker"
)

type Manager struct {
	ids       *protocol.IDGenerator
	sups      map[worker.Kind]*worker.Supervisor
	timeout   time.Duration
	log       zerolog.Logger
	recorder  Recorder
	history   HistoryReader
	startTime time.Time

	conversions atomic.Uint64
	failures    atomic.Uint64

	mu      sync.RWMutex
	lastErr string
}

// New returns a Manager with only local mode available.
func New() *Manager { return NewWithConfig(ManagerConfig{}) }

// Start launches every configured worker. Launch failures are logged and
// the supervisor keeps retrying; the joined error is returned for callers
// that want to report it.
func (m *Manager) Start() error {
	var errs []error
	for _, k := range worker.Kinds {
		s, ok := m.sups[k]
		if !ok {
			continue
		}
		if err := s.Start(); err != nil {
			m.log.Warn().Err(err).Str("worker", string(k)).Msg("worker launch failed; will retry")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StopAll stops every worker concurrently and waits for them or ctx.
func (m *Manager) StopAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errc := make(chan error, len(m.sups))
	for _, s := range m.sups {
		wg.Add(1)
		go func(s *worker.Supervisor) {
			defer wg.Done()
			if err := s.Stop(ctx); err != nil {
				errc <- err
			}
		}(s)
	}
	wg.Wait()
	close(errc)
	var errs []error
	for err := range errc {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Supervisor returns the supervisor for k, if that kind is enabled.
func (m *Manager) Supervisor(k worker.Kind) (*worker.Supervisor, bool) {
	s, ok := m.sups[k]
	return s, ok
}

// WaitReady blocks until the worker of kind k is ready or ctx is done.
func (m *Manager) WaitReady(ctx context.Context, k worker.Kind) error {
	s, ok := m.sups[k]
	if !ok {
		return worker.ErrUnavailable(k)
	}
	return s.WaitReady(ctx)
}

// Ready reports whether every enabled worker has announced READY.
func (m *Manager) Ready() bool {
	for _, s := range m.sups {
		if !s.Ready() {
			return false
		}
	}
	return true
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}
