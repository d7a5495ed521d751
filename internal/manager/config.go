package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultRequestTimeout = 5 * time.Second
	requestIDPrefix       = "req_"
)

// Recorder receives successful conversions. Record must not block.
type Recorder interface {
	Record(types.HistoryEntry) bool
}

// HistoryReader serves the recent-conversions view.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error)
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Workers maps each enabled kind to the factory for its process.
	// Kinds without an entry answer WorkerUnavailable.
	Workers        map[worker.Kind]worker.ProcessFactory
	RequestTimeout time.Duration
	RestartDelay   time.Duration
	StopGrace      time.Duration
	Logger         *zerolog.Logger
	Publisher      worker.EventPublisher
	Recorder       Recorder
	History        HistoryReader
}

// NewWithConfig constructs a Manager from ManagerConfig. Supervisors are
// created but not started; call Start.
func NewWithConfig(cfg ManagerConfig) *Manager {
	l := zerolog.Nop()
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	m := &Manager{
		ids:       protocol.NewIDGenerator(requestIDPrefix),
		timeout:   cfg.RequestTimeout,
		log:       l.With().Str("component", "manager").Logger(),
		recorder:  cfg.Recorder,
		history:   cfg.History,
		sups:      make(map[worker.Kind]*worker.Supervisor, len(cfg.Workers)),
		startTime: time.Now(),
	}
	if m.timeout <= 0 {
		m.timeout = defaultRequestTimeout
	}
	for _, k := range worker.Kinds {
		f, ok := cfg.Workers[k]
		if !ok || f == nil {
			continue
		}
		m.sups[k] = worker.NewSupervisor(worker.Config{
			Kind:         k,
			NewProcess:   f,
			RestartDelay: cfg.RestartDelay,
			StopGrace:    cfg.StopGrace,
			Logger:       &l,
			Publisher:    cfg.Publisher,
		})
	}
	return m
}
