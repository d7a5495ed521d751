package history

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/gtrackerpro/unitconverter/pkg/types"
)

const defaultQueueSize = 256

var historyDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "unitconverter",
	Subsystem: "history",
	Name:      "dropped_total",
	Help:      "Conversions not logged because the recorder queue was full or closed",
})

func init() {
	prometheus.MustRegister(historyDroppedTotal)
}

// Inserter is the write side of a Store.
type Inserter interface {
	Insert(ctx context.Context, e types.HistoryEntry) (types.HistoryEntry, error)
}

// Recorder writes entries on a single background goroutine so callers
// never wait on the database.
type Recorder struct {
	sink  Inserter
	log   zerolog.Logger
	queue chan types.HistoryEntry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewRecorder starts the writer. queueSize <= 0 uses a default.
func NewRecorder(sink Inserter, queueSize int, logger *zerolog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	r := &Recorder{
		sink:  sink,
		log:   l.With().Str("component", "history").Logger(),
		queue: make(chan types.HistoryEntry, queueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues e. It reports false when the entry was dropped.
func (r *Recorder) Record(e types.HistoryEntry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		historyDroppedTotal.Inc()
		return false
	}
	select {
	case r.queue <- e:
		return true
	default:
		historyDroppedTotal.Inc()
		r.log.Warn().Str("from", e.FromUnit).Str("to", e.ToUnit).Msg("history queue full; dropping entry")
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := r.sink.Insert(ctx, e); err != nil {
			r.log.Error().Err(err).Msg("failed to log conversion")
		}
		cancel()
	}
}

// Close stops accepting entries and waits until the queue is drained or
// ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
