package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gtrackerpro/unitconverter/internal/worker"
)

// newLogger builds the root logger. format is "json" or "console".
func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := w
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// logPublisher turns supervisor lifecycle events into log lines.
type logPublisher struct{ log zerolog.Logger }

func (p logPublisher) Publish(e worker.Event) {
	ev := p.log.Info()
	switch e.Name {
	case "worker_exit", "worker_start_failed":
		ev = p.log.Warn()
	case "worker_start":
		ev = p.log.Debug()
	}
	ev.Str("event", e.Name).Str("worker", string(e.Worker)).Fields(e.Fields).Msg("worker event")
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
