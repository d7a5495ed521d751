package manager

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// canceledError is returned when the caller or the server went away before
// the conversion was dispatched.
type canceledError struct{ err error }

func (e canceledError) Error() string   { return "conversion canceled: " + e.err.Error() }
func (e canceledError) StatusCode() int { return http.StatusServiceUnavailable }
func (e canceledError) Unwrap() error   { return e.err }

// Execution modes accepted besides the worker kinds.
const (
	ModeLocal = "local"
	ModeNode  = "node" // legacy alias of local
)

// Modes lists every accepted mode in display order.
func Modes() []string {
	out := []string{ModeLocal}
	for _, k := range worker.Kinds {
		out = append(out, string(k))
	}
	return out
}

// validate checks the request in the order callers see errors:
// presence, positive value, mode, unit compatibility, identity.
func validate(req types.ConvertRequest) error {
	if req.From == "" || req.To == "" || req.Mode == "" {
		return units.ErrValidation("missing required fields: value, from, to, mode")
	}
	if !(req.Value > 0) || math.IsInf(req.Value, 0) {
		return units.ErrValidation("value must be a positive number")
	}
	if req.Mode != ModeLocal && req.Mode != ModeNode {
		if _, err := worker.ParseKind(req.Mode); err != nil {
			return units.ErrValidation("mode must be one of: local, cpp, python, java")
		}
	}
	if !units.SameCategory(req.From, req.To) {
		return units.ErrValidation("invalid units or units from different categories")
	}
	if req.From == req.To {
		return units.ErrValidation("from and to units cannot be the same")
	}
	return nil
}

// Convert validates req and computes the result locally or on the worker
// selected by req.Mode. Elapsed time covers the computation only and is
// rounded to two decimals. Successful conversions are recorded
// asynchronously.
func (m *Manager) Convert(ctx context.Context, req types.ConvertRequest) (types.ConvertResponse, error) {
	if err := validate(req); err != nil {
		conversionsTotal.WithLabelValues(modeLabel(req.Mode), "invalid").Inc()
		return types.ConvertResponse{}, err
	}
	// A worker call cannot be withdrawn once written, so cancellation is
	// only honored before dispatch.
	if err := ctx.Err(); err != nil {
		conversionsTotal.WithLabelValues(modeLabel(req.Mode), "canceled").Inc()
		return types.ConvertResponse{}, canceledError{err: err}
	}
	mode := req.Mode
	if mode == ModeNode {
		mode = ModeLocal
	}

	start := time.Now()
	var (
		result float64
		err    error
	)
	if mode == ModeLocal {
		result, err = units.Convert(req.Value, req.From, req.To)
	} else {
		result, err = m.callWorker(worker.Kind(mode), req)
	}
	elapsed := time.Since(start)
	conversionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())

	if err != nil {
		m.failures.Add(1)
		m.setLastError(err)
		conversionsTotal.WithLabelValues(mode, outcomeLabel(err)).Inc()
		m.log.Debug().Err(err).Str("mode", mode).Str("from", req.From).Str("to", req.To).Msg("conversion failed")
		return types.ConvertResponse{}, err
	}
	m.conversions.Add(1)
	conversionsTotal.WithLabelValues(mode, "ok").Inc()

	resp := types.ConvertResponse{Result: result, TimeTakenMS: roundMS(elapsed)}
	if m.recorder != nil {
		m.recorder.Record(types.HistoryEntry{
			InputValue:     req.Value,
			FromUnit:       req.From,
			ToUnit:         req.To,
			ConvertedValue: result,
			Mode:           mode,
			TimeTakenMS:    resp.TimeTakenMS,
			Timestamp:      time.Now().UTC(),
		})
	}
	return resp, nil
}

func (m *Manager) callWorker(k worker.Kind, req types.ConvertRequest) (float64, error) {
	s, ok := m.sups[k]
	if !ok {
		return 0, worker.ErrUnavailable(k)
	}
	return s.Call(protocol.Request{
		ID:    m.ids.Next(),
		Value: req.Value,
		From:  req.From,
		To:    req.To,
	}, m.timeout)
}

// roundMS converts d to milliseconds rounded to two decimals.
func roundMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
