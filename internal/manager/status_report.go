package manager

import (
	"context"
	"time"

	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// Status builds a detailed status response for /status. Kinds that are
// not configured are reported as disabled.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	lastErr := m.lastErr
	m.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		Workers:          make([]types.WorkerStatus, 0, len(worker.Kinds)),
		UptimeSeconds:    int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:   now.Unix(),
		ConversionsTotal: m.conversions.Load(),
		FailuresTotal:    m.failures.Load(),
		LastError:        lastErr,
	}
	for _, k := range worker.Kinds {
		s, ok := m.sups[k]
		if !ok {
			resp.Workers = append(resp.Workers, types.WorkerStatus{Kind: string(k), State: "disabled"})
			continue
		}
		st := s.Status()
		resp.Workers = append(resp.Workers, types.WorkerStatus{
			Kind:       string(st.Kind),
			State:      string(st.State),
			Ready:      st.Ready,
			PID:        st.PID,
			Generation: st.Generation,
			Restarts:   st.Restarts,
			Pending:    st.Pending,
			LastExit:   st.LastExit,
		})
	}
	return resp
}

// Units lists the supported units per category and the accepted modes.
func (m *Manager) Units() types.UnitsResponse {
	cats := units.Units()
	out := types.UnitsResponse{Categories: make(map[string][]string, len(cats)), Modes: Modes()}
	for c, us := range cats {
		out.Categories[string(c)] = us
	}
	return out
}

// History returns recent conversions, newest first. Without a configured
// store it returns an empty list.
func (m *Manager) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if m.history == nil {
		return []types.HistoryEntry{}, nil
	}
	return m.history.Recent(ctx, limit)
}
