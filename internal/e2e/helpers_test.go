package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gtrackerpro/unitconverter/internal/history"
	"github.com/gtrackerpro/unitconverter/internal/httpapi"
	"github.com/gtrackerpro/unitconverter/internal/manager"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/internal/worker/workertest"
)

type testEnv struct {
	srv   *httptest.Server
	mgr   *manager.Manager
	store *history.Store
	rec   *history.Recorder
	facs  map[worker.Kind]*workertest.Factory
}

// newServer wires the real manager, history store and mux around fake
// workers. configure, if non-nil, adjusts each fake before it starts.
func newServer(t *testing.T, configure func(worker.Kind, *workertest.FakeProcess), kinds ...worker.Kind) *testEnv {
	t.Helper()
	ctx := context.Background()
	store, err := history.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	rec := history.NewRecorder(store, 16, nil)

	facs := make(map[worker.Kind]*workertest.Factory)
	workers := make(map[worker.Kind]worker.ProcessFactory)
	for _, k := range kinds {
		k := k
		f := &workertest.Factory{Configure: func(p *workertest.FakeProcess) {
			p.AutoReady = true
			p.Respond = workertest.Converting
			if configure != nil {
				configure(k, p)
			}
		}}
		facs[k] = f
		workers[k] = f.New
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Workers:        workers,
		RequestTimeout: 200 * time.Millisecond,
		RestartDelay:   20 * time.Millisecond,
		StopGrace:      20 * time.Millisecond,
		Recorder:       rec,
		History:        store,
	})
	require.NoError(t, mgr.Start())

	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.StopAll(context.Background())
		_ = rec.Close(context.Background())
		_ = store.Close()
	})
	return &testEnv{srv: srv, mgr: mgr, store: store, rec: rec, facs: facs}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
