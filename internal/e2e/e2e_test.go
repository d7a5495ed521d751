package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtrackerpro/unitconverter/internal/protocol"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/internal/worker/workertest"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

func waitReady(t *testing.T, env *testEnv, kinds ...worker.Kind) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, k := range kinds {
		require.NoError(t, env.mgr.WaitReady(ctx, k))
	}
}

// waitHistory polls until the async recorder has persisted n rows.
func waitHistory(t *testing.T, env *testEnv, n int) []types.HistoryEntry {
	t.Helper()
	var got []types.HistoryEntry
	require.Eventually(t, func() bool {
		resp, body := httpGet(t, env.srv.URL+"/api/history")
		if resp.StatusCode != http.StatusOK {
			return false
		}
		got = nil
		if err := json.Unmarshal(body, &got); err != nil {
			return false
		}
		return len(got) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return got
}

func TestE2E_ConvertLocalThenHistory(t *testing.T) {
	env := newServer(t, nil)

	resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(`{"value":1,"from":"meter","to":"feet","mode":"local"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out types.ConvertResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.InDelta(t, 3.28084, out.Result, 1e-4)
	assert.GreaterOrEqual(t, out.TimeTakenMS, 0.0)

	entries := waitHistory(t, env, 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "meter", entries[0].FromUnit)
	assert.Equal(t, "feet", entries[0].ToUnit)
	assert.Equal(t, "local", entries[0].Mode)
	assert.NotEmpty(t, entries[0].ID)
}

func TestE2E_ConvertEachWorkerKind(t *testing.T) {
	env := newServer(t, nil, worker.KindCpp, worker.KindPython, worker.KindJava)
	waitReady(t, env, worker.Kinds...)

	for _, k := range worker.Kinds {
		payload := `{"value":100,"from":"celsius","to":"fahrenheit","mode":"` + string(k) + `"}`
		resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(payload))
		require.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", k, body)
		var out types.ConvertResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.InDelta(t, 212.0, out.Result, 1e-9, string(k))

		line := env.facs[k].Latest().Lines()
		require.NotEmpty(t, line)
		assert.True(t, strings.HasPrefix(line[len(line)-1], "req_"), line)
	}

	entries := waitHistory(t, env, 3)
	modes := map[string]bool{}
	for _, e := range entries {
		modes[e.Mode] = true
	}
	assert.True(t, modes["cpp"] && modes["python"] && modes["java"], modes)
}

func TestE2E_ValidationErrors(t *testing.T) {
	env := newServer(t, nil)
	cases := []struct {
		payload string
		msg     string
	}{
		{`{"value":1,"from":"meter","mode":"local"}`, "missing required fields"},
		{`{"value":-1,"from":"meter","to":"feet","mode":"local"}`, "value must be a positive number"},
		{`{"value":1,"from":"meter","to":"feet","mode":"rust"}`, "mode must be one of"},
		{`{"value":1,"from":"meter","to":"kilogram","mode":"local"}`, "invalid units"},
		{`{"value":1,"from":"meter","to":"meter","mode":"local"}`, "cannot be the same"},
	}
	for _, c := range cases {
		resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(c.payload))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, c.payload)
		var er types.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &er))
		assert.Contains(t, er.Error, c.msg)
		assert.Equal(t, http.StatusBadRequest, er.Code)
	}

	resp, body := httpGet(t, env.srv.URL+"/api/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestE2E_UnconfiguredWorker503(t *testing.T) {
	env := newServer(t, nil, worker.KindCpp)
	resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(`{"value":1,"from":"meter","to":"feet","mode":"java"}`))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "Java worker is not available")
}

func TestE2E_WorkerTimeout504(t *testing.T) {
	env := newServer(t, func(_ worker.Kind, p *workertest.FakeProcess) {
		p.Respond = func(protocol.Request) string { return "" }
	}, worker.KindPython)
	waitReady(t, env, worker.KindPython)

	resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(`{"value":1,"from":"meter","to":"feet","mode":"python"}`))
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "conversion timeout")
}

func TestE2E_WorkerCrashRestarts(t *testing.T) {
	env := newServer(t, nil, worker.KindCpp)
	waitReady(t, env, worker.KindCpp)

	env.facs[worker.KindCpp].Latest().Exit(nil)
	require.True(t, env.facs[worker.KindCpp].WaitCount(2, 2*time.Second))
	waitReady(t, env, worker.KindCpp)

	resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(`{"value":1,"from":"kilogram","to":"gram","mode":"cpp"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = httpGet(t, env.srv.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st types.StatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	var cpp *types.WorkerStatus
	for i := range st.Workers {
		if st.Workers[i].Kind == "cpp" {
			cpp = &st.Workers[i]
		}
	}
	require.NotNil(t, cpp)
	assert.True(t, cpp.Ready)
	assert.Equal(t, uint64(1), cpp.Restarts)
	assert.Equal(t, uint64(2), cpp.Generation)
}

func TestE2E_StatusAndReadiness(t *testing.T) {
	env := newServer(t, nil, worker.KindCpp)
	waitReady(t, env, worker.KindCpp)

	resp, _ := httpGet(t, env.srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = httpGet(t, env.srv.URL+"/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := httpGet(t, env.srv.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st types.StatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	states := map[string]string{}
	for _, w := range st.Workers {
		states[w.Kind] = w.State
	}
	assert.Equal(t, "ready", states["cpp"])
	assert.Equal(t, "disabled", states["python"])
	assert.Equal(t, "disabled", states["java"])
}

func TestE2E_UnitsAndMetrics(t *testing.T) {
	env := newServer(t, nil)

	resp, body := httpGet(t, env.srv.URL+"/api/units")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u types.UnitsResponse
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Contains(t, u.Categories["length"], "meter")
	assert.Contains(t, u.Modes, "local")

	_, _ = httpPostJSON(t, env.srv.URL+"/api/convert", []byte(`{"value":2,"from":"pound","to":"ounce","mode":"local"}`))
	resp, body = httpGet(t, env.srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "unitconverter_conversions_total")
	assert.Contains(t, string(body), `route="/api/convert"`)
}

func TestE2E_ConcurrentWorkerCalls(t *testing.T) {
	env := newServer(t, nil, worker.KindJava)
	waitReady(t, env, worker.KindJava)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			resp, body := httpPostJSON(t, env.srv.URL+"/api/convert", []byte(`{"value":1000,"from":"meter","to":"kilometer","mode":"java"}`))
			if resp.StatusCode != http.StatusOK {
				errs <- assert.AnError
				t.Logf("status %d body %s", resp.StatusCode, body)
				return
			}
			errs <- nil
		}()
	}
	for i := 0; i < n; i++ {
		assert.NoError(t, <-errs)
	}
	seen := map[string]bool{}
	for _, l := range env.facs[worker.KindJava].Latest().Lines() {
		id := strings.Fields(l)[0]
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
