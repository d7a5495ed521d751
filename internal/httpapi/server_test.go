package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/internal/worker"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

type mockService struct {
	convertResp types.ConvertResponse
	convertErr  error
	gotReq      types.ConvertRequest
	history     []types.HistoryEntry
	historyErr  error
	gotLimit    int
	status      types.StatusResponse
	ready       bool
}

func (m *mockService) Convert(ctx context.Context, req types.ConvertRequest) (types.ConvertResponse, error) {
	m.gotReq = req
	return m.convertResp, m.convertErr
}

func (m *mockService) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	m.gotLimit = limit
	return m.history, m.historyErr
}

func (m *mockService) Units() types.UnitsResponse {
	return types.UnitsResponse{Categories: map[string][]string{"length": {"feet", "meter"}}, Modes: []string{"local"}}
}
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }

func postConvert(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/convert", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return e
}

func TestConvertHandler_OK(t *testing.T) {
	svc := &mockService{convertResp: types.ConvertResponse{Result: 3.28084, TimeTakenMS: 0.12}}
	w := postConvert(t, NewMux(svc), `{"value":1,"from":"meter","to":"feet","mode":"cpp"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.ConvertResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Result != 3.28084 || body.TimeTakenMS != 0.12 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if svc.gotReq.Mode != "cpp" || svc.gotReq.From != "meter" || svc.gotReq.Value != 1 {
		t.Fatalf("request not forwarded: %+v", svc.gotReq)
	}
}

func TestConvertHandler_RequiresJSONContentType(t *testing.T) {
	r := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestConvertHandler_BadJSON(t *testing.T) {
	w := postConvert(t, NewMux(&mockService{}), "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestConvertHandler_BodyTooLarge(t *testing.T) {
	Configure(Settings{MaxBodyBytes: 16})
	defer Configure(Settings{})
	w := postConvert(t, NewMux(&mockService{}), `{"value":1,"from":"meter","to":"feet","mode":"local"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestConvertHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", units.ErrValidation("value must be a positive number"), http.StatusBadRequest},
		{"unavailable", worker.ErrUnavailable(worker.KindPython), http.StatusServiceUnavailable},
		{"generic", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postConvert(t, NewMux(&mockService{convertErr: tc.err}), `{"value":1,"from":"meter","to":"feet","mode":"python"}`)
			if w.Code != tc.code {
				t.Fatalf("status=%d want %d", w.Code, tc.code)
			}
			e := decodeError(t, w)
			if e.Code != tc.code || e.Error != tc.err.Error() {
				t.Fatalf("unexpected error body: %+v", e)
			}
		})
	}
}

func TestHistoryHandler_DefaultAndClampedLimit(t *testing.T) {
	svc := &mockService{history: []types.HistoryEntry{{ID: "a", Mode: "local"}}}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if w.Code != http.StatusOK || svc.gotLimit != 20 {
		t.Fatalf("status=%d limit=%d", w.Code, svc.gotLimit)
	}
	var body []types.HistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body) != 1 {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history?limit=5000", nil))
	if svc.gotLimit != 100 {
		t.Fatalf("limit not clamped: %d", svc.gotLimit)
	}
}

func TestHistoryHandler_InvalidLimit(t *testing.T) {
	for _, q := range []string{"abc", "0", "-1"} {
		w := httptest.NewRecorder()
		NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history?limit="+q, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s status=%d", q, w.Code)
		}
	}
}

func TestHistoryHandler_StoreError(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{historyErr: errors.New("db locked")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if e := decodeError(t, w); strings.Contains(e.Error, "db locked") {
		t.Fatalf("internal error leaked: %q", e.Error)
	}
}

func TestUnitsHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/units", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.UnitsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Categories["length"]) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{
		Workers:          []types.WorkerStatus{{Kind: "cpp", State: "ready", Ready: true, Generation: 2, Restarts: 1}},
		ConversionsTotal: 3,
	}}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Workers) != 1 || body.Workers[0].Restarts != 1 || body.ConversionsTotal != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthzAndReadyz(t *testing.T) {
	r := NewMux(&mockService{ready: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", w.Code)
	}
	w = httptest.NewRecorder()
	NewMux(&mockService{ready: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}
}

func TestSecurityHeader(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/units", nil))
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff header=%q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	Configure(Settings{CORS: CORSOptions([]string{"http://localhost:4200"}, nil, nil)})
	defer Configure(Settings{})
	r := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodOptions, "/api/convert", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Fatalf("allow-origin=%q status=%d", got, w.Code)
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin=%q", got)
	}
}

func TestConvertHandler_UnencodableResultIs500(t *testing.T) {
	svc := &mockService{convertResp: types.ConvertResponse{Result: math.NaN()}}
	w := postConvert(t, NewMux(svc), `{"value":1,"from":"meter","to":"feet","mode":"cpp"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if e := decodeError(t, w); e.Error != "failed to encode response" || e.Code != 500 {
		t.Fatalf("unexpected error body: %+v", e)
	}
}

func TestWriteJSON_CommitsStatusAfterEncoding(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, map[string]float64{"x": math.Inf(1)})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	w = httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, map[string]int{"x": 1})
	if w.Code != http.StatusCreated || w.Body.String() != "{\"x\":1}\n" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}
