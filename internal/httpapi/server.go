package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gtrackerpro/unitconverter/internal/history"
	"github.com/gtrackerpro/unitconverter/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Convert(ctx context.Context, req types.ConvertRequest) (types.ConvertResponse, error)
	History(ctx context.Context, limit int) ([]types.HistoryEntry, error)
	Units() types.UnitsResponse
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if current.CORS != nil {
		r.Use(cors.Handler(*current.CORS))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/convert", convertHandler(svc))
		r.Get("/history", historyHandler(svc))
		r.Get("/units", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Units())
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// convertHandler godoc
// @Summary      Convert a value
// @Description  Converts value between two units of one category, locally or on a worker.
// @Tags         conversion
// @Accept       json
// @Produce      json
// @Param        request  body      types.ConvertRequest  true  "Conversion request"
// @Success      200      {object}  types.ConvertResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      504      {object}  types.ErrorResponse
// @Router       /api/convert [post]
func convertHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, current.MaxBodyBytes)
		var req types.ConvertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if logsAt(lvl, zerolog.DebugLevel) {
			logEvent(r, zlog.Debug()).Float64("value", req.Value).Str("from", req.From).
				Str("to", req.To).Str("mode", req.Mode).Msg("convert start")
		}
		ctx, done := requestContext(r)
		defer done()
		resp, err := svc.Convert(ctx, req)
		if err != nil {
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			switch {
			case status >= http.StatusInternalServerError && logsAt(lvl, zerolog.ErrorLevel):
				logEvent(r, zlog.Error()).Int("status", status).Str("mode", req.Mode).
					Dur("dur", time.Since(start)).Err(err).Msg("convert end")
			case logsAt(lvl, zerolog.InfoLevel):
				logEvent(r, zlog.Info()).Int("status", status).Str("mode", req.Mode).
					Dur("dur", time.Since(start)).Err(err).Msg("convert end")
			}
			return
		}
		writeJSON(w, http.StatusOK, resp)
		if logsAt(lvl, zerolog.InfoLevel) {
			logEvent(r, zlog.Info()).Int("status", http.StatusOK).Str("mode", req.Mode).
				Float64("time_taken_ms", resp.TimeTakenMS).Dur("dur", time.Since(start)).Msg("convert end")
		}
	}
}

// historyHandler godoc
// @Summary      Recent conversions
// @Description  Returns the most recent conversions, newest first.
// @Tags         conversion
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (default 20, max 100)"
// @Success      200    {array}   types.HistoryEntry
// @Failure      400    {object}  types.ErrorResponse
// @Failure      500    {object}  types.ErrorResponse
// @Router       /api/history [get]
func historyHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := current.HistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}
		entries, err := svc.History(r.Context(), history.ClampLimit(limit))
		if err != nil {
			logEvent(r, zlog.Error()).Err(err).Msg("history query failed")
			writeJSONError(w, http.StatusInternalServerError, "failed to retrieve conversion history")
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// writeJSON encodes v before committing status, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		zlog.Error().Err(err).Msg("encode response")
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
