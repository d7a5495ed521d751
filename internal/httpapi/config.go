package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultPageSize     = 20
)

// Settings are the process-wide HTTP options. Apply them with Configure
// before NewMux; zero fields take defaults.
type Settings struct {
	MaxBodyBytes int64 // JSON body limit for /api/convert
	HistoryLimit int   // /api/history page size without ?limit
	CORS         *cors.Options
	// BaseContext, once canceled, cancels every in-flight conversion.
	BaseContext context.Context
}

var current = normalize(Settings{})

func normalize(s Settings) Settings {
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = defaultMaxBodyBytes
	}
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = defaultPageSize
	}
	if s.BaseContext == nil {
		s.BaseContext = context.Background()
	}
	return s
}

// Configure replaces the current settings.
func Configure(s Settings) { current = normalize(s) }

// CORSOptions builds go-chi/cors options for origins. Empty methods and
// headers default to what the browser client sends.
func CORSOptions(origins, methods, headers []string) *cors.Options {
	o := &cors.Options{
		AllowedOrigins: append([]string(nil), origins...),
		AllowedMethods: append([]string(nil), methods...),
		AllowedHeaders: append([]string(nil), headers...),
		MaxAge:         300,
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if len(o.AllowedMethods) == 0 {
		o.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(o.AllowedHeaders) == 0 {
		o.AllowedHeaders = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
	}
	return o
}
