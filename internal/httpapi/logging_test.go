package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.Disabled,
		"off":   zerolog.Disabled,
		"error": zerolog.ErrorLevel,
		"WARN":  zerolog.WarnLevel,
		"info":  zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"1":     zerolog.DebugLevel,
		"weird": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	assert.Equal(t, zerolog.DebugLevel, requestLogLevel(r))

	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	assert.Equal(t, zerolog.ErrorLevel, requestLogLevel(r))

	// query wins over header
	r = httptest.NewRequest("GET", "/x?log=off", nil)
	r.Header.Set("X-Log-Level", "debug")
	assert.Equal(t, zerolog.Disabled, requestLogLevel(r))
}

func TestSetDefaultLogLevel(t *testing.T) {
	orig := defaultLogLevel
	defer func() { defaultLogLevel = orig }()
	SetDefaultLogLevel("error")
	assert.Equal(t, zerolog.ErrorLevel, requestLogLevel(httptest.NewRequest("GET", "/x", nil)))
}

func TestLogsAt(t *testing.T) {
	assert.True(t, logsAt(zerolog.DebugLevel, zerolog.InfoLevel))
	assert.True(t, logsAt(zerolog.InfoLevel, zerolog.InfoLevel))
	assert.False(t, logsAt(zerolog.ErrorLevel, zerolog.InfoLevel))
	assert.True(t, logsAt(zerolog.ErrorLevel, zerolog.ErrorLevel))
	assert.False(t, logsAt(zerolog.Disabled, zerolog.ErrorLevel))
}
