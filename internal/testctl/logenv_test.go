package testctl

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	const key = "TESTCTL_ENV_PROBE"

	t.Run("unset", func(t *testing.T) {
		t.Setenv(key, "")
		assert.Equal(t, "def", envStr(key, "def"))
		assert.True(t, envBool(key, true))
		assert.Equal(t, 7, envInt(key, 7))
	})

	t.Run("bool", func(t *testing.T) {
		for in, want := range map[string]bool{"1": true, "TRUE": true, "yes": true, "on": true, "no": false, "0": false} {
			t.Setenv(key, in)
			assert.Equal(t, want, envBool(key, !want), in)
		}
	})

	t.Run("int", func(t *testing.T) {
		t.Setenv(key, " 42 ")
		assert.Equal(t, 42, envInt(key, 0))
		t.Setenv(key, "forty")
		assert.Equal(t, 5, envInt(key, 5))
	})

	t.Run("str", func(t *testing.T) {
		t.Setenv(key, "val")
		assert.Equal(t, "val", envStr(key, "def"))
	})
}

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { SetLogLevel("info") })
	for in, want := range map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"Warning": zerolog.WarnLevel,
		"err":     zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	} {
		SetLogLevel(in)
		assert.Equal(t, want, logger.GetLevel(), "level %q", in)
	}
}
