package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NonexistentFile(t *testing.T) {
	_, err := Load("/definitely/not/a/real/file-12345.yaml")
	assert.Error(t, err)
}

func TestLoad_RejectsBrokenAndUnknown(t *testing.T) {
	cases := []struct {
		name, content, want string
	}{
		{"bad.yaml", "addr: :8080\n: broken\n", "parse"},
		{"bad.json", `{ "addr": ":8080", "workers": }`, "parse"},
		{"bad.toml", "addr=:8080\nworkers\n", "parse"},
		{"typo.yaml", "worker:\n  cpp:\n    command: /bin/uc\n", "worker"},
		{"typo.json", `{"workers":{"cpp":{"cmd":"/bin/uc"}}}`, "cmd"},
		{"typo.toml", "[workers.cpp]\ncommand=\"/bin/uc\"\nretries=3\n", "strict mode"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := writeTempFile(t, t.TempDir(), c.name, c.content)
			_, err := Load(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), p)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestLoad_EmptyYAMLIsZeroConfig(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}
