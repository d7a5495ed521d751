package testctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// binaries are the paths of freshly built project executables.
type binaries struct {
	Server string
	Worker string
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// buildBinaries compiles cmd/unitconverter and cmd/unitworker into cfg.OutDir
// (default <root>/bin).
func buildBinaries(cfg *Config) (binaries, error) {
	out := cfg.OutDir
	if out == "" {
		out = filepath.Join(cfg.Root, "bin")
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return binaries{}, err
	}
	out, err := filepath.Abs(out)
	if err != nil {
		return binaries{}, err
	}
	b := binaries{
		Server: filepath.Join(out, exeName("unitconverter")),
		Worker: filepath.Join(out, exeName("unitworker")),
	}
	for pkg, dst := range map[string]string{"./cmd/unitconverter": b.Server, "./cmd/unitworker": b.Worker} {
		info("==== Build %s ====", pkg)
		err := RunCmd(context.Background(), Cmd{
			Path: "go",
			Args: []string{"build", "-o", dst, pkg},
			Dir:  cfg.Root,
			Env:  map[string]string{"CGO_ENABLED": "0"},
		})
		if err != nil {
			return binaries{}, fmt.Errorf("build %s: %w", pkg, err)
		}
	}
	return b, nil
}
