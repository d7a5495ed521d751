package testctl

import (
	"context"
)

func installGo(cfg *Config) error {
	info("==== Download Go modules ====")
	return RunCmd(context.Background(), Cmd{Path: "go", Args: []string{"mod", "download"}, Dir: cfg.Root})
}

func goTestArgs(cfg *Config, extra ...string) []string {
	args := []string{"test"}
	if cfg.Verbose {
		args = append(args, "-v")
	}
	if cfg.Race {
		args = append(args, "-race")
	}
	return append(args, extra...)
}

func runGoTests(cfg *Config) error {
	info("==== Run Go tests ====")
	return RunCmd(context.Background(), Cmd{Path: "go", Args: goTestArgs(cfg, "./..."), Dir: cfg.Root, Stream: true})
}

// runIntegrationTests runs the suites that spawn real worker subprocesses.
func runIntegrationTests(cfg *Config) error {
	info("==== Run integration tests ====")
	args := goTestArgs(cfg, "-tags=integration", "-count=1", "./internal/worker/...", "./internal/cli/...")
	return RunCmd(context.Background(), Cmd{Path: "go", Args: args, Dir: cfg.Root, Stream: true})
}

func runBlackboxTests(cfg *Config) error {
	info("==== Run black-box tests ====")
	args := goTestArgs(cfg, "-count=1", "./tests/blackbox/...")
	return RunCmd(context.Background(), Cmd{Path: "go", Args: args, Dir: cfg.Root, Stream: true})
}
