package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Main runs the CLI with os.Args and exits.
func Main() { os.Exit(MainWithArgs(os.Args[1:])) }

// MainWithArgs runs the command tree and returns the process exit code:
// 0 on success, 1 on command failure, 2 for missing arguments.
func MainWithArgs(args []string) int {
	return RunWithOptions(args, &Options{})
}

// RunWithOptions is MainWithArgs with injectable output and environment.
func RunWithOptions(args []string, opts *Options) int {
	root := buildRootCmdWith(opts)
	if len(args) == 0 {
		_ = root.Usage()
		return 2
	}
	root.SetArgs(args)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(opts.Stderr, "error:", err)
		return 1
	}
	return 0
}
