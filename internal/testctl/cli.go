package testctl

import (
	"fmt"
	"io"
	"os"
)

// Config carries the persistent flags shared by every subcommand.
type Config struct {
	Root      string // project root, where go commands run
	OutDir    string // build output, default <Root>/bin
	LogLvl    string
	Verbose   bool
	Race      bool
	Port      int    // smoke server port, 0 picks a free one
	Force     bool   // free a busy --port with fuser
	WorkerCmd string // external worker command line for smoke runs
}

// DefaultConfig reads TESTCTL_* environment defaults.
func DefaultConfig() *Config {
	return &Config{
		Root:    envStr("TESTCTL_ROOT", "."),
		LogLvl:  envStr("TESTCTL_LOG_LEVEL", "info"),
		Verbose: envBool("TESTCTL_VERBOSE", false),
		Port:    envInt("TESTCTL_PORT", 0),
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: testctl [--root DIR] [--log-level info] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  install go")
	fmt.Fprintln(w, "  build [--out DIR]")
	fmt.Fprintln(w, "  test go|integration|blackbox|all")
	fmt.Fprintln(w, "  smoke worker [--cmd \"path args\"]")
	fmt.Fprintln(w, "  smoke server [--port N] [--force]")
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(args []string) int {
	for _, a := range args {
		if a == "-h" || a == "--help" || a == "help" {
			usage(os.Stdout)
			return 0
		}
	}
	if len(args) == 0 {
		usage(os.Stdout)
		return 2
	}
	root := buildRootCmdWith(DefaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		errl("%v", err)
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/testctl.
func Main() int { return MainWithArgs(os.Args[1:]) }
