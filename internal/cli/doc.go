// Package cli implements the unitconverter command tree:
//
//   - root.go:    Options, persistent flags and config resolution.
//   - main.go:    MainWithArgs entry point and exit codes.
//   - serve.go:   HTTP server with supervised workers and history.
//   - oneshot.go: convert, units and history subcommands.
//   - logging.go: zerolog setup and the event publisher.
package cli
