package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtrackerpro/unitconverter/internal/config"
	"github.com/gtrackerpro/unitconverter/internal/worker"
)

// Options are the persistent flags shared by every subcommand.
type Options struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Addr        string
	DBPath      string
	CORSOrigins string

	Stdout io.Writer
	Stderr io.Writer
	// Getenv-style lookup for UNITCONVERTER_* overrides; os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

// resolveConfig layers defaults, the config file, the environment and the
// flags that were explicitly set, in that order.
func resolveConfig(cmd *cobra.Command, opts *Options) (config.Config, error) {
	cfg := config.Defaults()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = config.ApplyDefaults(loaded)
	}
	cfg = config.ApplyEnv(cfg, opts.LookupEnv)
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.LogFormat
	}
	if flags.Changed("addr") {
		cfg.Addr = opts.Addr
	}
	if flags.Changed("db") {
		cfg.DBPath = opts.DBPath
	}
	if flags.Changed("cors-origins") {
		cfg.CORS.Enabled = true
		cfg.CORS.AllowedOrigins = splitCSV(opts.CORSOrigins)
	}
	cfg, err := config.ExpandPaths(cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, config.Validate(cfg)
}

// workerFactories maps every enabled worker in cfg to an exec factory.
func workerFactories(cfg config.Config) map[worker.Kind]worker.ProcessFactory {
	out := make(map[worker.Kind]worker.ProcessFactory)
	for name, w := range cfg.Workers {
		k, err := worker.ParseKind(name)
		if err != nil || !w.Enabled() {
			continue
		}
		out[k] = worker.ExecFactory(worker.Command{Path: w.Command, Args: w.Args, Dir: w.Dir, Env: w.Env})
	}
	return out
}

// buildRootCmdWith constructs the Cobra command tree.
func buildRootCmdWith(opts *Options) *cobra.Command {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	root := &cobra.Command{
		Use:           "unitconverter",
		Short:         "Unit conversion service with supervised C++/Python/Java workers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug|info|warn|error (defaults UNITCONVERTER_LOG_LEVEL)")
	pf.StringVar(&opts.LogFormat, "log-format", "json", "Log format: json|console")
	pf.StringVar(&opts.DBPath, "db", "", "SQLite history database (defaults UNITCONVERTER_DB or ~/.unitconverter/history.db)")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API and supervise the configured workers",
		Example: "  unitconverter serve --addr :3000 -c unitconverter.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return fnServe(cmd.Context(), cfg, opts)
		},
	}
	serveCmd.Flags().StringVar(&opts.Addr, "addr", ":3000", "HTTP listen address (defaults UNITCONVERTER_ADDR)")
	serveCmd.Flags().StringVar(&opts.CORSOrigins, "cors-origins", "", "Enable CORS for these comma-separated origins")
	root.AddCommand(serveCmd)

	var mode string
	var asJSON bool
	var readyTimeout time.Duration
	convertCmd := &cobra.Command{
		Use:     "convert <value> <from> <to>",
		Short:   "Convert a single value and exit",
		Example: "  unitconverter convert 1 meter feet\n  unitconverter convert 100 celsius fahrenheit --mode python -c unitconverter.yaml",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cfg, opts, args, mode, readyTimeout, asJSON)
		},
	}
	convertCmd.Flags().StringVarP(&mode, "mode", "m", "local", "Execution mode: local|cpp|python|java")
	convertCmd.Flags().DurationVar(&readyTimeout, "ready-timeout", 10*time.Second, "How long to wait for a worker to print READY")
	convertCmd.Flags().BoolVar(&asJSON, "json", false, "Print the response as JSON")
	root.AddCommand(convertCmd)

	unitsCmd := &cobra.Command{
		Use:   "units",
		Short: "List supported units per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnits(opts.Stdout)
		},
	}
	root.AddCommand(unitsCmd)

	var limit int
	var historyJSON bool
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent conversions from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runHistory(cmd.Context(), cfg, opts.Stdout, limit, historyJSON)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries (max 100)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON")
	root.AddCommand(historyCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(opts.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(opts.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(opts.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(opts.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}
