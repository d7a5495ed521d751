package testctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// buildRootCmdWith constructs a Cobra command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "testctl",
		Short:         "Build, test and smoke-check unitconverter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfg.Root, "root", cfg.Root, "Project root (defaults TESTCTL_ROOT or .)")
	root.PersistentFlags().StringVar(&cfg.LogLvl, "log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults TESTCTL_LOG_LEVEL or info)")
	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Pass -v to go test")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		SetLogLevel(cfg.LogLvl)
	}

	// install group
	installCmd := &cobra.Command{Use: "install", Short: "Install dependencies/tools", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("install requires a subcommand: go")
	}}
	installGo := &cobra.Command{Use: "go", Short: "Download Go modules", Example: "  testctl install go", RunE: func(cmd *cobra.Command, args []string) error { return fnInstallGo(cfg) }}
	installCmd.AddCommand(installGo)
	root.AddCommand(installCmd)

	buildCmd := &cobra.Command{Use: "build", Short: "Build unitconverter and unitworker", RunE: func(cmd *cobra.Command, args []string) error {
		b, err := fnBuild(cfg)
		if err != nil {
			return err
		}
		info("built %s and %s", b.Server, b.Worker)
		return nil
	}}
	buildCmd.Flags().StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory (default <root>/bin)")
	root.AddCommand(buildCmd)

	// test group
	testCmd := &cobra.Command{Use: "test", Short: "Run tests", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("test requires a subcommand: go|integration|blackbox|all")
	}}
	testCmd.PersistentFlags().BoolVar(&cfg.Race, "race", cfg.Race, "Enable the race detector")
	testGo := &cobra.Command{Use: "go", Short: "Run Go unit tests", RunE: func(cmd *cobra.Command, args []string) error { return fnRunGoTests(cfg) }}
	testIntegration := &cobra.Command{Use: "integration", Short: "Run tests that spawn real worker processes", RunE: func(cmd *cobra.Command, args []string) error { return fnRunIntegrationTests(cfg) }}
	testBlackbox := &cobra.Command{Use: "blackbox", Short: "Run the black-box HTTP suite", RunE: func(cmd *cobra.Command, args []string) error { return fnRunBlackboxTests(cfg) }}
	testAll := &cobra.Command{Use: "all", Short: "Go → integration → black-box", RunE: func(cmd *cobra.Command, args []string) error {
		if err := fnRunGoTests(cfg); err != nil {
			return err
		}
		if err := fnRunIntegrationTests(cfg); err != nil {
			return err
		}
		return fnRunBlackboxTests(cfg)
	}}
	testCmd.AddCommand(testGo, testIntegration, testBlackbox, testAll)
	root.AddCommand(testCmd)

	// smoke group
	smokeCmd := &cobra.Command{Use: "smoke", Short: "Quick end-to-end checks against built binaries", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("smoke requires a subcommand: worker|server")
	}}
	smokeCmd.PersistentFlags().StringVar(&cfg.WorkerCmd, "cmd", cfg.WorkerCmd, "Worker command line to check instead of the reference worker")
	smokeWorker := &cobra.Command{Use: "worker", Short: "Speak the line protocol to one worker", Example: "  testctl smoke worker\n  testctl smoke worker --cmd \"python3 workers/python/worker.py\"", RunE: func(cmd *cobra.Command, args []string) error { return fnSmokeWorker(cfg) }}
	smokeServer := &cobra.Command{Use: "server", Short: "Serve with every worker enabled and convert through each mode", RunE: func(cmd *cobra.Command, args []string) error { return fnSmokeServer(cfg) }}
	smokeServer.Flags().IntVar(&cfg.Port, "port", cfg.Port, "Listen port (defaults TESTCTL_PORT or a free port)")
	smokeServer.Flags().BoolVar(&cfg.Force, "force", cfg.Force, "Kill listeners on a busy --port")
	smokeCmd.AddCommand(smokeWorker, smokeServer)
	root.AddCommand(smokeCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}
