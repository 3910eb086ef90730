package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Manta-Network/cli/cmd/manta/commands"
	"github.com/Manta-Network/cli/internal/config"
	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(exitCode(err))
	}
}

// exitCode passes a child process's exit status through; everything else is 1.
func exitCode(err error) int {
	var cmdErr dserrors.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	return 1
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		logFile        string
		nonInteractive bool
	)

	cfg := &config.Config{Logger: logging.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "manta",
		Short: "Manta Network command line interface",
		Long: `manta starts local signers and nodes for the Manta, Calamari and Dolphin
runtimes, and runs private payment simulations against verified SDK parameters.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Logger = logging.NewWithOptions(logging.Options{
				Debug:   debug,
				NoColor: noColor,
				LogFile: logFile,
			})
			cfg.Path = configFile
			cfg.Explicit = cmd.Flags().Changed("config")
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting for a password")

	rootCmd.AddCommand(
		commands.NewSignerCommand(cfg),
		commands.NewSimCommand(cfg),
		commands.NewParamsCommand(cfg),
		commands.NewNodeCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = cfg.Logger.Sync() }()

	return rootCmd.ExecuteContext(ctx)
}
