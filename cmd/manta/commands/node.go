package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Manta-Network/cli/internal/chain"
	"github.com/Manta-Network/cli/internal/config"
	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/execenv"
)

// NewNodeCommand creates the node command group.
func NewNodeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run a Manta node",
	}
	cmd.AddCommand(newNodeStartCommand(cfg))
	return cmd
}

func newNodeStartCommand(cfg *config.Config) *cobra.Command {
	var (
		runtime string
		envVars []string
	)

	cmd := &cobra.Command{
		Use:   "start --runtime <runtime> [-- node-args...]",
		Short: "Start the node binary for a runtime",
		Long: `Start the external node binary with --chain set to the selected runtime.
Anything after -- is passed to the node unchanged.

Examples:
  manta node start --runtime calamari
  manta node start --runtime dolphin -- --rpc-port 9934
  manta node start --runtime manta --env RUST_LOG=info`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := chain.Parse(runtime)
			if err != nil {
				return err
			}
			env, err := execenv.ParseEnv(envVars)
			if err != nil {
				return err
			}
			if err := cfg.Load(); err != nil {
				return err
			}

			command := append([]string{cfg.NodeBinary(), "--chain", r.String()}, args...)
			cfg.Logger.Debug("Starting node: %v", command)

			err = execenv.New(cfg.Logger).Exec(cmd.Context(), execenv.ExecOptions{
				Command:     command,
				Environment: env,
				Stdin:       cmd.InOrStdin(),
				Stdout:      cmd.OutOrStdout(),
				Stderr:      cmd.ErrOrStderr(),
			})
			var cmdErr dserrors.CommandError
			if err == nil || errors.As(err, &cmdErr) {
				return err
			}
			return fmt.Errorf("node %s: %w", r, err)
		},
	}

	cmd.Flags().StringVar(&runtime, "runtime", "", fmt.Sprintf("Chain runtime (%s)", chain.Names(chain.All)))
	cmd.Flags().StringArrayVar(&envVars, "env", nil, "Extra environment variable for the node (KEY=VALUE)")
	_ = cmd.MarkFlagRequired("runtime")

	return cmd
}
