package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Manta-Network/cli/internal/bootstrap"
	"github.com/Manta-Network/cli/internal/chain"
	"github.com/Manta-Network/cli/internal/config"
	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/secret"
	"github.com/Manta-Network/cli/internal/signer"
)

// NewSignerCommand creates the signer command group.
func NewSignerCommand(cfg *config.Config) *cobra.Command {
	return newSignerCommand(cfg, nil)
}

// newSignerCommand takes the service to start; nil launches the external
// signer binary.
func newSignerCommand(cfg *config.Config, service signer.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signer",
		Short: "Run or inspect a local signer",
	}
	cmd.AddCommand(
		newSignerStartCommand(cfg, service),
		newSignerListCommand(cfg),
	)
	return cmd
}

func newSignerStartCommand(cfg *config.Config, service signer.Service) *cobra.Command {
	var (
		runtime    string
		temp       bool
		url        string
		useKeyring bool
		remember   bool
	)

	cmd := &cobra.Command{
		Use:   "start [data-path]",
		Short: "Start a local signer",
		Long: `Start a local signer for the given runtime.

The signer keeps its keys in an encrypted storage file. Without a data path
the default location for your user is used. With --temp the storage lives in
a fresh temporary directory that is deleted when the signer exits, and a
random password is generated instead of prompting.

Examples:
  manta signer start --runtime dolphin
  manta signer start --runtime dolphin ~/signers/test.dat
  manta signer start --runtime dolphin --temp --url 127.0.0.1:29988
  manta signer start --runtime dolphin --keyring --remember`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bootstrap.Options{
				Temp:       temp,
				ServiceURL: url,
				Runtime:    runtime,
				UseKeyring: useKeyring,
			}
			if len(args) == 1 {
				opts.DataPath = args[0]
			}

			// Nothing is read from disk until the arguments are known to be usable.
			if _, err := bootstrap.Validate(opts); err != nil {
				return err
			}
			if cfg.NonInteractive && !temp && !useKeyring {
				return dserrors.UserError{
					Message:    "A password prompt is needed but prompts are disabled",
					Suggestion: "Use --temp for a throwaway signer or --keyring to read the password from the OS keyring",
				}
			}
			if err := cfg.Load(); err != nil {
				return err
			}

			svc := service
			if svc == nil {
				ps := signer.NewProcessService(cfg.SignerBinary(), cfg.Logger)
				ps.Stdout, ps.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
				svc = ps
			}

			overrides := cfg.SignerOverrides()
			keyringService, keyringAccount := cfg.KeyringEntry()
			orchestrator := bootstrap.New(svc,
				bootstrap.WithOverrides(signer.Overrides{
					DataPath:   overrides.DataPath,
					ServiceURL: overrides.ServiceURL,
				}),
				bootstrap.WithLogger(cfg.Logger),
				bootstrap.WithKeyring(func(fallback secret.Authorizer) secret.Authorizer {
					return secret.NewKeyring(keyringService, keyringAccount, fallback,
						secret.WithRemember(remember),
						secret.WithKeyringLogger(cfg.Logger))
				}),
			)
			return orchestrator.Start(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&runtime, "runtime", "", chain.Usage())
	cmd.Flags().BoolVar(&temp, "temp", false, "Store signer state in a temporary directory")
	cmd.Flags().StringVar(&url, "url", "", "Custom service URL for this signer")
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "Read the password from the OS keyring before prompting")
	cmd.Flags().BoolVar(&remember, "remember", false, "Store the prompted password in the OS keyring (with --keyring)")
	_ = cmd.MarkFlagRequired("runtime")

	return cmd
}

func newSignerListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known signers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			defaults, err := signer.DefaultConfig()
			if err != nil {
				return err
			}
			overrides := cfg.SignerOverrides()
			sc, err := defaults.Apply(signer.Overrides{DataPath: overrides.DataPath})
			if err != nil {
				return err
			}

			entries, err := signer.List(sc)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cfg.Logger.Info("No signer storage found at %s", sc.DataPath)
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "Default %s Signer: %s\n", displayName(e.Runtime), e.DataPath)
			}
			return nil
		},
	}
}

func displayName(r chain.Runtime) string {
	s := r.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
