package commands

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Manta-Network/cli/internal/config"
	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/parameters"
	"github.com/Manta-Network/cli/internal/simulation"
)

// NewSimCommand creates the simulation command.
func NewSimCommand(cfg *config.Config) *cobra.Command {
	return newSimCommand(cfg, func(sc config.SimulationConfig) simulation.Runner {
		return simulation.NewHarness(simulation.Config{
			Actors:   sc.Actors,
			Lifetime: sc.Lifetime,
			Workers:  sc.Workers,
		}, simulation.DryStep, cfg.Logger)
	})
}

func newSimCommand(cfg *config.Config, newRunner func(config.SimulationConfig) simulation.Runner) *cobra.Command {
	var (
		catalogPath string
		actors      int
		lifetime    int
		workers     int
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a private payment simulation",
		Long: `Run a private payment simulation.

The proving and verifying contexts, scheme parameters and accumulator model
are fetched first and checked against their pinned checksums. The simulation
only starts once every artifact has been verified and decoded.

The built-in catalog covers the scheme parameters. Supply the proving and
verifying contexts with --catalog (or parameters.catalog in the config file).

Examples:
  manta sim --catalog ./testnet-catalog.yaml
  manta sim --catalog ./testnet-catalog.yaml --actors 20 --lifetime 500
  manta sim --catalog ./testnet-catalog.yaml --metrics-file sim.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			sc := cfg.Simulation()
			flags := cmd.Flags()
			if flags.Changed("actors") {
				sc.Actors = actors
			}
			if flags.Changed("lifetime") {
				sc.Lifetime = lifetime
			}
			if flags.Changed("workers") {
				sc.Workers = workers
			}
			if sc.Actors < 1 || sc.Lifetime < 1 || sc.Workers < 1 {
				return dserrors.UserError{
					Message:    "Invalid simulation size",
					Details:    fmt.Sprintf("actors %d, lifetime %d, workers %d", sc.Actors, sc.Lifetime, sc.Workers),
					Suggestion: "Actors, lifetime and workers must all be at least 1",
				}
			}

			if !flags.Changed("catalog") {
				catalogPath = cfg.CatalogPath()
			}

			metrics := parameters.NewMetrics()
			bundle, err := loadBundle(cmd, cfg, catalogPath, metrics)
			if metricsFile != "" {
				if werr := metrics.WriteFile(metricsFile); werr != nil {
					cfg.Logger.Warn("Failed to write metrics to %s: %v", metricsFile, werr)
				}
			}
			if err != nil {
				return err
			}

			if err := newRunner(sc).Run(cmd.Context(), bundle, rand.Reader); err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Parameter catalog overlaying the built-in one")
	cmd.Flags().IntVar(&actors, "actors", config.DefaultActors, "Number of simulated wallets")
	cmd.Flags().IntVar(&lifetime, "lifetime", config.DefaultLifetime, "Steps each wallet takes")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "Size of the worker pool")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write parameter loading metrics to this file")

	return cmd
}

// loadBundle builds the effective catalog and runs the verified loader.
func loadBundle(cmd *cobra.Command, cfg *config.Config, catalogPath string, metrics *parameters.Metrics) (*parameters.Bundle, error) {
	catalog, err := parameters.Effective(catalogPath)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("Fetching and verifying %d parameter artifacts...", len(parameters.Names))
	loader := parameters.NewLoader(catalog,
		parameters.WithMetrics(metrics),
		parameters.WithLogger(cfg.Logger),
		parameters.WithTimeout(time.Duration(cfg.FetchTimeoutMs())*time.Millisecond),
	)
	return loader.Load(cmd.Context())
}
