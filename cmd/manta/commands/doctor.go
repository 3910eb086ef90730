package commands

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Manta-Network/cli/internal/config"
	"github.com/Manta-Network/cli/internal/execenv"
	"github.com/Manta-Network/cli/internal/parameters"
	"github.com/Manta-Network/cli/internal/signer"
)

// CheckResult is the outcome of one doctor check.
type CheckResult struct {
	Name       string
	OK         bool
	Warning    bool // passed, but the feature it covers is not usable yet
	Message    string
	Suggestion string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local manta setup",
		Long: `Verify that manta can bootstrap on this machine.

This command checks:
- Configuration file validity
- The signer and node binaries are on PATH
- The effective parameter catalog is complete
- Where the default signer storage lives`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking manta setup...")

			var results []CheckResult
			if err := cfg.Load(); err != nil {
				results = append(results, CheckResult{
					Name:       "config",
					Message:    err.Error(),
					Suggestion: fmt.Sprintf("Fix or remove %s", cfg.Path),
				})
			} else {
				results = append(results, CheckResult{Name: "config", OK: true, Message: "loaded"})
				results = append(results,
					checkBinary("signer binary", cfg.SignerBinary()),
					checkBinary("node binary", cfg.NodeBinary()),
					checkCatalog(cfg.CatalogPath()),
					checkSignerStorage(cfg),
				)
			}

			displayCheckResults(cmd.OutOrStdout(), results, verbose)

			passed, warnings := 0, 0
			for _, r := range results {
				if r.OK {
					passed++
				}
				if r.Warning {
					warnings++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSummary: %d/%d checks passed", passed, len(results))
			if warnings > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d warning(s)", warnings)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if passed < len(results) {
				return fmt.Errorf("%d check(s) failed", len(results)-passed)
			}
			if warnings > 0 {
				cfg.Logger.Warn("Some features are not configured yet")
				return nil
			}
			cfg.Logger.Info("✓ All systems operational!")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show suggestions for failed checks")

	return cmd
}

func checkBinary(name, binary string) CheckResult {
	if err := execenv.ValidateCommand([]string{binary}); err != nil {
		return CheckResult{
			Name:       name,
			Message:    fmt.Sprintf("%s not found", binary),
			Suggestion: fmt.Sprintf("Install %s or set its path in the config file", binary),
		}
	}
	return CheckResult{Name: name, OK: true, Message: binary}
}

// checkCatalog warns rather than fails when only the proving and verifying
// contexts are missing; the built-in catalog does not ship them.
func checkCatalog(path string) CheckResult {
	catalog, err := parameters.Effective(path)
	if err == nil {
		err = catalog.Validate()
	}
	if errors.Is(err, parameters.ErrIncomplete) && onlyContexts(catalog.Missing()) {
		return CheckResult{
			Name:       "parameter catalog",
			OK:         true,
			Warning:    true,
			Message:    fmt.Sprintf("contexts not configured (%d artifacts missing)", len(catalog.Missing())),
			Suggestion: "Pass --catalog or set parameters.catalog to a catalog with the proving and verifying contexts",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       "parameter catalog",
			Message:    err.Error(),
			Suggestion: "Pass --catalog or set parameters.catalog to a catalog with the proving and verifying contexts",
		}
	}
	return CheckResult{Name: "parameter catalog", OK: true, Message: fmt.Sprintf("%d artifacts", len(catalog.Artifacts))}
}

func onlyContexts(names []parameters.Name) bool {
	for _, n := range names {
		if !n.IsContext() {
			return false
		}
	}
	return true
}

// checkSignerStorage only reports where the storage lives. A missing file is
// fine; the signer creates it on first start.
func checkSignerStorage(cfg *config.Config) CheckResult {
	defaults, err := signer.DefaultConfig()
	if err == nil {
		defaults, err = defaults.Apply(signer.Overrides{DataPath: cfg.SignerOverrides().DataPath})
	}
	if err != nil {
		return CheckResult{Name: "signer storage", Message: err.Error()}
	}

	entries, err := signer.List(defaults)
	if err != nil {
		return CheckResult{Name: "signer storage", Message: err.Error()}
	}
	if len(entries) == 0 {
		return CheckResult{Name: "signer storage", OK: true, Message: "none yet (" + defaults.DataPath + ")"}
	}
	return CheckResult{Name: "signer storage", OK: true, Message: defaults.DataPath}
}

func displayCheckResults(out io.Writer, results []CheckResult, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")
	for _, r := range results {
		status := "✓ ok"
		switch {
		case !r.OK:
			status = "✗ error"
		case r.Warning:
			status = "! warning"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, status, r.Message)
	}
	_ = w.Flush()

	if !verbose {
		return
	}
	for _, r := range results {
		if (!r.OK || r.Warning) && r.Suggestion != "" {
			fmt.Fprintf(out, "\n%s:\n  • %s\n", r.Name, r.Suggestion)
		}
	}
}
