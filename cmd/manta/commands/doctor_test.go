package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCommand_AllChecksPass(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "exit 0")
	storage := filepath.Join(t.TempDir(), "storage.dat")
	cfg := newTestConfig(t, "version: 0\nsigner:\n  binary: "+script+"\n  data_path: "+storage+
		"\nnode:\n  binary: "+script+"\nparameters:\n  catalog: "+contextCatalog(t)+"\n")

	out, err := execute(t, NewDoctorCommand(cfg))
	require.NoError(t, err)

	assert.Contains(t, out, "CHECK")
	assert.Contains(t, out, "none yet ("+storage+")")
	assert.Contains(t, out, "Summary: 5/5 checks passed")
}

func TestDoctorCommand_ReportsFailures(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing")
	cfg := newTestConfig(t, "version: 0\nsigner:\n  binary: "+missing+"\nnode:\n  binary: "+missing+"\n")

	out, err := execute(t, NewDoctorCommand(cfg), "--verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 check(s) failed")

	assert.Contains(t, out, "✗ error")
	assert.Contains(t, out, "Install "+missing)
	assert.Contains(t, out, "Summary: 3/5 checks passed, 1 warning(s)")
}

func TestDoctorCommand_MissingContextsIsWarning(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "exit 0")
	cfg := newTestConfig(t, "version: 0\nsigner:\n  binary: "+script+"\nnode:\n  binary: "+script+"\n")

	out, err := execute(t, NewDoctorCommand(cfg), "--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, "! warning")
	assert.Contains(t, out, "contexts not configured (6 artifacts missing)")
	assert.Contains(t, out, "Pass --catalog")
	assert.NotContains(t, out, "✗ error")
	assert.Contains(t, out, "Summary: 5/5 checks passed, 1 warning(s)")
}

func TestDoctorCommand_BrokenCatalogFails(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "exit 0")
	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte("version: 0\nartifacts:\n  - name: bogus\n"), 0600))
	cfg := newTestConfig(t, "version: 0\nsigner:\n  binary: "+script+"\nnode:\n  binary: "+script+
		"\nparameters:\n  catalog: "+catalog+"\n")

	out, err := execute(t, NewDoctorCommand(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 check(s) failed")
	assert.Contains(t, out, "Summary: 4/5 checks passed")
	assert.NotContains(t, out, "warning")
}

func TestDoctorCommand_BadConfig(t *testing.T) {
	t.Parallel()

	out, err := execute(t, NewDoctorCommand(newTestConfig(t, "version: 3\n")))
	require.Error(t, err)
	assert.Contains(t, out, "unsupported configuration version")
	assert.Contains(t, out, "Summary: 0/1 checks passed")
}

func TestCompletionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "manta"}
	root.AddCommand(NewCompletionCommand(newTestConfig(t, "")))

	out, err := execute(t, root, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "bash completion")

	_, err = execute(t, root, "completion", "tcsh")
	require.Error(t, err)
}
