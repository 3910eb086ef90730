package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Manta-Network/cli/internal/config"
	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/parameters"
)

// newTestConfig returns a config whose file is content, or a missing default
// file when content is empty.
func newTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	explicit := false
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		explicit = true
	}
	return &config.Config{
		Path:     path,
		Explicit: explicit,
		Logger:   logging.New(false, true),
	}
}

// execute runs cmd with args and returns what it printed.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeScript creates an executable shell script.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0700))
	return path
}

type cubicCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *cubicCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Add(api.Mul(c.X, c.X, c.X), c.X, 5), c.Y)
	return nil
}

var (
	keysOnce sync.Once
	pkBytes  []byte
	vkBytes  []byte
	keysErr  error
)

// contextCatalog writes the proving and verifying contexts next to an overlay
// catalog and returns the catalog path.
func contextCatalog(t *testing.T) string {
	t.Helper()

	keysOnce.Do(func() {
		var circuit cubicCircuit
		ccs, err := frontend.Compile(ecc.BLS12_381.ScalarField(), r1cs.NewBuilder, &circuit)
		if err != nil {
			keysErr = err
			return
		}
		pk, vk, err := groth16.Setup(ccs)
		if err != nil {
			keysErr = err
			return
		}
		var pb, vb bytes.Buffer
		if _, err := pk.WriteTo(&pb); err != nil {
			keysErr = err
			return
		}
		if _, err := vk.WriteTo(&vb); err != nil {
			keysErr = err
			return
		}
		pkBytes, vkBytes = pb.Bytes(), vb.Bytes()
	})
	require.NoError(t, keysErr)

	payloads := map[parameters.Name][]byte{
		parameters.MintProvingContext:              pkBytes,
		parameters.PrivateTransferProvingContext:   pkBytes,
		parameters.ReclaimProvingContext:           pkBytes,
		parameters.MintVerifyingContext:            vkBytes,
		parameters.PrivateTransferVerifyingContext: vkBytes,
		parameters.ReclaimVerifyingContext:         vkBytes,
	}

	dir := t.TempDir()
	var doc strings.Builder
	doc.WriteString("version: 0\nartifacts:\n")
	for _, name := range parameters.Names {
		data, ok := payloads[name]
		if !ok {
			continue
		}
		file := string(name) + ".dat"
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), data, 0600))
		fmt.Fprintf(&doc, "  - name: %s\n    source: download\n    location: file://%s\n    checksum: %s\n",
			name, file, parameters.Sum(data))
	}

	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc.String()), 0600))
	return path
}
