package parameters

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
	"github.com/stretchr/testify/require"
)

// cubicCircuit proves knowledge of x such that x^3 + x + 5 == y.
type cubicCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *cubicCircuit) Define(api frontend.API) error {
	x3 := api.Mul(c.X, c.X, c.X)
	api.AssertIsEqual(api.Add(x3, c.X, 5), c.Y)
	return nil
}

var (
	keysOnce   sync.Once
	provingKey []byte
	verifyKey  []byte
	keysErr    error
)

// groth16Keys returns encoded BLS12-381 keys for cubicCircuit. Setup runs
// once per test binary.
func groth16Keys(t *testing.T) (pk, vk []byte) {
	t.Helper()

	keysOnce.Do(func() {
		var circuit cubicCircuit
		ccs, err := frontend.Compile(ecc.BLS12_381.ScalarField(), r1cs.NewBuilder, &circuit)
		if err != nil {
			keysErr = err
			return
		}
		p, v, err := groth16.Setup(ccs)
		if err != nil {
			keysErr = err
			return
		}
		var pb, vb bytes.Buffer
		if _, err := p.WriteTo(&pb); err != nil {
			keysErr = err
			return
		}
		if _, err := v.WriteTo(&vb); err != nil {
			keysErr = err
			return
		}
		provingKey, verifyKey = pb.Bytes(), vb.Bytes()
	})
	require.NoError(t, keysErr)
	return provingKey, verifyKey
}

// contextArtifacts returns the six proving/verifying context payloads.
func contextArtifacts(t *testing.T) map[Name][]byte {
	pk, vk := groth16Keys(t)
	return map[Name][]byte{
		MintProvingContext:              pk,
		PrivateTransferProvingContext:   pk,
		ReclaimProvingContext:           pk,
		MintVerifyingContext:            vk,
		PrivateTransferVerifyingContext: vk,
		ReclaimVerifyingContext:         vk,
	}
}

// writeOverlay stores payloads next to a catalog that references them with
// relative file:// locations. Checksums default to the payload's own; pins
// overrides them per artifact.
func writeOverlay(t *testing.T, payloads map[Name][]byte, pins map[Name]Checksum) string {
	t.Helper()

	dir := t.TempDir()
	var doc strings.Builder
	doc.WriteString("version: 0\nartifacts:\n")
	for _, name := range Names {
		data, ok := payloads[name]
		if !ok {
			continue
		}
		file := string(name) + ".dat"
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), data, 0600))

		sum := Sum(data)
		if pin, ok := pins[name]; ok {
			sum = pin
		}
		fmt.Fprintf(&doc, "  - name: %s\n    source: download\n    location: file://%s\n    checksum: %s\n", name, file, sum)
	}

	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc.String()), 0600))
	return path
}
