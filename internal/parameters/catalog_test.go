package parameters

import (
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/Manta-Network/cli/internal/errors"
)

func TestBuiltinCatalog_ChecksumsMatchEmbeddedFiles(t *testing.T) {
	t.Parallel()

	c, err := Builtin()
	require.NoError(t, err)
	require.Len(t, c.Artifacts, 4)

	for _, e := range c.Artifacts {
		assert.Equal(t, SourceEmbedded, e.Source)
		data, err := fs.ReadFile(embeddedArtifacts, e.Location)
		require.NoError(t, err, e.Name)

		want, err := ParseChecksum(e.Checksum)
		require.NoError(t, err)
		assert.True(t, want.Matches(data), "checksum of %s", e.Name)
	}
}

func TestBuiltinCatalog_MissingContexts(t *testing.T) {
	t.Parallel()

	c, err := Builtin()
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, dserrors.ErrConfig)
	assert.Contains(t, err.Error(), "missing 6 artifact(s)")
	assert.Contains(t, err.Error(), "mint-proving-context")
	assert.Contains(t, err.Error(), "reclaim-verifying-context")
	assert.ErrorIs(t, err, ErrIncomplete)

	missing := c.Missing()
	assert.Len(t, missing, 6)
	for _, n := range missing {
		assert.True(t, n.IsContext(), "%s", n)
	}
	assert.False(t, UtxoAccumulatorModelParams.IsContext())
}

func TestParseCatalog_Rejects(t *testing.T) {
	t.Parallel()

	const sum = "0566cba86dfc43f1f2c6c8d0b882a938471b69d74882d16a6fd2dbb5d3ddb900"

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"invalid yaml", "artifacts: [[[", "invalid catalog YAML"},
		{"missing artifacts", "version: 0\n", "artifacts"},
		{"unknown artifact", "artifacts:\n  - {name: wallet, source: embedded, location: x, checksum: " + sum + "}\n", "name"},
		{"unknown source", "artifacts:\n  - {name: mint-proving-context, source: ipfs, location: x, checksum: " + sum + "}\n", "source"},
		{"short checksum", "artifacts:\n  - {name: mint-proving-context, source: download, location: 'https://x', checksum: abcd}\n", "checksum"},
		{"extra field", "artifacts:\n  - {name: mint-proving-context, source: download, location: 'https://x', checksum: " + sum + ", size: 3}\n", "size"},
		{"duplicate", "artifacts:\n  - {name: mint-proving-context, source: download, location: 'https://x', checksum: " + sum + "}\n  - {name: mint-proving-context, source: download, location: 'https://y', checksum: " + sum + "}\n", "more than once"},
		{"version", "version: 2\nartifacts: []\n", "unsupported catalog version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCatalog([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, dserrors.ErrConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCatalog_Validate(t *testing.T) {
	t.Parallel()

	complete := func() *Catalog {
		c, err := Builtin()
		require.NoError(t, err)
		for _, n := range Names[:6] {
			c.Artifacts = append(c.Artifacts, Entry{
				Name:     n,
				Source:   SourceDownload,
				Location: "https://parameters.example/" + string(n),
				Checksum: Sum([]byte(n)).String(),
			})
		}
		return c
	}

	require.NoError(t, complete().Validate())

	tests := []struct {
		name   string
		mutate func(c *Catalog)
		want   string
	}{
		{"unsupported scheme", func(c *Catalog) { c.Artifacts[4].Location = "ftp://x/y" }, "http(s):// or file://"},
		{"bare path", func(c *Catalog) { c.Artifacts[4].Location = "/tmp/mint.dat" }, "http(s):// or file://"},
		{"http without host", func(c *Catalog) { c.Artifacts[4].Location = "https:///mint" }, "no host"},
		{"missing embedded file", func(c *Catalog) { c.Artifacts[0].Location = "absent.dat" }, "no embedded artifact"},
		{"bad checksum", func(c *Catalog) { c.Artifacts[5].Checksum = "zz" }, "invalid checksum"},
		{"duplicate", func(c *Catalog) { c.Artifacts = append(c.Artifacts, c.Artifacts[0]) }, "more than once"},
		{"unknown name", func(c *Catalog) { c.Artifacts[0].Name = "wallet" }, "unknown artifact"},
		{"missing one", func(c *Catalog) { c.Artifacts = c.Artifacts[1:] }, "note-encryption-scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := complete()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, dserrors.ErrConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCatalog_Overlay(t *testing.T) {
	t.Parallel()

	base, err := Builtin()
	require.NoError(t, err)

	replacement := Entry{
		Name:     UtxoCommitmentSchemeParams,
		Source:   SourceDownload,
		Location: "https://parameters.example/utxo",
		Checksum: Sum([]byte("utxo")).String(),
	}
	mint := Entry{
		Name:     MintProvingContext,
		Source:   SourceDownload,
		Location: "https://parameters.example/mint",
		Checksum: Sum([]byte("mint")).String(),
	}

	merged := base.Overlay(&Catalog{Artifacts: []Entry{replacement, mint}})
	require.Len(t, merged.Artifacts, 5)
	assert.Equal(t, MintProvingContext, merged.Artifacts[0].Name, "entries follow Names order")

	got, ok := merged.Lookup(UtxoCommitmentSchemeParams)
	require.True(t, ok)
	assert.Equal(t, replacement, got)

	// The base catalog is untouched.
	got, ok = base.Lookup(UtxoCommitmentSchemeParams)
	require.True(t, ok)
	assert.Equal(t, SourceEmbedded, got.Source)
}

func TestLoadCatalog_ResolvesRelativeFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := "artifacts:\n" +
		"  - {name: mint-proving-context, source: download, location: 'file://mint.dat', checksum: " + Sum(nil).String() + "}\n" +
		"  - {name: reclaim-proving-context, source: download, location: 'file:./keys/reclaim.dat', checksum: " + Sum(nil).String() + "}\n" +
		"  - {name: mint-verifying-context, source: download, location: 'file:///abs/mint.vk', checksum: " + Sum(nil).String() + "}\n"
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	resolve := func(n Name) string {
		e, ok := c.Lookup(n)
		require.True(t, ok)
		u, err := url.Parse(e.Location)
		require.NoError(t, err)
		return e.filePath(u)
	}

	assert.Equal(t, filepath.Join(dir, "mint.dat"), resolve(MintProvingContext))
	assert.Equal(t, filepath.Join(dir, "keys", "reclaim.dat"), resolve(ReclaimProvingContext))
	assert.Equal(t, filepath.FromSlash("/abs/mint.vk"), resolve(MintVerifyingContext))
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dserrors.ErrConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEffective(t *testing.T) {
	t.Parallel()

	c, err := Effective("")
	require.NoError(t, err)
	assert.Len(t, c.Artifacts, 4)

	c, err = Effective(writeOverlay(t, contextArtifacts(t), nil))
	require.NoError(t, err)
	assert.Len(t, c.Artifacts, len(Names))
	assert.NoError(t, c.Validate())
}

func TestParseChecksum(t *testing.T) {
	t.Parallel()

	sum := Sum([]byte("manta"))
	got, err := ParseChecksum(sum.String())
	require.NoError(t, err)
	assert.Equal(t, sum, got)

	_, err = ParseChecksum("not-hex")
	assert.Error(t, err)
	_, err = ParseChecksum("abcd")
	assert.Error(t, err)
}
