package parameters

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Manta-Network/cli/internal/config"
	dserrors "github.com/Manta-Network/cli/internal/errors"
)

var (
	//go:embed catalog.yaml
	builtinCatalog []byte

	//go:embed catalog.schema.json
	catalogSchema []byte

	//go:embed testnet/*.dat
	testnetFS embed.FS

	embeddedArtifacts = mustSub(testnetFS, "testnet")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

const catalogStage = "parameter catalog"

// Source says where an artifact's bytes come from.
type Source string

const (
	// SourceEmbedded artifacts are compiled into the binary.
	SourceEmbedded Source = "embedded"
	// SourceDownload artifacts are fetched from an http(s):// or file:// URL.
	SourceDownload Source = "download"
)

// Entry pins one artifact to a location and checksum.
type Entry struct {
	Name     Name   `yaml:"name"`
	Source   Source `yaml:"source"`
	Location string `yaml:"location"`
	Checksum string `yaml:"checksum"`

	// base resolves relative file locations; it is the directory of the
	// catalog file the entry came from.
	base string
}

// Catalog lists where every artifact of the bundle is found.
type Catalog struct {
	Version   int     `yaml:"version"`
	Artifacts []Entry `yaml:"artifacts"`
}

// Builtin returns the catalog compiled into the binary. It covers the
// scheme parameters and the accumulator model.
func Builtin() (*Catalog, error) {
	return ParseCatalog(builtinCatalog)
}

// ParseCatalog validates and decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.Wrap(dserrors.Config, catalogStage, err, "invalid catalog YAML")
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := config.ValidateSchema(catalogSchema, raw); err != nil {
		return nil, dserrors.Wrap(dserrors.Config, catalogStage, err, "invalid catalog")
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, dserrors.Wrap(dserrors.Config, catalogStage, err, "invalid catalog")
	}
	if c.Version != 0 {
		return nil, dserrors.New(dserrors.Config, catalogStage, "unsupported catalog version %d", c.Version)
	}
	seen := make(map[Name]bool, len(c.Artifacts))
	for _, e := range c.Artifacts {
		if seen[e.Name] {
			return nil, dserrors.New(dserrors.Config, catalogStage, "artifact %s listed more than once", e.Name)
		}
		seen[e.Name] = true
	}
	return &c, nil
}

// LoadCatalog reads a catalog file. Relative file:// locations in it are
// resolved against the file's directory.
func LoadCatalog(path string) (*Catalog, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, dserrors.Wrap(dserrors.Config, catalogStage, err, "invalid catalog path %q", path)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, dserrors.Wrap(dserrors.Config, catalogStage, err, "unable to read catalog")
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(filepath.Dir(expanded))
	if err != nil {
		return nil, dserrors.Wrap(dserrors.Config, catalogStage, err, "unable to resolve catalog directory")
	}
	for i := range c.Artifacts {
		c.Artifacts[i].base = base
	}
	return c, nil
}

// Effective returns the built-in catalog overlaid with the catalog at path.
// An empty path yields the built-in catalog alone.
func Effective(path string) (*Catalog, error) {
	c, err := Builtin()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	overlay, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return c.Overlay(overlay), nil
}

// Overlay returns a new catalog with o's entries replacing c's entries of
// the same name. Entries are kept in Names order.
func (c *Catalog) Overlay(o *Catalog) *Catalog {
	byName := make(map[Name]Entry, len(c.Artifacts)+len(o.Artifacts))
	var extra []Entry
	for _, cat := range []*Catalog{c, o} {
		for _, e := range cat.Artifacts {
			if !e.Name.Known() {
				extra = append(extra, e)
				continue
			}
			byName[e.Name] = e
		}
	}

	merged := &Catalog{Version: c.Version}
	for _, n := range Names {
		if e, ok := byName[n]; ok {
			merged.Artifacts = append(merged.Artifacts, e)
		}
	}
	merged.Artifacts = append(merged.Artifacts, extra...)
	return merged
}

// Lookup returns the entry for n.
func (c *Catalog) Lookup(n Name) (Entry, bool) {
	for _, e := range c.Artifacts {
		if e.Name == n {
			return e, true
		}
	}
	return Entry{}, false
}

// ErrIncomplete is reported by Validate when artifacts have no entry.
var ErrIncomplete = errors.New("incomplete catalog")

// Validate checks that the catalog describes exactly one usable entry for
// every artifact. It does no I/O beyond the embedded table.
func (c *Catalog) Validate() error {
	seen := make(map[Name]bool, len(c.Artifacts))
	for _, e := range c.Artifacts {
		if !e.Name.Known() {
			return dserrors.New(dserrors.Config, catalogStage, "unknown artifact %q", e.Name)
		}
		if seen[e.Name] {
			return dserrors.New(dserrors.Config, catalogStage, "artifact %s listed more than once", e.Name)
		}
		seen[e.Name] = true

		if err := e.validate(); err != nil {
			return dserrors.Wrap(dserrors.Config, catalogStage, err, "artifact %s", e.Name)
		}
	}

	if missing := c.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, n := range missing {
			names[i] = string(n)
		}
		sort.Strings(names)
		return dserrors.Wrap(dserrors.Config, catalogStage, ErrIncomplete,
			"catalog is missing %d artifact(s): %s", len(names), strings.Join(names, ", "))
	}
	return nil
}

// Missing returns the artifacts the catalog has no entry for, in Names order.
func (c *Catalog) Missing() []Name {
	var missing []Name
	for _, n := range Names {
		if _, ok := c.Lookup(n); !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

func (e Entry) validate() error {
	if _, err := ParseChecksum(e.Checksum); err != nil {
		return err
	}
	switch e.Source {
	case SourceEmbedded:
		if _, err := fs.Stat(embeddedArtifacts, e.Location); err != nil {
			return fmt.Errorf("no embedded artifact %q", e.Location)
		}
	case SourceDownload:
		if _, err := e.url(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown source %q", e.Source)
	}
	return nil
}

func (e Entry) url() (*url.URL, error) {
	u, err := url.Parse(e.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", e.Location, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("location %q has no host", e.Location)
		}
	case "file":
	default:
		return nil, fmt.Errorf("location %q must be an http(s):// or file:// URL", e.Location)
	}
	return u, nil
}

// filePath maps a file:// location onto the filesystem. Relative paths
// (file://mint.dat, file:./mint.dat) are taken from the catalog directory.
func (e Entry) filePath(u *url.URL) string {
	path := u.Path
	switch {
	case u.Opaque != "":
		path = u.Opaque
	case u.Host != "" && u.Host != "localhost":
		path = u.Host + u.Path
	}
	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) && e.base != "" {
		path = filepath.Join(e.base, path)
	}
	return path
}
