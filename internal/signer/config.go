// Package signer describes the local signer service: where its encrypted
// storage lives, how it is reached, and how it is started.
package signer

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	dserrors "github.com/Manta-Network/cli/internal/errors"
)

const (
	// StorageFile is the name of the signer's encrypted state file.
	StorageFile = "storage.dat"

	// DefaultServiceURL is the address the signer listens on by default.
	DefaultServiceURL = "127.0.0.1:29987"

	configDirName = "manta-signer"
)

// Config is the signer configuration for one invocation.
type Config struct {
	// DataPath is the encrypted storage file. It need not exist yet.
	DataPath string

	// ServiceURL is where the signer serves requests. It is passed to the
	// signer as given.
	ServiceURL string
}

// Overrides are optional replacements for the platform defaults.
type Overrides struct {
	DataPath   string
	ServiceURL string
}

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// DefaultConfig returns the platform default configuration: storage in the
// per-user config directory and the well-known local service address.
func DefaultConfig() (Config, error) {
	dir, err := userConfigDir()
	if err != nil {
		home, herr := homedir.Dir()
		if herr != nil || home == "" {
			return Config{}, dserrors.Wrap(dserrors.Config, "configuration", err,
				"unable to build default signer configuration")
		}
		dir = filepath.Join(home, ".config")
	}
	return Config{
		DataPath:   filepath.Join(dir, configDirName, StorageFile),
		ServiceURL: DefaultServiceURL,
	}, nil
}

// Apply replaces the fields o sets. Paths get ~ expanded.
func (c Config) Apply(o Overrides) (Config, error) {
	if o.DataPath != "" {
		path, err := homedir.Expand(o.DataPath)
		if err != nil {
			return Config{}, dserrors.Wrap(dserrors.Config, "configuration", err,
				"invalid signer data path %q", o.DataPath)
		}
		c.DataPath = path
	}
	if o.ServiceURL != "" {
		c.ServiceURL = o.ServiceURL
	}
	return c, nil
}
