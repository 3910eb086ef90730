package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/logging"
)

//go:embed config.schema.json
var schema []byte

// Defaults applied when the config file leaves a field unset.
const (
	DefaultSignerBinary   = "manta-signer"
	DefaultNodeBinary     = "manta"
	DefaultKeyringService = "manta-signer"
	DefaultKeyringAccount = "default"
	DefaultFetchTimeoutMs = 300000
	DefaultWorkers        = 4
	DefaultActors         = 10
	DefaultLifetime       = 100
)

// Config holds the runtime configuration
type Config struct {
	Path           string
	Explicit       bool // Path was given on the command line
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition represents the config.yaml structure
type Definition struct {
	Version    int              `yaml:"version"`
	Signer     SignerConfig     `yaml:"signer,omitempty"`
	Node       NodeConfig       `yaml:"node,omitempty"`
	Parameters ParametersConfig `yaml:"parameters,omitempty"`
	Simulation SimulationConfig `yaml:"simulation,omitempty"`
}

// SignerConfig overrides the platform defaults of the local signer.
type SignerConfig struct {
	DataPath       string `yaml:"data_path,omitempty"`
	ServiceURL     string `yaml:"service_url,omitempty"`
	Binary         string `yaml:"binary,omitempty"`
	KeyringService string `yaml:"keyring_service,omitempty"`
	KeyringAccount string `yaml:"keyring_account,omitempty"`
}

// NodeConfig locates the external node binary.
type NodeConfig struct {
	Binary string `yaml:"binary,omitempty"`
}

// ParametersConfig points at the artifact catalog for the simulation.
type ParametersConfig struct {
	Catalog   string `yaml:"catalog,omitempty"`
	TimeoutMs int    `yaml:"timeout_ms,omitempty"`
}

// SimulationConfig holds simulation defaults.
type SimulationConfig struct {
	Workers  int `yaml:"workers,omitempty"`
	Actors   int `yaml:"actors,omitempty"`
	Lifetime int `yaml:"lifetime,omitempty"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := homedir.Dir()
		if herr != nil {
			return "config.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "manta", "config.yaml")
}

// ExpandPath resolves a leading ~ in user-supplied paths.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// Load reads and parses the config file. A missing file is only an error
// when the path was given explicitly; otherwise built-in defaults apply.
func (c *Config) Load() error {
	if c.Path == "" {
		c.Path = DefaultPath()
	}
	path, err := ExpandPath(c.Path)
	if err != nil {
		return dserrors.ConfigError{
			Field:   "path",
			Value:   c.Path,
			Message: err.Error(),
		}
	}
	c.Path = path

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) && !c.Explicit {
			c.Definition = &Definition{}
			return nil
		}
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path or omit it to use built-in defaults",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.Definition = def
	return nil
}

// Parse validates and decodes a config document.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	if err := ValidateSchema(schema, raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    err.Error(),
			Suggestion: "Remove unknown keys and check value types",
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{
			Message: fmt.Sprintf("invalid configuration: %v", err),
		}
	}

	if def.Version != 0 {
		return nil, dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your config file",
		}
	}

	return &def, nil
}

// ValidateSchema checks a decoded document against a JSON Schema.
func ValidateSchema(schemaJSON []byte, doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal data for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}
	return nil
}

func (c *Config) definition() *Definition {
	if c.Definition == nil {
		return &Definition{}
	}
	return c.Definition
}

// SignerOverrides returns the signer settings from the config file.
func (c *Config) SignerOverrides() SignerConfig {
	return c.definition().Signer
}

// SignerBinary returns the external signer executable.
func (c *Config) SignerBinary() string {
	if b := c.definition().Signer.Binary; b != "" {
		return b
	}
	return DefaultSignerBinary
}

// NodeBinary returns the external node executable.
func (c *Config) NodeBinary() string {
	if b := c.definition().Node.Binary; b != "" {
		return b
	}
	return DefaultNodeBinary
}

// KeyringEntry returns the keyring service and account for the signer password.
func (c *Config) KeyringEntry() (service, account string) {
	s := c.definition().Signer
	service, account = s.KeyringService, s.KeyringAccount
	if service == "" {
		service = DefaultKeyringService
	}
	if account == "" {
		account = DefaultKeyringAccount
	}
	return service, account
}

// CatalogPath returns the configured artifact catalog, if any. A relative
// path is taken relative to the config file's directory.
func (c *Config) CatalogPath() string {
	p := c.definition().Parameters.Catalog
	if p == "" {
		return ""
	}
	if expanded, err := ExpandPath(p); err == nil {
		p = expanded
	}
	if filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// FetchTimeoutMs returns the parameter download timeout in milliseconds
func (c *Config) FetchTimeoutMs() int {
	if t := c.definition().Parameters.TimeoutMs; t > 0 {
		return t
	}
	return DefaultFetchTimeoutMs
}

// Simulation returns simulation settings with defaults filled in.
func (c *Config) Simulation() SimulationConfig {
	s := c.definition().Simulation
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.Actors <= 0 {
		s.Actors = DefaultActors
	}
	if s.Lifetime <= 0 {
		s.Lifetime = DefaultLifetime
	}
	return s
}
