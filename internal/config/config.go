// Package config loads the ddlgen configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/ddlgen/internal/platform"
)

const (
	CurrentVersion = 1
	DefaultPath    = "ddlgen.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version              int          `yaml:"version"`
	Dialect              string       `yaml:"dialect,omitempty"`
	DatabaseURL          string       `yaml:"database_url,omitempty"`
	SchemaName           string       `yaml:"schema_name,omitempty"`
	SchemaFile           string       `yaml:"schema_file,omitempty"`
	DelimitedIdentifiers *bool        `yaml:"delimited_identifiers,omitempty"`
	Tables               []string     `yaml:"tables,omitempty"`
	ExcludeTables        []string     `yaml:"exclude_tables,omitempty"`
	Output               OutputConfig `yaml:"output,omitempty"`
	Logging              LogConfig    `yaml:"logging,omitempty"`
}

// OutputConfig defines where generated DDL goes.
type OutputConfig struct {
	File   string `yaml:"file,omitempty"`   // single script, stdout when empty
	Dir    string `yaml:"dir,omitempty"`    // one file per table
	Format string `yaml:"format,omitempty"` // text or markdown, for diff
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console or json
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the config file from the given path. A missing file
// at the default path yields the defaults; a missing file named explicitly
// is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Annotate(err, "reading config")
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Annotate(err, "parsing config")
	}

	if cfg.Version != CurrentVersion {
		return nil, errors.NotSupportedf("config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	cfg.DatabaseURL = os.ExpandEnv(cfg.DatabaseURL)
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Annotate(err, "creating config directory")
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Annotate(err, "marshaling config")
	}

	return errors.Trace(os.WriteFile(path, data, 0o600))
}

func (c *Config) applyDefaults() {
	if c.DelimitedIdentifiers == nil {
		delimited := true
		c.DelimitedIdentifiers = &delimited
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Delimited reports whether identifiers are quoted in generated DDL.
func (c *Config) Delimited() bool {
	return c.DelimitedIdentifiers == nil || *c.DelimitedIdentifiers
}

// Validate checks the values a command is about to use.
func (c *Config) Validate() error {
	if c.Dialect != "" {
		if _, err := platform.Lookup(c.Dialect); err != nil {
			return errors.Trace(err)
		}
	}
	switch c.Output.Format {
	case "text", "markdown":
	default:
		return errors.NotValidf("output format %q", c.Output.Format)
	}
	if c.Output.File != "" && c.Output.Dir != "" {
		return errors.NotValidf("output file and output dir together")
	}
	return nil
}
