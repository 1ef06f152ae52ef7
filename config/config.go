// Package config loads the optional mzfilter TOML configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/logging"
)

// DefaultRulesFile is used when neither the config file nor the command line names one.
const DefaultRulesFile = "filter_rules.json"

// Config holds the settings of a filtering run.
type Config struct {
	// Maildir is the root maildir containing cur, new and tmp.
	Maildir string `toml:"maildir"`

	// Rules is the rules file path.
	Rules string `toml:"rules"`

	// RulesFormat overrides format detection from the rules file extension.
	RulesFormat string `toml:"rules_format"`

	// Folders lists the subfolders to scan, in order.
	Folders []string `toml:"folders"`

	DryRun  bool `toml:"dry_run"`
	Workers int  `toml:"workers"`

	Logging logging.Config `toml:"logging"`
	Metrics MetricsConfig  `toml:"metrics"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	// Textfile is the output path; empty disables metrics.
	Textfile string `toml:"textfile"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Rules:   DefaultRulesFile,
		Folders: []string{string(mzfilter.SubfolderNew), string(mzfilter.SubfolderCur)},
		Workers: 1,
		Logging: logging.Config{Level: "info", Format: "text"},
	}
}

// searchPaths returns the candidate config locations, in priority order.
func searchPaths() []string {
	paths := []string{"./mzfilter.toml"}
	if p, err := xdg.SearchConfigFile("mzfilter/config.toml"); err == nil {
		paths = append(paths, p)
	}
	return append(paths, "/etc/mzfilter.toml")
}

// Source describes where a Config came from.
type Source struct {
	// Path is the file that was read, or "" when the defaults were used.
	Path string

	// Unknown lists keys in the file that match no setting. They are
	// ignored; callers report them once logging is configured.
	Unknown []string
}

// Load reads the config file at path. With an empty path it tries
// ./mzfilter.toml, $XDG_CONFIG_HOME/mzfilter/config.toml and
// /etc/mzfilter.toml in turn, and returns the defaults if none exists.
func Load(path string) (Config, Source, error) {
	if path != "" {
		cfg, unknown, err := loadFrom(path)
		if err != nil {
			return Config{}, Source{}, err
		}
		return cfg, Source{Path: path, Unknown: unknown}, nil
	}

	for _, p := range searchPaths() {
		cfg, unknown, err := loadFrom(p)
		if err == nil {
			return cfg, Source{Path: p, Unknown: unknown}, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		// For other errors (permission, parse, etc.) return immediately.
		return Config{}, Source{}, err
	}
	return Default(), Source{}, nil
}

func loadFrom(path string) (Config, []string, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil, err
		}
		return Config{}, nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	return cfg, unknown, nil
}

// Subfolders returns the configured scan folders.
func (c Config) Subfolders() ([]mzfilter.Subfolder, error) {
	subs := make([]mzfilter.Subfolder, 0, len(c.Folders))
	seen := make(map[mzfilter.Subfolder]bool)
	for _, f := range c.Folders {
		s, err := mzfilter.ParseSubfolder(f)
		if err != nil {
			return nil, err
		}
		if !seen[s] {
			seen[s] = true
			subs = append(subs, s)
		}
	}
	return subs, nil
}

// Validate checks the settings needed for a run.
func (c Config) Validate() error {
	if c.Maildir == "" {
		return fmt.Errorf("maildir path is required")
	}
	if c.Rules == "" {
		return fmt.Errorf("rules file is required")
	}
	if len(c.Folders) == 0 {
		return fmt.Errorf("at least one folder to scan is required")
	}
	if _, err := c.Subfolders(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
