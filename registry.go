package mzfilter

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/infodancer/mzfilter/errors"
)

// RulesDecoder parses a rules document into a Ruleset.
type RulesDecoder func(r io.Reader) (Ruleset, error)

// RulesConfig contains settings for loading a ruleset.
type RulesConfig struct {
	// Format is the rules format name (e.g., "json", "yaml").
	// If empty, it is derived from the Path extension.
	Format string

	// Path is the rules file location.
	Path string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]RulesDecoder)
	extensions = make(map[string]string)
)

// Register adds a rules decoder to the registry under name and the given
// file extensions (without the dot).
// It panics if called with an empty name or nil decoder,
// or if the name is already registered.
func Register(name string, decoder RulesDecoder, exts ...string) {
	if name == "" {
		panic("mzfilter: Register called with empty name")
	}
	if decoder == nil {
		panic("mzfilter: Register called with nil decoder")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic("mzfilter: Register called twice for " + name)
	}
	registry[name] = decoder
	for _, ext := range exts {
		extensions[strings.ToLower(ext)] = name
	}
}

// FormatFor returns the registered format for a file path, based on its extension.
func FormatFor(path string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	registryMu.RLock()
	defer registryMu.RUnlock()
	name, ok := extensions[ext]
	return name, ok
}

// Decode parses r using the named format.
func Decode(format string, r io.Reader) (Ruleset, error) {
	registryMu.RLock()
	decoder, ok := registry[format]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.ErrFormatNotRegistered
	}
	return decoder(r)
}

// LoadRules reads and validates the ruleset described by config.
func LoadRules(config RulesConfig) (Ruleset, error) {
	if config.Path == "" {
		return nil, errors.ErrRulesConfigInvalid
	}
	format := config.Format
	if format == "" {
		var ok bool
		if format, ok = FormatFor(config.Path); !ok {
			return nil, errors.ErrFormatNotRegistered
		}
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rs, err := Decode(format, f)
	if err != nil {
		return nil, err
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// RegisteredFormats returns a sorted list of registered rules format names.
func RegisteredFormats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	formats := make([]string, 0, len(registry))
	for name := range registry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}
