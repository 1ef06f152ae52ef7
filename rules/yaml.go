package rules

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/infodancer/mzfilter"
)

// DecodeYAML parses a YAML rules document.
func DecodeYAML(r io.Reader) (mzfilter.Ruleset, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid YAML in rules file: %w", err)
	}
	return doc.ruleset()
}
