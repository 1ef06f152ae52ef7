package rules

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/infodancer/mzfilter"
)

// DecodeJSON parses a JSON rules document.
func DecodeJSON(r io.Reader) (mzfilter.Ruleset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON in rules file: %w", err)
	}
	return doc.ruleset()
}
