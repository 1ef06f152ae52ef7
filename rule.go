package mzfilter

import (
	"fmt"

	"github.com/infodancer/mzfilter/errors"
)

// Rule maps a header condition to a destination folder.
// Rules are immutable once loaded.
type Rule struct {
	// Name is an optional label used in logs.
	Name string

	// Field is the header the pattern is matched against.
	Field Field

	// Pattern is interpreted according to MatchType.
	Pattern string

	// MatchType selects the comparison.
	MatchType MatchType

	// CaseSensitive disables case folding (and the inline (?i) flag for regex).
	CaseSensitive bool

	// TargetFolder is the destination folder, with or without its leading dot.
	TargetFolder string
}

// Label returns the rule name, or a description built from its condition.
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s %s %q", r.Field, r.MatchType, r.Pattern)
}

// Destination returns the normalized destination folder name.
func (r Rule) Destination() string {
	return NormalizeFolder(r.TargetFolder)
}

// Validate checks required attributes and enum membership.
// It does not compile regex patterns; see match.Matcher.Compile.
func (r Rule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("%w: %s: pattern is required", errors.ErrInvalidRule, r.Label())
	}
	if r.TargetFolder == "" {
		return fmt.Errorf("%w: %s: target_folder is required", errors.ErrInvalidRule, r.Label())
	}
	if !r.Field.Valid() {
		return fmt.Errorf("%w: %s: %w: %q", errors.ErrInvalidRule, r.Label(), errors.ErrUnknownField, r.Field)
	}
	if !r.MatchType.Valid() {
		return fmt.Errorf("%w: %s: %w: %q", errors.ErrInvalidRule, r.Label(), errors.ErrUnknownMatchType, r.MatchType)
	}
	if err := ValidateFolder(r.TargetFolder); err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrInvalidRule, r.Label(), err)
	}
	return nil
}

// Ruleset is an ordered list of rules. Position is the only precedence:
// the first rule that matches a message decides its destination.
type Ruleset []Rule

// Validate checks every rule, reporting the first problem with its
// 1-based position.
func (rs Ruleset) Validate() error {
	for i, r := range rs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return nil
}

// Folders returns the distinct destination folders in first-use order.
func (rs Ruleset) Folders() []string {
	seen := make(map[string]bool, len(rs))
	var folders []string
	for _, r := range rs {
		d := r.Destination()
		if seen[d] {
			continue
		}
		seen[d] = true
		folders = append(folders, d)
	}
	return folders
}
