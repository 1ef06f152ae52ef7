// Package match compares header values with rule patterns.
//
// A Matcher is safe for concurrent use. It owns a cache of compiled regular
// expressions keyed by pattern and case sensitivity, so a pattern is
// compiled at most once per Matcher. Create one Matcher per run.
package match

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/errors"
)

// DefaultTimeout bounds a single regex evaluation.
const DefaultTimeout = time.Second

type cacheKey struct {
	pattern       string
	caseSensitive bool
}

type cacheEntry struct {
	re  *regexp2.Regexp
	err error
}

// Matcher evaluates patterns against field values.
type Matcher struct {
	timeout time.Duration

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// New creates a Matcher. A zero timeout selects DefaultTimeout.
func New(timeout time.Duration) *Matcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Matcher{
		timeout: timeout,
		cache:   make(map[cacheKey]cacheEntry),
	}
}

// Match reports whether value satisfies pattern under matchType.
// The only error is a *errors.PatternError for a regex that does not
// compile or cannot be evaluated in time.
func (m *Matcher) Match(value, pattern string, matchType mzfilter.MatchType, caseSensitive bool) (bool, error) {
	if matchType == mzfilter.MatchRegex {
		return m.search(value, pattern, caseSensitive)
	}

	if !caseSensitive {
		value = fold(value)
		pattern = fold(pattern)
	}

	switch matchType {
	case mzfilter.MatchContains:
		return strings.Contains(value, pattern), nil
	case mzfilter.MatchExact:
		return value == pattern, nil
	case mzfilter.MatchStartsWith:
		return strings.HasPrefix(value, pattern), nil
	case mzfilter.MatchEndsWith:
		return strings.HasSuffix(value, pattern), nil
	}
	return false, nil
}

// MatchRule evaluates a rule against a message's header fields.
// An absent field is matched as the empty string.
func (m *Matcher) MatchRule(rule mzfilter.Rule, fields mzfilter.HeaderFields) (bool, error) {
	ok, err := m.Match(fields.Get(rule.Field), rule.Pattern, rule.MatchType, rule.CaseSensitive)
	if err != nil {
		if pe, isPattern := err.(*errors.PatternError); isPattern {
			pe.Rule = rule.Label()
		}
		return false, err
	}
	return ok, nil
}

// Compile checks that a rule's pattern is usable, warming the cache for
// regex rules. Non-regex rules always compile.
func (m *Matcher) Compile(rule mzfilter.Rule) error {
	if rule.MatchType != mzfilter.MatchRegex {
		return nil
	}
	if _, err := m.compile(rule.Pattern, rule.CaseSensitive); err != nil {
		return &errors.PatternError{Rule: rule.Label(), Pattern: rule.Pattern, Err: err}
	}
	return nil
}

func (m *Matcher) search(value, pattern string, caseSensitive bool) (bool, error) {
	re, err := m.compile(pattern, caseSensitive)
	if err != nil {
		return false, &errors.PatternError{Pattern: pattern, Err: err}
	}
	ok, err := re.MatchString(value)
	if err != nil {
		return false, &errors.PatternError{Pattern: pattern, Err: err}
	}
	return ok, nil
}

func (m *Matcher) compile(pattern string, caseSensitive bool) (*regexp2.Regexp, error) {
	key := cacheKey{pattern: pattern, caseSensitive: caseSensitive}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.cache[key]; ok {
		return e.re, e.err
	}

	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + pattern
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err == nil {
		re.MatchTimeout = m.timeout
	}
	m.cache[key] = cacheEntry{re: re, err: err}
	return re, err
}

// fold maps every rune to one representative of its simple case-folding
// orbit, the equivalence strings.EqualFold uses. Each rune maps to exactly
// one rune and no locale rules apply, so "ß" never becomes "ss".
func fold(s string) string {
	return strings.Map(foldRune, s)
}

func foldRune(r rune) rune {
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	return lo
}
