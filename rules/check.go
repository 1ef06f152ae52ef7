package rules

import (
	"fmt"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/match"
)

// Problem describes a rule that cannot be used.
type Problem struct {
	// Index is the 1-based position of the rule.
	Index int
	Rule  string
	Err   error
}

func (p Problem) Error() string {
	return fmt.Sprintf("rule %d (%s): %v", p.Index, p.Rule, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// Check validates every rule and compiles every regex, returning all
// problems found rather than stopping at the first.
func Check(rs mzfilter.Ruleset) []Problem {
	m := match.New(0)
	var problems []Problem
	for i, r := range rs {
		err := r.Validate()
		if err == nil {
			err = m.Compile(r)
		}
		if err != nil {
			problems = append(problems, Problem{Index: i + 1, Rule: r.Label(), Err: err})
		}
	}
	return problems
}
