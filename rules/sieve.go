package rules

import (
	"fmt"
	"strings"

	gosieve "git.sr.ht/~emersion/go-sieve"

	"github.com/infodancer/mzfilter"
)

// ExportSieve renders rs as a Sieve script with the same first-match-wins
// behavior: each rule files into its folder and stops. The script is parsed
// before it is returned, so a nil error means it is syntactically valid.
//
// Folder names lose their leading dot, which is how Maildir++ servers name
// the mailbox: ".Lists.Go" becomes "Lists.Go".
func ExportSieve(rs mzfilter.Ruleset) (string, error) {
	var sb strings.Builder

	requires := []string{`"fileinto"`}
	for _, r := range rs {
		if r.MatchType == mzfilter.MatchRegex {
			requires = append(requires, `"regex"`)
			break
		}
	}
	sb.WriteString("require [")
	sb.WriteString(strings.Join(requires, ", "))
	sb.WriteString("];\n")

	for _, r := range rs {
		sb.WriteString("\n# ")
		sb.WriteString(commentText(r.Label()))
		sb.WriteString("\n")
		sb.WriteString("if header ")
		sb.WriteString(sieveTest(r))
		sb.WriteString(" {\n")
		sb.WriteString(fmt.Sprintf("    fileinto %s;\n", quoteString(strings.TrimPrefix(r.Destination(), "."))))
		sb.WriteString("    stop;\n")
		sb.WriteString("}\n")
	}

	script := sb.String()
	if _, err := gosieve.Parse(strings.NewReader(script)); err != nil {
		return "", fmt.Errorf("generated sieve script does not parse: %w", err)
	}
	return script, nil
}

// sieveTest renders the header test arguments for a rule.
func sieveTest(r mzfilter.Rule) string {
	var match, key string
	switch r.MatchType {
	case mzfilter.MatchContains:
		match, key = ":contains", r.Pattern
	case mzfilter.MatchExact:
		match, key = ":is", r.Pattern
	case mzfilter.MatchStartsWith:
		match, key = ":matches", escapeWildcards(r.Pattern)+"*"
	case mzfilter.MatchEndsWith:
		match, key = ":matches", "*"+escapeWildcards(r.Pattern)
	case mzfilter.MatchRegex:
		match, key = ":regex", r.Pattern
	}

	parts := []string{match}
	if r.CaseSensitive {
		parts = append(parts, `:comparator "i;octet"`)
	}
	parts = append(parts, quoteString(string(r.Field)), quoteString(key))
	return strings.Join(parts, " ")
}

// escapeWildcards protects the :matches metacharacters in a literal.
func escapeWildcards(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}

// quoteString renders s as a Sieve quoted-string.
func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func commentText(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
