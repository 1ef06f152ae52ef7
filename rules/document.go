// Package rules reads rulesets from JSON and YAML documents, checks them,
// and renders them as Sieve scripts.
//
// The package registers its formats with the mzfilter registry. Import it
// with a blank identifier to enable rules loading:
//
//	import _ "github.com/infodancer/mzfilter/rules"
//
// A rules document holds a single "rules" list:
//
//	{
//	  "rules": [
//	    {
//	      "name": "Invoices",
//	      "field": "subject",
//	      "pattern": "invoice",
//	      "match_type": "contains",
//	      "case_sensitive": false,
//	      "target_folder": "Billing"
//	    }
//	  ]
//	}
package rules

import (
	"fmt"
	"strings"

	"github.com/infodancer/mzfilter"
	"github.com/infodancer/mzfilter/errors"
)

// document is the on-disk shape shared by all formats.
type document struct {
	Rules []ruleDoc `json:"rules" yaml:"rules"`
}

type ruleDoc struct {
	Name          string `json:"name" yaml:"name"`
	Field         string `json:"field" yaml:"field"`
	Pattern       string `json:"pattern" yaml:"pattern"`
	MatchType     string `json:"match_type" yaml:"match_type"`
	CaseSensitive bool   `json:"case_sensitive" yaml:"case_sensitive"`
	TargetFolder  string `json:"target_folder" yaml:"target_folder"`
}

// ruleset converts the document, applying defaults and checking enum values.
func (d document) ruleset() (mzfilter.Ruleset, error) {
	rs := make(mzfilter.Ruleset, 0, len(d.Rules))
	for i, doc := range d.Rules {
		r, err := doc.rule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (d ruleDoc) rule() (mzfilter.Rule, error) {
	field, err := mzfilter.ParseField(d.Field)
	if err != nil {
		return mzfilter.Rule{}, err
	}
	if strings.TrimSpace(d.MatchType) == "" {
		return mzfilter.Rule{}, fmt.Errorf("%w: match_type is required", errors.ErrInvalidRule)
	}
	mt, err := mzfilter.ParseMatchType(d.MatchType)
	if err != nil {
		return mzfilter.Rule{}, err
	}
	return mzfilter.Rule{
		Name:          strings.TrimSpace(d.Name),
		Field:         field,
		Pattern:       d.Pattern,
		MatchType:     mt,
		CaseSensitive: d.CaseSensitive,
		TargetFolder:  strings.TrimSpace(d.TargetFolder),
	}, nil
}
