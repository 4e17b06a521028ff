package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"econdash/internal/errors"
)

// RulesFile is the on-disk form of a rule table:
//
//	include_defaults: true
//	rules:
//	  - tag: "Tankan Large Manufacturers"
//	    pattern: 'Tankan.*Large.*Manufactur'
//
// File rules are evaluated first. When IncludeDefaults is set the built-in
// table follows them.
type RulesFile struct {
	IncludeDefaults bool       `yaml:"include_defaults"`
	Rules           []RuleSpec `yaml:"rules"`
}

// RuleSpec is one uncompiled rule.
type RuleSpec struct {
	Tag     string `yaml:"tag"`
	Pattern string `yaml:"pattern"`
}

// ParseRules decodes and compiles a YAML rule table.
func ParseRules(data []byte) ([]Rule, error) {
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRule, err)
	}

	rules := make([]Rule, 0, len(f.Rules)+len(defaultRuleTable))
	for i, spec := range f.Rules {
		r, err := NewRule(spec.Tag, spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, r)
	}
	if f.IncludeDefaults {
		rules = append(rules, DefaultRules()...)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rule table is empty", errors.ErrInvalidRule)
	}
	return rules, nil
}

// LoadRules reads a rule table from path.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read rules file %s", path)
	}
	return ParseRules(data)
}

// FromFile returns a classifier for path, or the default classifier when path is empty.
func FromFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return New(rules), nil
}
