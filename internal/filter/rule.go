// Package filter implements the product rule matching engine
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
)

// TermKind distinguishes the two forms of an include term
type TermKind int

// Supported term kinds
const (
	// TermLiteral matches when its single value is a substring of the name
	TermLiteral TermKind = iota
	// TermAnyOf matches when at least one of its values is a substring of the name
	TermAnyOf
)

// Term is one include entry: a literal string or an OR-group of alternatives.
// In the rules file a literal is written as a string and a group as a list
type Term struct {
	Kind   TermKind
	Values []string
}

// Literal returns a term matching s
func Literal(s string) Term {
	return Term{Kind: TermLiteral, Values: []string{s}}
}

// AnyOf returns a term matching any of the alternatives
func AnyOf(alternatives ...string) Term {
	return Term{Kind: TermAnyOf, Values: alternatives}
}

// matches expects name to be lower-cased already
func (t Term) matches(name string) bool {
	for _, v := range t.Values {
		if strings.Contains(name, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// String renders the term the way it is written in the rules file
func (t Term) String() string {
	if t.Kind == TermAnyOf {
		return "[" + strings.Join(t.Values, "|") + "]"
	}
	return strings.Join(t.Values, "")
}

// UnmarshalJSON accepts either a string or a list of strings
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var alternatives []string
		if err := json.Unmarshal(data, &alternatives); err != nil {
			return fmt.Errorf("include group must be a list of strings: %w", err)
		}
		*t = AnyOf(alternatives...)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("include term must be a string or a list of strings: %w", err)
	}
	*t = Literal(s)
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars
func (t *Term) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*t = Literal(s)
	case yaml.SequenceNode:
		var alternatives []string
		if err := value.Decode(&alternatives); err != nil {
			return fmt.Errorf("include group must be a list of strings: %w", err)
		}
		*t = AnyOf(alternatives...)
	default:
		return fmt.Errorf("line %d: include term must be a string or a list of strings", value.Line)
	}
	return nil
}

// Rule is one product search: every include term must match the name, no
// exclude term may match it, the price must not exceed Price and the store
// must contain one of Store. Empty optional fields do not filter
type Rule struct {
	Include []Term   `json:"include" yaml:"include"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Price   *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Store   []string `json:"store,omitempty" yaml:"store,omitempty"`
}

// Validate checks that the rule can match anything at all
func (r Rule) Validate() error {
	if len(r.Include) == 0 {
		return fmt.Errorf("include must not be empty")
	}
	for i, term := range r.Include {
		if len(term.Values) == 0 {
			return fmt.Errorf("include[%d] is an empty group", i)
		}
		for _, v := range term.Values {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("include[%d] contains an empty term", i)
			}
		}
	}
	if r.Price != nil && *r.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}

// LoadRules reads the product rules from a JSON file, or a YAML file when
// the name ends in .yaml or .yml
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration("read rules file "+path, err)
	}

	var rules []Rule
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&rules)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&rules)
	}
	if err != nil {
		return nil, apperrors.NewConfiguration("parse rules file "+path, err)
	}

	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("rule %d in %s", i, path), err)
		}
	}
	return rules, nil
}
