package validation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var defaultFields []byte

// FieldSpec is the rule set for one record field. Optional fields are only
// checked once a value is present.
type FieldSpec struct {
	Label    string `json:"label"`
	Optional bool   `json:"optional,omitempty"`
	Rules    Rules  `json:"rules"`
}

// Check runs the field's rules against value.
func (s FieldSpec) Check(v Validator, value any) Result {
	if s.Optional && !present(value) {
		return valid
	}
	return v.Evaluate(s.Label, value, s.Rules)
}

// FieldRules maps record field names (JSON names, "soilHealthData.ph" for
// nested values) to their specs.
type FieldRules map[string]FieldSpec

// DefaultFieldRules returns the built-in rule table.
func DefaultFieldRules() FieldRules {
	fr, err := LoadFieldRules(bytes.NewReader(defaultFields))
	if err != nil {
		panic(fmt.Sprintf("validation: embedded fields.yaml: %v", err))
	}
	return fr
}

// LoadFieldRulesFile reads a rule table from path; an empty path yields the defaults.
func LoadFieldRulesFile(path string) (FieldRules, error) {
	if path == "" {
		return DefaultFieldRules(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFieldRules(f)
}

// LoadFieldRules decodes a YAML rule table. Rule order inside each field is
// kept as written.
func LoadFieldRules(r io.Reader) (FieldRules, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return FieldRules{}, nil
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules: line %d: expected a mapping of fields", root.Line)
	}
	out := make(FieldRules, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		spec, err := parseFieldSpec(name, root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = spec
	}
	return out, nil
}

func parseFieldSpec(name string, n *yaml.Node) (FieldSpec, error) {
	spec := FieldSpec{Label: name}
	if n.Kind != yaml.MappingNode {
		return spec, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "label":
			spec.Label = val.Value
		case "optional":
			if err := val.Decode(&spec.Optional); err != nil {
				return spec, err
			}
		case "rules":
			rs, err := ParseRuleSet(val)
			if err != nil {
				return spec, err
			}
			spec.Rules = rs
		default:
			return spec, fmt.Errorf("line %d: unknown key %q", val.Line, key)
		}
	}
	return spec, nil
}

// ParseRuleSet converts an ordered YAML mapping of ruleName: param into Rules.
// Flag rules set to false are dropped.
func ParseRuleSet(n *yaml.Node) (Rules, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: rules must be a mapping", n.Line)
	}
	out := make(Rules, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		var param any
		if err := val.Decode(&param); err != nil {
			return nil, fmt.Errorf("rule %s: %w", key, err)
		}
		if b, ok := param.(bool); ok && !b {
			continue
		}
		r, err := ParseRule(key, param)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Content[i].Line, err)
		}
		out = append(out, r)
	}
	return out, nil
}
