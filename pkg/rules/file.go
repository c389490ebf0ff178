package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideSpec is the on-disk form of one override rule.
type overrideSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Pattern  string `yaml:"pattern"`
	Action   string `yaml:"action"`
	Priority int    `yaml:"priority"`
	Active   *bool  `yaml:"active"` // nil = active
}

// LoadOverridesFile reads user-defined override rules from a YAML file.
func LoadOverridesFile(path string) (*OverrideSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var specs []overrideSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	overrides := make([]*Override, 0, len(specs))
	for _, s := range specs {
		o, err := CompileOverride(s.Name, OverrideType(s.Type), s.Pattern, OverrideAction(s.Action), s.Priority)
		if err != nil {
			return nil, err
		}
		if s.Active != nil {
			o.Active = *s.Active
		}
		overrides = append(overrides, o)
	}
	return NewOverrideSet(overrides)
}
