package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
)

// OverrideType selects which part of the input a user-defined rule matches.
type OverrideType string

const (
	OverrideURLPattern     OverrideType = "URL_PATTERN"
	OverrideDomain         OverrideType = "DOMAIN"
	OverrideSenderPattern  OverrideType = "SENDER_PATTERN"
	OverrideContentKeyword OverrideType = "CONTENT_KEYWORD"
	OverrideFileExtension  OverrideType = "FILE_EXTENSION"
)

// OverrideAction is what a matching override rule decides.
type OverrideAction string

const (
	OverrideAllow      OverrideAction = "ALLOW"
	OverrideWarn       OverrideAction = "WARN"
	OverrideQuarantine OverrideAction = "QUARANTINE"
	OverrideBlock      OverrideAction = "BLOCK"
)

// Override is a user-defined rule evaluated before the analyzers. Lower
// Priority wins. Matches are counted for reporting.
type Override struct {
	Name     string
	Type     OverrideType
	Pattern  *regexp.Regexp
	Action   OverrideAction
	Priority int
	Active   bool

	matches atomic.Int64
}

// Matches reports how many times this rule has been triggered.
func (o *Override) Matches() int64 { return o.matches.Load() }

// OverrideSet is an ordered collection of override rules.
// Safe for concurrent Match calls once built; building is not concurrent.
type OverrideSet struct {
	rules []*Override
}

// NewOverrideSet orders a set of override rules.
// Rules with missing patterns are rejected, not skipped silently.
func NewOverrideSet(rules []*Override) (*OverrideSet, error) {
	set := &OverrideSet{}
	for _, r := range rules {
		if r.Pattern == nil {
			return nil, fmt.Errorf("override rule %q has no pattern", r.Name)
		}
		set.rules = append(set.rules, r)
	}
	sort.SliceStable(set.rules, func(i, j int) bool {
		return set.rules[i].Priority < set.rules[j].Priority
	})
	return set, nil
}

// CompileOverride builds a single override rule from a raw pattern string.
func CompileOverride(name string, typ OverrideType, pattern string, action OverrideAction, priority int) (*Override, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile override %q: %w", name, err)
	}
	return &Override{
		Name:     name,
		Type:     typ,
		Pattern:  re,
		Action:   action,
		Priority: priority,
		Active:   true,
	}, nil
}

// Match returns the highest-priority active rule of the given type matching
// the value, or nil. The winning rule's trigger count is incremented.
func (s *OverrideSet) Match(typ OverrideType, value string) *Override {
	if s == nil || value == "" {
		return nil
	}
	if typ == OverrideFileExtension || typ == OverrideDomain {
		value = strings.ToLower(value)
	}
	for _, r := range s.rules {
		if !r.Active || r.Type != typ {
			continue
		}
		if r.Pattern.MatchString(value) {
			r.matches.Add(1)
			return r
		}
	}
	return nil
}

// Len returns the number of rules in the set.
func (s *OverrideSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}
