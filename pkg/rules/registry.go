// Package rules provides a centralized, compile-once registry of the
// detection rule tables consumed by the analyzers. Every rule carries its
// score weight and threat-type tag, so each analyzer reduces to a single
// scoring loop over its categories.
//
// Design principles:
// - COMPILE ONCE: all patterns compiled at package init, not per-request
// - DATA-DRIVEN: {pattern, weight, tag} tables, no inline regexes in analyzers
// - ORDERED: slice-backed categories keep rule order explicit and stable
package rules

import (
	"regexp"
	"sync"
)

// Category identifies one rule table.
type Category string

const (
	// URL channel
	CategoryURLHost Category = "url_host"

	// Content channel
	CategoryUrgency    Category = "urgency"
	CategoryCredential Category = "credential"
	CategoryFinancial  Category = "financial"
	CategoryAuthority  Category = "authority"
	CategorySMS        Category = "sms"
	CategoryGreeting   Category = "greeting"

	// Sender channel
	CategorySenderLocal Category = "sender_local"
)

// Rule holds a compiled pattern with its scoring metadata.
type Rule struct {
	Name      string         // Short identifier for logging and tests
	Regex     *regexp.Regexp // Compiled pattern (never nil after init)
	Category  Category
	Weight    float64 // Risk score contribution on match
	Tag       string  // Threat type tag, "" if the rule only scores
	Indicator string  // Human-readable evidence emitted on match
}

// Registry holds all compiled rules, organized by category.
type Registry struct {
	mu         sync.RWMutex
	byCategory map[Category][]*Rule
	all        []*Rule
}

var (
	globalRegistry *Registry
	initOnce       sync.Once
)

// Get returns the global rule registry (singleton).
func Get() *Registry {
	initOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		byCategory: make(map[Category][]*Rule),
	}

	r.registerURLHostRules()
	r.registerUrgencyRules()
	r.registerCredentialRules()
	r.registerFinancialRules()
	r.registerAuthorityRules()
	r.registerSMSRules()
	r.registerGreetingRules()
	r.registerSenderRules()

	return r
}

func (r *Registry) register(name, pattern string, category Category, weight float64, tag, indicator string) {
	rule := &Rule{
		Name:      name,
		Regex:     regexp.MustCompile(pattern),
		Category:  category,
		Weight:    weight,
		Tag:       tag,
		Indicator: indicator,
	}
	r.byCategory[category] = append(r.byCategory[category], rule)
	r.all = append(r.all, rule)
}

// GetByCategory returns the ordered rules for a category.
// Returns an empty slice if the category is unknown (never nil).
func (r *Registry) GetByCategory(cat Category) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rules, ok := r.byCategory[cat]; ok {
		return rules
	}
	return []*Rule{}
}

// MatchAll returns every rule in the category that matches the text, in
// registration order. Use for comprehensive per-channel scoring.
func (r *Registry) MatchAll(text string, cat Category) []*Rule {
	var matches []*Rule
	for _, rule := range r.GetByCategory(cat) {
		if rule.Regex.MatchString(text) {
			matches = append(matches, rule)
		}
	}
	return matches
}

// CountMatches returns how many distinct rules in the category match.
func (r *Registry) CountMatches(text string, cat Category) int {
	return len(r.MatchAll(text, cat))
}

// TotalRules returns the total count of registered rules.
func (r *Registry) TotalRules() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}

// CategoryCount returns the number of rules in a category.
func (r *Registry) CategoryCount(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCategory[cat])
}
