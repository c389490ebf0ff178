package detect

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/phishzil/threatscan/pkg/rules"
	"github.com/phishzil/threatscan/pkg/threat"
)

// Channel context values accepted by the content and sender analyzers.
const (
	ContextEmail   = "email"
	ContextSMS     = "sms"
	ContextChat    = "chat"
	ContextMessage = "message"
)

// internalCaps matches a lowercase run followed by an uppercase letter inside
// one word, e.g. "PayPaI" obfuscation or machine-translated text.
var internalCaps = regexp.MustCompile(`\b[a-z]+[A-Z][a-z]*\b`)

// ContentAnalyzer scores message text against the phrase rule tables.
// Stateless; safe for concurrent use.
type ContentAnalyzer struct{}

// NewContentAnalyzer builds a content analyzer.
func NewContentAnalyzer() *ContentAnalyzer {
	return &ContentAnalyzer{}
}

// Analyze scores one message body. contentType selects channel-specific
// extras ("email", "sms", "chat", "message"); unknown values get the base
// checks only.
func (a *ContentAnalyzer) Analyze(ctx context.Context, text, contentType string) threat.AnalyzerResult {
	result := threat.NewAnalyzerResult(threat.ChannelContent)

	// Fold homoglyph and width tricks before pattern matching.
	text = norm.NFKC.String(text)
	reg := rules.Get()

	switch urgent := reg.CountMatches(text, rules.CategoryUrgency); {
	case urgent >= 2:
		result.AddScore(0.6)
		result.AddThreatType(threat.TagSocialEngineering)
		result.AddIndicator("Multiple urgency indicators")
	case urgent == 1:
		result.AddScore(0.3)
		result.AddIndicator("Urgency language detected")
	}

	for _, rule := range reg.MatchAll(text, rules.CategoryCredential) {
		result.AddScore(rule.Weight)
		result.AddThreatType(rule.Tag)
		result.AddIndicator(rule.Indicator)
	}

	if reg.CountMatches(text, rules.CategoryFinancial) >= 2 {
		result.AddScore(0.8)
		result.AddThreatType(threat.TagFinancialFraud)
		result.AddIndicator("Financial fraud indicators")
	}

	for _, rule := range reg.MatchAll(text, rules.CategoryAuthority) {
		result.AddScore(rule.Weight)
		result.AddThreatType(rule.Tag)
		result.AddIndicator(rule.Indicator)
	}

	if len(internalCaps.FindAllString(text, -1)) > 3 {
		result.AddScore(0.2)
		result.AddIndicator("Irregular capitalization throughout message")
	}

	for _, rule := range reg.MatchAll(text, rules.CategoryGreeting) {
		result.AddScore(rule.Weight)
		result.AddIndicator(rule.Indicator)
	}

	switch contentType {
	case ContextSMS:
		for _, rule := range reg.MatchAll(text, rules.CategorySMS) {
			result.AddScore(rule.Weight)
			result.AddThreatType(rule.Tag)
			result.AddIndicator(rule.Indicator)
		}
	case ContextEmail:
		if len(text) < 200 && !strings.Contains(strings.ToLower(text), "unsubscribe") {
			result.AddScore(0.3)
			result.AddIndicator("Short email without unsubscribe option")
		}
	}

	return result
}
