package detect

import (
	"context"
	"regexp"
	"strings"

	"github.com/phishzil/threatscan/pkg/lookup"
	"github.com/phishzil/threatscan/pkg/rules"
	"github.com/phishzil/threatscan/pkg/threat"
)

// lowReputationScore is the reputation threshold below which a sender domain
// is flagged as malicious.
const lowReputationScore = 0.3

// displayNameDomain extracts an @domain token embedded in a display name,
// e.g. `"Support @paypal.com" <help@evil.tk>`.
var displayNameDomain = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9.-]*\.[A-Za-z]{2,})`)

// SenderInfo carries sender metadata for one message.
type SenderInfo struct {
	Email       string `json:"email"`
	Domain      string `json:"domain"`
	DisplayName string `json:"display_name"`
}

// SenderAnalyzer scores sender metadata against spoofing heuristics and the
// external reputation collaborator.
type SenderAnalyzer struct {
	freeProviders []string
	lookups       lookup.Set
}

// NewSenderAnalyzer builds a sender analyzer over the free-mail provider table.
func NewSenderAnalyzer(freeProviders []string, lookups lookup.Set) *SenderAnalyzer {
	return &SenderAnalyzer{
		freeProviders: freeProviders,
		lookups:       lookups,
	}
}

// Analyze scores one sender. The domain is derived from the email address
// when not given explicitly.
func (a *SenderAnalyzer) Analyze(ctx context.Context, info SenderInfo, contentType string) threat.AnalyzerResult {
	result := threat.NewAnalyzerResult(threat.ChannelSender)

	email := strings.ToLower(strings.TrimSpace(info.Email))
	domain := strings.ToLower(strings.TrimSpace(info.Domain))
	if domain == "" {
		if _, after, found := strings.Cut(email, "@"); found {
			domain = after
		}
	}
	result.SetMetadata("domain", domain)

	if m := displayNameDomain.FindStringSubmatch(info.DisplayName); m != nil {
		claimed := strings.ToLower(m[1])
		if domain != "" && claimed != domain {
			result.AddScore(0.8)
			result.AddThreatType(threat.TagEmailSpoofing)
			result.AddIndicator("Display name claims domain " + claimed + " but sender is " + domain)
		}
	}

	for _, rule := range rules.Get().MatchAll(email, rules.CategorySenderLocal) {
		result.AddScore(rule.Weight)
		result.AddIndicator(rule.Indicator)
	}

	if a.isFreeProvider(domain) && impliesBusiness(info.DisplayName, contentType) {
		result.AddScore(0.4)
		result.AddIndicator("Business communication from free email provider")
	}

	if domain != "" {
		if rep := a.lookups.LookupReputation(ctx, domain); rep.Score < lowReputationScore {
			result.AddScore(0.6)
			result.AddThreatType(threat.TagMaliciousDomain)
			result.AddIndicator("Sender domain has poor reputation")
		}
	}

	return result
}

func (a *SenderAnalyzer) isFreeProvider(domain string) bool {
	for _, p := range a.freeProviders {
		if domain == p {
			return true
		}
	}
	return false
}

func impliesBusiness(displayName, contentType string) bool {
	return strings.Contains(strings.ToLower(displayName), "invoice") || contentType == "business"
}
