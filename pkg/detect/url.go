// Package detect implements the signal analyzers, score fusion, and the
// assessment engine. Each analyzer is a pure function of its input plus
// read-only lookups; all of them are safe to invoke concurrently.
package detect

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/phishzil/threatscan/pkg/lookup"
	"github.com/phishzil/threatscan/pkg/rules"
	"github.com/phishzil/threatscan/pkg/threat"
)

// newDomainAgeDays is the registration-age threshold below which a domain is
// treated as suspiciously fresh.
const newDomainAgeDays = 30

var percentTriplet = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// URLAnalyzer scores a single URL against host heuristics, the legitimate
// domain spoof check, and the external lookup collaborators.
type URLAnalyzer struct {
	legitimate []string // ordered; every matching spoof candidate scores
	tlds       []string
	lookups    lookup.Set
}

// NewURLAnalyzer builds an analyzer over the given ordered domain tables.
func NewURLAnalyzer(legitimate, suspiciousTLDs []string, lookups lookup.Set) *URLAnalyzer {
	return &URLAnalyzer{
		legitimate: legitimate,
		tlds:       suspiciousTLDs,
		lookups:    lookups,
	}
}

// Analyze scores one URL. A malformed URL is evidence, not an error: the
// parse failure becomes an indicator with a small penalty and the result
// accumulated so far is returned.
func (a *URLAnalyzer) Analyze(ctx context.Context, rawURL string) threat.AnalyzerResult {
	result := threat.NewAnalyzerResult(threat.ChannelURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		result.AddIndicator(fmt.Sprintf("URL parsing error: %v", err))
		result.AddScore(0.2)
		return result
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		// Scheme-less input like "paypa1-secure.tk/login" parses as a path.
		if reparsed, rerr := url.Parse("http://" + rawURL); rerr == nil {
			host = strings.ToLower(reparsed.Hostname())
		}
	}
	result.SetMetadata("domain", host)

	for _, rule := range rules.Get().MatchAll(host, rules.CategoryURLHost) {
		result.AddScore(rule.Weight)
		result.AddIndicator(rule.Indicator)
		if rule.Tag != "" {
			result.AddThreatType(rule.Tag)
		}
	}

	for _, spoofed := range a.spoofCandidates(host) {
		result.AddScore(0.8)
		result.AddThreatType(threat.TagDomainSpoofing)
		result.AddIndicator("Possible spoofing of legitimate domain: " + spoofed)
	}

	for _, tld := range a.tlds {
		if strings.HasSuffix(host, tld) {
			result.AddScore(0.4)
			result.AddIndicator("Suspicious TLD: " + tld)
			break
		}
	}

	if days, ok := a.lookups.AgeDays(ctx, host); ok && days < newDomainAgeDays {
		result.AddScore(0.5)
		result.AddIndicator(fmt.Sprintf("Recently registered domain (%d days old)", days))
	}

	if ssl := a.lookups.CheckSSL(ctx, host); !ssl.Valid {
		result.AddScore(0.3)
		result.AddIndicator("Invalid or missing SSL certificate")
	}

	if len(rawURL) > 200 {
		result.AddScore(0.2)
		result.AddIndicator("Unusually long URL")
	}
	if strings.Count(rawURL, ".") > 4 {
		result.AddScore(0.3)
		result.AddIndicator("Excessive dots in URL")
	}
	if len(percentTriplet.FindAllString(rawURL, -1)) > 3 {
		result.AddScore(0.4)
		result.AddIndicator("Heavy percent-encoding in URL")
	}

	return result
}

// spoofCandidates returns every legitimate domain the host is a
// near-duplicate of, in table order; each matching candidate scores once.
// Both the whole host and each dot-separated label are compared;
// "paypa1-secure.tk" matches "paypal.com" through its "paypa1" label.
// Identical strings never count as spoofing.
func (a *URLAnalyzer) spoofCandidates(host string) []string {
	if host == "" {
		return nil
	}
	var matched []string
	labels := strings.Split(host, ".")
	for _, legit := range a.legitimate {
		if nearDuplicate(host, legit) {
			matched = append(matched, legit)
			continue
		}
		legitLabel, _, _ := strings.Cut(legit, ".")
		for _, label := range labels {
			// Strip hyphenated decorations: "paypa1-secure" -> "paypa1".
			base, _, _ := strings.Cut(label, "-")
			// A two-mismatch budget on labels shorter than four bytes would
			// match TLDs and "www" against real brands.
			if len(base) < 4 {
				continue
			}
			if nearDuplicate(base, legitLabel) {
				matched = append(matched, legit)
				break
			}
		}
	}
	return matched
}

// nearDuplicate reports whether two strings are within two characters of each
// other in length and mismatch at no more than two aligned positions, without
// being identical. The two conditions are independent: a candidate two
// characters longer with one substituted character still qualifies.
func nearDuplicate(a, b string) bool {
	if a == b || a == "" || b == "" {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > 2 {
		return false
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	mismatches := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			mismatches++
			if mismatches > 2 {
				return false
			}
		}
	}
	return true
}
