// Package lookup defines the external collaborator interfaces the analyzers
// depend on (domain age, SSL state, domain reputation, known-threat database)
// together with deterministic local stubs and caching decorators.
//
// The engine never performs network I/O itself: every lookup goes through one
// of these interfaces, bounded by a timeout, and a failed or timed-out lookup
// degrades to a neutral default instead of failing the assessment.
package lookup

import (
	"context"
	"time"

	"github.com/phishzil/threatscan/pkg/threat"
)

// SSLStatus describes a domain's certificate state.
type SSLStatus struct {
	Valid  bool   `json:"valid"`
	Issuer string `json:"issuer"`
}

// Reputation is an external reputation verdict for a domain.
type Reputation struct {
	Score    float64 `json:"score"` // 0.0 (malicious) .. 1.0 (clean)
	Category string  `json:"category"`
}

// KnownThreat describes a hit in the known-threat database.
type KnownThreat struct {
	Severity    threat.Level `json:"severity"`
	Description string       `json:"description"`
}

// Threat value kinds accepted by KnownThreatDB.Find.
const (
	KindHash = "hash"
	KindURL  = "url"
)

// DomainAger reports the registration age of a domain in days.
type DomainAger interface {
	AgeDays(ctx context.Context, domain string) (int, error)
}

// SSLChecker reports certificate validity for a domain.
type SSLChecker interface {
	Check(ctx context.Context, domain string) (SSLStatus, error)
}

// ReputationClient looks up a domain's reputation.
type ReputationClient interface {
	Lookup(ctx context.Context, domain string) (Reputation, error)
}

// KnownThreatDB looks up a hash or URL in a threat database.
// found=false with a nil error is a clean miss, not a failure.
type KnownThreatDB interface {
	Find(ctx context.Context, value, kind string) (kt KnownThreat, found bool, err error)
}

// Set bundles all collaborators with the timeout applied to each call.
// Zero-value fields fall back to the neutral defaults in Neutral().
type Set struct {
	Age        DomainAger
	SSL        SSLChecker
	Reputation ReputationClient
	Known      KnownThreatDB
	Timeout    time.Duration
}

// Neutral returns a Set backed by the deterministic static stubs.
func Neutral() Set {
	s := NewStatic()
	return Set{
		Age:        s,
		SSL:        s,
		Reputation: s,
		Known:      s,
		Timeout:    2 * time.Second,
	}
}

// withTimeout derives the per-call context. A zero timeout means the caller's
// context governs alone.
func (s Set) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// AgeDays runs the domain-age lookup, degrading to the neutral default
// (ageless, i.e. old enough to not score) on error or missing collaborator.
func (s Set) AgeDays(ctx context.Context, domain string) (int, bool) {
	if s.Age == nil {
		return 0, false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	days, err := s.Age.AgeDays(ctx, domain)
	if err != nil {
		return 0, false
	}
	return days, true
}

// CheckSSL runs the certificate check, degrading to "valid" on failure so an
// unavailable checker never inflates the score.
func (s Set) CheckSSL(ctx context.Context, domain string) SSLStatus {
	if s.SSL == nil {
		return SSLStatus{Valid: true, Issuer: "Unknown"}
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	st, err := s.SSL.Check(ctx, domain)
	if err != nil {
		return SSLStatus{Valid: true, Issuer: "Unknown"}
	}
	return st
}

// LookupReputation runs the reputation lookup, degrading to a clean default.
func (s Set) LookupReputation(ctx context.Context, domain string) Reputation {
	if s.Reputation == nil {
		return Reputation{Score: 0.8, Category: "clean"}
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rep, err := s.Reputation.Lookup(ctx, domain)
	if err != nil {
		return Reputation{Score: 0.8, Category: "clean"}
	}
	return rep
}

// FindKnown runs the known-threat lookup; errors degrade to a miss.
func (s Set) FindKnown(ctx context.Context, value, kind string) (KnownThreat, bool) {
	if s.Known == nil {
		return KnownThreat{}, false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	kt, found, err := s.Known.Find(ctx, value, kind)
	if err != nil {
		return KnownThreat{}, false
	}
	return kt, found
}
