package lookup

import (
	"context"
	"strings"
)

// Static is a deterministic in-memory implementation of every collaborator
// interface. The zero-value maps make it behave like the fixed constants the
// heuristics were calibrated against: 100-day-old domains, valid
// certificates, 0.8 clean reputation, empty threat database. Tests populate
// the maps to exercise specific branches.
type Static struct {
	Ages         map[string]int         // domain -> age in days
	Certs        map[string]SSLStatus   // domain -> certificate state
	Reputations  map[string]Reputation  // domain -> reputation
	KnownThreats map[string]KnownThreat // "<kind>:<value>" -> threat
}

// NewStatic returns a Static with all maps allocated.
func NewStatic() *Static {
	return &Static{
		Ages:         make(map[string]int),
		Certs:        make(map[string]SSLStatus),
		Reputations:  make(map[string]Reputation),
		KnownThreats: make(map[string]KnownThreat),
	}
}

func (s *Static) AgeDays(_ context.Context, domain string) (int, error) {
	if days, ok := s.Ages[strings.ToLower(domain)]; ok {
		return days, nil
	}
	return 100, nil
}

func (s *Static) Check(_ context.Context, domain string) (SSLStatus, error) {
	if st, ok := s.Certs[strings.ToLower(domain)]; ok {
		return st, nil
	}
	return SSLStatus{Valid: true, Issuer: "Unknown"}, nil
}

func (s *Static) Lookup(_ context.Context, domain string) (Reputation, error) {
	if rep, ok := s.Reputations[strings.ToLower(domain)]; ok {
		return rep, nil
	}
	return Reputation{Score: 0.8, Category: "clean"}, nil
}

func (s *Static) Find(_ context.Context, value, kind string) (KnownThreat, bool, error) {
	kt, ok := s.KnownThreats[kind+":"+value]
	return kt, ok, nil
}
