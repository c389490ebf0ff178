package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phishzil/threatscan/pkg/threat"
)

type failingClient struct{}

func (failingClient) AgeDays(context.Context, string) (int, error) {
	return 0, errors.New("upstream down")
}
func (failingClient) Check(context.Context, string) (SSLStatus, error) {
	return SSLStatus{}, errors.New("upstream down")
}
func (failingClient) Lookup(context.Context, string) (Reputation, error) {
	return Reputation{}, errors.New("upstream down")
}
func (failingClient) Find(context.Context, string, string) (KnownThreat, bool, error) {
	return KnownThreat{}, false, errors.New("upstream down")
}

func TestSetDegradesOnFailure(t *testing.T) {
	set := Set{Age: failingClient{}, SSL: failingClient{}, Reputation: failingClient{}, Known: failingClient{}}
	ctx := context.Background()

	if _, ok := set.AgeDays(ctx, "example.org"); ok {
		t.Error("failed age lookup must report not-ok")
	}
	if ssl := set.CheckSSL(ctx, "example.org"); !ssl.Valid {
		t.Error("failed SSL lookup must degrade to valid")
	}
	if rep := set.LookupReputation(ctx, "example.org"); rep.Score != 0.8 || rep.Category != "clean" {
		t.Errorf("failed reputation lookup must degrade to clean default, got %+v", rep)
	}
	if _, found := set.FindKnown(ctx, "deadbeef", KindHash); found {
		t.Error("failed known-threat lookup must degrade to a miss")
	}
}

func TestSetNilCollaborators(t *testing.T) {
	var set Set
	ctx := context.Background()

	if _, ok := set.AgeDays(ctx, "example.org"); ok {
		t.Error("nil ager must report not-ok")
	}
	if ssl := set.CheckSSL(ctx, "example.org"); !ssl.Valid {
		t.Error("nil checker must degrade to valid")
	}
	if rep := set.LookupReputation(ctx, "example.org"); rep.Score != 0.8 {
		t.Errorf("nil reputation client must degrade to clean default, got %+v", rep)
	}
}

func TestStaticDefaults(t *testing.T) {
	s := NewStatic()
	ctx := context.Background()

	if days, err := s.AgeDays(ctx, "anything.example.org"); err != nil || days != 100 {
		t.Errorf("expected default age 100, got %d (%v)", days, err)
	}
	if ssl, err := s.Check(ctx, "anything.example.org"); err != nil || !ssl.Valid {
		t.Errorf("expected default valid cert, got %+v (%v)", ssl, err)
	}
	if rep, err := s.Lookup(ctx, "anything.example.org"); err != nil || rep.Score != 0.8 {
		t.Errorf("expected default reputation 0.8, got %+v (%v)", rep, err)
	}
	if _, found, err := s.Find(ctx, "deadbeef", KindHash); err != nil || found {
		t.Errorf("expected clean miss, found=%v err=%v", found, err)
	}
}

func TestStaticSeededValues(t *testing.T) {
	s := NewStatic()
	s.Ages["fresh.example.org"] = 2
	s.KnownThreats["hash:deadbeef"] = KnownThreat{Severity: threat.LevelHigh, Description: "test sample"}

	if days, _ := s.AgeDays(context.Background(), "Fresh.Example.Org"); days != 2 {
		t.Errorf("expected case-insensitive age lookup, got %d", days)
	}
	kt, found, _ := s.Find(context.Background(), "deadbeef", KindHash)
	if !found || kt.Severity != threat.LevelHigh {
		t.Errorf("expected seeded threat, got %+v found=%v", kt, found)
	}
}

type countingAger struct {
	calls int
}

func (c *countingAger) AgeDays(context.Context, string) (int, error) {
	c.calls++
	return 42, nil
}

func TestCachedAgerMemoizes(t *testing.T) {
	inner := &countingAger{}
	cached := NewCachedAger(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		days, err := cached.AgeDays(ctx, "example.org")
		if err != nil || days != 42 {
			t.Fatalf("unexpected result %d (%v)", days, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
}

type countingReputation struct {
	calls int
}

func (c *countingReputation) Lookup(context.Context, string) (Reputation, error) {
	c.calls++
	return Reputation{Score: 0.2, Category: "suspicious"}, nil
}

func TestCachedReputationMemoizes(t *testing.T) {
	inner := &countingReputation{}
	cached := NewCachedReputation(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rep, err := cached.Lookup(ctx, "example.org")
		if err != nil || rep.Score != 0.2 {
			t.Fatalf("unexpected result %+v (%v)", rep, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
}
