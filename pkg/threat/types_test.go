package threat

import "testing"

func TestAddScoreClamps(t *testing.T) {
	r := NewAnalyzerResult(ChannelURL)

	r.AddScore(0.8)
	r.AddScore(0.8)
	if r.RiskScore != 1.0 {
		t.Errorf("expected score clamped to 1.0, got %v", r.RiskScore)
	}

	r.AddScore(-5)
	if r.RiskScore != 0.0 {
		t.Errorf("expected score clamped to 0.0, got %v", r.RiskScore)
	}
}

func TestIndicatorAndTagDeduplication(t *testing.T) {
	r := NewAnalyzerResult(ChannelContent)

	r.AddIndicator("Urgency language detected")
	r.AddIndicator("Urgency language detected")
	r.AddThreatType(TagSocialEngineering)
	r.AddThreatType(TagSocialEngineering)

	if len(r.Indicators) != 1 {
		t.Errorf("expected 1 indicator, got %d", len(r.Indicators))
	}
	if len(r.ThreatTypes) != 1 {
		t.Errorf("expected 1 threat type, got %d", len(r.ThreatTypes))
	}
}

func TestNoSignal(t *testing.T) {
	a := NoSignal()

	if a.IsMalicious {
		t.Error("no-signal result must not be malicious")
	}
	if a.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", a.Confidence)
	}
	if a.Level != LevelLow || a.Action != ActionAllowWithMonitoring {
		t.Errorf("unexpected level/action: %s/%s", a.Level, a.Action)
	}
}

func TestKnownHashResults(t *testing.T) {
	hit := KnownHashHit(LevelCritical, "Emotet dropper")
	if !hit.IsMalicious || hit.Confidence != 0.95 || hit.Action != ActionBlockImmediately {
		t.Errorf("unexpected hit assessment: %+v", hit)
	}
	if len(hit.ThreatTypes) != 1 || hit.ThreatTypes[0] != TagKnownMaliciousHash {
		t.Errorf("expected %s tag, got %v", TagKnownMaliciousHash, hit.ThreatTypes)
	}

	miss := KnownHashMiss()
	if miss.IsMalicious || miss.Confidence != 0.1 || miss.Level != LevelLow {
		t.Errorf("unexpected miss assessment: %+v", miss)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{3.2, 1},
	}
	for _, tc := range cases {
		if got := Clamp01(tc.in); got != tc.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
