package detect

import (
	"context"
	"math"
	"testing"

	"github.com/phishzil/threatscan/pkg/threat"
)

func TestContentUrgencyThresholds(t *testing.T) {
	a := NewContentAnalyzer()
	ctx := context.Background()

	testCases := []struct {
		name      string
		text      string
		wantScore float64
		wantTag   string
	}{
		{
			name:      "multiple urgency phrases",
			text:      "URGENT: your account will be suspended today. This is long enough text to not trigger any other rule for emails, please remember you can unsubscribe anytime by clicking the unsubscribe button in your settings page.",
			wantScore: 0.6,
			wantTag:   threat.TagSocialEngineering,
		},
		{
			name:      "single urgency phrase",
			text:      "Please reply before the deadline. This filler sentence keeps the message body above the short-email threshold, and of course you may unsubscribe from these notifications whenever you like using the unsubscribe link below.",
			wantScore: 0.3,
			wantTag:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := a.Analyze(ctx, tc.text, ContextEmail)
			if math.Abs(result.RiskScore-tc.wantScore) > 1e-9 {
				t.Errorf("expected score %v, got %v (%v)", tc.wantScore, result.RiskScore, result.Indicators)
			}
			if tc.wantTag != "" && !hasTag(result.ThreatTypes, tc.wantTag) {
				t.Errorf("expected tag %s, got %v", tc.wantTag, result.ThreatTypes)
			}
		})
	}
}

func TestContentCredentialHarvesting(t *testing.T) {
	a := NewContentAnalyzer()

	result := a.Analyze(context.Background(),
		"Security alert: please verify your password to restore access. If you no longer wish to receive these messages you can unsubscribe below, though we recommend keeping alerts on for account safety reasons at all times.",
		ContextEmail)

	if !hasTag(result.ThreatTypes, threat.TagCredentialHarvesting) {
		t.Errorf("expected %s tag, got %v", threat.TagCredentialHarvesting, result.ThreatTypes)
	}
	if result.RiskScore < 0.7 {
		t.Errorf("expected risk >= 0.7, got %v", result.RiskScore)
	}
}

func TestContentFinancialFraudNeedsTwoMatches(t *testing.T) {
	a := NewContentAnalyzer()
	ctx := context.Background()

	one := a.Analyze(ctx, "We discuss the wire transfer schedule in the attached quarterly report, alongside routine treasury operations and the usual reconciliation notes prepared by the finance department for the upcoming audit season and planning.", ContextMessage)
	if hasTag(one.ThreatTypes, threat.TagFinancialFraud) {
		t.Errorf("single financial phrase should not tag fraud, got %v", one.Indicators)
	}

	two := a.Analyze(ctx, "You won an inheritance! Send the processing fee via wire transfer to claim your funds immediately, this opportunity is reserved for you alone and will not be repeated under any circumstances whatsoever, act now.", ContextMessage)
	if !hasTag(two.ThreatTypes, threat.TagFinancialFraud) {
		t.Errorf("expected %s tag, got %v", threat.TagFinancialFraud, two.ThreatTypes)
	}
}

func TestContentAuthorityImpersonation(t *testing.T) {
	a := NewContentAnalyzer()

	result := a.Analyze(context.Background(),
		"This is the IT support desk. We detected a configuration problem on your workstation and need your cooperation to resolve it during business hours today, otherwise the machine will be removed from the corporate domain.",
		ContextMessage)

	if !hasTag(result.ThreatTypes, threat.TagAuthorityImpersonation) {
		t.Errorf("expected %s tag, got %v", threat.TagAuthorityImpersonation, result.ThreatTypes)
	}
}

func TestContentGenericGreeting(t *testing.T) {
	a := NewContentAnalyzer()

	result := a.Analyze(context.Background(),
		"Dear Customer, thank you for shopping with us. Your parcel is on its way and should arrive within the usual delivery window for your region; no further action is required on your part at this stage. Unsubscribe anytime.",
		ContextEmail)

	if !hasIndicatorPrefix(result, "Generic greeting used") {
		t.Errorf("expected greeting indicator, got %v", result.Indicators)
	}
}

func TestContentSMSClickVerify(t *testing.T) {
	a := NewContentAnalyzer()

	result := a.Analyze(context.Background(), "Click this link to verify your delivery address", ContextSMS)

	if !hasTag(result.ThreatTypes, threat.TagSMSPhishing) {
		t.Errorf("expected %s tag, got %v", threat.TagSMSPhishing, result.ThreatTypes)
	}
}

func TestContentShortEmailWithoutUnsubscribe(t *testing.T) {
	a := NewContentAnalyzer()
	ctx := context.Background()

	short := a.Analyze(ctx, "Check this out", ContextEmail)
	if !hasIndicatorPrefix(short, "Short email without unsubscribe option") {
		t.Errorf("expected short-email indicator, got %v", short.Indicators)
	}

	// Same text in a chat context carries no email-specific penalty.
	chat := a.Analyze(ctx, "Check this out", ContextChat)
	if chat.RiskScore != 0 {
		t.Errorf("expected zero risk in chat context, got %v (%v)", chat.RiskScore, chat.Indicators)
	}
}

func TestContentIrregularCapitalization(t *testing.T) {
	a := NewContentAnalyzer()

	result := a.Analyze(context.Background(),
		"yoUr accOunt neeDs attentiOn todaY because our sysTem flagged unusual activity and we want to make sure everything is in order with your profile information; you may unsubscribe from these routine notices at any time.",
		ContextEmail)

	if !hasIndicatorPrefix(result, "Irregular capitalization throughout message") {
		t.Errorf("expected capitalization indicator, got %v", result.Indicators)
	}
}

func BenchmarkContentAnalyze(b *testing.B) {
	a := NewContentAnalyzer()
	ctx := context.Background()
	text := "URGENT security alert: verify your password immediately or your account will be suspended. Dear customer, our IT support team requires your confirmation within 24 hours."

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Analyze(ctx, text, ContextEmail)
	}
}
