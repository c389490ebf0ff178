package scan

import (
	"context"
	"strings"
	"testing"

	"github.com/phishzil/threatscan/pkg/config"
	"github.com/phishzil/threatscan/pkg/detect"
	"github.com/phishzil/threatscan/pkg/lookup"
	"github.com/phishzil/threatscan/pkg/threat"
)

func newTestOrchestrator(t *testing.T, method threat.DisarmMethod) *Orchestrator {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DefaultDisarmMethod = method
	engine := detect.NewEngine(cfg, lookup.Neutral())
	return NewOrchestrator(engine, cfg)
}

func TestScanDisarmsPhishingLink(t *testing.T) {
	o := newTestOrchestrator(t, threat.DisarmBlock)

	outcome := o.Scan(context.Background(), Request{
		Content:     "Urgent! Verify now: http://bit.ly/xYz",
		ContentType: "email",
	})

	if strings.Contains(outcome.SanitizedContent, "http://bit.ly/xYz") {
		t.Errorf("sanitized content still contains the raw URL: %q", outcome.SanitizedContent)
	}
	if len(outcome.DisarmedLinks) != 1 {
		t.Fatalf("expected exactly one disarmed link, got %d", len(outcome.DisarmedLinks))
	}
	if outcome.DisarmedLinks[0].OriginalURL != "http://bit.ly/xYz" {
		t.Errorf("unexpected disarm record: %+v", outcome.DisarmedLinks[0])
	}
	if outcome.ThreatsFound < 1 {
		t.Errorf("expected threatsFound >= 1, got %d", outcome.ThreatsFound)
	}
	if !strings.Contains(outcome.SanitizedContent, "[BLOCKED: Malicious link detected") {
		t.Errorf("expected block notice in content, got %q", outcome.SanitizedContent)
	}
}

func TestScanCleanMessageUntouched(t *testing.T) {
	o := newTestOrchestrator(t, threat.DisarmBlock)

	content := "Meeting notes are at https://docs.example.com/notes - see you tomorrow. If this thread is not relevant you can unsubscribe from the project list at any time using the settings page, no action is needed otherwise."
	outcome := o.Scan(context.Background(), Request{Content: content, ContentType: "email"})

	if outcome.SanitizedContent != content {
		t.Errorf("clean content was modified: %q", outcome.SanitizedContent)
	}
	if len(outcome.DisarmedLinks) != 0 || outcome.ThreatsFound != 0 {
		t.Errorf("expected no findings, got %+v", outcome)
	}
}

func TestScanRepeatedURLSingleRecord(t *testing.T) {
	o := newTestOrchestrator(t, threat.DisarmPlaceholder)

	content := "Verify now http://bit.ly/a urgent, again http://bit.ly/a final notice"
	outcome := o.Scan(context.Background(), Request{Content: content, ContentType: "email"})

	if len(outcome.DisarmedLinks) != 1 {
		t.Fatalf("expected one record for a repeated URL, got %d", len(outcome.DisarmedLinks))
	}
	if strings.Contains(outcome.SanitizedContent, "bit.ly") {
		t.Errorf("every occurrence should be rewritten: %q", outcome.SanitizedContent)
	}
	if got := strings.Count(outcome.SanitizedContent, "[LINK REMOVED: Click to view details]"); got != 2 {
		t.Errorf("expected 2 substitutions, got %d", got)
	}
}

func TestScanDisarmMethods(t *testing.T) {
	content := "Act now! Your account is suspended, verify now: http://bit.ly/payload"

	testCases := []struct {
		method threat.DisarmMethod
		want   string
	}{
		{threat.DisarmBlock, "[BLOCKED: Malicious link detected"},
		{threat.DisarmPlaceholder, "[LINK REMOVED: Click to view details]"},
		{threat.DisarmSanitize, "hxxp://bit.ly/payload"},
		{threat.DisarmPreview, "[SAFE PREVIEW: http://bit.ly/payload...]"},
		{threat.DisarmMethod("LEGACY"), "[DISARMED: http://bit.ly/payload...]"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.method), func(t *testing.T) {
			o := newTestOrchestrator(t, tc.method)
			outcome := o.Scan(context.Background(), Request{Content: content, ContentType: "email"})
			if !strings.Contains(outcome.SanitizedContent, tc.want) {
				t.Errorf("expected %q in sanitized content, got %q", tc.want, outcome.SanitizedContent)
			}
		})
	}
}

func TestScanQuarantinesAttachments(t *testing.T) {
	o := newTestOrchestrator(t, threat.DisarmBlock)

	outcome := o.Scan(context.Background(), Request{
		ContentType: "email",
		Attachments: []Attachment{
			{Filename: "invoice.exe", Data: nil},
			{Filename: "photo.txt", Data: []byte("holiday pictures attached")},
		},
	})

	if len(outcome.QuarantinedFiles) != 2 {
		t.Fatalf("expected both attachments quarantined, got %d", len(outcome.QuarantinedFiles))
	}

	malicious := outcome.QuarantinedFiles[0]
	if malicious.Filename != "invoice.exe" {
		t.Errorf("quarantine order must follow input order, got %q first", malicious.Filename)
	}
	if malicious.Level == threat.LevelLow {
		t.Errorf("executable attachment should not be LOW, got %s", malicious.Level)
	}
	if malicious.ReferenceID == "" || malicious.FileHash == "" {
		t.Errorf("expected reference id and hash, got %+v", malicious)
	}
	if !strings.Contains(malicious.SafePreview, "[SAFE PREVIEW]") ||
		!strings.Contains(malicious.SafePreview, "Filename: invoice.exe") {
		t.Errorf("unexpected safe preview: %q", malicious.SafePreview)
	}

	// Only the malicious attachment counts as a found threat.
	if outcome.ThreatsFound != 1 {
		t.Errorf("expected threatsFound 1, got %d", outcome.ThreatsFound)
	}
}

func TestScanActionsTaken(t *testing.T) {
	o := newTestOrchestrator(t, threat.DisarmBlock)

	outcome := o.Scan(context.Background(), Request{
		Content:     "Urgent! Verify now: http://bit.ly/xYz",
		ContentType: "email",
		Attachments: []Attachment{{Filename: "setup.exe", Data: nil}},
	})

	var sawDisarm, sawQuarantine bool
	for _, action := range outcome.ActionsTaken {
		if strings.HasPrefix(action, "Disarmed link:") {
			sawDisarm = true
		}
		if strings.HasPrefix(action, "Quarantined attachment:") {
			sawQuarantine = true
		}
	}
	if !sawDisarm || !sawQuarantine {
		t.Errorf("expected both action kinds, got %v", outcome.ActionsTaken)
	}
}

func TestExtractURLs(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "distinct in first-seen order",
			text: "a http://one.example.org b https://two.example.org c http://one.example.org",
			want: []string{"http://one.example.org", "https://two.example.org"},
		},
		{
			name: "no urls",
			text: "plain text only",
			want: nil,
		},
		{
			name: "trailing punctuation excluded",
			text: `see <https://example.org/page> and "https://other.example.org/x"`,
			want: []string{"https://example.org/page", "https://other.example.org/x"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractURLs(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("position %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestScanManyLinksKeepsInputOrder(t *testing.T) {
	o := newTestOrchestrator(t, threat.DisarmPlaceholder)

	var sb strings.Builder
	sb.WriteString("Urgent! Verify your account now before it is suspended: ")
	hosts := []string{"aa", "bb", "cc", "dd", "ee", "ff", "gg", "hh"}
	for _, h := range hosts {
		sb.WriteString("http://bit.ly/" + h + " ")
	}

	outcome := o.Scan(context.Background(), Request{Content: sb.String(), ContentType: "email"})

	if len(outcome.DisarmedLinks) != len(hosts) {
		t.Fatalf("expected %d disarmed links, got %d", len(hosts), len(outcome.DisarmedLinks))
	}
	for i, h := range hosts {
		want := "http://bit.ly/" + h
		if outcome.DisarmedLinks[i].OriginalURL != want {
			t.Errorf("position %d: expected %q, got %q", i, want, outcome.DisarmedLinks[i].OriginalURL)
		}
	}
}

func TestSafePreviewFormat(t *testing.T) {
	got := SafePreview("invoice.exe", 0, "unknown", threat.LevelCritical)
	want := "[SAFE PREVIEW]\nFilename: invoice.exe\nSize: 0 bytes\nType: unknown\nThreat Level: CRITICAL"
	if got != want {
		t.Errorf("unexpected preview:\n%q\nwant:\n%q", got, want)
	}
}
