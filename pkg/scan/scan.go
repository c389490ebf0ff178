// Package scan implements real-time scanning of composite content: message
// text with embedded links and attachments. Each scan runs the content and
// sender analyzers once, assesses every distinct link and attachment in
// parallel, rewrites the text with safe substitutions, and aggregates the
// decisions into an auditable outcome.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phishzil/threatscan/pkg/config"
	"github.com/phishzil/threatscan/pkg/detect"
	"github.com/phishzil/threatscan/pkg/threat"
)

// urlPattern extracts embedded http(s) links from message text.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// Attachment is one file carried by a composite message.
type Attachment struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Request is one composite message to scan.
type Request struct {
	Content     string             `json:"content"`
	ContentType string             `json:"content_type"`
	Sender      *detect.SenderInfo `json:"sender,omitempty"`
	Attachments []Attachment       `json:"attachments,omitempty"`
}

// Orchestrator drives scans through the assessment engine. Immutable after
// construction; each Scan call builds fresh per-scan state, so concurrent
// scans never share anything mutable.
type Orchestrator struct {
	engine        *detect.Engine
	method        threat.DisarmMethod
	maxConcurrent int
}

// NewOrchestrator wires an orchestrator to the engine and scan settings.
func NewOrchestrator(engine *detect.Engine, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		engine:        engine,
		method:        cfg.DefaultDisarmMethod,
		maxConcurrent: cfg.MaxConcurrentScans,
	}
}

// scanState tracks a single scan through its lifecycle. Terminal state is
// finalized; a job is never reused.
type scanState int

const (
	stateIdle scanState = iota
	stateScanning
	stateSubstituting
	stateFinalized
)

// scanJob is the per-scan working set.
type scanJob struct {
	state    scanState
	baseline []threat.AnalyzerResult // content + sender results, fused into every link verdict
	outcome  threat.ScanOutcome
}

// Scan processes one composite message. It always returns a valid outcome:
// analyzer failures degrade to evidence inside the engine, and a canceled
// context simply leaves the remaining work items unscored.
func (o *Orchestrator) Scan(ctx context.Context, req Request) threat.ScanOutcome {
	job := &scanJob{state: stateIdle, outcome: threat.ScanOutcome{SanitizedContent: req.Content}}

	job.state = stateScanning
	if req.Content != "" {
		job.baseline = append(job.baseline, o.engine.AnalyzeContent(ctx, req.Content, req.ContentType))
	}
	if req.Sender != nil {
		job.baseline = append(job.baseline, o.engine.AnalyzeSender(ctx, *req.Sender, req.ContentType))
	}
	if len(job.baseline) > 0 && detect.Fuse(job.baseline).IsMalicious {
		job.outcome.ThreatsFound++
	}

	urls := ExtractURLs(req.Content)
	urlVerdicts := o.assessLinks(ctx, job.baseline, urls)

	job.state = stateSubstituting
	for i, rawURL := range urls {
		verdict := urlVerdicts[i]
		if !verdict.IsMalicious {
			continue
		}
		replacement := disarmReplacement(o.method, rawURL, verdict.Level)
		// Every textual occurrence of the URL is rewritten; one disarm
		// record is produced per distinct URL.
		job.outcome.SanitizedContent = strings.ReplaceAll(job.outcome.SanitizedContent, rawURL, replacement)
		job.outcome.DisarmedLinks = append(job.outcome.DisarmedLinks, threat.DisarmedLink{
			OriginalURL:     rawURL,
			SafeReplacement: replacement,
			Level:           verdict.Level,
		})
		job.outcome.ThreatsFound++
		job.outcome.ActionsTaken = append(job.outcome.ActionsTaken, "Disarmed link: "+rawURL)
	}

	for _, qf := range o.quarantineAttachments(ctx, req.Attachments) {
		job.outcome.QuarantinedFiles = append(job.outcome.QuarantinedFiles, qf.record)
		job.outcome.ActionsTaken = append(job.outcome.ActionsTaken, "Quarantined attachment: "+qf.record.Filename)
		if qf.malicious {
			job.outcome.ThreatsFound++
		}
	}

	job.state = stateFinalized
	return job.outcome
}

// assessLinks fuses each distinct link with the baseline results in parallel.
// Results are reassembled by index so outcome order always follows input
// order, regardless of completion order.
func (o *Orchestrator) assessLinks(ctx context.Context, baseline []threat.AnalyzerResult, urls []string) []threat.Assessment {
	verdicts := make([]threat.Assessment, len(urls))
	if len(urls) == 0 {
		return verdicts
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, rawURL := range urls {
		g.Go(func() error {
			urlResult := o.engine.AnalyzeURL(gctx, rawURL)
			verdicts[i] = detect.Fuse(append(slices.Clone(baseline), urlResult))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failed lookups degrade inside the analyzer
	return verdicts
}

type quarantined struct {
	record    threat.QuarantinedFile
	malicious bool
}

// quarantineAttachments analyzes and isolates every attachment in parallel.
// Attachments are quarantined unconditionally; the file verdict decides the
// recorded threat level and whether the attachment counts as a found threat.
func (o *Orchestrator) quarantineAttachments(ctx context.Context, attachments []Attachment) []quarantined {
	records := make([]quarantined, len(attachments))
	if len(attachments) == 0 {
		return records
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, att := range attachments {
		g.Go(func() error {
			sum := sha256.Sum256(att.Data)
			fileResult := o.engine.AnalyzeFile(gctx, att.Filename, att.Data)
			verdict := detect.Fuse([]threat.AnalyzerResult{fileResult})

			mime, _ := fileResult.Metadata["mime_type"].(string)
			records[i] = quarantined{
				record: threat.QuarantinedFile{
					Filename:    att.Filename,
					Level:       verdict.Level,
					ReferenceID: uuid.NewString(),
					FileHash:    hex.EncodeToString(sum[:]),
					SafePreview: SafePreview(att.Filename, len(att.Data), mime, verdict.Level),
				},
				malicious: verdict.IsMalicious,
			}
			return nil
		})
	}
	_ = g.Wait()
	return records
}

// ExtractURLs returns the distinct http(s) URLs embedded in the text, in
// first-seen order.
func ExtractURLs(text string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, m := range urlPattern.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			urls = append(urls, m)
		}
	}
	return urls
}

// SafePreview builds the human-readable stand-in for a quarantined file.
// The original bytes are never exposed.
func SafePreview(filename string, size int, mime string, level threat.Level) string {
	if mime == "" {
		mime = "unknown"
	}
	return fmt.Sprintf("[SAFE PREVIEW]\nFilename: %s\nSize: %d bytes\nType: %s\nThreat Level: %s",
		filename, size, mime, level)
}

// disarmReplacement renders the substitution text for one malicious link.
func disarmReplacement(method threat.DisarmMethod, rawURL string, level threat.Level) string {
	switch method {
	case threat.DisarmBlock:
		return fmt.Sprintf("[BLOCKED: Malicious link detected - %s threat]", level)
	case threat.DisarmPlaceholder:
		return "[LINK REMOVED: Click to view details]"
	case threat.DisarmSanitize:
		rest := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
		return "hxxp://" + rest
	case threat.DisarmPreview:
		return "[SAFE PREVIEW: " + truncate(rawURL, 30) + "...]"
	default:
		return "[DISARMED: " + truncate(rawURL, 30) + "...]"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
