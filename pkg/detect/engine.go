package detect

import (
	"context"
	"net/url"
	"strings"

	"github.com/phishzil/threatscan/pkg/config"
	"github.com/phishzil/threatscan/pkg/lookup"
	"github.com/phishzil/threatscan/pkg/rules"
	"github.com/phishzil/threatscan/pkg/threat"
)

// Input is one assessment request. Any subset of evidence channels may be
// present; channels with no input are skipped in fusion, not scored as zero.
type Input struct {
	URL       string      `json:"url,omitempty"`
	Filename  string      `json:"filename,omitempty"`
	FileBytes []byte      `json:"file_bytes,omitempty"`
	FileHash  string      `json:"file_hash,omitempty"`
	Message   string      `json:"message,omitempty"`
	Sender    *SenderInfo `json:"sender,omitempty"`
	Context   string      `json:"context,omitempty"`
}

// Engine fuses the signal analyzers into a single assessment pipeline.
// Construction wires the analyzers to the lookup collaborators; after that
// the engine is immutable and safe for concurrent use.
type Engine struct {
	urlAnalyzer     *URLAnalyzer
	fileAnalyzer    *FileAnalyzer
	contentAnalyzer *ContentAnalyzer
	senderAnalyzer  *SenderAnalyzer

	lookups   lookup.Set
	overrides *rules.OverrideSet
	ml        MLClassifier
	mlWeight  float64
}

// Option customizes engine construction.
type Option func(*Engine)

// WithOverrides installs user-defined override rules, evaluated before the
// analyzers and short-circuiting the pipeline when one matches.
func WithOverrides(set *rules.OverrideSet) Option {
	return func(e *Engine) { e.overrides = set }
}

// WithMLClassifier enables the optional fifth signal channel.
func WithMLClassifier(ml MLClassifier, weight float64) Option {
	return func(e *Engine) {
		e.ml = ml
		e.mlWeight = weight
	}
}

// NewEngine builds an engine over the config tables and lookup collaborators.
func NewEngine(cfg *config.Config, lookups lookup.Set, opts ...Option) *Engine {
	e := &Engine{
		urlAnalyzer:     NewURLAnalyzer(cfg.LegitimateDomains, cfg.SuspiciousTLDs, lookups),
		fileAnalyzer:    NewFileAnalyzer(),
		contentAnalyzer: NewContentAnalyzer(),
		senderAnalyzer:  NewSenderAnalyzer(cfg.FreeMailProviders, lookups),
		lookups:         lookups,
		mlWeight:        cfg.MLWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assess runs every evidence channel the input supplies and fuses the
// results. It always returns a valid assessment: no evidence at all yields
// the well-defined no-signal result, and internal failures become evidence
// rather than errors.
func (e *Engine) Assess(ctx context.Context, in Input) threat.Assessment {
	if override := e.matchOverride(in); override != nil {
		return overrideAssessment(override)
	}

	// A bare hash with no byte content short-circuits to the known-threat
	// database instead of running the file analyzer on nothing.
	if e.isHashOnly(in) {
		if kt, found := e.lookups.FindKnown(ctx, in.FileHash, lookup.KindHash); found {
			return threat.KnownHashHit(kt.Severity, kt.Description)
		}
		return threat.KnownHashMiss()
	}

	var results []threat.AnalyzerResult
	if in.URL != "" {
		results = append(results, e.urlAnalyzer.Analyze(ctx, in.URL))
	}
	if in.Filename != "" || len(in.FileBytes) > 0 {
		results = append(results, e.fileAnalyzer.Analyze(ctx, in.Filename, in.FileBytes))
	}
	if in.Message != "" {
		results = append(results, e.contentAnalyzer.Analyze(ctx, in.Message, in.Context))
	}
	if in.Sender != nil {
		results = append(results, e.senderAnalyzer.Analyze(ctx, *in.Sender, in.Context))
	}
	if e.ml != nil && in.Message != "" {
		if pred, err := e.ml.Classify(ctx, in.Message); err == nil {
			results = append(results, mlChannelResult(pred, e.mlWeight))
		}
	}

	return Fuse(results)
}

// AnalyzeURL exposes the URL channel for callers that fuse it with results
// they already hold (the scan orchestrator).
func (e *Engine) AnalyzeURL(ctx context.Context, rawURL string) threat.AnalyzerResult {
	return e.urlAnalyzer.Analyze(ctx, rawURL)
}

// AnalyzeFile exposes the file channel.
func (e *Engine) AnalyzeFile(ctx context.Context, filename string, data []byte) threat.AnalyzerResult {
	return e.fileAnalyzer.Analyze(ctx, filename, data)
}

// AnalyzeContent exposes the content channel.
func (e *Engine) AnalyzeContent(ctx context.Context, text, contentType string) threat.AnalyzerResult {
	return e.contentAnalyzer.Analyze(ctx, text, contentType)
}

// AnalyzeSender exposes the sender channel.
func (e *Engine) AnalyzeSender(ctx context.Context, info SenderInfo, contentType string) threat.AnalyzerResult {
	return e.senderAnalyzer.Analyze(ctx, info, contentType)
}

func (e *Engine) isHashOnly(in Input) bool {
	return in.FileHash != "" && len(in.FileBytes) == 0 &&
		in.URL == "" && in.Message == "" && in.Sender == nil && in.Filename == ""
}

// matchOverride evaluates user-defined rules against every supplied facet,
// returning the first (highest-priority) hit.
func (e *Engine) matchOverride(in Input) *rules.Override {
	if e.overrides == nil || e.overrides.Len() == 0 {
		return nil
	}
	if in.URL != "" {
		if o := e.overrides.Match(rules.OverrideURLPattern, in.URL); o != nil {
			return o
		}
		if host := hostOf(in.URL); host != "" {
			if o := e.overrides.Match(rules.OverrideDomain, host); o != nil {
				return o
			}
		}
	}
	if in.Sender != nil && in.Sender.Email != "" {
		if o := e.overrides.Match(rules.OverrideSenderPattern, in.Sender.Email); o != nil {
			return o
		}
	}
	if in.Message != "" {
		if o := e.overrides.Match(rules.OverrideContentKeyword, in.Message); o != nil {
			return o
		}
	}
	if in.Filename != "" {
		if o := e.overrides.Match(rules.OverrideFileExtension, in.Filename); o != nil {
			return o
		}
	}
	return nil
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		if reparsed, rerr := url.Parse("http://" + rawURL); rerr == nil {
			host = strings.ToLower(reparsed.Hostname())
		}
	}
	return host
}

// overrideAssessment maps a matched override rule directly to a verdict,
// bypassing the analyzers entirely.
func overrideAssessment(o *rules.Override) threat.Assessment {
	var confidence float64
	switch o.Action {
	case rules.OverrideAllow:
		confidence = 0.0
	case rules.OverrideWarn:
		confidence = 0.5
	case rules.OverrideQuarantine:
		confidence = 0.8
	case rules.OverrideBlock:
		confidence = 1.0
	}

	level, action := Classify(confidence)
	return threat.Assessment{
		IsMalicious: confidence >= maliciousThreshold,
		Level:       level,
		Confidence:  confidence,
		ThreatTypes: []string{threat.TagRuleOverride},
		Indicators:  []string{"Matched protection rule: " + o.Name},
		Action:      action,
		Details:     map[string]threat.AnalyzerResult{},
	}
}
