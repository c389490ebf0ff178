// Package threat defines the shared data model for the detection engine:
// per-channel analyzer results, the fused assessment, and scan outcomes.
// All values are immutable after construction and owned by the caller.
package threat

// Level is the discrete severity bucket assigned to an assessment.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Action is the response directive derived from the threat level.
type Action string

const (
	ActionAllowWithMonitoring Action = "ALLOW_WITH_MONITORING"
	ActionWarnUser            Action = "WARN_USER"
	ActionQuarantineAndAlert  Action = "QUARANTINE_AND_ALERT"
	ActionBlockImmediately    Action = "BLOCK_IMMEDIATELY"
)

// Threat type tags - categorical labels used for aggregation and reporting.
const (
	TagDomainSpoofing         = "DOMAIN_SPOOFING"
	TagMaliciousExecutable    = "MALICIOUS_EXECUTABLE"
	TagExtensionSpoofing      = "EXTENSION_SPOOFING"
	TagMacroMalware           = "MACRO_MALWARE"
	TagPackedExecutable       = "PACKED_EXECUTABLE"
	TagEvasionTechnique       = "EVASION_TECHNIQUE"
	TagMaliciousCode          = "MALICIOUS_CODE"
	TagSocialEngineering      = "SOCIAL_ENGINEERING"
	TagCredentialHarvesting   = "CREDENTIAL_HARVESTING"
	TagFinancialFraud         = "FINANCIAL_FRAUD"
	TagAuthorityImpersonation = "AUTHORITY_IMPERSONATION"
	TagSMSPhishing            = "SMS_PHISHING"
	TagEmailSpoofing          = "EMAIL_SPOOFING"
	TagMaliciousDomain        = "MALICIOUS_DOMAIN"
	TagKnownMaliciousHash     = "KNOWN_MALICIOUS_HASH"
	TagSuspiciousFile         = "SUSPICIOUS_FILE"
	TagMLClassification       = "ML_CLASSIFICATION"
	TagRuleOverride           = "RULE_OVERRIDE"
)

// Evidence channel names, used as keys in Assessment.Details.
const (
	ChannelURL     = "url"
	ChannelFile    = "file"
	ChannelContent = "content"
	ChannelSender  = "sender"
	ChannelML      = "ml"
)

// AnalyzerResult is the output of one analyzer invocation over one evidence
// channel. Indicators and ThreatTypes behave as sets: AddIndicator and
// AddThreatType deduplicate, insertion order is preserved for readability but
// carries no meaning.
type AnalyzerResult struct {
	Channel     string         `json:"channel"`
	Indicators  []string       `json:"indicators"`
	ThreatTypes []string       `json:"threat_types"`
	RiskScore   float64        `json:"risk_score"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewAnalyzerResult creates an empty result for the given channel.
func NewAnalyzerResult(channel string) AnalyzerResult {
	return AnalyzerResult{
		Channel:  channel,
		Metadata: make(map[string]any),
	}
}

// AddIndicator appends a human-readable evidence string, skipping duplicates.
func (r *AnalyzerResult) AddIndicator(indicator string) {
	for _, existing := range r.Indicators {
		if existing == indicator {
			return
		}
	}
	r.Indicators = append(r.Indicators, indicator)
}

// AddThreatType records a categorical tag, skipping duplicates.
func (r *AnalyzerResult) AddThreatType(tag string) {
	for _, existing := range r.ThreatTypes {
		if existing == tag {
			return
		}
	}
	r.ThreatTypes = append(r.ThreatTypes, tag)
}

// AddScore accumulates weight into the risk score, clamped to [0,1].
func (r *AnalyzerResult) AddScore(weight float64) {
	r.RiskScore = Clamp01(r.RiskScore + weight)
}

// SetMetadata records a channel-specific fact (detected domain, mime type...).
func (r *AnalyzerResult) SetMetadata(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// Assessment is the fused verdict over all evidence channels that ran.
// Invariant: IsMalicious <=> Confidence >= 0.7, and Confidence is in [0,1].
type Assessment struct {
	IsMalicious bool                      `json:"is_malicious"`
	Level       Level                     `json:"threat_level"`
	Confidence  float64                   `json:"confidence_score"`
	ThreatTypes []string                  `json:"threat_types"`
	Indicators  []string                  `json:"indicators"`
	Action      Action                    `json:"recommended_action"`
	Details     map[string]AnalyzerResult `json:"details,omitempty"`
}

// NoSignal is the well-defined result for a request that supplied no evidence
// channels at all. Not an error: callers get a valid, fully-populated value.
func NoSignal() Assessment {
	return Assessment{
		IsMalicious: false,
		Level:       LevelLow,
		Confidence:  0.0,
		Action:      ActionAllowWithMonitoring,
		Details:     map[string]AnalyzerResult{},
	}
}

// KnownHashHit builds the fixed high-confidence assessment returned when a
// file hash matches the known-threat database and no byte content is
// available for deeper analysis.
func KnownHashHit(severity Level, description string) Assessment {
	return Assessment{
		IsMalicious: true,
		Level:       severity,
		Confidence:  0.95,
		ThreatTypes: []string{TagKnownMaliciousHash},
		Indicators:  []string{"Hash matches known threat: " + description},
		Action:      ActionBlockImmediately,
		Details:     map[string]AnalyzerResult{},
	}
}

// KnownHashMiss builds the fixed low-confidence assessment for a hash-only
// check that found nothing in the known-threat database.
func KnownHashMiss() Assessment {
	return Assessment{
		IsMalicious: false,
		Level:       LevelLow,
		Confidence:  0.1,
		ThreatTypes: []string{},
		Indicators:  []string{"Hash not found in threat database"},
		Action:      ActionAllowWithMonitoring,
		Details:     map[string]AnalyzerResult{},
	}
}

// Clamp01 bounds a score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
