package threat

// DisarmMethod selects the textual substitution applied to a malicious link.
type DisarmMethod string

const (
	DisarmBlock       DisarmMethod = "BLOCK"
	DisarmSanitize    DisarmMethod = "SANITIZE"
	DisarmPlaceholder DisarmMethod = "PLACEHOLDER"
	DisarmPreview     DisarmMethod = "PREVIEW"
)

// DisarmedLink records one link substitution made during a scan.
// One record is produced per distinct URL; every textual occurrence of that
// URL in the message is rewritten with the same replacement.
type DisarmedLink struct {
	OriginalURL     string `json:"original_url"`
	SafeReplacement string `json:"safe_replacement"`
	Level           Level  `json:"threat_level"`
}

// QuarantinedFile records one attachment isolated during a scan. The original
// bytes are never carried here; SafePreview is a human-readable description.
type QuarantinedFile struct {
	Filename    string `json:"filename"`
	Level       Level  `json:"threat_level"`
	ReferenceID string `json:"reference_id"`
	FileHash    string `json:"file_hash"`
	SafePreview string `json:"safe_preview"`
}

// ScanOutcome is the aggregate result of scanning one composite message.
// Built incrementally by the orchestrator, finalized once, then owned by the
// caller. List order follows input order for auditability.
type ScanOutcome struct {
	SanitizedContent string            `json:"sanitized_content"`
	DisarmedLinks    []DisarmedLink    `json:"disarmed_links"`
	QuarantinedFiles []QuarantinedFile `json:"quarantined_files"`
	ThreatsFound     int               `json:"threats_found"`
	ActionsTaken     []string          `json:"actions_taken"`
}
