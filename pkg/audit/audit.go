// Package audit records every assessment, disarm, and quarantine decision.
// The engine itself performs no persistence; callers hand it a Store and the
// server wires in the JSONL implementation.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phishzil/threatscan/pkg/threat"
)

// Event kinds written to the audit trail.
const (
	EventAssessment = "assessment"
	EventDisarm     = "disarm"
	EventQuarantine = "quarantine"
)

// Event is one audit record. Payload holds the kind-specific value.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Store persists audit events. Implementations must be safe for concurrent
// use; a failed write must not fail the assessment that produced it.
type Store interface {
	SaveAssessment(ctx context.Context, a threat.Assessment) error
	SaveDisarm(ctx context.Context, d threat.DisarmedLink) error
	SaveQuarantine(ctx context.Context, q threat.QuarantinedFile) error
}

// Nop discards all events. Used when no audit path is configured.
type Nop struct{}

func (Nop) SaveAssessment(context.Context, threat.Assessment) error      { return nil }
func (Nop) SaveDisarm(context.Context, threat.DisarmedLink) error        { return nil }
func (Nop) SaveQuarantine(context.Context, threat.QuarantinedFile) error { return nil }

// JSONL appends one JSON object per line to a local file.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJSONL opens (or creates) the audit file in append mode.
func OpenJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &JSONL{file: f}, nil
}

// Close flushes and closes the underlying file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

func (j *JSONL) write(kind string, payload any) error {
	event := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

func (j *JSONL) SaveAssessment(_ context.Context, a threat.Assessment) error {
	return j.write(EventAssessment, a)
}

func (j *JSONL) SaveDisarm(_ context.Context, d threat.DisarmedLink) error {
	return j.write(EventDisarm, d)
}

func (j *JSONL) SaveQuarantine(_ context.Context, q threat.QuarantinedFile) error {
	return j.write(EventQuarantine, q)
}
