package domain

import "time"

type AuditEventType string

const (
	AuditClassification AuditEventType = "classification"
	AuditRouting        AuditEventType = "routing"
	AuditOverride       AuditEventType = "manual_override"
)

// AuditEvent records one pipeline decision for the audit trail. Persistence
// is fire-and-forget; the pipeline never blocks on it.
type AuditEvent struct {
	DocumentID string         `json:"document_id"`
	TenantID   string         `json:"tenant_id,omitempty"`
	Type       AuditEventType `json:"type"`
	Actor      string         `json:"actor,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
