package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/paperledger/docpipe/internal/core/domain"
)

// AuditRepository writes pipeline decisions to the audit trail. Record is
// fire-and-forget: events go through a buffered channel and a single writer
// goroutine, and are dropped with a warning when the buffer is full so the
// pipeline never blocks on audit persistence.
type AuditRepository struct {
	db     *sql.DB
	logger *slog.Logger

	events chan domain.AuditEvent
	done   chan struct{}
	once   sync.Once
}

const auditBufferSize = 256

func NewAuditRepository(db *sql.DB, logger *slog.Logger) *AuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &AuditRepository{
		db:     db,
		logger: logger,
		events: make(chan domain.AuditEvent, auditBufferSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AuditRepository) Record(event domain.AuditEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	select {
	case r.events <- event:
	default:
		r.logger.Warn("audit_event_dropped",
			"document_id", event.DocumentID,
			"event_type", string(event.Type),
		)
	}
}

// Close drains buffered events and stops the writer.
func (r *AuditRepository) Close() {
	r.once.Do(func() {
		close(r.events)
		<-r.done
	})
}

func (r *AuditRepository) run() {
	defer close(r.done)
	for event := range r.events {
		r.write(event)
	}
}

func (r *AuditRepository) write(event domain.AuditEvent) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		r.logger.Warn("audit_payload_marshal_failed", "document_id", event.DocumentID, "error", err)
		payload = []byte("{}")
	}
	if event.Payload == nil {
		payload = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = r.db.ExecContext(ctx, `
INSERT INTO audit_events (document_id, tenant_id, event_type, actor, payload, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, event.DocumentID, event.TenantID, string(event.Type), event.Actor, payload, event.OccurredAt)
	if err != nil {
		r.logger.Warn("audit_write_failed", "document_id", event.DocumentID, "error", err)
	}
}
