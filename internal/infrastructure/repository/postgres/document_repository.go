// Package postgres persists documents, the vendor directory, and the audit
// trail in PostgreSQL via the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/paperledger/docpipe/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026090101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	document_type TEXT NOT NULL DEFAULT '',
	vendor_name TEXT NOT NULL DEFAULT '',
	customer_name TEXT NOT NULL DEFAULT '',
	amount DOUBLE PRECISION,
	gl_account_code TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL DEFAULT '',
	destination TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS vendors (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	default_gl_account TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vendors_tenant_name ON vendors(tenant_id, lower(name));

CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	document_id TEXT NOT NULL,
	tenant_id TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL,
	actor TEXT NOT NULL DEFAULT '',
	payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_events_document ON audit_events(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, tenant_id, filename, mime_type, storage_path, document_type, vendor_name, customer_name,
	amount, gl_account_code, payment_status, destination, confidence, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
`,
		doc.ID, doc.TenantID, doc.Filename, doc.MimeType, doc.StoragePath, string(doc.DocumentType),
		doc.VendorName, doc.CustomerName, doc.Amount, doc.GLAccountCode, string(doc.PaymentStatus),
		string(doc.Destination), doc.Confidence, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, filename, mime_type, storage_path, document_type, vendor_name, customer_name,
	amount, gl_account_code, payment_status, destination, confidence, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var docType, paymentStatus, destination, status string

	err := row.Scan(
		&doc.ID, &doc.TenantID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &docType,
		&doc.VendorName, &doc.CustomerName, &doc.Amount, &doc.GLAccountCode, &paymentStatus,
		&destination, &doc.Confidence, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.DocumentType = domain.DocumentType(docType)
	doc.PaymentStatus = domain.PaymentStatus(paymentStatus)
	doc.Destination = domain.Destination(destination)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(res, id)
}

func requireRowAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document", fmt.Errorf("id=%s", id))
	}
	return nil
}

// SaveOutcome writes the pipeline outcome back onto the document row. Only
// the stages that ran update their columns; a failed run still records its
// status and error message.
func (r *DocumentRepository) SaveOutcome(ctx context.Context, id string, result domain.ProcessingResult) error {
	glCode := ""
	if result.Classification != nil {
		glCode = result.Classification.GLAccountCode
	}
	paymentStatus := ""
	if result.PaymentConsensus != nil {
		paymentStatus = string(result.PaymentConsensus.Status)
	}
	destination := ""
	confidence := 0.0
	if result.Routing != nil {
		destination = string(result.Routing.Destination)
		confidence = result.Routing.Confidence
	}
	status := domain.StatusCompleted
	if !result.Success {
		status = domain.StatusFailed
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET gl_account_code = $2, payment_status = $3, destination = $4, confidence = $5,
	status = $6, error_message = $7, updated_at = $8
WHERE id = $1
`, id, glCode, paymentStatus, destination, confidence, string(status), result.ErrorMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document outcome: %w", err)
	}
	return requireRowAffected(res, id)
}
