package ports

import (
	"context"
	"io"

	"github.com/paperledger/docpipe/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveOutcome(ctx context.Context, id string, result domain.ProcessingResult) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes scanned-document events.
type MessageQueue interface {
	PublishDocumentScanned(ctx context.Context, documentID string) error
	SubscribeDocumentScanned(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document. Undecodable
// content yields an empty string, not an error.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document, content []byte) (string, error)
}

// VendorDirectory maps vendor names to preferred GL accounts. MatchVendor
// returns (nil, nil) on a miss; implementations should tolerate their
// backing store being unavailable by returning an error, which callers
// treat as a silent fall-through.
type VendorDirectory interface {
	MatchVendor(ctx context.Context, name, tenantID string) (*domain.VendorMatch, error)
}

// PaymentDetector is one independent payment-status detection method.
type PaymentDetector interface {
	Method() domain.DetectionMethod
	Detect(ctx context.Context, input domain.DetectionInput) (domain.MethodResult, error)
}

// AuditSink records pipeline decisions. Record is fire-and-forget: it must
// not block the caller on persistence.
type AuditSink interface {
	Record(event domain.AuditEvent)
}
