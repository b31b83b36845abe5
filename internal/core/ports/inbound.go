package ports

import (
	"context"
	"io"

	"github.com/paperledger/docpipe/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, meta domain.DocumentMetadata, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for running the full pipeline.
type DocumentProcessor interface {
	Process(ctx context.Context, content []byte, meta domain.DocumentMetadata, requestID string) domain.ProcessingResult
	ProcessByID(ctx context.Context, documentID string) domain.ProcessingResult
}

// GLClassifier assigns a GL account to free-form document text. It never
// returns a zero result for ordinary input; an error signals an internal
// fault worth surfacing, not ambiguity.
type GLClassifier interface {
	Classify(ctx context.Context, text, vendorName, tenantID string) (domain.ClassificationResult, error)
}

// PaymentEngine aggregates the enabled detectors into one consensus. A nil
// enabled set means all registered detectors.
type PaymentEngine interface {
	Detect(ctx context.Context, input domain.DetectionInput, enabled map[domain.DetectionMethod]bool) domain.PaymentConsensusResult
}

// BillingRouter selects a billing destination. It always returns a
// decision; override, when non-nil, bypasses scoring entirely.
type BillingRouter interface {
	Route(ctx context.Context, dc domain.DocumentContext, override *domain.Destination, userID string) domain.RoutingDecision
	Stats() domain.RoutingStats
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
