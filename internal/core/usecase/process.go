package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperledger/docpipe/internal/core/domain"
	"github.com/paperledger/docpipe/internal/core/ports"
)

// ProcessDocumentUseCase orchestrates the full pipeline for one document:
// store, extract text, classify the GL account, build payment consensus,
// route to a billing destination, assemble the outcome.
//
// Failure semantics: storage and classification failures are fatal for the
// document; extraction, single-detector, and vendor-lookup failures degrade
// to weaker signals and the pipeline continues.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	classifier ports.GLClassifier
	engine     ports.PaymentEngine
	router     ports.BillingRouter
	audit      ports.AuditSink
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	classifier ports.GLClassifier,
	engine ports.PaymentEngine,
	router ports.BillingRouter,
	audit ports.AuditSink,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		storage:    storage,
		extractor:  extractor,
		classifier: classifier,
		engine:     engine,
		router:     router,
		audit:      audit,
		logger:     logger,
	}
}

// Process ingests raw bytes and runs the pipeline in one call. The
// requestID is threaded through logging only; it carries no control-flow
// significance.
func (uc *ProcessDocumentUseCase) Process(ctx context.Context, content []byte, meta domain.DocumentMetadata, requestID string) domain.ProcessingResult {
	start := time.Now()
	id := uuid.NewString()
	log := uc.logger.With("document_id", id, "request_id", requestID)

	doc := newDocument(id, meta)
	if err := uc.storage.Save(ctx, doc.StoragePath, bytes.NewReader(content)); err != nil {
		log.ErrorContext(ctx, "document_store_failed", "error", err)
		return failure(id, domain.WrapError(domain.ErrStorageFailed, "store document", err), start)
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		log.ErrorContext(ctx, "document_record_failed", "error", err)
		return failure(id, domain.WrapError(domain.ErrStorageFailed, "create document record", err), start)
	}

	result := uc.run(ctx, doc, content, requestID)
	result.ProcessingTime = time.Since(start)
	uc.persistOutcome(ctx, doc.ID, result)
	return result
}

// ProcessByID runs the pipeline for an already-ingested document, loading
// its bytes back from object storage. This is the worker entry point.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) domain.ProcessingResult {
	start := time.Now()
	log := uc.logger.With("document_id", documentID)

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		log.ErrorContext(ctx, "document_load_failed", "error", err)
		return failure(documentID, fmt.Errorf("fetch document: %w", err), start)
	}

	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		log.WarnContext(ctx, "status_update_failed", "status", domain.StatusProcessing, "error", err)
	}

	content, err := uc.loadContent(ctx, doc)
	if err != nil {
		log.ErrorContext(ctx, "document_content_load_failed", "error", err)
		result := failure(documentID, domain.WrapError(domain.ErrStorageFailed, "load document content", err), start)
		uc.persistOutcome(ctx, doc.ID, result)
		return result
	}

	result := uc.run(ctx, doc, content, "")
	result.ProcessingTime = time.Since(start)
	uc.persistOutcome(ctx, doc.ID, result)
	return result
}

func (uc *ProcessDocumentUseCase) run(ctx context.Context, doc *domain.Document, content []byte, requestID string) domain.ProcessingResult {
	log := uc.logger.With("document_id", doc.ID, "request_id", requestID)

	text := uc.extractText(ctx, doc, content, log)

	classification, err := uc.classifier.Classify(ctx, text, doc.VendorName, doc.TenantID)
	if err != nil {
		// Classification errors signal a programming or data fault and are
		// surfaced verbatim, unlike low confidence which is not an error.
		log.ErrorContext(ctx, "classification_failed", "error", err)
		return domain.ProcessingResult{
			DocumentID:       doc.ID,
			Success:          false,
			ProcessingStatus: "classification_failed",
			ErrorMessage:     err.Error(),
		}
	}
	uc.recordClassificationAudit(doc, classification)

	consensus := uc.engine.Detect(ctx, detectionInput(doc, text, content), nil)

	dc := domain.DocumentContext{
		DocumentID:       doc.ID,
		DocumentType:     doc.DocumentType,
		VendorName:       doc.VendorName,
		CustomerName:     doc.CustomerName,
		Amount:           doc.Amount,
		GLAccount:        &classification,
		PaymentConsensus: &consensus,
		TenantID:         doc.TenantID,
	}
	decision := uc.router.Route(ctx, dc, nil, "")

	log.InfoContext(ctx, "document_processed",
		"gl_account", classification.GLAccountCode,
		"classification_method", string(classification.Method),
		"payment_status", string(consensus.Status),
		"destination", string(decision.Destination),
	)

	return domain.ProcessingResult{
		DocumentID:       doc.ID,
		Success:          true,
		ProcessingStatus: "completed",
		Classification:   &classification,
		PaymentConsensus: &consensus,
		Routing:          &decision,
	}
}

// extractText never fails the document: undecodable content degrades to an
// empty string and downstream stages simply score low.
func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document, content []byte, log *slog.Logger) string {
	text, err := uc.extractor.Extract(ctx, doc, content)
	if err != nil {
		log.WarnContext(ctx, "text_extraction_degraded", "error", err)
		return ""
	}
	return text
}

func (uc *ProcessDocumentUseCase) loadContent(ctx context.Context, doc *domain.Document) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read stored document: %w", err)
	}
	return content, nil
}

func (uc *ProcessDocumentUseCase) persistOutcome(ctx context.Context, documentID string, result domain.ProcessingResult) {
	if err := uc.repo.SaveOutcome(ctx, documentID, result); err != nil {
		uc.logger.WarnContext(ctx, "outcome_persist_failed", "document_id", documentID, "error", err)
	}
	status := domain.StatusCompleted
	if !result.Success {
		status = domain.StatusFailed
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, status, result.ErrorMessage); err != nil {
		uc.logger.WarnContext(ctx, "status_update_failed", "document_id", documentID, "status", status, "error", err)
	}
}

func (uc *ProcessDocumentUseCase) recordClassificationAudit(doc *domain.Document, classification domain.ClassificationResult) {
	if uc.audit == nil {
		return
	}
	uc.audit.Record(domain.AuditEvent{
		DocumentID: doc.ID,
		TenantID:   doc.TenantID,
		Type:       domain.AuditClassification,
		Payload: map[string]any{
			"gl_account_code": classification.GLAccountCode,
			"method":          string(classification.Method),
			"confidence":      classification.Confidence,
		},
		OccurredAt: time.Now().UTC(),
	})
}

func detectionInput(doc *domain.Document, text string, content []byte) domain.DetectionInput {
	input := domain.DetectionInput{Text: text}
	if doc.Amount != nil {
		input.Amounts = &domain.AmountInfo{AmountDue: doc.Amount}
	}
	if strings.HasPrefix(doc.MimeType, "image/") {
		input.ImageBytes = content
		input.ImageMediaType = doc.MimeType
	}
	return input
}

func newDocument(id string, meta domain.DocumentMetadata) *domain.Document {
	now := time.Now().UTC()
	return &domain.Document{
		ID:           id,
		TenantID:     meta.TenantID,
		Filename:     meta.Filename,
		MimeType:     meta.MimeType,
		StoragePath:  fmt.Sprintf("%s_%s", id, sanitizeFilename(meta.Filename)),
		DocumentType: meta.DocumentType,
		VendorName:   meta.VendorName,
		CustomerName: meta.CustomerName,
		Amount:       meta.Amount,
		Status:       domain.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func failure(documentID string, err error, start time.Time) domain.ProcessingResult {
	return domain.ProcessingResult{
		DocumentID:       documentID,
		Success:          false,
		ProcessingStatus: "failed",
		ErrorMessage:     err.Error(),
		ProcessingTime:   time.Since(start),
	}
}
