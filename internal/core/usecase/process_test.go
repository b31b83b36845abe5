package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/paperledger/docpipe/internal/core/domain"
)

type fakeRepo struct {
	docs          map[string]*domain.Document
	createErr     error
	statusUpdates []domain.DocumentStatus
	outcomes      map[string]domain.ProcessingResult
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:     map[string]*domain.Document{},
		outcomes: map[string]domain.ProcessingResult{},
	}
}

func (f *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return doc, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, _ string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeRepo) SaveOutcome(_ context.Context, id string, result domain.ProcessingResult) error {
	f.outcomes[id] = result
	return nil
}

type fakeStorage struct {
	saveErr error
	openErr error
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = content
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	content, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object missing")
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ *domain.Document, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeClassifier struct {
	result   domain.ClassificationResult
	err      error
	lastText string
}

func (f *fakeClassifier) Classify(_ context.Context, text, _, _ string) (domain.ClassificationResult, error) {
	f.lastText = text
	return f.result, f.err
}

type fakeEngine struct {
	result    domain.PaymentConsensusResult
	lastInput domain.DetectionInput
}

func (f *fakeEngine) Detect(_ context.Context, input domain.DetectionInput, _ map[domain.DetectionMethod]bool) domain.PaymentConsensusResult {
	f.lastInput = input
	return f.result
}

type fakeRouter struct {
	decision domain.RoutingDecision
}

func (f *fakeRouter) Route(_ context.Context, dc domain.DocumentContext, _ *domain.Destination, _ string) domain.RoutingDecision {
	d := f.decision
	d.DocumentID = dc.DocumentID
	return d
}

func (f *fakeRouter) Stats() domain.RoutingStats { return domain.RoutingStats{} }

type pipelineFixture struct {
	repo       *fakeRepo
	storage    *fakeStorage
	extractor  *fakeExtractor
	classifier *fakeClassifier
	engine     *fakeEngine
	router     *fakeRouter
	audit      *fakeAuditSink
	uc         *ProcessDocumentUseCase
}

func newPipelineFixture() *pipelineFixture {
	fx := &pipelineFixture{
		repo:      newFakeRepo(),
		storage:   newFakeStorage(),
		extractor: &fakeExtractor{text: "invoice for lumber"},
		classifier: &fakeClassifier{result: domain.ClassificationResult{
			GLAccountCode: "5000",
			Category:      domain.CategoryExpenses,
			Confidence:    0.76,
			Method:        domain.MethodKeywordMatching,
		}},
		engine: &fakeEngine{result: domain.PaymentConsensusResult{
			Status:     domain.PaymentUnpaid,
			Confidence: 0.8,
		}},
		router: &fakeRouter{decision: domain.RoutingDecision{
			Destination: domain.DestOpenPayable,
			Confidence:  1.0,
		}},
		audit: &fakeAuditSink{},
	}
	fx.uc = NewProcessDocumentUseCase(
		fx.repo, fx.storage, fx.extractor, fx.classifier, fx.engine, fx.router, fx.audit, nil,
	)
	return fx
}

func testMeta() domain.DocumentMetadata {
	return domain.DocumentMetadata{
		Filename:     "invoice.pdf",
		MimeType:     "application/pdf",
		TenantID:     "t1",
		DocumentType: domain.DocTypeVendorInvoice,
		VendorName:   "Timber Supply Co",
	}
}

func TestProcessHappyPath(t *testing.T) {
	fx := newPipelineFixture()

	result := fx.uc.Process(context.Background(), []byte("raw"), testMeta(), "req-1")
	if !result.Success {
		t.Fatalf("Process failed: %s", result.ErrorMessage)
	}
	if result.ProcessingStatus != "completed" {
		t.Fatalf("status = %s, want completed", result.ProcessingStatus)
	}
	if result.Classification == nil || result.Classification.GLAccountCode != "5000" {
		t.Fatalf("classification missing or wrong: %+v", result.Classification)
	}
	if result.PaymentConsensus == nil || result.PaymentConsensus.Status != domain.PaymentUnpaid {
		t.Fatalf("consensus missing or wrong: %+v", result.PaymentConsensus)
	}
	if result.Routing == nil || result.Routing.Destination != domain.DestOpenPayable {
		t.Fatalf("routing missing or wrong: %+v", result.Routing)
	}
	if result.ProcessingTime <= 0 {
		t.Fatalf("processing time not recorded")
	}
	if _, ok := fx.repo.outcomes[result.DocumentID]; !ok {
		t.Fatalf("outcome was not persisted")
	}
	if len(fx.audit.byType(domain.AuditClassification)) != 1 {
		t.Fatalf("expected one classification audit event")
	}
}

func TestProcessStorageFailureIsFatal(t *testing.T) {
	fx := newPipelineFixture()
	fx.storage.saveErr = errors.New("disk full")

	result := fx.uc.Process(context.Background(), []byte("raw"), testMeta(), "req-2")
	if result.Success {
		t.Fatalf("expected failure when storage is down")
	}
	if !strings.Contains(result.ErrorMessage, domain.ErrStorageFailed.Error()) {
		t.Fatalf("error message %q does not carry the storage kind", result.ErrorMessage)
	}
	if result.Classification != nil || result.Routing != nil {
		t.Fatalf("stages after storage must not run")
	}
}

func TestProcessClassifierErrorSurfacesVerbatim(t *testing.T) {
	fx := newPipelineFixture()
	fx.classifier.err = errors.New("classify: chart of accounts not loaded")

	result := fx.uc.Process(context.Background(), []byte("raw"), testMeta(), "req-3")
	if result.Success {
		t.Fatalf("expected failure on classifier error")
	}
	if result.ProcessingStatus != "classification_failed" {
		t.Fatalf("status = %s, want classification_failed", result.ProcessingStatus)
	}
	if result.ErrorMessage != "classify: chart of accounts not loaded" {
		t.Fatalf("error message = %q, want the classifier error verbatim", result.ErrorMessage)
	}
}

func TestProcessExtractionFailureDegradesToEmptyText(t *testing.T) {
	fx := newPipelineFixture()
	fx.extractor.err = errors.New("malformed pdf")

	result := fx.uc.Process(context.Background(), []byte("raw"), testMeta(), "req-4")
	if !result.Success {
		t.Fatalf("extraction failure must not fail the document: %s", result.ErrorMessage)
	}
	if fx.classifier.lastText != "" {
		t.Fatalf("classifier text = %q, want empty after degraded extraction", fx.classifier.lastText)
	}
}

func TestProcessForwardsAmountAndImageToDetectors(t *testing.T) {
	fx := newPipelineFixture()
	amount := 125.50
	meta := testMeta()
	meta.MimeType = "image/png"
	meta.Filename = "scan.png"
	meta.Amount = &amount

	content := []byte{0x89, 0x50, 0x4e, 0x47}
	result := fx.uc.Process(context.Background(), content, meta, "req-5")
	if !result.Success {
		t.Fatalf("Process failed: %s", result.ErrorMessage)
	}
	input := fx.engine.lastInput
	if input.Amounts == nil || input.Amounts.AmountDue == nil || *input.Amounts.AmountDue != amount {
		t.Fatalf("amount not threaded into detection input: %+v", input.Amounts)
	}
	if !bytes.Equal(input.ImageBytes, content) || input.ImageMediaType != "image/png" {
		t.Fatalf("image bytes not threaded into detection input")
	}
}

func TestProcessByIDLoadsStoredContent(t *testing.T) {
	fx := newPipelineFixture()

	first := fx.uc.Process(context.Background(), []byte("stored bytes"), testMeta(), "req-6")
	if !first.Success {
		t.Fatalf("seed Process failed: %s", first.ErrorMessage)
	}

	result := fx.uc.ProcessByID(context.Background(), first.DocumentID)
	if !result.Success {
		t.Fatalf("ProcessByID failed: %s", result.ErrorMessage)
	}

	var sawProcessing bool
	for _, s := range fx.repo.statusUpdates {
		if s == domain.StatusProcessing {
			sawProcessing = true
		}
	}
	if !sawProcessing {
		t.Fatalf("document was never marked processing")
	}
}

func TestProcessByIDUnknownDocumentFails(t *testing.T) {
	fx := newPipelineFixture()

	result := fx.uc.ProcessByID(context.Background(), "nope")
	if result.Success {
		t.Fatalf("expected failure for unknown document")
	}
	if !strings.Contains(result.ErrorMessage, domain.ErrDocumentNotFound.Error()) {
		t.Fatalf("error message = %q, want not-found kind", result.ErrorMessage)
	}
}
