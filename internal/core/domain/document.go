package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

type DocumentType string

const (
	DocTypeVendorInvoice   DocumentType = "vendor_invoice"
	DocTypeCustomerInvoice DocumentType = "customer_invoice"
	DocTypeUnknown         DocumentType = ""
)

type Document struct {
	ID            string         `json:"id"`
	TenantID      string         `json:"tenant_id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	StoragePath   string         `json:"storage_path"`
	DocumentType  DocumentType   `json:"document_type,omitempty"`
	VendorName    string         `json:"vendor_name,omitempty"`
	CustomerName  string         `json:"customer_name,omitempty"`
	Amount        *float64       `json:"amount,omitempty"`
	GLAccountCode string         `json:"gl_account_code,omitempty"`
	PaymentStatus PaymentStatus  `json:"payment_status,omitempty"`
	Destination   Destination    `json:"destination,omitempty"`
	Confidence    float64        `json:"confidence,omitempty"`
	Status        DocumentStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DocumentMetadata carries caller-supplied context for a scanned document.
// Every field except Filename may be empty; the pipeline degrades to
// text-only signals when it is.
type DocumentMetadata struct {
	Filename     string       `json:"filename"`
	MimeType     string       `json:"mime_type"`
	TenantID     string       `json:"tenant_id"`
	DocumentType DocumentType `json:"document_type,omitempty"`
	VendorName   string       `json:"vendor_name,omitempty"`
	CustomerName string       `json:"customer_name,omitempty"`
	Amount       *float64     `json:"amount,omitempty"`
}

// ProcessingResult is the top-level outcome of one pipeline run. When
// Success is false, ErrorMessage is set and the stage results that did not
// run are nil.
type ProcessingResult struct {
	DocumentID       string                  `json:"document_id"`
	Success          bool                    `json:"success"`
	ProcessingStatus string                  `json:"processing_status"`
	Classification   *ClassificationResult   `json:"classification_result,omitempty"`
	PaymentConsensus *PaymentConsensusResult `json:"payment_consensus,omitempty"`
	Routing          *RoutingDecision        `json:"routing_decision,omitempty"`
	ErrorMessage     string                  `json:"error_message,omitempty"`
	ProcessingTime   time.Duration           `json:"processing_time"`
}
