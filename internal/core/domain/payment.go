package domain

import "time"

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentVoid    PaymentStatus = "void"
	PaymentUnknown PaymentStatus = "unknown"
)

type DetectionMethod string

const (
	DetectRegexPatterns   DetectionMethod = "regex_patterns"
	DetectKeywordMatching DetectionMethod = "keyword_matching"
	DetectAmountAnalysis  DetectionMethod = "amount_analysis"
	DetectClaudeVision    DetectionMethod = "claude_vision"
	DetectClaudeText      DetectionMethod = "claude_text"
)

// AmountInfo carries structured amounts when the caller already knows them,
// sparing the detectors a round of text parsing.
type AmountInfo struct {
	AmountDue  *float64 `json:"amount_due,omitempty"`
	AmountPaid *float64 `json:"amount_paid,omitempty"`
	Total      *float64 `json:"total,omitempty"`
}

// DetectionInput is everything a payment detector may inspect. Text is
// always present (possibly empty); ImageBytes is set only for image
// documents and is consumed by the vision detector.
type DetectionInput struct {
	Text           string
	Amounts        *AmountInfo
	ImageBytes     []byte
	ImageMediaType string
}

// MethodResult is one detector's independent vote.
type MethodResult struct {
	Method         DetectionMethod `json:"method"`
	Status         PaymentStatus   `json:"payment_status"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	Details        map[string]any  `json:"details,omitempty"`
	ProcessingTime time.Duration   `json:"processing_time"`
}

// PaymentConsensusResult is derived deterministically from the set of
// MethodResults; immutable once built.
type PaymentConsensusResult struct {
	Status           PaymentStatus                    `json:"payment_status"`
	Confidence       float64                          `json:"confidence"`
	MethodsUsed      []DetectionMethod                `json:"methods_used"`
	MethodResults    map[DetectionMethod]MethodResult `json:"method_results"`
	QualityScore     float64                          `json:"quality_score"`
	ConsensusReached bool                             `json:"consensus_reached"`
}
