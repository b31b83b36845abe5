// Package heuristic holds the local, deterministic payment detectors:
// regex patterns, keyword tallies, and amount analysis. They never make
// network calls and never return an error for ordinary text.
package heuristic

import (
	"context"
	"fmt"
	"regexp"

	"github.com/paperledger/docpipe/internal/core/domain"
)

// paymentPattern maps a strong lexical signal to a payment status. Pattern
// specificity drives the confidence: void and paid-in-full stamps are near
// certain, balance-due lines less so.
type paymentPattern struct {
	re         *regexp.Regexp
	status     domain.PaymentStatus
	confidence float64
	label      string
}

var paymentPatterns = []paymentPattern{
	{regexp.MustCompile(`(?i)\bpaid\s+in\s+full\b`), domain.PaymentPaid, 0.9, "paid-in-full stamp"},
	{regexp.MustCompile(`(?i)\bvoid(ed)?\b`), domain.PaymentVoid, 0.85, "void stamp"},
	{regexp.MustCompile(`(?i)\bpayment\s+received\b`), domain.PaymentPaid, 0.8, "payment-received note"},
	{regexp.MustCompile(`(?i)\bthank\s+you\s+for\s+your\s+payment\b`), domain.PaymentPaid, 0.75, "payment acknowledgement"},
	{regexp.MustCompile(`(?i)\bbalance\s+due[:\s]*\$?\s*0+(\.0{1,2})?\b`), domain.PaymentPaid, 0.75, "zero balance due"},
	{regexp.MustCompile(`(?i)\b(balance|amount|total)\s+due[:\s]*\$?\s*[1-9]`), domain.PaymentUnpaid, 0.6, "nonzero balance due"},
	{regexp.MustCompile(`(?i)\bpast\s+due\b`), domain.PaymentUnpaid, 0.7, "past-due notice"},
	{regexp.MustCompile(`(?i)\bpartial\s+payment\b`), domain.PaymentPartial, 0.65, "partial-payment note"},
	{regexp.MustCompile(`(?i)\bplease\s+remit\b`), domain.PaymentUnpaid, 0.5, "remittance request"},
}

// RegexDetector searches for strong lexical payment signals. The first
// matching pattern in specificity order wins.
type RegexDetector struct{}

func NewRegexDetector() *RegexDetector {
	return &RegexDetector{}
}

func (d *RegexDetector) Method() domain.DetectionMethod {
	return domain.DetectRegexPatterns
}

func (d *RegexDetector) Detect(_ context.Context, input domain.DetectionInput) (domain.MethodResult, error) {
	for _, p := range paymentPatterns {
		if p.re.MatchString(input.Text) {
			return domain.MethodResult{
				Method:     domain.DetectRegexPatterns,
				Status:     p.status,
				Confidence: p.confidence,
				Reasoning:  fmt.Sprintf("matched %s", p.label),
				Details:    map[string]any{"pattern": p.label},
			}, nil
		}
	}
	return domain.MethodResult{
		Method:     domain.DetectRegexPatterns,
		Status:     domain.PaymentUnknown,
		Confidence: 0,
		Reasoning:  "no lexical payment signal found",
	}, nil
}
