package heuristic

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paperledger/docpipe/internal/core/domain"
)

var amountDueRe = regexp.MustCompile(`(?i)\b(?:balance|amount|total)\s+due[:\s]*\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// AmountDetector decides paid/unpaid from the amount still owed: a zero
// amount due means paid, a nonzero one means unpaid. Structured amounts
// take precedence over parsing the text.
type AmountDetector struct{}

func NewAmountDetector() *AmountDetector {
	return &AmountDetector{}
}

func (d *AmountDetector) Method() domain.DetectionMethod {
	return domain.DetectAmountAnalysis
}

func (d *AmountDetector) Detect(_ context.Context, input domain.DetectionInput) (domain.MethodResult, error) {
	if input.Amounts != nil && input.Amounts.AmountDue != nil {
		return verdict(*input.Amounts.AmountDue, "structured amount_due", 0.75, 0.6), nil
	}

	if m := amountDueRe.FindStringSubmatch(input.Text); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if due, err := strconv.ParseFloat(raw, 64); err == nil {
			return verdict(due, "amount due parsed from text", 0.7, 0.55), nil
		}
	}

	return domain.MethodResult{
		Method:     domain.DetectAmountAnalysis,
		Status:     domain.PaymentUnknown,
		Confidence: 0.1,
		Reasoning:  "no amount due available",
	}, nil
}

func verdict(due float64, source string, paidConf, unpaidConf float64) domain.MethodResult {
	if due == 0 {
		return domain.MethodResult{
			Method:     domain.DetectAmountAnalysis,
			Status:     domain.PaymentPaid,
			Confidence: paidConf,
			Reasoning:  fmt.Sprintf("%s is zero", source),
			Details:    map[string]any{"amount_due": due},
		}
	}
	return domain.MethodResult{
		Method:     domain.DetectAmountAnalysis,
		Status:     domain.PaymentUnpaid,
		Confidence: unpaidConf,
		Reasoning:  fmt.Sprintf("%s is %.2f", source, due),
		Details:    map[string]any{"amount_due": due},
	}
}
