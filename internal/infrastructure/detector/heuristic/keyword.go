package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperledger/docpipe/internal/core/domain"
)

var paymentKeywordSets = map[domain.PaymentStatus][]string{
	// Bare "paid" is deliberately absent: it is a substring of "unpaid"
	// and would poison the tally.
	domain.PaymentPaid: {
		"paid in full", "payment received", "received payment", "paid on",
		"zero balance", "settled", "payment complete", "no balance due",
	},
	domain.PaymentUnpaid: {
		"amount due", "balance due", "please pay", "past due", "outstanding",
		"net 30", "net 15", "due upon receipt", "unpaid", "remit payment",
	},
	domain.PaymentPartial: {
		"partial payment", "partially paid", "remaining balance",
		"installment", "deposit received",
	},
	domain.PaymentVoid: {
		"void", "voided", "cancelled", "canceled", "do not pay",
	},
}

// KeywordDetector tallies hits against the four status keyword sets;
// confidence grows with the winning set's hit count and its share of all
// hits. No hits defaults to unknown at low confidence.
type KeywordDetector struct{}

func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{}
}

func (d *KeywordDetector) Method() domain.DetectionMethod {
	return domain.DetectKeywordMatching
}

func (d *KeywordDetector) Detect(_ context.Context, input domain.DetectionInput) (domain.MethodResult, error) {
	lower := strings.ToLower(input.Text)

	counts := make(map[domain.PaymentStatus]int, len(paymentKeywordSets))
	totalHits := 0
	for status, keywords := range paymentKeywordSets {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				counts[status]++
				totalHits++
			}
		}
	}

	if totalHits == 0 {
		return domain.MethodResult{
			Method:     domain.DetectKeywordMatching,
			Status:     domain.PaymentUnknown,
			Confidence: 0.2,
			Reasoning:  "no payment keywords found",
		}, nil
	}

	// Deterministic winner: highest count, status name breaking ties.
	winner := domain.PaymentUnknown
	winnerHits := 0
	for _, status := range []domain.PaymentStatus{
		domain.PaymentPaid, domain.PaymentPartial, domain.PaymentUnpaid, domain.PaymentVoid,
	} {
		if counts[status] > winnerHits {
			winner = status
			winnerHits = counts[status]
		}
	}

	share := float64(winnerHits) / float64(totalHits)
	confidence := (0.3 + 0.12*float64(winnerHits)) * share
	if confidence > 0.88 {
		confidence = 0.88
	}

	return domain.MethodResult{
		Method:     domain.DetectKeywordMatching,
		Status:     winner,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("%d/%d keyword hits indicate %s", winnerHits, totalHits, winner),
		Details: map[string]any{
			"hits":       winnerHits,
			"total_hits": totalHits,
		},
	}, nil
}
