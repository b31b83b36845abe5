package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paperledger/docpipe/internal/core/domain"
	"github.com/paperledger/docpipe/internal/core/ports"
)

// Scoring weights and fallback constants. The three factor weights sum to
// 1.0 so a fully corroborated destination scores full confidence.
const (
	weightPaymentMatch  = 0.5
	weightCategoryMatch = 0.3
	weightPartySignal   = 0.2

	paymentMismatchScore  = 0.05
	paymentUnknownScore   = 0.15
	categoryOppositeScore = 0.02
	partyNamePresentScore = 0.1
	fallbackMinConfidence = 0.5
	defaultScoreThreshold = 0.75
)

// BillingRouter scores the enabled billing destinations and always selects
// one. The routing counters are the only cross-call mutable state in the
// pipeline and are guarded by a mutex so concurrent routes never lose
// updates.
type BillingRouter struct {
	enabled   map[domain.Destination]bool
	threshold float64
	audit     ports.AuditSink
	logger    *slog.Logger

	mu          sync.Mutex
	totalRouted int64
	byDest      map[domain.Destination]int64
	overrides   int64
	fallbacks   int64
}

// NewBillingRouter builds a router over the enabled destination subset. A
// nil or empty enabled set enables all four destinations; a non-positive
// threshold uses the default.
func NewBillingRouter(enabled []domain.Destination, threshold float64, audit ports.AuditSink, logger *slog.Logger) *BillingRouter {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold <= 0 || threshold > 1 {
		threshold = defaultScoreThreshold
	}
	set := make(map[domain.Destination]bool, 4)
	if len(enabled) == 0 {
		for _, d := range domain.Destinations() {
			set[d] = true
		}
	} else {
		for _, d := range enabled {
			set[d] = true
		}
	}
	return &BillingRouter{
		enabled:   set,
		threshold: threshold,
		audit:     audit,
		logger:    logger,
		byDest:    make(map[domain.Destination]int64, 4),
	}
}

func (r *BillingRouter) Route(ctx context.Context, dc domain.DocumentContext, override *domain.Destination, userID string) domain.RoutingDecision {
	if override != nil {
		decision := domain.RoutingDecision{
			DocumentID:     dc.DocumentID,
			Destination:    *override,
			Confidence:     1.0,
			Reasoning:      fmt.Sprintf("manual override by %s", orUnknown(userID)),
			Factors:        map[string]any{"override": true},
			ManualOverride: true,
		}
		r.recordStats(decision)
		r.recordAudit(dc, decision, domain.AuditOverride, userID)
		return decision
	}

	decision := r.score(dc)
	r.recordStats(decision)
	r.recordAudit(dc, decision, domain.AuditRouting, userID)
	return decision
}

func (r *BillingRouter) score(dc domain.DocumentContext) domain.RoutingDecision {
	status := domain.PaymentUnknown
	if dc.PaymentConsensus != nil {
		status = dc.PaymentConsensus.Status
	}

	var (
		best        domain.Destination
		bestScore   = -1.0
		bestFactors map[string]any
		allScores   = make(map[string]any, 4)
	)
	for _, dest := range domain.Destinations() {
		if !r.enabled[dest] {
			continue
		}
		payment := paymentFactor(dest, status)
		category := categoryFactor(dest, dc.GLAccount)
		party := partyFactor(dest, dc)
		total := payment + category + party
		allScores[string(dest)] = round3(total)
		if total > bestScore {
			best = dest
			bestScore = total
			bestFactors = map[string]any{
				"payment_status_match": round3(payment),
				"gl_category_match":    round3(category),
				"party_signal":         round3(party),
			}
		}
	}
	if bestScore < 0 {
		// Nothing enabled; refuse to refuse anyway.
		best = domain.DestOpenPayable
		bestScore = 0
		bestFactors = map[string]any{}
	}

	if bestScore < r.threshold {
		return r.fallback(dc, status, bestScore, allScores)
	}

	bestFactors["scores"] = allScores
	return domain.RoutingDecision{
		DocumentID:  dc.DocumentID,
		Destination: best,
		Confidence:  clamp01(bestScore),
		Reasoning: fmt.Sprintf("weighted scoring selected %s (payment=%s, score=%.2f)",
			best, status, bestScore),
		Factors: bestFactors,
	}
}

// fallback routes on payment status alone when the weighted score is too
// weak to trust, guaranteeing a destination with a floor confidence.
func (r *BillingRouter) fallback(dc domain.DocumentContext, status domain.PaymentStatus, topScore float64, allScores map[string]any) domain.RoutingDecision {
	preferred := domain.DestOpenPayable
	if status == domain.PaymentPaid || status == domain.PaymentVoid {
		preferred = domain.DestClosedPayable
	}
	dest := r.firstEnabled(preferred)

	confidence := topScore
	if confidence < fallbackMinConfidence {
		confidence = fallbackMinConfidence
	}

	r.mu.Lock()
	r.fallbacks++
	r.mu.Unlock()

	return domain.RoutingDecision{
		DocumentID:  dc.DocumentID,
		Destination: dest,
		Confidence:  clamp01(confidence),
		Reasoning:   fmt.Sprintf("weak signal (top score %.2f); payment-status fallback to %s", topScore, dest),
		Factors: map[string]any{
			"fallback": true,
			"scores":   allScores,
		},
	}
}

// firstEnabled returns preferred when enabled, otherwise the nearest
// enabled destination on the same open/closed side, otherwise any enabled
// destination.
func (r *BillingRouter) firstEnabled(preferred domain.Destination) domain.Destination {
	if r.enabled[preferred] {
		return preferred
	}
	for _, d := range domain.Destinations() {
		if r.enabled[d] && d.IsOpen() == preferred.IsOpen() {
			return d
		}
	}
	for _, d := range domain.Destinations() {
		if r.enabled[d] {
			return d
		}
	}
	return preferred
}

// Stats returns a snapshot of the cross-call routing counters.
func (r *BillingRouter) Stats() domain.RoutingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDest := make(map[domain.Destination]int64, len(r.byDest))
	for d, n := range r.byDest {
		byDest[d] = n
	}
	return domain.RoutingStats{
		TotalRouted:   r.totalRouted,
		ByDestination: byDest,
		Overrides:     r.overrides,
		Fallbacks:     r.fallbacks,
	}
}

func (r *BillingRouter) recordStats(decision domain.RoutingDecision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalRouted++
	r.byDest[decision.Destination]++
	if decision.ManualOverride {
		r.overrides++
	}
}

func (r *BillingRouter) recordAudit(dc domain.DocumentContext, decision domain.RoutingDecision, eventType domain.AuditEventType, actor string) {
	if r.audit == nil {
		return
	}
	r.audit.Record(domain.AuditEvent{
		DocumentID: dc.DocumentID,
		TenantID:   dc.TenantID,
		Type:       eventType,
		Actor:      actor,
		Payload: map[string]any{
			"destination":     string(decision.Destination),
			"confidence":      decision.Confidence,
			"manual_override": decision.ManualOverride,
			"reasoning":       decision.Reasoning,
		},
		OccurredAt: time.Now().UTC(),
	})
}

func paymentFactor(dest domain.Destination, status domain.PaymentStatus) float64 {
	switch status {
	case domain.PaymentUnpaid, domain.PaymentPartial:
		if dest.IsOpen() {
			return weightPaymentMatch
		}
		return paymentMismatchScore
	case domain.PaymentPaid, domain.PaymentVoid:
		if !dest.IsOpen() {
			return weightPaymentMatch
		}
		return paymentMismatchScore
	default:
		return paymentUnknownScore
	}
}

func categoryFactor(dest domain.Destination, gl *domain.ClassificationResult) float64 {
	if gl == nil {
		return 0
	}
	switch gl.Category {
	case domain.CategoryExpenses:
		if dest.IsPayable() {
			return weightCategoryMatch
		}
		return categoryOppositeScore
	case domain.CategoryRevenue:
		if !dest.IsPayable() {
			return weightCategoryMatch
		}
		return categoryOppositeScore
	default:
		return 0
	}
}

func partyFactor(dest domain.Destination, dc domain.DocumentContext) float64 {
	switch dc.DocumentType {
	case domain.DocTypeVendorInvoice:
		if dest.IsPayable() {
			return weightPartySignal
		}
		return 0
	case domain.DocTypeCustomerInvoice:
		if !dest.IsPayable() {
			return weightPartySignal
		}
		return 0
	}
	if dc.VendorName != "" && dest.IsPayable() {
		return partyNamePresentScore
	}
	if dc.CustomerName != "" && !dest.IsPayable() {
		return partyNamePresentScore
	}
	return 0
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}

func orUnknown(userID string) string {
	if userID == "" {
		return "unknown user"
	}
	return userID
}
