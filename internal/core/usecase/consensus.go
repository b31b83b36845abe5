package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/paperledger/docpipe/internal/core/domain"
	"github.com/paperledger/docpipe/internal/core/ports"
)

// agreementBonus is added to the mean confidence when two or more methods
// agree on the winning status. Tunable; clamped so confidence stays in [0,1].
const agreementBonus = 0.1

// PaymentConsensusEngine runs the registered detectors independently and
// aggregates their votes into a single payment status. A failing detector
// is skipped, never fatal; zero usable results yield an unknown status with
// zero confidence.
type PaymentConsensusEngine struct {
	detectors []ports.PaymentDetector
	logger    *slog.Logger
}

func NewPaymentConsensusEngine(logger *slog.Logger, detectors ...ports.PaymentDetector) *PaymentConsensusEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentConsensusEngine{detectors: detectors, logger: logger}
}

// Detect invokes every enabled detector and aggregates the votes. A nil
// enabled set means all registered detectors.
func (e *PaymentConsensusEngine) Detect(ctx context.Context, input domain.DetectionInput, enabled map[domain.DetectionMethod]bool) domain.PaymentConsensusResult {
	results := make(map[domain.DetectionMethod]domain.MethodResult, len(e.detectors))
	var methodsUsed []domain.DetectionMethod

	for _, det := range e.detectors {
		method := det.Method()
		if enabled != nil && !enabled[method] {
			continue
		}

		start := time.Now()
		result, err := det.Detect(ctx, input)
		if err != nil {
			// Degrade to "method skipped"; the remaining votes still count.
			e.logger.WarnContext(ctx, "payment_detector_skipped",
				"method", string(method), "error", err)
			continue
		}
		result.Method = method
		result.ProcessingTime = time.Since(start)
		results[method] = result
		methodsUsed = append(methodsUsed, method)
	}

	return e.aggregate(results, methodsUsed)
}

func (e *PaymentConsensusEngine) aggregate(results map[domain.DetectionMethod]domain.MethodResult, methodsUsed []domain.DetectionMethod) domain.PaymentConsensusResult {
	if len(results) == 0 {
		return domain.PaymentConsensusResult{
			Status:        domain.PaymentUnknown,
			MethodResults: map[domain.DetectionMethod]domain.MethodResult{},
			MethodsUsed:   []domain.DetectionMethod{},
		}
	}

	type group struct {
		status  domain.PaymentStatus
		votes   int
		sumConf float64
	}
	byStatus := make(map[domain.PaymentStatus]*group)
	for _, r := range results {
		g, ok := byStatus[r.Status]
		if !ok {
			g = &group{status: r.Status}
			byStatus[r.Status] = g
		}
		g.votes++
		g.sumConf += r.Confidence
	}

	groups := make([]*group, 0, len(byStatus))
	for _, g := range byStatus {
		groups = append(groups, g)
	}
	// Most votes wins; ties broken by summed confidence, then by status
	// name so repeated calls are deterministic.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].votes != groups[j].votes {
			return groups[i].votes > groups[j].votes
		}
		if groups[i].sumConf != groups[j].sumConf {
			return groups[i].sumConf > groups[j].sumConf
		}
		return groups[i].status < groups[j].status
	})

	winner := groups[0]
	meanConf := winner.sumConf / float64(winner.votes)
	total := len(results)

	confidence := meanConf
	consensusReached := false
	if winner.votes >= 2 {
		confidence = clamp01(meanConf + agreementBonus)
		consensusReached = true
	} else {
		// A lone winner still counts as consensus when it is a strict
		// majority of the methods that produced a result.
		consensusReached = winner.votes*2 > total
	}

	quality := clamp01(float64(winner.votes) / float64(total) * meanConf)

	return domain.PaymentConsensusResult{
		Status:           winner.status,
		Confidence:       clamp01(confidence),
		MethodsUsed:      methodsUsed,
		MethodResults:    results,
		QualityScore:     quality,
		ConsensusReached: consensusReached,
	}
}
