package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/paperledger/docpipe/internal/core/domain"
)

type fakeDetector struct {
	method domain.DetectionMethod
	result domain.MethodResult
	err    error
	calls  int
}

func (f *fakeDetector) Method() domain.DetectionMethod { return f.method }

func (f *fakeDetector) Detect(_ context.Context, _ domain.DetectionInput) (domain.MethodResult, error) {
	f.calls++
	return f.result, f.err
}

func vote(method domain.DetectionMethod, status domain.PaymentStatus, confidence float64) *fakeDetector {
	return &fakeDetector{
		method: method,
		result: domain.MethodResult{Status: status, Confidence: confidence},
	}
}

func TestDetectAgreementEarnsBonus(t *testing.T) {
	engine := NewPaymentConsensusEngine(nil,
		vote(domain.DetectRegexPatterns, domain.PaymentPaid, 0.9),
		vote(domain.DetectKeywordMatching, domain.PaymentPaid, 0.8),
	)

	result := engine.Detect(context.Background(), domain.DetectionInput{}, nil)
	if result.Status != domain.PaymentPaid {
		t.Fatalf("status = %s, want paid", result.Status)
	}
	if !result.ConsensusReached {
		t.Fatalf("expected consensus with two agreeing methods")
	}
	// Mean of 0.9 and 0.8 plus the agreement bonus.
	approx(t, result.Confidence, 0.95)
	approx(t, result.QualityScore, 0.85)
	if len(result.MethodsUsed) != 2 {
		t.Fatalf("methods used = %v, want 2", result.MethodsUsed)
	}
}

func TestDetectLoneDissenterLosesToMajority(t *testing.T) {
	engine := NewPaymentConsensusEngine(nil,
		vote(domain.DetectRegexPatterns, domain.PaymentPaid, 0.9),
		vote(domain.DetectKeywordMatching, domain.PaymentPaid, 0.7),
		vote(domain.DetectAmountAnalysis, domain.PaymentUnpaid, 0.95),
	)

	result := engine.Detect(context.Background(), domain.DetectionInput{}, nil)
	if result.Status != domain.PaymentPaid {
		t.Fatalf("status = %s, want paid (two votes beat one strong vote)", result.Status)
	}
	if !result.ConsensusReached {
		t.Fatalf("expected consensus")
	}
}

func TestDetectNoDetectorsYieldsUnknown(t *testing.T) {
	engine := NewPaymentConsensusEngine(nil)

	result := engine.Detect(context.Background(), domain.DetectionInput{}, nil)
	if result.Status != domain.PaymentUnknown {
		t.Fatalf("status = %s, want unknown", result.Status)
	}
	if result.Confidence != 0 || result.QualityScore != 0 {
		t.Fatalf("expected zero confidence and quality, got %v / %v", result.Confidence, result.QualityScore)
	}
	if result.ConsensusReached {
		t.Fatalf("no methods cannot reach consensus")
	}
	if result.MethodResults == nil || result.MethodsUsed == nil {
		t.Fatalf("maps must be empty, not nil")
	}
}

func TestDetectFailingDetectorIsSkipped(t *testing.T) {
	broken := &fakeDetector{method: domain.DetectClaudeText, err: errors.New("api unreachable")}
	engine := NewPaymentConsensusEngine(nil,
		broken,
		vote(domain.DetectRegexPatterns, domain.PaymentUnpaid, 0.8),
	)

	result := engine.Detect(context.Background(), domain.DetectionInput{}, nil)
	if broken.calls != 1 {
		t.Fatalf("broken detector calls = %d, want 1", broken.calls)
	}
	if result.Status != domain.PaymentUnpaid {
		t.Fatalf("status = %s, want unpaid from the surviving detector", result.Status)
	}
	if len(result.MethodsUsed) != 1 {
		t.Fatalf("methods used = %v, want only the surviving one", result.MethodsUsed)
	}
	if !result.ConsensusReached {
		t.Fatalf("a sole surviving vote is a strict majority")
	}
}

func TestDetectTieBreaksBySummedConfidence(t *testing.T) {
	engine := NewPaymentConsensusEngine(nil,
		vote(domain.DetectRegexPatterns, domain.PaymentPaid, 0.9),
		vote(domain.DetectKeywordMatching, domain.PaymentUnpaid, 0.4),
	)

	result := engine.Detect(context.Background(), domain.DetectionInput{}, nil)
	if result.Status != domain.PaymentPaid {
		t.Fatalf("status = %s, want paid (higher summed confidence)", result.Status)
	}
	if result.ConsensusReached {
		t.Fatalf("a 1-1 split is not consensus")
	}
}

func TestDetectHonorsEnabledSubset(t *testing.T) {
	regex := vote(domain.DetectRegexPatterns, domain.PaymentPaid, 0.9)
	keyword := vote(domain.DetectKeywordMatching, domain.PaymentUnpaid, 0.9)
	engine := NewPaymentConsensusEngine(nil, regex, keyword)

	enabled := map[domain.DetectionMethod]bool{domain.DetectKeywordMatching: true}
	result := engine.Detect(context.Background(), domain.DetectionInput{}, enabled)
	if regex.calls != 0 {
		t.Fatalf("disabled detector was invoked")
	}
	if result.Status != domain.PaymentUnpaid {
		t.Fatalf("status = %s, want unpaid from the enabled detector", result.Status)
	}
}

func TestDetectConfidenceStaysBounded(t *testing.T) {
	engine := NewPaymentConsensusEngine(nil,
		vote(domain.DetectRegexPatterns, domain.PaymentVoid, 0.98),
		vote(domain.DetectKeywordMatching, domain.PaymentVoid, 0.96),
	)

	result := engine.Detect(context.Background(), domain.DetectionInput{}, nil)
	if result.Confidence > 1 {
		t.Fatalf("confidence %v exceeds 1", result.Confidence)
	}
	approx(t, result.Confidence, 1.0)
}
