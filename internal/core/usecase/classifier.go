package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/paperledger/docpipe/internal/core/domain"
	"github.com/paperledger/docpipe/internal/core/ports"
	"github.com/paperledger/docpipe/internal/refdata"
)

// Tunable classification constants. The keyword curve keeps any single
// non-database match below full confidence.
const (
	vendorBaseConfidence  = 0.95
	vendorAgreementBoost  = 0.05
	keywordBaseConfidence = 0.55
	keywordHitIncrement   = 0.07
	keywordMaxConfidence  = 0.92
	patternConfidence     = 0.5
	heuristicCueConf      = 0.3
	heuristicFloorConf    = 0.2
)

// GLAccountClassifier assigns a GL account code to free-form document text.
// The vendor directory is optional; when absent or failing, classification
// falls through to keyword, pattern, and category-heuristic methods. It
// never fails for ordinary input: total ambiguity still yields a
// low-confidence heuristic result.
type GLAccountClassifier struct {
	chart   *refdata.Chart
	vendors ports.VendorDirectory
	logger  *slog.Logger
}

func NewGLAccountClassifier(chart *refdata.Chart, vendors ports.VendorDirectory, logger *slog.Logger) *GLAccountClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &GLAccountClassifier{chart: chart, vendors: vendors, logger: logger}
}

func (c *GLAccountClassifier) Classify(ctx context.Context, text, vendorName, tenantID string) (domain.ClassificationResult, error) {
	if c.chart == nil || c.chart.Size() == 0 {
		return domain.ClassificationResult{}, fmt.Errorf("classify: chart of accounts not loaded")
	}

	lower := strings.ToLower(text)
	keywordResult := c.matchKeywords(lower)

	if result, ok := c.matchVendor(ctx, vendorName, tenantID, keywordResult); ok {
		return result, nil
	}
	if keywordResult != nil {
		return *keywordResult, nil
	}
	if result := c.matchPatterns(lower); result != nil {
		return *result, nil
	}
	return c.categoryHeuristic(lower), nil
}

func (c *GLAccountClassifier) matchVendor(ctx context.Context, vendorName, tenantID string, keywordResult *domain.ClassificationResult) (domain.ClassificationResult, bool) {
	if c.vendors == nil || strings.TrimSpace(vendorName) == "" {
		return domain.ClassificationResult{}, false
	}

	match, err := c.vendors.MatchVendor(ctx, vendorName, tenantID)
	if err != nil {
		// Directory unavailability is a normal degradation, not an error.
		c.logger.DebugContext(ctx, "vendor_lookup_failed",
			"vendor", vendorName, "tenant_id", tenantID, "error", err)
		return domain.ClassificationResult{}, false
	}
	if match == nil || match.DefaultGLAccount == "" {
		return domain.ClassificationResult{}, false
	}

	acct := c.chart.Lookup(match.DefaultGLAccount)
	if acct == nil || !acct.Active {
		c.logger.DebugContext(ctx, "vendor_account_not_in_chart",
			"vendor", match.Name, "gl_account", match.DefaultGLAccount)
		return domain.ClassificationResult{}, false
	}

	result := domain.ClassificationResult{
		GLAccountCode: acct.Code,
		GLAccountName: acct.Name,
		Category:      acct.Category,
		Confidence:    vendorBaseConfidence,
		Reasoning:     fmt.Sprintf("vendor %q maps to GL %s (%s)", match.Name, acct.Code, acct.Name),
		Method:        domain.MethodVendorDatabase,
	}
	if keywordResult != nil && keywordResult.GLAccountCode == acct.Code {
		result.Confidence = clamp01(result.Confidence + vendorAgreementBoost)
		result.KeywordsMatched = keywordResult.KeywordsMatched
		result.Reasoning += "; corroborated by keyword match"
	}
	return result, true
}

// matchKeywords scores every active account by keyword hit count. Returns
// nil when nothing matched or the top score is tied, so classification
// falls through to pattern matching.
func (c *GLAccountClassifier) matchKeywords(lower string) *domain.ClassificationResult {
	var (
		best     *domain.GLAccount
		bestHits []string
		tied     bool
	)
	for i := range c.chart.Accounts() {
		acct := &c.chart.Accounts()[i]
		if !acct.Active {
			continue
		}
		var hits []string
		for _, kw := range acct.Keywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, kw)
			}
		}
		switch {
		case len(hits) == 0:
		case best == nil || len(hits) > len(bestHits):
			best, bestHits, tied = acct, hits, false
		case len(hits) == len(bestHits):
			tied = true
		}
	}
	if best == nil || tied {
		return nil
	}

	confidence := keywordBaseConfidence + keywordHitIncrement*float64(len(bestHits))
	if confidence > keywordMaxConfidence {
		confidence = keywordMaxConfidence
	}
	return &domain.ClassificationResult{
		GLAccountCode:   best.Code,
		GLAccountName:   best.Name,
		Category:        best.Category,
		Confidence:      confidence,
		Reasoning:       fmt.Sprintf("%d keyword match(es) for GL %s (%s)", len(bestHits), best.Code, best.Name),
		KeywordsMatched: bestHits,
		Method:          domain.MethodKeywordMatching,
	}
}

// glPattern covers common invoice vocabulary the per-account keyword lists
// do not carry.
type glPattern struct {
	re     *regexp.Regexp
	code   string
	reason string
}

var glPatterns = []glPattern{
	{regexp.MustCompile(`\b(home depot|lowe'?s|menards|builders? supply|lumber ?yard)\b`), "5000", "building-supply merchant"},
	{regexp.MustCompile(`\brental (invoice|agreement|contract)\b`), "5110", "equipment rental paperwork"},
	{regexp.MustCompile(`\b(kwh|kilowatt|therms)\b`), "6130", "utility usage units"},
	{regexp.MustCompile(`\b(wireless statement|data plan|cellular)\b`), "6140", "telecom statement"},
	{regexp.MustCompile(`\b(policy number|coverage period|premium due)\b`), "6020", "insurance policy vocabulary"},
	{regexp.MustCompile(`\b(statement of account|remittance advice)\b`), "2000", "vendor statement vocabulary"},
	{regexp.MustCompile(`\b(estimate|proposal) (for|no\.?|#)`), "4000", "customer estimate vocabulary"},
	{regexp.MustCompile(`\bpurchase order\b|\bpo #`), "5000", "purchase order vocabulary"},
}

func (c *GLAccountClassifier) matchPatterns(lower string) *domain.ClassificationResult {
	for _, p := range glPatterns {
		if !p.re.MatchString(lower) {
			continue
		}
		acct := c.chart.Lookup(p.code)
		if acct == nil || !acct.Active {
			continue
		}
		return &domain.ClassificationResult{
			GLAccountCode: acct.Code,
			GLAccountName: acct.Name,
			Category:      acct.Category,
			Confidence:    patternConfidence,
			Reasoning:     fmt.Sprintf("pattern match (%s) for GL %s (%s)", p.reason, acct.Code, acct.Name),
			Method:        domain.MethodPatternMatching,
		}
	}
	return nil
}

// categoryHeuristic is the last resort: file under a broad category default
// with low confidence rather than refusing to answer.
func (c *GLAccountClassifier) categoryHeuristic(lower string) domain.ClassificationResult {
	category := domain.CategoryExpenses
	confidence := heuristicFloorConf
	reason := "no signal found; defaulting to expense category"

	switch {
	case strings.Contains(lower, "payment received") || strings.Contains(lower, "thank you for your business"):
		category = domain.CategoryRevenue
		confidence = heuristicCueConf
		reason = "customer-facing language suggests revenue"
	case strings.Contains(lower, "invoice") || strings.Contains(lower, "bill") || strings.Contains(lower, "receipt"):
		confidence = heuristicCueConf
		reason = "billing language suggests an expense document"
	}

	acct := c.chart.DefaultFor(category)
	if acct == nil {
		// A chart without active expense accounts is degenerate; fall back
		// to the first active account of any category.
		for i := range c.chart.Accounts() {
			if c.chart.Accounts()[i].Active {
				acct = &c.chart.Accounts()[i]
				break
			}
		}
	}
	if acct == nil {
		first := c.chart.Accounts()[0]
		acct = &first
	}
	return domain.ClassificationResult{
		GLAccountCode: acct.Code,
		GLAccountName: acct.Name,
		Category:      acct.Category,
		Confidence:    confidence,
		Reasoning:     reason,
		Method:        domain.MethodCategoryHeuristic,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
