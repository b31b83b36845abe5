package domain

// AccountCategory is one of the five top-level chart-of-accounts groups.
type AccountCategory string

const (
	CategoryAssets      AccountCategory = "assets"
	CategoryLiabilities AccountCategory = "liabilities"
	CategoryEquity      AccountCategory = "equity"
	CategoryRevenue     AccountCategory = "revenue"
	CategoryExpenses    AccountCategory = "expenses"
)

// Categories lists all valid account categories.
func Categories() []AccountCategory {
	return []AccountCategory{
		CategoryAssets,
		CategoryLiabilities,
		CategoryEquity,
		CategoryRevenue,
		CategoryExpenses,
	}
}

// GLAccount is immutable reference data loaded once at startup.
type GLAccount struct {
	Code     string          `json:"code" yaml:"code"`
	Name     string          `json:"name" yaml:"name"`
	Category AccountCategory `json:"category" yaml:"category"`
	Keywords []string        `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Active   bool            `json:"active" yaml:"active"`
}

type ClassificationMethod string

const (
	MethodVendorDatabase    ClassificationMethod = "vendor_database"
	MethodKeywordMatching   ClassificationMethod = "keyword_matching"
	MethodPatternMatching   ClassificationMethod = "pattern_matching"
	MethodCategoryHeuristic ClassificationMethod = "category_heuristic"
)

// ClassificationResult is produced once per document per classification
// call and never mutated afterward.
type ClassificationResult struct {
	GLAccountCode   string               `json:"gl_account_code"`
	GLAccountName   string               `json:"gl_account_name"`
	Category        AccountCategory      `json:"category"`
	Confidence      float64              `json:"confidence"`
	Reasoning       string               `json:"reasoning"`
	KeywordsMatched []string             `json:"keywords_matched,omitempty"`
	Method          ClassificationMethod `json:"classification_method"`
}

// VendorMatch is the vendor-directory lookup result. DefaultGLAccount may
// be empty when the vendor exists but carries no preferred account.
type VendorMatch struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DefaultGLAccount string `json:"default_gl_account,omitempty"`
}
