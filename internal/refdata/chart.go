// Package refdata loads the GL chart of accounts, the immutable reference
// data shared by the classifier and the router. The chart is loaded once at
// startup and is safe for unsynchronized concurrent reads.
package refdata

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/paperledger/docpipe/internal/core/domain"
)

//go:embed chart_of_accounts.yaml
var defaultChartYAML []byte

// Chart is an immutable, indexed view over the GL accounts.
type Chart struct {
	accounts []domain.GLAccount
	byCode   map[string]*domain.GLAccount
	defaults map[domain.AccountCategory]string
}

type chartFile struct {
	Accounts []fileAccount `yaml:"accounts"`
}

type fileAccount struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Active   *bool    `yaml:"active"`
}

// DefaultChart builds the chart from the embedded contractor chart of
// accounts.
func DefaultChart() (*Chart, error) {
	return parseYAML(defaultChartYAML)
}

// LoadChart reads a chart snapshot from path. YAML and XLSX snapshots are
// supported; an empty path falls back to the embedded default.
func LoadChart(path string) (*Chart, error) {
	if path == "" {
		return DefaultChart()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chart file: %w", err)
		}
		return parseYAML(raw)
	case ".xlsx":
		return parseXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported chart format: %s", filepath.Ext(path))
	}
}

func parseYAML(raw []byte) (*Chart, error) {
	var file chartFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse chart yaml: %w", err)
	}

	accounts := make([]domain.GLAccount, 0, len(file.Accounts))
	for _, fa := range file.Accounts {
		active := true
		if fa.Active != nil {
			active = *fa.Active
		}
		accounts = append(accounts, domain.GLAccount{
			Code:     strings.TrimSpace(fa.Code),
			Name:     strings.TrimSpace(fa.Name),
			Category: domain.AccountCategory(strings.ToLower(strings.TrimSpace(fa.Category))),
			Keywords: normalizeKeywords(fa.Keywords),
			Active:   active,
		})
	}
	return newChart(accounts)
}

// parseXLSX reads an account-per-row snapshot exported from the accounting
// system: code, name, category, semicolon-separated keywords, active flag.
func parseXLSX(path string) (*Chart, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open chart workbook: %w", err)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read chart rows: %w", err)
	}

	accounts := make([]domain.GLAccount, 0, len(rows))
	for i, row := range rows {
		if i == 0 && looksLikeHeader(row) {
			continue
		}
		if len(row) < 3 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		acct := domain.GLAccount{
			Code:     strings.TrimSpace(row[0]),
			Name:     strings.TrimSpace(row[1]),
			Category: domain.AccountCategory(strings.ToLower(strings.TrimSpace(row[2]))),
			Active:   true,
		}
		if len(row) > 3 {
			acct.Keywords = normalizeKeywords(strings.Split(row[3], ";"))
		}
		if len(row) > 4 {
			flag := strings.ToLower(strings.TrimSpace(row[4]))
			acct.Active = flag != "false" && flag != "no" && flag != "0"
		}
		accounts = append(accounts, acct)
	}
	return newChart(accounts)
}

func looksLikeHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "code")
}

func newChart(accounts []domain.GLAccount) (*Chart, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("chart of accounts is empty")
	}

	byCode := make(map[string]*domain.GLAccount, len(accounts))
	defaults := make(map[domain.AccountCategory]string)
	valid := make(map[domain.AccountCategory]bool)
	for _, c := range domain.Categories() {
		valid[c] = true
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	for i := range accounts {
		acct := &accounts[i]
		if acct.Code == "" || acct.Name == "" {
			return nil, fmt.Errorf("account %d: code and name are required", i)
		}
		if !valid[acct.Category] {
			return nil, fmt.Errorf("account %s: unknown category %q", acct.Code, acct.Category)
		}
		if _, dup := byCode[acct.Code]; dup {
			return nil, fmt.Errorf("duplicate account code %s", acct.Code)
		}
		byCode[acct.Code] = acct
		// Lowest active code per category serves as the heuristic default.
		if acct.Active {
			if _, ok := defaults[acct.Category]; !ok {
				defaults[acct.Category] = acct.Code
			}
		}
	}

	return &Chart{accounts: accounts, byCode: byCode, defaults: defaults}, nil
}

// Accounts returns all accounts in code order. Callers must not mutate the
// returned slice.
func (c *Chart) Accounts() []domain.GLAccount {
	return c.accounts
}

// Lookup returns the account for code, or nil when unknown.
func (c *Chart) Lookup(code string) *domain.GLAccount {
	return c.byCode[strings.TrimSpace(code)]
}

// DefaultFor returns the category-default account, or nil when the category
// has no active accounts.
func (c *Chart) DefaultFor(category domain.AccountCategory) *domain.GLAccount {
	code, ok := c.defaults[category]
	if !ok {
		return nil
	}
	return c.byCode[code]
}

// Size returns the number of accounts in the chart.
func (c *Chart) Size() int {
	return len(c.accounts)
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
