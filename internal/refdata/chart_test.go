package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paperledger/docpipe/internal/core/domain"
)

func TestDefaultChartLoadsFullChart(t *testing.T) {
	chart, err := DefaultChart()
	if err != nil {
		t.Fatalf("DefaultChart() error = %v", err)
	}
	if chart.Size() != 79 {
		t.Fatalf("chart size = %d, want 79", chart.Size())
	}

	perCategory := map[domain.AccountCategory]int{}
	for _, acct := range chart.Accounts() {
		perCategory[acct.Category]++
	}
	for _, category := range domain.Categories() {
		if perCategory[category] == 0 {
			t.Fatalf("category %s has no accounts", category)
		}
	}
}

func TestDefaultChartKnownAccounts(t *testing.T) {
	chart, err := DefaultChart()
	if err != nil {
		t.Fatalf("DefaultChart() error = %v", err)
	}

	materials := chart.Lookup("5000")
	if materials == nil {
		t.Fatalf("account 5000 missing")
	}
	if materials.Name != "Job Materials" || materials.Category != domain.CategoryExpenses {
		t.Fatalf("unexpected account 5000: %+v", materials)
	}

	income := chart.Lookup("4000")
	if income == nil || income.Category != domain.CategoryRevenue {
		t.Fatalf("account 4000 missing or miscategorized: %+v", income)
	}

	if chart.Lookup("9999") != nil {
		t.Fatalf("lookup of unknown code must return nil")
	}
}

func TestDefaultForPicksLowestActiveCode(t *testing.T) {
	chart, err := DefaultChart()
	if err != nil {
		t.Fatalf("DefaultChart() error = %v", err)
	}

	expense := chart.DefaultFor(domain.CategoryExpenses)
	if expense == nil || expense.Code != "5000" {
		t.Fatalf("expense default = %+v, want code 5000", expense)
	}
	revenue := chart.DefaultFor(domain.CategoryRevenue)
	if revenue == nil || revenue.Code != "4000" {
		t.Fatalf("revenue default = %+v, want code 4000", revenue)
	}
}

func TestLoadChartRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.yaml")
	yaml := `accounts:
  - code: "1000"
    name: Cash
    category: assets
  - code: "1000"
    name: Cash Again
    category: assets
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp chart: %v", err)
	}
	if _, err := LoadChart(path); err == nil {
		t.Fatalf("expected error for duplicate account codes")
	}
}

func TestLoadChartRejectsUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.yaml")
	yaml := `accounts:
  - code: "1000"
    name: Cash
    category: moneybucket
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp chart: %v", err)
	}
	if _, err := LoadChart(path); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestLoadChartRejectsUnsupportedExtension(t *testing.T) {
	if _, err := LoadChart("chart.csv"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestLoadChartInactiveAccountsAreNotDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.yaml")
	yaml := `accounts:
  - code: "5000"
    name: Retired Materials
    category: expenses
    active: false
  - code: "5100"
    name: Materials
    category: expenses
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp chart: %v", err)
	}
	chart, err := LoadChart(path)
	if err != nil {
		t.Fatalf("LoadChart() error = %v", err)
	}
	def := chart.DefaultFor(domain.CategoryExpenses)
	if def == nil || def.Code != "5100" {
		t.Fatalf("default = %+v, want the active 5100", def)
	}
}
