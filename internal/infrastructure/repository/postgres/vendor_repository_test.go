package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newVendorRepoWithMock(t *testing.T) (*VendorRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &VendorRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestMatchVendorMissReturnsNilNil(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, default_gl_account").
		WithArgs("tenant-1", "Unknown Vendor").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "default_gl_account"}))

	match, err := repo.MatchVendor(context.Background(), "Unknown Vendor", "tenant-1")
	if err != nil {
		t.Fatalf("MatchVendor() error = %v", err)
	}
	if match != nil {
		t.Fatalf("expected nil match on miss, got %+v", match)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMatchVendorReturnsPreferredAccount(t *testing.T) {
	repo, mock, done := newVendorRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "name", "default_gl_account"}).
		AddRow("vendor-1", "Home Depot", "5000")
	mock.ExpectQuery("SELECT id, name, default_gl_account").
		WithArgs("tenant-1", "home depot").
		WillReturnRows(rows)

	match, err := repo.MatchVendor(context.Background(), "home depot", "tenant-1")
	if err != nil {
		t.Fatalf("MatchVendor() error = %v", err)
	}
	if match == nil {
		t.Fatalf("expected match")
	}
	if match.DefaultGLAccount != "5000" {
		t.Fatalf("DefaultGLAccount = %q, want 5000", match.DefaultGLAccount)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMatchVendorSkipsEmptyName(t *testing.T) {
	repo, _, done := newVendorRepoWithMock(t)
	defer done()

	match, err := repo.MatchVendor(context.Background(), "   ", "tenant-1")
	if err != nil {
		t.Fatalf("MatchVendor() error = %v", err)
	}
	if match != nil {
		t.Fatalf("expected nil match for blank name, got %+v", match)
	}
}
