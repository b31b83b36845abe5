package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/paperledger/docpipe/internal/core/domain"
)

// VendorRepository backs the vendor directory used by GL classification.
type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// MatchVendor looks a vendor up by case-insensitive name within a tenant.
// A miss is (nil, nil); callers treat an error as a silent fall-through to
// the next classification step.
func (r *VendorRepository) MatchVendor(ctx context.Context, name, tenantID string) (*domain.VendorMatch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx, `
SELECT id, name, default_gl_account
FROM vendors
WHERE tenant_id = $1 AND lower(name) = lower($2)
`, tenantID, name)

	var match domain.VendorMatch
	err := row.Scan(&match.ID, &match.Name, &match.DefaultGLAccount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan vendor: %w", err)
	}
	return &match, nil
}

// Upsert registers a vendor or updates its preferred account.
func (r *VendorRepository) Upsert(ctx context.Context, tenantID string, match domain.VendorMatch) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO vendors (id, tenant_id, name, default_gl_account)
VALUES ($1, $2, $3, $4)
ON CONFLICT (tenant_id, lower(name))
DO UPDATE SET default_gl_account = EXCLUDED.default_gl_account
`, match.ID, tenantID, match.Name, match.DefaultGLAccount)
	if err != nil {
		return fmt.Errorf("upsert vendor: %w", err)
	}
	return nil
}
