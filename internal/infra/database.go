package infra

import (
	"fmt"

	"github.com/rilaconsulting/pmpulse-sub002/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes, FILTER-friendly composite indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies AutoMigrate plus schema patches. Also used by
// integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Property{},
		&model.Vendor{},
		&model.WorkOrder{},
		&model.UtilityAccount{},
		&model.UtilityExpense{},
		&model.VendorDuplicateAnalysis{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Canonical-vendor scans only touch rows with no canonical link.
		{"partial index on canonical vendors", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_vendors_canonical') THEN
    CREATE INDEX idx_vendors_canonical
        ON vendors (created_at)
        WHERE canonical_vendor_id IS NULL AND active;
  END IF;
END $$`},
		// The reaper queries processing analyses by started_at.
		{"partial index for stale analysis reaper", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_analyses_processing') THEN
    CREATE INDEX idx_analyses_processing
        ON vendor_duplicate_analyses (started_at)
        WHERE status = 'processing';
  END IF;
END $$`},
		// Period-scoped rollups filter on opened_at ranges per vendor.
		{"composite index for work order rollups", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_work_orders_vendor_opened') THEN
    CREATE INDEX idx_work_orders_vendor_opened
        ON work_orders (vendor_id, opened_at);
  END IF;
END $$`},
		// Utility rollups filter on expense_date ranges per account.
		{"composite index for utility expense rollups", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_utility_expenses_account_date') THEN
    CREATE INDEX idx_utility_expenses_account_date
        ON utility_expenses (utility_account_id, expense_date);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
