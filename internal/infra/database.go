package infra

import (
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the schema
// up to date (AutoMigrate plus idempotent SQL patches).
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

// RunMigrations creates / updates all tables, then applies the constraints and
// partial indexes GORM tags cannot express. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Store{},
		&model.SalesPerson{},
		&model.Client{},
		&model.InventoryItem{},
		&model.SalesTransaction{},
		&model.ActivityLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements. Each one is guarded by an
// existence check so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"sales_transactions selling_price non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sales_tx_selling_price') THEN
    ALTER TABLE sales_transactions
      ADD CONSTRAINT chk_sales_tx_selling_price CHECK (selling_price >= 0);
  END IF;
END $$`},
		{"sales_transactions type enum", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sales_tx_type') THEN
    ALTER TABLE sales_transactions
      ADD CONSTRAINT chk_sales_tx_type
      CHECK (transaction_type IN ('sale', 'credit', 'exchange', 'warranty'));
  END IF;
END $$`},
		{"sales_transactions status enum", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_sales_tx_status') THEN
    ALTER TABLE sales_transactions
      ADD CONSTRAINT chk_sales_tx_status CHECK (status IN ('recorded', 'credited'));
  END IF;
END $$`},
		{"inventory_items status enum", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inventory_items_status') THEN
    ALTER TABLE inventory_items
      ADD CONSTRAINT chk_inventory_items_status CHECK (status IN ('in_stock', 'reserved', 'sold'));
  END IF;
END $$`},
		{"clients aggregates non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_clients_totals') THEN
    ALTER TABLE clients
      ADD CONSTRAINT chk_clients_totals CHECK (total_purchases >= 0 AND total_spend >= 0);
  END IF;
END $$`},
		// latest-sale lookup used when linking credits and exchanges
		{"partial index on sales per item", `
CREATE INDEX IF NOT EXISTS idx_sales_tx_item_sales
    ON sales_transactions (inventory_item_id, sale_date DESC, id DESC)
    WHERE transaction_type = 'sale'`},
		{"case-insensitive client name/email lookup", `
CREATE INDEX IF NOT EXISTS idx_clients_name_email_lower
    ON clients (LOWER(TRIM(full_name)), LOWER(TRIM(email)))`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
