package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestLineItemMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_line_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS line_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (shipping_quantity >= 0)",
		"CHECK (shipping_quantity <= current_quantity)",
		"DROP TABLE IF EXISTS line_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTransactionMigrationDedupesPaymentID(t *testing.T) {
	content := readMigration(t, "*_create_transactions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_payment_id",
		"CHECK (amount > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoryMigrationHasUniqueCounter(t *testing.T) {
	content := readMigration(t, "*_create_inventory.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_adjustments",
		"CREATE TABLE IF NOT EXISTS inventory",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_store_variant ON inventory(store_id, variant_id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
