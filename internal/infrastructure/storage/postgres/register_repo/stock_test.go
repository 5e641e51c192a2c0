package register_repo

import (
	"strings"
	"testing"
)

// The counter upsert has to name a conflict target that matches one of
// the two partial unique indexes exactly, keyed on whether the row
// carries a variant.
func TestSaveStockLevelSQL_ConflictTargets(t *testing.T) {
	plain := saveStockLevelSQL(false)
	if !strings.Contains(plain, "ON CONFLICT (tenant_id, warehouse_id, product_id) WHERE variant_id IS NULL") {
		t.Errorf("plain product upsert must target the variant-less partial index, got:\n%s", plain)
	}
	if strings.Contains(plain, "COALESCE") {
		t.Error("conflict target must not rely on an expression index")
	}

	variant := saveStockLevelSQL(true)
	if !strings.Contains(variant, "ON CONFLICT (tenant_id, warehouse_id, product_id, variant_id) WHERE variant_id IS NOT NULL") {
		t.Errorf("variant upsert must target the variant partial index, got:\n%s", variant)
	}
}
