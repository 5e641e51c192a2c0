// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	appctx "stoka/internal/core/context"
	"stoka/internal/core/id"
	"stoka/internal/core/types"
	"stoka/internal/domain/documents/expense"
	"stoka/internal/domain/documents/order"
	"stoka/internal/domain/documents/purchase"
	"stoka/internal/domain/stock"
	"stoka/internal/infrastructure/storage/postgres"
	"stoka/internal/infrastructure/storage/postgres/document_repo"
	"stoka/internal/infrastructure/storage/postgres/register_repo"
	"stoka/pkg/logger"
	"stoka/pkg/numerator"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedPlans(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed subscription plans", "error", err)
	}
	if err := seedFeatures(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed system features", "error", err)
	}

	tenantID, err := seedTenant(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed tenant", "error", err)
	}

	roleIDs, err := seedRoles(ctx, pool, log, tenantID)
	if err != nil {
		log.Fatalw("failed to seed roles", "error", err)
	}

	adminUserID, err := seedUser(ctx, pool, log, tenantID,
		getEnv("ADMIN_EMAIL", "admin@example.com"), getEnv("ADMIN_PASSWORD", "Admin123!"),
		"Store", "Admin", true, roleIDs["admin"])
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if _, err := seedUser(ctx, pool, log, tenantID,
		getEnv("STAFF_EMAIL", "staff@example.com"), getEnv("STAFF_PASSWORD", "Staff123!"),
		"Store", "Staff", false, roleIDs["staff"]); err != nil {
		log.Fatalw("failed to seed staff user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, tenantID, adminUserID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedPlans(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	plans := []struct {
		code          string
		name          string
		monthly       string
		yearly        string
		maxUsers      int
		maxWarehouses int
		maxProducts   int
		features      []string
	}{
		{"starter", "Starter", "9.00", "90.00", 2, 1, 500,
			[]string{"expense_tracking"}},
		{"business", "Business", "29.00", "290.00", 10, 5, 10000,
			[]string{"expense_tracking", "multi_warehouse", "product_variants", "purchase_orders"}},
		{"enterprise", "Enterprise", "99.00", "990.00", 0, 0, 0,
			[]string{"expense_tracking", "multi_warehouse", "product_variants", "purchase_orders", "api_access"}},
	}

	for _, p := range plans {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO subscription_plans (
				id, code, name, monthly_price, yearly_price,
				max_users, max_warehouses, max_products, feature_codes,
				active, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, NOW(), NOW())
			ON CONFLICT (code) DO NOTHING
		`, id.New(), p.code, p.name, p.monthly, p.yearly,
			p.maxUsers, p.maxWarehouses, p.maxProducts, p.features)
		if err != nil {
			return fmt.Errorf("insert plan %s: %w", p.code, err)
		}
	}

	log.Info("subscription plans seeded")
	return nil
}

func seedFeatures(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	features := []struct {
		code           string
		description    string
		defaultEnabled bool
	}{
		{"expense_tracking", "Record and approve operating expenses", true},
		{"multi_warehouse", "Track stock across multiple locations", false},
		{"product_variants", "Size/color variants with per-variant counters", false},
		{"purchase_orders", "Supplier purchase orders with partial receiving", false},
		{"api_access", "Token-based API access for integrations", false},
	}

	for _, f := range features {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO system_features (id, code, description, default_enabled, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (code) DO NOTHING
		`, id.New(), f.code, f.description, f.defaultEnabled)
		if err != nil {
			return fmt.Errorf("insert feature %s: %w", f.code, err)
		}
	}

	log.Info("system features seeded")
	return nil
}

func seedTenant(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	slug := getEnv("TENANT_SLUG", "demo")
	name := getEnv("TENANT_NAME", "Demo Store")
	planCode := getEnv("TENANT_PLAN", "business")
	billingEmail := getEnv("TENANT_BILLING_EMAIL", "billing@example.com")

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx, `SELECT id FROM tenants WHERE slug = $1`, slug).Scan(&existingID)
	if err == nil {
		log.Infow("tenant already exists", "slug", slug, "tenant_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check tenant exists: %w", err)
	}

	tenantID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO tenants (
			id, slug, display_name, status, plan_code,
			billing_email, settings, created_at, updated_at
		)
		VALUES ($1, $2, $3, 'active', $4, $5, '{}', NOW(), NOW())
	`, tenantID, slug, name, planCode, billingEmail)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert tenant: %w", err)
	}

	log.Infow("tenant created", "slug", slug, "tenant_id", tenantID)
	return tenantID, nil
}

func seedRoles(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID id.ID) (map[string]id.ID, error) {
	roles := []struct {
		code        string
		name        string
		permissions []string
	}{
		{"admin", "Administrator", []string{"*"}},
		{"manager", "Manager", []string{
			"catalog:write", "purchase:write", "purchase:receive",
			"order:write", "expense:approve", "stock:adjust", "report:read",
		}},
		{"staff", "Staff", []string{"catalog:read", "order:write", "report:read"}},
	}

	roleIDs := make(map[string]id.ID, len(roles))
	for _, r := range roles {
		rid := id.New()
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO roles (
				id, tenant_id, code, name, is_system,
				permission_codes, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, true, $5, NOW(), NOW())
			ON CONFLICT (tenant_id, code) DO NOTHING
		`, rid, tenantID, r.code, r.name, r.permissions)
		if err != nil {
			return nil, fmt.Errorf("insert role %s: %w", r.code, err)
		}

		if tag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx,
				`SELECT id FROM roles WHERE tenant_id = $1 AND code = $2`,
				tenantID, r.code,
			).Scan(&rid)
			if err != nil {
				return nil, fmt.Errorf("fetch existing role %s: %w", r.code, err)
			}
		}
		roleIDs[r.code] = rid
	}

	log.Info("roles seeded")
	return roleIDs, nil
}

func seedUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID id.ID, email, password, firstName, lastName string, isAdmin bool, roleID id.ID) (id.ID, error) {
	var existingID id.ID
	err := pool.Pool.QueryRow(ctx, `
		SELECT id FROM users
		WHERE tenant_id = $1 AND lower(email) = lower($2) AND deleted_at IS NULL
	`, tenantID, email).Scan(&existingID)
	if err == nil {
		log.Infow("user already exists", "email", email, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check user exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, tenant_id, email, password_hash, first_name, last_name,
			is_active, is_admin, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7, NOW(), NOW(), 1)
	`, userID, tenantID, email, string(passwordHash), firstName, lastName, isAdmin)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert user: %w", err)
	}

	if !id.IsNil(roleID) {
		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id, granted_by, granted_at)
			VALUES ($1, $2, NULL, NOW())
			ON CONFLICT (user_id, role_id) DO NOTHING
		`, userID, roleID)
		if err != nil {
			log.Warnw("failed to assign role", "email", email, "error", err)
		}
	}

	log.Infow("user created", "email", email, "user_id", userID)
	return userID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID, adminUserID id.ID) error {
	log.Info("seeding demo data...")

	// 1. Classification catalogs
	categoryIDs, err := seedCatalogRows(ctx, pool, log, tenantID, "cat_categories", "CAT", []string{
		"Apparel", "Stationery", "Electronics", "Accessories",
	})
	if err != nil {
		return err
	}

	brandIDs, err := seedCatalogRows(ctx, pool, log, tenantID, "cat_brands", "BR", []string{
		"Northline", "Papyrus", "Voltio",
	})
	if err != nil {
		return err
	}

	// 2. Suppliers
	suppliers := []struct {
		name  string
		email string
	}{
		{"Northline Wholesale Ltd", "orders@northline.example.com"},
		{"Papyrus Supplies Co", "sales@papyrus.example.com"},
	}
	supplierIDs := make(map[string]id.ID, len(suppliers))
	for i, s := range suppliers {
		supID := id.New()
		code := fmt.Sprintf("SUP-%03d", i+1)
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_suppliers (
				id, tenant_id, code, name, email,
				active, version, deletion_mark, attributes
			)
			VALUES ($1, $2, $3, $4, $5, true, 1, false, '{}')
			ON CONFLICT (tenant_id, code) WHERE deletion_mark = FALSE DO NOTHING
		`, supID, tenantID, code, s.name, s.email)
		if err != nil {
			log.Warnw("failed to seed supplier", "name", s.name, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, `
				SELECT id FROM cat_suppliers
				WHERE tenant_id = $1 AND code = $2 AND deletion_mark = FALSE
			`, tenantID, code).Scan(&supID)
			if err != nil {
				log.Warnw("failed to fetch existing supplier", "code", code, "error", err)
				continue
			}
		}
		supplierIDs[code] = supID
	}

	// 3. Locations: one default warehouse plus a retail shop
	warehouses := []struct {
		code      string
		name      string
		kind      string
		isDefault bool
	}{
		{"WH-001", "Main Warehouse", "warehouse", true},
		{"WH-002", "Downtown Shop", "shop", false},
	}

	warehouseIDs := make(map[string]id.ID, len(warehouses))
	for _, w := range warehouses {
		whID := id.New()
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_warehouses (
				id, tenant_id, code, name, kind, is_default,
				active, version, deletion_mark, attributes
			)
			VALUES ($1, $2, $3, $4, $5, $6, true, 1, false, '{}')
			ON CONFLICT (tenant_id, code) WHERE deletion_mark = FALSE DO NOTHING
		`, whID, tenantID, w.code, w.name, w.kind, w.isDefault)
		if err != nil {
			log.Warnw("failed to seed warehouse", "name", w.name, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, `
				SELECT id FROM cat_warehouses
				WHERE tenant_id = $1 AND code = $2 AND deletion_mark = FALSE
			`, tenantID, w.code).Scan(&whID)
			if err != nil {
				log.Warnw("failed to fetch existing warehouse", "code", w.code, "error", err)
				continue
			}
		}
		warehouseIDs[w.code] = whID
	}

	// 4. Products
	products := []struct {
		sku      string
		name     string
		category string
		brand    string
		price    string
		cost     string
		reorder  float64
		variants []string // sizes; empty means a plain product
	}{
		{"TSHIRT-CLS", "Classic T-Shirt", "Apparel", "Northline", "19.90", "8.50", 0, []string{"S", "M", "L"}},
		{"NB-A5-DOT", "A5 Dotted Notebook", "Stationery", "Papyrus", "6.50", "2.80", 20, nil},
		{"PEN-GEL-BK", "Gel Pen Black", "Stationery", "Papyrus", "2.20", "0.70", 50, nil},
		{"PWB-10K", "Power Bank 10000mAh", "Electronics", "Voltio", "34.00", "18.00", 5, nil},
		{"CBL-USBC-1M", "USB-C Cable 1m", "Accessories", "Voltio", "7.90", "2.10", 30, nil},
	}

	productIDs := make(map[string]id.ID, len(products))
	variantIDs := make(map[string]id.ID)

	for _, p := range products {
		prodID := id.New()
		code := p.sku
		hasVariants := len(p.variants) > 0

		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO cat_products (
				id, tenant_id, code, name, sku, category_id, brand_id,
				price, cost, unit, reorder_level, has_variants,
				active, version, deletion_mark, attributes
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pcs', $10, $11, true, 1, false, '{}')
			ON CONFLICT (tenant_id, code) WHERE deletion_mark = FALSE DO NOTHING
		`, prodID, tenantID, code, p.name, p.sku,
			categoryIDs[p.category], brandIDs[p.brand],
			p.price, p.cost, types.NewQuantityFromFloat64(p.reorder), hasVariants)
		if err != nil {
			log.Warnw("failed to seed product", "sku", p.sku, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, `
				SELECT id FROM cat_products
				WHERE tenant_id = $1 AND code = $2 AND deletion_mark = FALSE
			`, tenantID, code).Scan(&prodID)
			if err != nil {
				log.Warnw("failed to fetch existing product", "sku", p.sku, "error", err)
				continue
			}
		}
		productIDs[p.sku] = prodID

		for _, size := range p.variants {
			varSKU := fmt.Sprintf("%s-%s", p.sku, size)
			varID := id.New()
			tag, err := pool.Pool.Exec(ctx, `
				INSERT INTO cat_product_variants (
					id, tenant_id, code, name, product_id, sku, options,
					active, version, deletion_mark, attributes
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, true, 1, false, '{}')
				ON CONFLICT (tenant_id, code) WHERE deletion_mark = FALSE DO NOTHING
			`, varID, tenantID, varSKU, fmt.Sprintf("%s (%s)", p.name, size),
				prodID, varSKU, map[string]any{"size": size})
			if err != nil {
				log.Warnw("failed to seed variant", "sku", varSKU, "error", err)
				continue
			}
			if tag.RowsAffected() == 0 {
				err = pool.Pool.QueryRow(ctx, `
					SELECT id FROM cat_product_variants
					WHERE tenant_id = $1 AND code = $2 AND deletion_mark = FALSE
				`, tenantID, varSKU).Scan(&varID)
				if err != nil {
					log.Warnw("failed to fetch existing variant", "sku", varSKU, "error", err)
					continue
				}
			}
			variantIDs[varSKU] = varID
		}
	}

	// 5. Opening stock through the stock service so the movement ledger
	// and the counters stay consistent.
	if err := seedOpeningStock(ctx, pool, log, tenantID, adminUserID, warehouseIDs, productIDs, variantIDs); err != nil {
		log.Warnw("failed to seed opening stock", "error", err)
	}

	// 6. Sample documents: a confirmed purchase ready to receive, a
	// couple of orders and expenses.
	if err := seedDocuments(ctx, pool, log, tenantID, adminUserID, supplierIDs, warehouseIDs, productIDs); err != nil {
		log.Warnw("failed to seed sample documents", "error", err)
	}

	// 7. Welcome notice
	if err := seedWelcomeNotice(ctx, pool, log, tenantID, adminUserID); err != nil {
		log.Warnw("failed to seed welcome notice", "error", err)
	}

	log.Info("demo data seeded successfully")
	return nil
}

// seedCatalogRows inserts simple name-only catalog rows and returns a
// name -> id map, fetching existing rows on conflict.
func seedCatalogRows(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID id.ID, table, codePrefix string, names []string) (map[string]id.ID, error) {
	ids := make(map[string]id.ID, len(names))

	for i, name := range names {
		rowID := id.New()
		code := fmt.Sprintf("%s-%03d", codePrefix, i+1)

		tag, err := pool.Pool.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, tenant_id, code, name, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, 1, false, '{}')
			ON CONFLICT (tenant_id, code) WHERE deletion_mark = FALSE DO NOTHING
		`, table), rowID, tenantID, code, name)
		if err != nil {
			log.Warnw("failed to seed catalog row", "table", table, "name", name, "error", err)
			continue
		}
		if tag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, fmt.Sprintf(`
				SELECT id FROM %s WHERE tenant_id = $1 AND code = $2 AND deletion_mark = FALSE
			`, table), tenantID, code).Scan(&rowID)
			if err != nil {
				log.Warnw("failed to fetch existing catalog row", "table", table, "code", code, "error", err)
				continue
			}
		}
		ids[name] = rowID
	}

	return ids, nil
}

func seedOpeningStock(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID, adminUserID id.ID, warehouseIDs, productIDs, variantIDs map[string]id.ID) error {
	mainWH, ok := warehouseIDs["WH-001"]
	if !ok {
		return fmt.Errorf("main warehouse not seeded")
	}

	txManager := postgres.NewTxManager(pool)
	stockRepo := register_repo.NewStockRepo(txManager)
	ledgerRepo := register_repo.NewLedgerRepo(txManager)
	stockSvc := stock.NewService(stockRepo, ledgerRepo, txManager)

	openings := []struct {
		productSKU string
		variantSKU string // empty for plain products
		qty        float64
	}{
		{"TSHIRT-CLS", "TSHIRT-CLS-S", 15},
		{"TSHIRT-CLS", "TSHIRT-CLS-M", 25},
		{"TSHIRT-CLS", "TSHIRT-CLS-L", 10},
		{"NB-A5-DOT", "", 120},
		{"PEN-GEL-BK", "", 300},
		{"PWB-10K", "", 18},
		{"CBL-USBC-1M", "", 75},
	}

	for _, o := range openings {
		productID, ok := productIDs[o.productSKU]
		if !ok {
			continue
		}

		target := stock.ProductTarget(mainWH, productID)
		if o.variantSKU != "" {
			variantID, ok := variantIDs[o.variantSKU]
			if !ok {
				continue
			}
			target = stock.VariantTarget(mainWH, productID, variantID)
		}

		// Skip targets that already have stock so reruns stay idempotent.
		onHand, err := stockSvc.OnHand(ctx, tenantID, target)
		if err != nil {
			log.Warnw("failed to read stock", "sku", o.productSKU, "error", err)
			continue
		}
		if !onHand.IsZero() {
			continue
		}

		_, err = stockSvc.AddStock(ctx, tenantID, target,
			types.NewQuantityFromFloat64(o.qty), "opening stock", adminUserID)
		if err != nil {
			log.Warnw("failed to seed opening stock", "sku", o.productSKU, "error", err)
		}
	}

	log.Info("opening stock seeded")
	return nil
}

// seedDocuments creates sample business documents through the domain
// services so numbering, totals and status transitions all apply.
// Skipped entirely once the tenant has any purchase, keeping reruns
// idempotent.
func seedDocuments(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID, adminUserID id.ID, supplierIDs, warehouseIDs, productIDs map[string]id.ID) error {
	var exists bool
	err := pool.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doc_purchases WHERE tenant_id = $1)
	`, tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check documents exist: %w", err)
	}
	if exists {
		log.Info("sample documents already exist, skipping")
		return nil
	}

	supplierID, ok := supplierIDs["SUP-001"]
	if !ok {
		return fmt.Errorf("supplier not seeded")
	}
	mainWH, ok := warehouseIDs["WH-001"]
	if !ok {
		return fmt.Errorf("main warehouse not seeded")
	}
	shopWH, ok := warehouseIDs["WH-002"]
	if !ok {
		shopWH = mainWH
	}

	txManager := postgres.NewTxManager(pool)
	stockRepo := register_repo.NewStockRepo(txManager)
	ledgerRepo := register_repo.NewLedgerRepo(txManager)
	stockSvc := stock.NewService(stockRepo, ledgerRepo, txManager)
	numSvc := numerator.New(pool.Pool)

	auditSvc, err := postgres.NewAuditService(txManager)
	if err != nil {
		return fmt.Errorf("create audit service: %w", err)
	}
	recorder := postgres.NewAuditRecorder(auditSvc)

	purchaseSvc := purchase.NewService(document_repo.NewPurchaseRepo(txManager), stockSvc, numSvc, txManager).WithAudit(recorder)
	orderSvc := order.NewService(document_repo.NewOrderRepo(txManager), stockSvc, numSvc, txManager).WithAudit(recorder)
	expenseSvc := expense.NewService(document_repo.NewExpenseRepo(txManager), numSvc, txManager).WithAudit(recorder)

	// Audit rows attribute the seeded documents to the admin user.
	ctx = appctx.WithActor(ctx, &appctx.Actor{
		UserID:   adminUserID,
		TenantID: tenantID,
		Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
	})

	// A confirmed purchase ready to receive.
	po := purchase.NewPurchase(tenantID, supplierID, mainWH)
	po.CreatedBy = adminUserID.String()
	if pid, ok := productIDs["NB-A5-DOT"]; ok {
		po.AddLine(pid, nil, types.NewQuantityFromFloat64(40), types.NewMoney(2.80))
	}
	if pid, ok := productIDs["PWB-10K"]; ok {
		po.AddLine(pid, nil, types.NewQuantityFromFloat64(10), types.NewMoney(18.00))
	}
	if len(po.Lines) > 0 {
		if err := purchaseSvc.Create(ctx, po); err != nil {
			log.Warnw("failed to seed purchase", "error", err)
		} else if err := purchaseSvc.Confirm(ctx, po.ID); err != nil {
			log.Warnw("failed to confirm purchase", "error", err)
		} else {
			log.Infow("sample purchase seeded", "number", po.Number)
		}
	}

	// Pending orders from the shop.
	orders := []struct {
		customer string
		sku      string
		qty      float64
		price    float64
	}{
		{"Alice Carter", "PEN-GEL-BK", 12, 2.20},
		{"Ben Okafor", "CBL-USBC-1M", 2, 7.90},
	}
	for _, o := range orders {
		pid, ok := productIDs[o.sku]
		if !ok {
			continue
		}
		so := order.NewOrder(tenantID, shopWH, o.customer)
		so.CreatedBy = adminUserID.String()
		so.AddLine(pid, nil, types.NewQuantityFromFloat64(o.qty), types.NewMoney(o.price))
		if err := orderSvc.Create(ctx, so); err != nil {
			log.Warnw("failed to seed order", "customer", o.customer, "error", err)
			continue
		}
		log.Infow("sample order seeded", "number", so.Number)
	}

	// Expenses: one approved, one left pending.
	rent := expense.NewExpense(tenantID, "rent", types.NewMoney(1200.00), time.Now().UTC().AddDate(0, 0, -3))
	rent.CreatedBy = adminUserID.String()
	if err := expenseSvc.Create(ctx, rent); err != nil {
		log.Warnw("failed to seed rent expense", "error", err)
	} else if err := expenseSvc.Approve(ctx, rent.ID, adminUserID); err != nil {
		log.Warnw("failed to approve rent expense", "error", err)
	}

	utilities := expense.NewExpense(tenantID, "utilities", types.NewMoney(240.00), time.Now().UTC().AddDate(0, 0, -1))
	utilities.CreatedBy = adminUserID.String()
	if err := expenseSvc.Create(ctx, utilities); err != nil {
		log.Warnw("failed to seed utilities expense", "error", err)
	}

	log.Info("sample documents seeded")
	return nil
}

func seedWelcomeNotice(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID, adminUserID id.ID) error {
	var exists bool
	err := pool.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM notices WHERE tenant_id = $1 AND title = 'Welcome to Stoka')
	`, tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check welcome notice: %w", err)
	}
	if exists {
		return nil
	}

	expiresAt := time.Now().UTC().AddDate(0, 1, 0)
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO notices (
			id, tenant_id, severity, title, body, audience, status,
			publish_at, expires_at, created_by, created_at, updated_at
		)
		VALUES ($1, $2, 'info', 'Welcome to Stoka',
			'Your store is ready. Start by reviewing the demo catalog and opening stock.',
			'all', 'published', NOW(), $3, $4, NOW(), NOW())
	`, id.New(), tenantID, expiresAt, adminUserID)
	if err != nil {
		return fmt.Errorf("insert welcome notice: %w", err)
	}

	log.Info("welcome notice seeded")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
