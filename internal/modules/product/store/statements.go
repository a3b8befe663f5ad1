package store

import (
	"github.com/eskrenkovic/csv-import-go/internal/database"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"
)

const (
	ProductsTable    = "products"
	SKUProductsTable = "sku_products"
)

// Statements are written with '?' placeholders and rebound for the driver
// at execution time.
const insertProductStmt = `
	INSERT INTO products (name, price, quantity)
	VALUES (?, ?, ?)`

const insertSKUProductColumns = `sku_products (sku, name, quantity, price, reorder_level, status)`

// insertSKUProductStmt returns the insert-or-ignore statement for dialect.
// Only a conflict on sku is ignored; any other constraint still fails.
func insertSKUProductStmt(dialect database.Dialect) string {
	switch dialect {
	case database.MySQL:
		return `
			INSERT INTO ` + insertSKUProductColumns + `
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE sku = sku`
	case database.SQLServer:
		return `
			INSERT INTO ` + insertSKUProductColumns + `
			SELECT ?, ?, ?, ?, ?, ?
			WHERE NOT EXISTS (
				SELECT 1 FROM sku_products WITH (UPDLOCK, HOLDLOCK) WHERE sku = ?
			)`
	default:
		return `
			INSERT INTO ` + insertSKUProductColumns + `
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (sku) DO NOTHING`
	}
}

func productArgs(p domain.Product) []any {
	return []any{p.Name, p.Price, p.Quantity}
}

func skuProductArgs(dialect database.Dialect) func(domain.SKUProduct) []any {
	return func(p domain.SKUProduct) []any {
		args := []any{p.SKU, p.Name, p.Quantity, p.Price, p.ReorderLevel, p.Status}
		if dialect == database.SQLServer {
			args = append(args, p.SKU)
		}
		return args
	}
}
