// Package store persists normalized product batches.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eskrenkovic/csv-import-go/internal/database"
	"github.com/eskrenkovic/csv-import-go/internal/modules/core"
	"github.com/eskrenkovic/csv-import-go/internal/modules/product/domain"

	"github.com/jmoiron/sqlx"
)

// Inserter writes a whole batch inside one transaction on one dedicated
// connection. Either every row is applied or none is.
type Inserter struct {
	dialect database.Dialect
}

func NewInserter(dialect database.Dialect) *Inserter {
	return &Inserter{dialect: dialect}
}

// InsertProducts appends rows to the products table in order. Every row is
// counted as inserted.
func (i *Inserter) InsertProducts(ctx context.Context, db core.Conner, rows []domain.Product) (int, error) {
	return insertAll(ctx, db, rows, insertProductStmt, productArgs, func(sql.Result) (bool, error) {
		return true, nil
	})
}

// InsertSKUProducts appends rows to the sku_products table in order. A row
// whose sku already exists is skipped and not counted.
func (i *Inserter) InsertSKUProducts(ctx context.Context, db core.Conner, rows []domain.SKUProduct) (int, error) {
	return insertAll(ctx, db, rows, insertSKUProductStmt(i.dialect), skuProductArgs(i.dialect), rowWritten)
}

func rowWritten(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func insertAll[T any](
	ctx context.Context,
	db core.Conner,
	rows []T,
	stmt string,
	args func(T) []any,
	written func(sql.Result) (bool, error),
) (int, error) {
	inserted := 0

	txFn := func(ctx context.Context, tx *sqlx.Tx) error {
		query := tx.Rebind(stmt)

		for n, row := range rows {
			result, err := tx.ExecContext(ctx, query, args(row)...)
			if err != nil {
				return fmt.Errorf("row %d: %w", n+1, err)
			}

			ok, err := written(result)
			if err != nil {
				return fmt.Errorf("row %d: %w", n+1, err)
			}

			if ok {
				inserted++
			}
		}

		return nil
	}

	if err := core.Tx(ctx, db, txFn); err != nil {
		return 0, &domain.PersistenceError{Err: err}
	}

	return inserted, nil
}
