package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const SheetColumnsSchema = `
	CREATE TABLE IF NOT EXISTS sheet_columns (
		workbook VARCHAR NOT NULL,
		sheet VARCHAR NOT NULL,
		position INTEGER NOT NULL,
		name VARCHAR NOT NULL,
		PRIMARY KEY (workbook, sheet, position)
	);
`

const SheetRowsSchema = `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		workbook VARCHAR NOT NULL,
		sheet VARCHAR NOT NULL,
		row_index INTEGER NOT NULL,
		epsa VARCHAR,
		year INTEGER,
		ord INTEGER,
		record VARCHAR NOT NULL,
		PRIMARY KEY (workbook, sheet, row_index)
	);
`

const SyncStateSchema = `
	CREATE TABLE IF NOT EXISTS sync_state (
		workbook VARCHAR NOT NULL,
		sheet VARCHAR NOT NULL,
		row_count INTEGER NOT NULL,
		fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (workbook, sheet)
	);
`

var bootQueries = []string{
	SheetColumnsSchema,
	SheetRowsSchema,
	SyncStateSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("open dataset cache %s: %w", settings.DbPath, err)
	}

	return sql.OpenDB(c), nil
}
