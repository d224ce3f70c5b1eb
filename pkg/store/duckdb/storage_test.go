package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_BootstrapsSheetTables(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "duckdb-test-*")
	require.NoError(t, err)

	defer func() {
		err := os.RemoveAll(tmpDir)
		if err != nil {
			t.Errorf("failed to cleanup test directory: %v", err)
		}
	}()

	db, err := NewDB(Settings{DbPath: filepath.Join(tmpDir, "test.db")})
	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		err := db.Close()
		if err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	}()

	_, err = db.Exec(
		`INSERT INTO sheet_rows (workbook, sheet, row_index, epsa, year, ord, record) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"poa_municipales", "ingresos", 0, "EPSAS", 2024, 1, `{"epsa":"EPSAS"}`,
	)
	require.NoError(t, err)

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sheet_rows WHERE epsa = ?", "EPSAS").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInTransaction(t *testing.T) {
	db, err := NewDB(Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	insert := func(ctx context.Context, tx *sql.Tx, idx int) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_columns (workbook, sheet, position, name) VALUES ('w', 's', ?, 'c')`, idx)
		return err
	}

	t.Run("commits on success", func(t *testing.T) {
		err := InTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			assert.Equal(t, tx, GetTransaction(ctx))
			return insert(ctx, tx, 0)
		})
		require.NoError(t, err)

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sheet_columns`).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := InTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			require.NoError(t, insert(ctx, tx, 1))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sheet_columns`).Scan(&n))
		assert.Equal(t, 1, n)
	})
}
