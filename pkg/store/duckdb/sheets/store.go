package sheets

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

// Store keeps cached workbooks as named sheets of JSON records in DuckDB.
type Store interface {
	ReadSheet(ctx context.Context, workbook, sheet string, filter store.Filter) (*store.Sheet, error)
	ReplaceSheet(ctx context.Context, sheet *store.Sheet) error
	WriteRow(ctx context.Context, workbook, sheet string, key store.RowKey, values map[string]any) error
	SyncStates(ctx context.Context) ([]store.SyncState, error)
}

type sheetStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &sheetStore{db: db}, nil
}

func (s *sheetStore) ReadSheet(
	ctx context.Context,
	workbook, sheet string,
	filter store.Filter,
) (*store.Sheet, error) {
	columns, err := s.columns(ctx, workbook, sheet)
	if err != nil {
		return nil, err
	}

	query := `SELECT row_index, record FROM sheet_rows WHERE workbook = ? AND sheet = ?`
	args := []any{workbook, sheet}
	if filter.EPSA != nil {
		query += " AND epsa = ?"
		args = append(args, *filter.EPSA)
	}
	if filter.Year != nil {
		query += " AND year = ?"
		args = append(args, *filter.Year)
	}
	if filter.Order != nil {
		query += " AND ord = ?"
		args = append(args, *filter.Order)
	}
	query += " ORDER BY row_index"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sheet %s/%s: %w", workbook, sheet, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close sheet rows")
		}
	}(rows)

	result := &store.Sheet{Workbook: workbook, Sheet: sheet, Columns: columns, Rows: []store.Row{}}
	for rows.Next() {
		var (
			idx    int
			record string
		)
		if err := rows.Scan(&idx, &record); err != nil {
			return nil, err
		}
		values, err := decodeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s row %d: %w", workbook, sheet, idx, err)
		}
		result.Rows = append(result.Rows, store.Row{Index: idx, Values: values})
	}
	return result, rows.Err()
}

func (s *sheetStore) columns(ctx context.Context, workbook, sheet string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sheet_columns WHERE workbook = ? AND sheet = ? ORDER BY position`,
		workbook, sheet)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s/%s: %w", workbook, sheet, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func (s *sheetStore) ReplaceSheet(ctx context.Context, sheet *store.Sheet) error {
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM sheet_columns WHERE workbook = ? AND sheet = ?`,
			`DELETE FROM sheet_rows WHERE workbook = ? AND sheet = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, sheet.Workbook, sheet.Sheet); err != nil {
				return fmt.Errorf("clear sheet %s/%s: %w", sheet.Workbook, sheet.Sheet, err)
			}
		}

		for pos, name := range sheet.Columns {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO sheet_columns (workbook, sheet, position, name) VALUES (?, ?, ?, ?)`,
				sheet.Workbook, sheet.Sheet, pos, name)
			if err != nil {
				return fmt.Errorf("insert column %s: %w", name, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sheet_rows (workbook, sheet, row_index, epsa, year, ord, record)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range sheet.Rows {
			record, err := json.Marshal(row.Values)
			if err != nil {
				return fmt.Errorf("marshal row %d: %w", i, err)
			}
			epsa, year, order := keyColumns(row.Values)
			_, err = stmt.ExecContext(ctx, sheet.Workbook, sheet.Sheet, i, epsa, year, order, string(record))
			if err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO sync_state (workbook, sheet, row_count, fetched_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
			sheet.Workbook, sheet.Sheet, len(sheet.Rows))
		if err != nil {
			return fmt.Errorf("update sync state: %w", err)
		}
		return nil
	})
}

// WriteRow merges values into the single row addressed by key.
func (s *sheetStore) WriteRow(
	ctx context.Context,
	workbook, sheet string,
	key store.RowKey,
	values map[string]any,
) error {
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT row_index, record FROM sheet_rows
			WHERE workbook = ? AND sheet = ? AND epsa = ? AND year = ? AND ord = ?`,
			workbook, sheet, key.EPSA, key.Year, key.Order)
		if err != nil {
			return fmt.Errorf("lookup row: %w", err)
		}

		type match struct {
			idx    int
			record string
		}
		var matches []match
		for rows.Next() {
			var m match
			if err := rows.Scan(&m.idx, &m.record); err != nil {
				rows.Close()
				return err
			}
			matches = append(matches, m)
		}
		rows.Close()

		planKey := domain.PlanKey{EPSA: key.EPSA, Year: key.Year, Order: key.Order}.String()
		switch len(matches) {
		case 0:
			return &domain.NoMatchingRecordError{Sheet: workbook + "/" + sheet, Key: planKey}
		case 1:
		default:
			return &domain.AmbiguousRecordError{Sheet: workbook + "/" + sheet, Key: planKey, Count: len(matches)}
		}

		current, err := decodeRecord(matches[0].record)
		if err != nil {
			return err
		}
		for k, v := range values {
			current[k] = v
		}
		record, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("marshal row: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE sheet_rows SET record = ? WHERE workbook = ? AND sheet = ? AND row_index = ?`,
			string(record), workbook, sheet, matches[0].idx)
		if err != nil {
			return fmt.Errorf("update row: %w", err)
		}
		return nil
	})
}

func (s *sheetStore) SyncStates(ctx context.Context) ([]store.SyncState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT workbook, sheet, row_count, fetched_at FROM sync_state ORDER BY workbook, sheet`)
	if err != nil {
		return nil, fmt.Errorf("query sync state: %w", err)
	}
	defer rows.Close()

	var states []store.SyncState
	for rows.Next() {
		var st store.SyncState
		if err := rows.Scan(&st.Workbook, &st.Sheet, &st.RowCount, &st.FetchedAt); err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

func decodeRecord(record string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(record)))
	dec.UseNumber()
	values := map[string]any{}
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}

func keyColumns(values map[string]any) (epsa sql.NullString, year, order sql.NullInt64) {
	if v, ok := values[store.ColumnEPSA]; ok && v != nil {
		epsa = sql.NullString{String: strings.TrimSpace(fmt.Sprint(v)), Valid: true}
	}
	if n, ok := ToInt(values[store.ColumnYear]); ok {
		year = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	if n, ok := ToInt(values[store.ColumnOrder]); ok {
		order = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	return epsa, year, order
}

// ToInt converts a decoded cell to an int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
