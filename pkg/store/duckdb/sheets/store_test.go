package sheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{db: db, store: s}
}

func incomeSheet() *store.Sheet {
	row := func(epsa string, year, order int, ap string) store.Row {
		return store.Row{Values: map[string]any{
			"epsa": epsa, "year": json.Number(strconv.Itoa(year)), "order": json.Number(strconv.Itoa(order)),
			"ing_op_ap": json.Number(ap),
		}}
	}
	return &store.Sheet{
		Workbook: "poa_cooperativas",
		Sheet:    "ingresos",
		Columns:  []string{"epsa", "year", "order", "ing_op_ap"},
		Rows: []store.Row{
			row("SAGUAPAC", 2023, 1, "100.50"),
			row("SAGUAPAC", 2024, 1, "200"),
			row("SAGUAPAC", 2024, 2, "250.75"),
			row("COSMOL", 2024, 1, "10"),
		},
	}
}


func TestNewStore(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupFixture(t)
		assert.NotNil(t, f.store)
	})

	t.Run("nil db", func(t *testing.T) {
		s, err := NewStore(nil)
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestStore_ReplaceAndRead(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.ReplaceSheet(ctx, incomeSheet()))

	t.Run("whole sheet keeps column and row order", func(t *testing.T) {
		sheet, err := f.store.ReadSheet(ctx, "poa_cooperativas", "ingresos", store.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"epsa", "year", "order", "ing_op_ap"}, sheet.Columns)
		require.Len(t, sheet.Rows, 4)
		assert.Equal(t, "COSMOL", sheet.Rows[3].Values["epsa"])
	})

	t.Run("filter by plan key", func(t *testing.T) {
		sheet, err := f.store.ReadSheet(ctx, "poa_cooperativas", "ingresos", store.ByPlan("SAGUAPAC", 2024, 2))
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, json.Number("250.75"), sheet.Rows[0].Values["ing_op_ap"])
	})

	t.Run("filter by entity and year", func(t *testing.T) {
		sheet, err := f.store.ReadSheet(ctx, "poa_cooperativas", "ingresos", store.ByEPSAYear("SAGUAPAC", 2024))
		require.NoError(t, err)
		assert.Len(t, sheet.Rows, 2)
	})

	t.Run("replace drops previous rows", func(t *testing.T) {
		replacement := incomeSheet()
		replacement.Rows = replacement.Rows[:1]
		require.NoError(t, f.store.ReplaceSheet(ctx, replacement))

		sheet, err := f.store.ReadSheet(ctx, "poa_cooperativas", "ingresos", store.Filter{})
		require.NoError(t, err)
		assert.Len(t, sheet.Rows, 1)

		states, err := f.store.SyncStates(ctx)
		require.NoError(t, err)
		require.Len(t, states, 1)
		assert.Equal(t, 1, states[0].RowCount)
	})
}

func TestStore_WriteRow(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.ReplaceSheet(ctx, incomeSheet()))

	t.Run("merges values into the addressed row", func(t *testing.T) {
		err := f.store.WriteRow(ctx, "poa_cooperativas", "ingresos",
			store.RowKey{EPSA: "SAGUAPAC", Year: 2024, Order: 1},
			map[string]any{"ing_op_ap": json.Number("999.99")})
		require.NoError(t, err)

		sheet, err := f.store.ReadSheet(ctx, "poa_cooperativas", "ingresos", store.ByPlan("SAGUAPAC", 2024, 1))
		require.NoError(t, err)
		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, json.Number("999.99"), sheet.Rows[0].Values["ing_op_ap"])
		assert.Equal(t, "SAGUAPAC", sheet.Rows[0].Values["epsa"])
	})

	t.Run("missing row", func(t *testing.T) {
		err := f.store.WriteRow(ctx, "poa_cooperativas", "ingresos",
			store.RowKey{EPSA: "NONE", Year: 2024, Order: 1}, map[string]any{"x": 1})
		var noMatch *domain.NoMatchingRecordError
		assert.True(t, errors.As(err, &noMatch))
	})

	t.Run("ambiguous row", func(t *testing.T) {
		dup := incomeSheet()
		dup.Rows = append(dup.Rows, dup.Rows[3])
		require.NoError(t, f.store.ReplaceSheet(ctx, dup))

		err := f.store.WriteRow(ctx, "poa_cooperativas", "ingresos",
			store.RowKey{EPSA: "COSMOL", Year: 2024, Order: 1}, map[string]any{"x": 1})
		var ambiguous *domain.AmbiguousRecordError
		require.True(t, errors.As(err, &ambiguous))
		assert.Equal(t, 2, ambiguous.Count)
	})
}

func TestStore_WriteRow_RollsBackOnUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT row_index, record FROM sheet_rows`).
		WithArgs("poa_municipales", "gastos", "EPSAS", 2024, 1).
		WillReturnRows(sqlmock.NewRows([]string{"row_index", "record"}).AddRow(3, `{"epsa":"EPSAS","impuestos":10}`))
	mock.ExpectExec(`UPDATE sheet_rows SET record`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = s.WriteRow(context.Background(), "poa_municipales", "gastos",
		store.RowKey{EPSA: "EPSAS", Year: 2024, Order: 1}, map[string]any{"impuestos": json.Number("12")})
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToInt(t *testing.T) {
	cases := map[string]struct {
		in   any
		want int
		ok   bool
	}{
		"number":       {json.Number("2024"), 2024, true},
		"float number": {json.Number("3.0"), 3, true},
		"float64":      {float64(7), 7, true},
		"string":       {" 12 ", 12, true},
		"nil":          {nil, 0, false},
		"garbage":      {"x", 0, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ToInt(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
