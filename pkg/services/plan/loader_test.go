package plan

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/services/derive"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/aapslab/report-atlas/pkg/store/duckdb/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryReader struct {
	sheets map[string][]store.Row
	err    error
}

func (m *memoryReader) ReadSheet(_ context.Context, workbook, sheet string, filter store.Filter) (*store.Sheet, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := &store.Sheet{Workbook: workbook, Sheet: sheet}
	for _, r := range m.sheets[workbook+"/"+sheet] {
		if filter.EPSA != nil && r.Values[store.ColumnEPSA] != *filter.EPSA {
			continue
		}
		if y, _ := sheets.ToInt(r.Values[store.ColumnYear]); filter.Year != nil && y != *filter.Year {
			continue
		}
		if o, _ := sheets.ToInt(r.Values[store.ColumnOrder]); filter.Order != nil && o != *filter.Order {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

func (m *memoryReader) add(workbook, sheet string, values map[string]any) {
	if m.sheets == nil {
		m.sheets = map[string][]store.Row{}
	}
	k := workbook + "/" + sheet
	m.sheets[k] = append(m.sheets[k], store.Row{Index: len(m.sheets[k]), Values: values})
}

var (
	saguapac = domain.Entity{Code: "SAGUAPAC", Name: "Cooperativa Santa Cruz", Category: domain.CategoryA, Type: "Cooperativa"}
	elapas   = domain.Entity{Code: "ELAPAS", Name: "Empresa Local Sucre", Category: domain.CategoryB, Type: "Empresa Municipal"}
)

func keyed(epsa string, year, order int, extra map[string]any) map[string]any {
	v := map[string]any{
		store.ColumnEPSA:  epsa,
		store.ColumnYear:  json.Number(strconv.Itoa(year)),
		store.ColumnOrder: json.Number(strconv.Itoa(order)),
	}
	for k, x := range extra {
		v[k] = x
	}
	return v
}

// seedPlan writes one complete plan submission where every field holds value.
func seedPlan(t *testing.T, m *memoryReader, s *schema.Schema, e domain.Entity, year, order int, value string) {
	workbook := WorkbookFor(e.Regime())
	m.add(workbook, schema.SheetGeneral, keyed(e.Code, year, order, nil))
	for _, kind := range s.Kinds() {
		sec, err := s.Section(kind, e.Regime())
		require.NoError(t, err)
		fields := map[string]any{}
		for _, id := range sec.FieldIDs() {
			fields[id] = json.Number(value)
		}
		m.add(workbook, sec.Sheet, keyed(e.Code, year, order, fields))
	}
}

type fixture struct {
	reader *memoryReader
	loader *Loader
	schema *schema.Schema
}

func setupFixture(t *testing.T, v schema.Version) *fixture {
	s, err := schema.Lookup(v)
	require.NoError(t, err)
	reader := &memoryReader{}
	return &fixture{reader: reader, loader: NewLoader(reader, derive.NewEngine(s)), schema: s}
}

func TestWorkbookFor(t *testing.T) {
	assert.Equal(t, store.WorkbookCooperatives, WorkbookFor(domain.RegimeCooperative))
	assert.Equal(t, store.WorkbookMunicipal, WorkbookFor(domain.RegimeMunicipal))
}

func TestLoader_Entities(t *testing.T) {
	f := setupFixture(t, schema.V2)
	f.reader.add(store.WorkbookRegistry, store.SheetEntities, map[string]any{
		"epsa": "SAGUAPAC", "nombre": "Cooperativa Santa Cruz", "categoria": "A", "tipo": "Cooperativa",
	})
	f.reader.add(store.WorkbookRegistry, store.SheetEntities, map[string]any{
		"epsa": "ELAPAS", "nombre": "Empresa Local Sucre", "categoria": "b", "tipo": "Empresa Municipal",
	})
	f.reader.add(store.WorkbookRegistry, store.SheetEntities, map[string]any{
		"epsa": "BROKEN", "categoria": "Z",
	})

	entities, err := f.loader.Entities(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "ELAPAS", entities[0].Code)
	assert.Equal(t, domain.CategoryB, entities[0].Category)
	assert.Equal(t, domain.RegimeMunicipal, entities[0].Regime())
	assert.Equal(t, domain.RegimeCooperative, entities[1].Regime())

	t.Run("single entity", func(t *testing.T) {
		e, err := f.loader.Entity(context.Background(), "SAGUAPAC")
		require.NoError(t, err)
		assert.Equal(t, "Cooperativa Santa Cruz", e.Name)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := f.loader.Entity(context.Background(), "NOPE")
		var nm *domain.NoMatchingRecordError
		require.ErrorAs(t, err, &nm)
		assert.Equal(t, "NOPE", nm.Key)
	})
}

func TestLoader_Orders(t *testing.T) {
	f := setupFixture(t, schema.V1)
	seedPlan(t, f.reader, f.schema, saguapac, 2024, 2, "1")
	seedPlan(t, f.reader, f.schema, saguapac, 2024, 1, "1")
	seedPlan(t, f.reader, f.schema, saguapac, 2023, 3, "1")

	orders, err := f.loader.Orders(context.Background(), saguapac, 2024)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, orders)
}

func TestLoader_LoadTables(t *testing.T) {
	t.Run("cooperative v2", func(t *testing.T) {
		f := setupFixture(t, schema.V2)
		seedPlan(t, f.reader, f.schema, saguapac, 2024, 1, "10")

		tables, err := f.loader.LoadTables(context.Background(), saguapac, domain.PlanKey{EPSA: "SAGUAPAC", Year: 2024, Order: 1})
		require.NoError(t, err)
		require.NotNil(t, tables.Expansion)
		assert.Len(t, tables.Expenses.Rows, 5)
		assert.Equal(t, "60.00", format.Money(tables.Income.Total))
		assert.Equal(t, "16.67", format.NullPercent(tables.Income.Rows[0].Share))
	})

	t.Run("municipal v1 has no expansion", func(t *testing.T) {
		f := setupFixture(t, schema.V1)
		seedPlan(t, f.reader, f.schema, elapas, 2024, 1, "10")

		tables, err := f.loader.LoadTables(context.Background(), elapas, domain.PlanKey{EPSA: "ELAPAS", Year: 2024, Order: 1})
		require.NoError(t, err)
		assert.Nil(t, tables.Expansion)
		assert.Len(t, tables.Expenses.Rows, 10)
		assert.Len(t, tables.All(), 3)
	})

	t.Run("no matching order", func(t *testing.T) {
		f := setupFixture(t, schema.V2)
		seedPlan(t, f.reader, f.schema, saguapac, 2024, 1, "10")

		_, err := f.loader.LoadTables(context.Background(), saguapac, domain.PlanKey{EPSA: "SAGUAPAC", Year: 2024, Order: 9})
		var nm *domain.NoMatchingRecordError
		require.ErrorAs(t, err, &nm)
		assert.Equal(t, "SAGUAPAC/2024/9", nm.Key)
	})

	t.Run("duplicate submission", func(t *testing.T) {
		f := setupFixture(t, schema.V2)
		seedPlan(t, f.reader, f.schema, saguapac, 2024, 1, "10")
		seedPlan(t, f.reader, f.schema, saguapac, 2024, 1, "20")

		_, err := f.loader.LoadTables(context.Background(), saguapac, domain.PlanKey{EPSA: "SAGUAPAC", Year: 2024, Order: 1})
		var amb *domain.AmbiguousRecordError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, 2, amb.Count)
	})

	t.Run("missing field", func(t *testing.T) {
		f := setupFixture(t, schema.V1)
		seedPlan(t, f.reader, f.schema, saguapac, 2024, 1, "10")
		delete(f.reader.sheets[store.WorkbookCooperatives+"/"+schema.SheetInvestments][0].Values, "inv_agua")

		_, err := f.loader.LoadTables(context.Background(), saguapac, domain.PlanKey{EPSA: "SAGUAPAC", Year: 2024, Order: 1})
		var mf *domain.MissingFieldError
		require.ErrorAs(t, err, &mf)
		assert.Equal(t, "inv_agua", mf.Field)
	})

	t.Run("reader failure", func(t *testing.T) {
		f := setupFixture(t, schema.V2)
		f.reader.err = errors.New("cache closed")

		_, err := f.loader.LoadTables(context.Background(), saguapac, domain.PlanKey{EPSA: "SAGUAPAC", Year: 2024, Order: 1})
		assert.EqualError(t, err, "cache closed")
	})
}

func TestLoader_LegalReferences(t *testing.T) {
	f := setupFixture(t, schema.V2)
	f.reader.add(store.WorkbookRegistry, store.SheetLicenses, map[string]any{
		"epsa": "SAGUAPAC", "resolucion": " RAR/AAPS/123/2019 ",
	})
	f.reader.add(store.WorkbookRegistry, store.SheetCirculars, map[string]any{
		"epsa": "ELAPAS", "circular": "CIR/AAPS/7/2021",
	})

	refs, err := f.loader.LegalReferences(context.Background(), "SAGUAPAC")
	require.NoError(t, err)
	assert.Equal(t, domain.LegalReferences{License: "RAR/AAPS/123/2019"}, refs)

	refs, err = f.loader.LegalReferences(context.Background(), "ELAPAS")
	require.NoError(t, err)
	assert.Equal(t, domain.LegalReferences{Circular: "CIR/AAPS/7/2021"}, refs)
}
