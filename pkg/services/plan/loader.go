// Package plan resolves entity/year/order selections against the dataset cache and
// derives the tables of an operating plan.
package plan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aapslab/report-atlas/pkg/adapters"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/services/derive"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/aapslab/report-atlas/pkg/store/duckdb/sheets"
	"github.com/rs/zerolog"
)

type DatasetReader interface {
	ReadSheet(ctx context.Context, workbook, sheet string, filter store.Filter) (*store.Sheet, error)
}

type Loader struct {
	reader DatasetReader
	engine *derive.Engine
}

func NewLoader(reader DatasetReader, engine *derive.Engine) *Loader {
	return &Loader{reader: reader, engine: engine}
}

func (l *Loader) Engine() *derive.Engine {
	return l.engine
}

// WorkbookFor returns the operating plan workbook of a regime.
func WorkbookFor(regime domain.Regime) string {
	if regime == domain.RegimeCooperative {
		return store.WorkbookCooperatives
	}
	return store.WorkbookMunicipal
}

func (l *Loader) Entities(ctx context.Context) ([]domain.Entity, error) {
	sheet, err := l.reader.ReadSheet(ctx, store.WorkbookRegistry, store.SheetEntities, store.Filter{})
	if err != nil {
		return nil, err
	}
	entities := make([]domain.Entity, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		e, err := adapters.MapStoreRowToEntity(row)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int("row", row.Index).Msg("skipping malformed entity row")
			continue
		}
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Code < entities[j].Code })
	return entities, nil
}

func (l *Loader) Entity(ctx context.Context, code string) (domain.Entity, error) {
	sheet, err := l.reader.ReadSheet(ctx, store.WorkbookRegistry, store.SheetEntities, store.ByEPSA(code))
	if err != nil {
		return domain.Entity{}, err
	}
	row, err := SingleRow(sheet, code)
	if err != nil {
		return domain.Entity{}, err
	}
	return adapters.MapStoreRowToEntity(row)
}

// Orders lists the revision numbers submitted for an entity and year.
func (l *Loader) Orders(ctx context.Context, entity domain.Entity, year int) ([]int, error) {
	sheet, err := l.reader.ReadSheet(ctx, WorkbookFor(entity.Regime()), schema.SheetGeneral,
		store.ByEPSAYear(entity.Code, year))
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	var orders []int
	for _, row := range sheet.Rows {
		if o, ok := sheets.ToInt(row.Values[store.ColumnOrder]); ok && !seen[o] {
			seen[o] = true
			orders = append(orders, o)
		}
	}
	sort.Ints(orders)
	return orders, nil
}

// LoadTables reads every section row of the selected plan and derives its tables.
func (l *Loader) LoadTables(ctx context.Context, entity domain.Entity, key domain.PlanKey) (*domain.PlanTables, error) {
	logger := zerolog.Ctx(ctx).With().Str("epsa", key.EPSA).Int("year", key.Year).Int("order", key.Order).Logger()
	regime := entity.Regime()
	workbook := WorkbookFor(regime)
	filter := store.ByPlan(key.EPSA, key.Year, key.Order)

	general, err := l.reader.ReadSheet(ctx, workbook, schema.SheetGeneral, filter)
	if err != nil {
		return nil, err
	}
	if _, err := SingleRow(general, key.String()); err != nil {
		return nil, err
	}

	tables := &domain.PlanTables{}
	s := l.engine.Schema()
	for _, kind := range s.Kinds() {
		sec, err := s.Section(kind, regime)
		if err != nil {
			return nil, err
		}
		sheet, err := l.reader.ReadSheet(ctx, workbook, sec.Sheet, filter)
		if err != nil {
			return nil, err
		}
		row, err := SingleRow(sheet, key.String())
		if err != nil {
			return nil, err
		}
		data, err := adapters.MapStoreRowToSectionData(row, sec.FieldIDs())
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", kind, err)
		}
		table, err := l.engine.Derive(key, data, regime, kind)
		if err != nil {
			return nil, err
		}
		switch kind {
		case domain.SectionIncome:
			tables.Income = table
		case domain.SectionExpenses:
			tables.Expenses = table
		case domain.SectionInvestments:
			tables.Investments = table
		case domain.SectionExpansion:
			tables.Expansion = table
		}
	}

	logger.Debug().Str("workbook", workbook).Msg("plan tables derived")
	return tables, nil
}

// LegalReferences looks up the optional licensing and circular references of an entity.
func (l *Loader) LegalReferences(ctx context.Context, code string) (domain.LegalReferences, error) {
	var refs domain.LegalReferences
	lookups := []struct {
		sheet  string
		column string
		dst    *string
	}{
		{store.SheetLicenses, "resolucion", &refs.License},
		{store.SheetCirculars, "circular", &refs.Circular},
	}
	for _, lk := range lookups {
		sheet, err := l.reader.ReadSheet(ctx, store.WorkbookRegistry, lk.sheet, store.ByEPSA(code))
		if err != nil {
			return refs, err
		}
		if len(sheet.Rows) == 0 {
			continue
		}
		if v, ok := sheet.Rows[0].Values[lk.column]; ok && v != nil {
			*lk.dst = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return refs, nil
}

// SingleRow enforces that a filtered sheet holds exactly one row.
func SingleRow(sheet *store.Sheet, key string) (store.Row, error) {
	name := sheet.Workbook + "/" + sheet.Sheet
	switch len(sheet.Rows) {
	case 0:
		return store.Row{}, &domain.NoMatchingRecordError{Sheet: name, Key: key}
	case 1:
		return sheet.Rows[0], nil
	default:
		return store.Row{}, &domain.AmbiguousRecordError{Sheet: name, Key: key, Count: len(sheet.Rows)}
	}
}
