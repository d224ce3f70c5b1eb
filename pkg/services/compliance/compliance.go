// Package compliance derives the annual compliance tables: trailing indicator windows
// with their category ranges and the planned vs executed expansion goals.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/aapslab/report-atlas/pkg/adapters"
	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/services/plan"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WindowSize is the number of trailing years shown per indicator.
const WindowSize = 3

var hundred = decimal.NewFromInt(100)

type Service struct {
	reader plan.DatasetReader
	plans  *plan.Loader
}

func NewService(reader plan.DatasetReader, plans *plan.Loader) *Service {
	return &Service{reader: reader, plans: plans}
}

// Window returns the trailing years ending at year, oldest first.
func Window(year int) []int {
	years := make([]int, WindowSize)
	for i := range years {
		years[i] = year - WindowSize + 1 + i
	}
	return years
}

// RangeDescriptor renders the acceptable range of an indicator.
func RangeDescriptor(r domain.ParamRange) string {
	switch {
	case !r.Min.Valid && !r.Max.Valid:
		return ""
	case !r.Min.Valid:
		return "<= " + format.Bound(r.Max.Decimal)
	case !r.Max.Valid:
		return ">= " + format.Bound(r.Min.Decimal)
	case r.Min.Decimal.Equal(r.Max.Decimal):
		return format.Bound(r.Min.Decimal)
	default:
		return fmt.Sprintf("entre %s y %s", format.Bound(r.Min.Decimal), format.Bound(r.Max.Decimal))
	}
}

// Compare builds one planned vs executed row. Difference and percentage are invalid
// when either side is missing; percentage is also invalid for a zero plan.
func Compare(planned, executed decimal.NullDecimal) (difference, percentage decimal.NullDecimal) {
	if !planned.Valid || !executed.Valid {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	difference = decimal.NullDecimal{Decimal: executed.Decimal.Sub(planned.Decimal), Valid: true}
	if planned.Decimal.IsZero() {
		return difference, decimal.NullDecimal{}
	}
	percentage = decimal.NullDecimal{Decimal: executed.Decimal.Mul(hundred).Div(planned.Decimal), Valid: true}
	return difference, percentage
}

// AnnualTables derives the compliance tables of an entity for year.
func (s *Service) AnnualTables(ctx context.Context, entity domain.Entity, year int) (*domain.AnnualTables, error) {
	logger := zerolog.Ctx(ctx).With().Str("epsa", entity.Code).Int("year", year).Logger()

	ranges, err := s.ranges(ctx, entity.Category)
	if err != nil {
		return nil, err
	}

	out := &domain.AnnualTables{Entity: entity, Year: year, Years: Window(year)}
	out.Technical, err = s.windows(ctx, entity.Code, out.Years, store.SheetTechnical, Technical, ranges)
	if err != nil {
		return nil, err
	}
	out.Economic, err = s.windows(ctx, entity.Code, out.Years, store.SheetEconomic, Economic, ranges)
	if err != nil {
		return nil, err
	}
	out.Expansion, err = s.expansion(ctx, entity, year)
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("technical", len(out.Technical)).Int("economic", len(out.Economic)).Msg("annual tables derived")
	return out, nil
}

// ranges reads the parameter sheet for one entity category, keyed by indicator code.
func (s *Service) ranges(ctx context.Context, category domain.Category) (map[string]domain.ParamRange, error) {
	sheet, err := s.reader.ReadSheet(ctx, store.WorkbookIndicators, store.SheetParameters, store.Filter{})
	if err != nil {
		return nil, err
	}
	out := map[string]domain.ParamRange{}
	for _, row := range sheet.Rows {
		if !strings.EqualFold(fmt.Sprint(row.Values["categoria"]), string(category)) {
			continue
		}
		code := strings.TrimSpace(fmt.Sprint(row.Values["indicador"]))
		lo, err := adapters.ToNullDecimal(row.Values["min"])
		if err != nil {
			return nil, fmt.Errorf("parameter %s min: %w", code, err)
		}
		hi, err := adapters.ToNullDecimal(row.Values["max"])
		if err != nil {
			return nil, fmt.Errorf("parameter %s max: %w", code, err)
		}
		out[code] = domain.ParamRange{Min: lo, Max: hi}
	}
	return out, nil
}

func (s *Service) windows(
	ctx context.Context,
	epsa string,
	years []int,
	sheetName string,
	catalog []domain.Indicator,
	ranges map[string]domain.ParamRange,
) ([]domain.IndicatorWindow, error) {
	rows := make([]map[string]any, len(years))
	for i, y := range years {
		row, err := s.yearRow(ctx, store.WorkbookIndicators, sheetName, epsa, y)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}

	out := make([]domain.IndicatorWindow, len(catalog))
	for i, ind := range catalog {
		w := domain.IndicatorWindow{
			Indicator: ind,
			Range:     RangeDescriptor(ranges[ind.Code]),
			Years:     years,
			Values:    make([]decimal.NullDecimal, len(years)),
		}
		for j, row := range rows {
			v, err := adapters.ToNullDecimal(row[ind.Code])
			if err != nil {
				return nil, fmt.Errorf("indicator %s %d: %w", ind.Code, years[j], err)
			}
			w.Values[j] = v
		}
		out[i] = w
	}
	return out, nil
}

// yearRow returns the values of the single row for epsa and year, or nil when the
// year has no measurement.
func (s *Service) yearRow(ctx context.Context, workbook, sheetName, epsa string, year int) (map[string]any, error) {
	sheet, err := s.reader.ReadSheet(ctx, workbook, sheetName, store.ByEPSAYear(epsa, year))
	if err != nil {
		return nil, err
	}
	switch len(sheet.Rows) {
	case 0:
		return nil, nil
	case 1:
		return sheet.Rows[0].Values, nil
	default:
		key := fmt.Sprintf("%s/%d", epsa, year)
		return nil, &domain.AmbiguousRecordError{Sheet: workbook + "/" + sheetName, Key: key, Count: len(sheet.Rows)}
	}
}

func (s *Service) expansion(ctx context.Context, entity domain.Entity, year int) ([]domain.ExpansionComparison, error) {
	v2, err := schema.Lookup(schema.V2)
	if err != nil {
		return nil, err
	}
	sec, err := v2.Section(domain.SectionExpansion, entity.Regime())
	if err != nil {
		return nil, err
	}

	planned, err := s.plannedGoals(ctx, entity, year)
	if err != nil {
		return nil, err
	}

	sourceRows := map[string]map[string]any{}
	out := make([]domain.ExpansionComparison, 0, len(sec.Fields))
	for _, f := range sec.Fields {
		cmp := domain.ExpansionComparison{Field: f.ID, Label: f.DisplayLabel(), Unit: f.Unit}
		if cmp.Planned, err = adapters.ToNullDecimal(planned[f.ID]); err != nil {
			return nil, fmt.Errorf("planned %s: %w", f.ID, err)
		}

		src, ok := executedSources[f.ID]
		if ok {
			k := src.workbook + "/" + src.sheet
			row, seen := sourceRows[k]
			if !seen {
				if row, err = s.yearRow(ctx, src.workbook, src.sheet, entity.Code, year); err != nil {
					return nil, err
				}
				sourceRows[k] = row
			}
			if cmp.Executed, err = adapters.ToNullDecimal(row[src.column]); err != nil {
				return nil, fmt.Errorf("executed %s: %w", f.ID, err)
			}
		}

		cmp.Difference, cmp.Percentage = Compare(cmp.Planned, cmp.Executed)
		out = append(out, cmp)
	}
	return out, nil
}

// plannedGoals reads the expansion goals of the latest plan revision of year. A year
// without any plan yields no planned values.
func (s *Service) plannedGoals(ctx context.Context, entity domain.Entity, year int) (map[string]any, error) {
	orders, err := s.plans.Orders(ctx, entity, year)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		zerolog.Ctx(ctx).Warn().Str("epsa", entity.Code).Int("year", year).Msg("no operating plan for year")
		return nil, nil
	}
	key := domain.PlanKey{EPSA: entity.Code, Year: year, Order: orders[len(orders)-1]}
	sheet, err := s.reader.ReadSheet(ctx, plan.WorkbookFor(entity.Regime()), schema.SheetExpansion,
		store.ByPlan(key.EPSA, key.Year, key.Order))
	if err != nil {
		return nil, err
	}
	row, err := plan.SingleRow(sheet, key.String())
	if err != nil {
		return nil, err
	}
	return row.Values, nil
}
