// Package derive turns raw plan section rows into labelled line item tables with
// percentages and group subtotals.
package derive

import (
	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/shopspring/decimal"
)

type Engine struct {
	schema *schema.Schema
}

func NewEngine(s *schema.Schema) *Engine {
	return &Engine{schema: s}
}

func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

var hundred = decimal.NewFromInt(100)

// Derive builds the line item table of one section. Every field of the section layout
// must be present in data; extra keys are ignored. Values must be non-negative and
// bounded fields may not exceed 100.
func (e *Engine) Derive(
	key domain.PlanKey,
	data domain.SectionData,
	regime domain.Regime,
	kind domain.SectionKind,
) (*domain.LineItemTable, error) {
	sec, err := e.schema.Section(kind, regime)
	if err != nil {
		return nil, err
	}

	table := &domain.LineItemTable{
		Section:   kind,
		Regime:    regime,
		Key:       key,
		Rows:      make([]domain.LineItem, 0, len(sec.Fields)),
		HasShares: sec.HasShares,
	}

	for _, f := range sec.Fields {
		v, ok := data[f.ID]
		if !ok {
			return nil, &domain.MissingFieldError{Section: kind, Field: f.ID}
		}
		if v.IsNegative() || (f.Bounded && v.GreaterThan(hundred)) {
			return nil, &domain.InvalidValueError{Section: kind, Field: f.ID, Value: v.String()}
		}
		table.Rows = append(table.Rows, domain.LineItem{
			Field:       f.ID,
			Label:       f.DisplayLabel(),
			Placeholder: f.Placeholder,
			Unit:        f.Unit,
			Bounded:     f.Bounded,
			Value:       v,
		})
	}

	for _, g := range sec.Groups {
		table.Groups = append(table.Groups, domain.GroupAggregate{
			Key:         g.Key,
			Label:       g.Label,
			Placeholder: g.Placeholder,
			Members:     append([]string(nil), g.Members...),
		})
	}

	if !sec.HasShares {
		return table, nil
	}

	table.Total = Total(table)
	for i := range table.Rows {
		table.Rows[i].Share = format.Share(table.Rows[i].Value, table.Total)
	}
	for i := range table.Groups {
		RefreshGroup(table, i)
	}
	return table, nil
}

// Total sums every row of the table.
func Total(t *domain.LineItemTable) decimal.Decimal {
	total := decimal.Zero
	for _, r := range t.Rows {
		total = total.Add(r.Value)
	}
	return total
}

// RefreshGroup re-sums the members of group i and its share of the current table total.
func RefreshGroup(t *domain.LineItemTable, i int) {
	g := &t.Groups[i]
	sum := decimal.Zero
	for _, r := range t.Rows {
		if g.Contains(r.Field) {
			sum = sum.Add(r.Value)
		}
	}
	g.Value = sum
	g.Share = format.Share(sum, t.Total)
}
