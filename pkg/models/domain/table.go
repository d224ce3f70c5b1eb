package domain

import (
	"github.com/shopspring/decimal"
)

type SectionKind string

const (
	SectionIncome      SectionKind = "income"
	SectionExpenses    SectionKind = "expenses"
	SectionInvestments SectionKind = "investments"
	SectionExpansion   SectionKind = "expansion"
)

func (s SectionKind) Valid() bool {
	switch s {
	case SectionIncome, SectionExpenses, SectionInvestments, SectionExpansion:
		return true
	}
	return false
}

// SectionData holds the raw numeric fields of one section row keyed by field identifier.
type SectionData map[string]decimal.Decimal

// LineItem is one row of a derived table.
type LineItem struct {
	Field       string
	Label       string
	Placeholder string
	Unit        string
	Bounded     bool // value must stay within [0, 100]
	Value       decimal.Decimal
	Share       decimal.NullDecimal // percentage of the section total; invalid when N/A
}

// GroupAggregate is a named subtotal over a fixed subset of rows.
type GroupAggregate struct {
	Key         string
	Label       string
	Placeholder string
	Members     []string
	Value       decimal.Decimal
	Share       decimal.NullDecimal
}

func (g GroupAggregate) Contains(field string) bool {
	for _, m := range g.Members {
		if m == field {
			return true
		}
	}
	return false
}

// LineItemTable is the derived, editable view of one plan section.
type LineItemTable struct {
	Section   SectionKind
	Regime    Regime
	Key       PlanKey
	Rows      []LineItem
	Groups    []GroupAggregate
	Total     decimal.Decimal
	HasShares bool
	Edited    []string // fields changed by accepted edits, in first-edit order
}

// RowIndex finds a row by display label, falling back to the field identifier.
func (t *LineItemTable) RowIndex(label string) int {
	for i, r := range t.Rows {
		if r.Label == label {
			return i
		}
	}
	for i, r := range t.Rows {
		if r.Field == label {
			return i
		}
	}
	return -1
}

func (t *LineItemTable) Group(key string) (GroupAggregate, bool) {
	for _, g := range t.Groups {
		if g.Key == key {
			return g, true
		}
	}
	return GroupAggregate{}, false
}

func (t *LineItemTable) Values() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(t.Rows))
	for _, r := range t.Rows {
		out[r.Field] = r.Value
	}
	return out
}

func (t *LineItemTable) MarkEdited(field string) {
	for _, f := range t.Edited {
		if f == field {
			return
		}
	}
	t.Edited = append(t.Edited, field)
}

func (t *LineItemTable) Clone() *LineItemTable {
	if t == nil {
		return nil
	}
	c := *t
	c.Rows = append([]LineItem(nil), t.Rows...)
	c.Groups = make([]GroupAggregate, len(t.Groups))
	for i, g := range t.Groups {
		g.Members = append([]string(nil), g.Members...)
		c.Groups[i] = g
	}
	c.Edited = append([]string(nil), t.Edited...)
	return &c
}

// PlanTables groups the derived tables of one plan selection.
type PlanTables struct {
	Income      *LineItemTable
	Expenses    *LineItemTable
	Investments *LineItemTable
	Expansion   *LineItemTable // nil for schema versions without expansion goals
}

func (p *PlanTables) Table(kind SectionKind) *LineItemTable {
	switch kind {
	case SectionIncome:
		return p.Income
	case SectionExpenses:
		return p.Expenses
	case SectionInvestments:
		return p.Investments
	case SectionExpansion:
		return p.Expansion
	}
	return nil
}

func (p *PlanTables) All() []*LineItemTable {
	out := []*LineItemTable{p.Income, p.Expenses, p.Investments}
	if p.Expansion != nil {
		out = append(out, p.Expansion)
	}
	return out
}

// Column of the data entry grid.
type Column string

const (
	ColumnLabel      Column = "label"
	ColumnValue      Column = "value"
	ColumnPercentage Column = "percentage"
	ColumnUnit       Column = "unit"
)

// CellEdit is a single user edit against a derived table.
type CellEdit struct {
	Column Column
	Row    string
	Old    string
	New    string
}

type RejectReason string

const (
	RejectInvalidNumberFormat RejectReason = "invalid_number_format"
	RejectOutOfRange          RejectReason = "out_of_range"
	RejectReadOnlyColumn      RejectReason = "read_only_column"
	RejectUnknownRow          RejectReason = "unknown_row"
)

// RejectedEdit describes why an edit was reverted.
type RejectedEdit struct {
	Reason RejectReason
}

// EditResult reports the outcome of an edit. Text is what the cell displays afterwards:
// the normalized new value when applied, the old text when reverted.
type EditResult struct {
	Applied  bool
	Text     string
	Rejected *RejectedEdit
}

// Narrative carries the free-text analysis blocks of an operating plan report.
type Narrative struct {
	Income      string
	Expenses    string
	Investments string
	Expansion   string
}
