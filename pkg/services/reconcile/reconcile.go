// Package reconcile applies single cell edits to derived tables and refreshes the
// aggregates that depend on the edited row.
package reconcile

import (
	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/derive"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyEdit validates edit and, when valid, writes the new value into table and
// recomputes the section total, the edited row's share and every group containing the
// row. Rejected edits leave table untouched.
func ApplyEdit(table *domain.LineItemTable, edit domain.CellEdit) domain.EditResult {
	if edit.Column != domain.ColumnValue {
		return reject(edit, domain.RejectReadOnlyColumn)
	}

	idx := table.RowIndex(edit.Row)
	if idx < 0 {
		return reject(edit, domain.RejectUnknownRow)
	}

	value, err := format.ParseLocale(edit.New)
	if err != nil {
		return reject(edit, domain.RejectInvalidNumberFormat)
	}

	row := &table.Rows[idx]
	if row.Bounded && value.GreaterThan(hundred) {
		return reject(edit, domain.RejectOutOfRange)
	}

	// Unchanged values leave stale shares from earlier edits as they are.
	if row.Value.Equal(value) {
		return domain.EditResult{Applied: true, Text: CellText(table, *row)}
	}
	table.MarkEdited(row.Field)
	row.Value = value

	if table.HasShares {
		table.Total = derive.Total(table)
		row.Share = format.Share(row.Value, table.Total)
		for i := range table.Groups {
			if table.Groups[i].Contains(row.Field) {
				derive.RefreshGroup(table, i)
			}
		}
	}

	return domain.EditResult{Applied: true, Text: CellText(table, *row)}
}

// CellText is the grid text of a row's value cell.
func CellText(table *domain.LineItemTable, row domain.LineItem) string {
	if table.Section == domain.SectionExpansion && row.Unit != "%" {
		return format.Count(row.Value)
	}
	return format.Money(row.Value)
}

func reject(edit domain.CellEdit, reason domain.RejectReason) domain.EditResult {
	return domain.EditResult{
		Text:     edit.Old,
		Rejected: &domain.RejectedEdit{Reason: reason},
	}
}
