package adapters

import (
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/aapslab/report-atlas/pkg/store/aaps"
)

// MapDatasetToSheet turns a downloaded dataset into a cache sheet, keying cells by
// column name.
func MapDatasetToSheet(workbook, sheet string, ds *aaps.Dataset) *store.Sheet {
	out := &store.Sheet{
		Workbook: workbook,
		Sheet:    sheet,
		Columns:  append([]string(nil), ds.Columns...),
		Rows:     make([]store.Row, len(ds.Rows)),
	}
	for i, cells := range ds.Rows {
		values := make(map[string]any, len(ds.Columns))
		for j, col := range ds.Columns {
			if j < len(cells) {
				values[col] = cells[j]
			}
		}
		out.Rows[i] = store.Row{Index: i, Values: values}
	}
	return out
}
