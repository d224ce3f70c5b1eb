package store

import "time"

// Key columns recognised in every sheet.
const (
	ColumnEPSA  = "epsa"
	ColumnYear  = "year"
	ColumnOrder = "order"
)

// Row is one spreadsheet row with its named cells. Numbers decode as json.Number.
type Row struct {
	Index  int
	Values map[string]any
}

// Sheet is an ordered set of rows sharing one column layout.
type Sheet struct {
	Workbook string
	Sheet    string
	Columns  []string
	Rows     []Row
}

// Filter narrows a sheet read to rows matching the non-nil key parts.
type Filter struct {
	EPSA  *string
	Year  *int
	Order *int
}

func ByEPSA(epsa string) Filter {
	return Filter{EPSA: &epsa}
}

func ByEPSAYear(epsa string, year int) Filter {
	return Filter{EPSA: &epsa, Year: &year}
}

func ByPlan(epsa string, year, order int) Filter {
	return Filter{EPSA: &epsa, Year: &year, Order: &order}
}

// RowKey addresses a single row for write-back.
type RowKey struct {
	EPSA  string
	Year  int
	Order int
}

type SyncState struct {
	Workbook  string
	Sheet     string
	RowCount  int
	FetchedAt time.Time
}
