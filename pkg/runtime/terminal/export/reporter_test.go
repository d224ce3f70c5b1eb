package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/datasync"
	"github.com/aapslab/report-atlas/pkg/services/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Entities(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	require.NoError(t, r.Entities([]domain.Entity{
		{Code: "SAGUAPAC", Name: "Cooperativa Santa Cruz", Category: domain.CategoryA, Type: "Cooperativa"},
		{Code: "ELAPAS", Name: "Empresa Local Sucre", Category: domain.CategoryB, Type: "Empresa Municipal"},
	}))

	out := buf.String()
	assert.Contains(t, out, "| SAGUAPAC | Cooperativa Santa Cruz | A         | Cooperativa       | cooperative |")
	assert.Contains(t, out, "| ELAPAS   | Empresa Local Sucre    | B         | Empresa Municipal | municipal   |")
	assert.Contains(t, out, "+----------+------------------------+-----------+-------------------+-------------+")
}

func TestReporter_Plan(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	income := &domain.LineItemTable{
		Section:   domain.SectionIncome,
		HasShares: true,
		Total:     decimal.NewFromInt(2000),
		Rows: []domain.LineItem{
			{Field: "a", Label: "Agua", Value: decimal.NewFromInt(1500), Share: decimal.NullDecimal{Decimal: decimal.NewFromInt(75), Valid: true}},
			{Field: "b", Label: "Alcantarillado", Value: decimal.NewFromInt(500), Share: decimal.NullDecimal{Decimal: decimal.NewFromInt(25), Valid: true}},
		},
		Edited: []string{"b"},
	}
	tables := &domain.PlanTables{Income: income, Expenses: &domain.LineItemTable{Section: domain.SectionExpenses}, Investments: &domain.LineItemTable{Section: domain.SectionInvestments}}

	require.NoError(t, r.Plan(domain.Entity{Code: "EPSAS", Name: "EPSAS"}, domain.PlanKey{EPSA: "EPSAS", Year: 2024, Order: 2}, tables))

	out := buf.String()
	assert.Contains(t, out, "gestión 2024, orden 2")
	assert.Contains(t, out, "INCOME")
	assert.Contains(t, out, "| Agua             | 1,500.00 | 75.00 |")
	assert.Contains(t, out, "| Alcantarillado * | 500.00   | 25.00 |")
	assert.Contains(t, out, "EXPENSES")
}

func TestReporter_Annual(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	require.NoError(t, r.Annual(&domain.AnnualTables{
		Years: []int{2022, 2023, 2024},
		Technical: []domain.IndicatorWindow{{
			Indicator: domain.Indicator{Code: "IT01", Name: "Cobertura de agua", Unit: "%"},
			Range:     "entre 90 y 100",
			Values:    []decimal.NullDecimal{{}, {Decimal: decimal.RequireFromString("91.2"), Valid: true}, {}},
		}},
		Expansion: []domain.ExpansionComparison{{Label: "Conexiones de agua", Unit: "conexiones"}},
	}))

	out := buf.String()
	assert.Contains(t, out, "| 2022 | 2023  | 2024 |")
	assert.Contains(t, out, "| -    | 91.20 | -    |")
	assert.Contains(t, out, "Conexiones de agua")
}

func TestReporter_Misc(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	require.NoError(t, r.Synced([]datasync.Result{{Dataset: datasync.Dataset{Workbook: "registro", Sheet: "epsas"}, Rows: 12}}))
	require.NoError(t, r.Profile(domain.Profile{Name: "Ana", Qualification: domain.QualificationEconomist, LastReportNumber: 4}))
	require.NoError(t, r.Generated(&report.Output{Number: 7, Location: "/tmp/x.docx"}))
	require.NoError(t, r.Orders("EPSAS", 2024, []int{1, 2}))

	out := buf.String()
	assert.Contains(t, out, "| registro | epsas | 12    |")
	assert.Contains(t, out, "| Último informe | 4         |")
	assert.Contains(t, out, "Informe 007 generado: /tmp/x.docx")
	assert.Contains(t, out, "Órdenes EPSAS 2024")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, strings.Repeat("x", 47)+"…", truncate(strings.Repeat("x", 60), 48))
}
