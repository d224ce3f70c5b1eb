package export

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/datasync"
	"github.com/aapslab/report-atlas/pkg/services/reconcile"
	"github.com/aapslab/report-atlas/pkg/services/report"
)

// TableConfig bounds the width of rendered columns.
type TableConfig struct {
	MaxColumnWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{MaxColumnWidth: 48}
}

type table struct {
	Title  string
	Header []string
	Rows   [][]string
}

const tableTemplate = `
{{.Title}}
{{separator}}
{{formatRow .Header}}
{{separator}}
{{range .Rows}}{{formatRow .}}
{{end}}{{separator}}
`

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Entities(entities []domain.Entity) error {
	t := table{Title: "Entidades", Header: []string{"EPSA", "Nombre", "Categoría", "Tipo", "Régimen"}}
	for _, e := range entities {
		t.Rows = append(t.Rows, []string{e.Code, e.Name, string(e.Category), e.Type, string(e.Regime())})
	}
	return c.render(t)
}

func (c *Reporter) Orders(epsa string, year int, orders []int) error {
	t := table{Title: fmt.Sprintf("Órdenes %s %d", epsa, year), Header: []string{"Orden"}}
	for _, o := range orders {
		t.Rows = append(t.Rows, []string{strconv.Itoa(o)})
	}
	return c.render(t)
}

// Plan prints every section of a plan with the same cell text used by the grid.
func (c *Reporter) Plan(entity domain.Entity, key domain.PlanKey, tables *domain.PlanTables) error {
	if _, err := fmt.Fprintf(c.writer, "%s - %s (gestión %d, orden %d)\n", entity.Code, entity.Name, key.Year, key.Order); err != nil {
		return err
	}
	for _, lt := range tables.All() {
		if err := c.render(lineItems(lt)); err != nil {
			return err
		}
	}
	return nil
}

func lineItems(lt *domain.LineItemTable) table {
	t := table{Title: strings.ToUpper(string(lt.Section)), Header: []string{"Concepto", "Valor", "%", "Unidad"}}
	for _, r := range lt.Rows {
		share := ""
		if lt.HasShares {
			share = format.NullPercent(r.Share)
		}
		label := r.Label
		for _, f := range lt.Edited {
			if f == r.Field {
				label += " *"
			}
		}
		t.Rows = append(t.Rows, []string{label, reconcile.CellText(lt, r), share, r.Unit})
	}
	for _, g := range lt.Groups {
		t.Rows = append(t.Rows, []string{g.Label, format.Money(g.Value), format.NullPercent(g.Share), ""})
	}
	return t
}

func (c *Reporter) Annual(a *domain.AnnualTables) error {
	header := []string{"Código", "Indicador", "Unidad", "Parámetro"}
	for _, y := range a.Years {
		header = append(header, strconv.Itoa(y))
	}

	for _, group := range []struct {
		title   string
		windows []domain.IndicatorWindow
	}{
		{"Indicadores técnicos", a.Technical},
		{"Indicadores económicos", a.Economic},
	} {
		t := table{Title: group.title, Header: header}
		for _, w := range group.windows {
			row := []string{w.Indicator.Code, w.Indicator.Name, w.Indicator.Unit, w.Range}
			for _, v := range w.Values {
				row = append(row, format.NullMoney(v))
			}
			t.Rows = append(t.Rows, row)
		}
		if err := c.render(t); err != nil {
			return err
		}
	}

	t := table{Title: "Metas de expansión", Header: []string{"Meta", "Unidad", "Plan", "Ejecutado", "Diferencia", "%"}}
	for _, e := range a.Expansion {
		t.Rows = append(t.Rows, []string{
			e.Label, e.Unit, format.NullMoney(e.Planned), format.NullMoney(e.Executed),
			format.NullMoney(e.Difference), format.NullPercent(e.Percentage),
		})
	}
	return c.render(t)
}

func (c *Reporter) Synced(results []datasync.Result) error {
	t := table{Title: "Datos actualizados", Header: []string{"Libro", "Hoja", "Filas"}}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{r.Dataset.Workbook, r.Dataset.Sheet, strconv.Itoa(r.Rows)})
	}
	return c.render(t)
}

func (c *Reporter) Profile(p domain.Profile) error {
	return c.render(table{
		Title:  "Perfil",
		Header: []string{"Campo", "Valor"},
		Rows: [][]string{
			{"Nombre", p.Name},
			{"Profesión", string(p.Qualification)},
			{"Especialidad", p.Specialty},
			{"Ciudad", p.City},
			{"Último informe", strconv.Itoa(p.LastReportNumber)},
		},
	})
}

func (c *Reporter) Generated(out *report.Output) error {
	_, err := fmt.Fprintf(c.writer, "Informe %03d generado: %s\n", out.Number, out.Location)
	return err
}

func (c *Reporter) render(t table) error {
	widths := make([]int, len(t.Header))
	measure := func(row []string) {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], min(utf8.RuneCountInString(row[i]), c.config.MaxColumnWidth))
			}
		}
	}
	measure(t.Header)
	for _, r := range t.Rows {
		measure(r)
	}

	funcMap := template.FuncMap{
		"formatRow": func(row []string) string {
			cells := make([]string, len(widths))
			for i, w := range widths {
				cell := ""
				if i < len(row) {
					cell = truncate(row[i], w)
				}
				cells[i] = fmt.Sprintf(" %-*s ", w, cell)
			}
			return "|" + strings.Join(cells, "|") + "|"
		},
		"separator": func() string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				parts[i] = strings.Repeat("-", w+2)
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
	}

	tmpl, err := template.New("table").Funcs(funcMap).Parse(tableTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl.Execute(c.writer, t)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
