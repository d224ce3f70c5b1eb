// Package reportctx builds the flat placeholder maps handed to the report templates and
// checks them for completeness before rendering.
package reportctx

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/compliance"
	"github.com/aapslab/report-atlas/pkg/services/reconcile"
	"github.com/aapslab/report-atlas/pkg/services/schema"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type TemplateID string

const (
	TemplateCooperativePlan TemplateID = "poa_cooperativa"
	TemplateMunicipalPlan   TemplateID = "poa_municipal"
	TemplateAnnual          TemplateID = "informe_anual"
)

// PlanTemplate selects the operating plan template of a regime.
func PlanTemplate(regime domain.Regime) TemplateID {
	if regime == domain.RegimeCooperative {
		return TemplateCooperativePlan
	}
	return TemplateMunicipalPlan
}

func (id TemplateID) regime() (domain.Regime, bool) {
	switch id {
	case TemplateCooperativePlan:
		return domain.RegimeCooperative, true
	case TemplateMunicipalPlan:
		return domain.RegimeMunicipal, true
	}
	return "", false
}

// Context maps placeholder keys to a string or a []string for repeated paragraphs.
type Context map[string]any

// Keys returns the context keys in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Header is the report metadata shared by every template.
type Header struct {
	Profile domain.Profile
	Number  int
	Date    time.Time
	Entity  domain.Entity
	Legal   domain.LegalReferences
}

// Header keys.
const (
	KeyNumber          = "num"
	KeyCitation        = "cite"
	KeyDay             = "dia"
	KeyMonth           = "mes"
	KeyYear            = "anio"
	KeyCity            = "ciudad"
	KeyDateLine        = "fecha"
	KeyAuthor          = "autor"
	KeyDenomination    = "denom"
	KeySpecialty       = "especialidad"
	KeyPosition        = "cargo"
	KeyEntity          = "epsa"
	KeyEntityName      = "epsa_nombre"
	KeyCategory        = "categoria"
	KeyLegalParagraphs = "parrafos_legales"
	KeyPlanYear        = "gestion"
	KeyOrder           = "orden"
)

var headerKeys = []string{
	KeyNumber, KeyCitation, KeyDay, KeyMonth, KeyYear, KeyCity, KeyDateLine, KeyAuthor,
	KeyDenomination, KeySpecialty, KeyPosition, KeyEntity, KeyEntityName, KeyCategory,
	KeyLegalParagraphs, KeyPlanYear,
}

var narrativeKeys = map[domain.SectionKind]string{
	domain.SectionIncome:      "an_in",
	domain.SectionExpenses:    "an_out",
	domain.SectionInvestments: "an_inv",
	domain.SectionExpansion:   "an_met",
}

// Annual narrative keys.
const (
	KeyTechnicalAnalysis = "an_tec"
	KeyEconomicAnalysis  = "an_eco"
	KeyExpansionAnalysis = "an_met"
)

var months = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month name used in dates and file names.
func MonthName(m time.Month) string {
	return months[m-1]
}

// FormatReportNumber zero pads a report number to three digits.
func FormatReportNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Citation is the agency reference printed at the top of every report.
func Citation(n, year int) string {
	return fmt.Sprintf("AAPS/DER/INF/%s/%d", FormatReportNumber(n), year)
}

var paragraphBreak = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// Paragraphs splits free text on blank lines. Empty text yields a single empty paragraph.
func Paragraphs(text string) []string {
	return paragraphBreak.Split(text, -1)
}

type Builder struct {
	schema *schema.Schema
}

func NewBuilder(s *schema.Schema) *Builder {
	return &Builder{schema: s}
}

// RequiredKeys enumerates every key a template needs.
func (b *Builder) RequiredKeys(id TemplateID) ([]string, error) {
	keys := append([]string(nil), headerKeys...)
	if regime, ok := id.regime(); ok {
		keys = append(keys, KeyOrder)
		keys = append(keys, b.schema.Placeholders(regime)...)
		for _, kind := range b.schema.Kinds() {
			keys = append(keys, narrativeKeys[kind])
		}
		return keys, nil
	}
	if id != TemplateAnnual {
		return nil, fmt.Errorf("unknown template %q", id)
	}

	keys = append(keys, yearKeys...)
	keys = append(keys, indicatorKeys("it", len(compliance.Technical))...)
	keys = append(keys, indicatorKeys("ie", len(compliance.Economic))...)
	keys = append(keys, expansionKeys(expansionRows)...)
	keys = append(keys, KeyTechnicalAnalysis, KeyEconomicAnalysis, KeyExpansionAnalysis)
	return keys, nil
}

func (b *Builder) header(ctx Context, h Header, year int) error {
	denom, err := h.Profile.Qualification.Denomination()
	if err != nil {
		return err
	}
	// casers keep state, one pair per call
	title, upper := cases.Title(language.Spanish), cases.Upper(language.Spanish)

	ctx[KeyNumber] = FormatReportNumber(h.Number)
	ctx[KeyCitation] = Citation(h.Number, h.Date.Year())
	ctx[KeyDay] = strconv.Itoa(h.Date.Day())
	ctx[KeyMonth] = MonthName(h.Date.Month())
	ctx[KeyYear] = strconv.Itoa(h.Date.Year())
	ctx[KeyCity] = h.Profile.City
	ctx[KeyDateLine] = fmt.Sprintf("%s, %d de %s de %d", h.Profile.City, h.Date.Day(), MonthName(h.Date.Month()), h.Date.Year())
	ctx[KeyAuthor] = title.String(denom + " " + h.Profile.Name)
	ctx[KeyDenomination] = denom
	ctx[KeySpecialty] = upper.String(h.Profile.Specialty)
	ctx[KeyPosition] = upper.String(h.Profile.Qualification.Title() + " " + h.Profile.Specialty)
	ctx[KeyEntity] = h.Entity.Code
	ctx[KeyEntityName] = h.Entity.Name
	ctx[KeyCategory] = string(h.Entity.Category)
	ctx[KeyLegalParagraphs] = LegalParagraphs(h.Entity.Code, h.Legal)
	ctx[KeyPlanYear] = strconv.Itoa(year)
	return nil
}

// Plan builds the context of an operating plan report.
func (b *Builder) Plan(h Header, key domain.PlanKey, tables *domain.PlanTables, n domain.Narrative) (Context, error) {
	ctx := Context{}
	if err := b.header(ctx, h, key.Year); err != nil {
		return nil, err
	}
	ctx[KeyOrder] = strconv.Itoa(key.Order)

	texts := map[domain.SectionKind]string{
		domain.SectionIncome:      n.Income,
		domain.SectionExpenses:    n.Expenses,
		domain.SectionInvestments: n.Investments,
		domain.SectionExpansion:   n.Expansion,
	}
	for _, kind := range b.schema.Kinds() {
		table := tables.Table(kind)
		if table == nil {
			return nil, fmt.Errorf("no %s table for plan %s", kind, key)
		}
		for _, row := range table.Rows {
			ctx[row.Placeholder] = reconcile.CellText(table, row)
			if table.HasShares {
				ctx[row.Placeholder+"_p"] = format.NullPercent(row.Share)
			}
		}
		for _, g := range table.Groups {
			ctx[g.Placeholder] = format.Money(g.Value)
			ctx[g.Placeholder+"_p"] = format.NullPercent(g.Share)
		}
		ctx[narrativeKeys[kind]] = Paragraphs(texts[kind])
	}
	return ctx, nil
}

// Annual builds the context of an annual compliance report.
func (b *Builder) Annual(h Header, tables *domain.AnnualTables, n domain.AnnualNarrative) (Context, error) {
	ctx := Context{}
	if err := b.header(ctx, h, tables.Year); err != nil {
		return nil, err
	}
	for i, y := range tables.Years {
		if i < len(yearKeys) {
			ctx[yearKeys[i]] = strconv.Itoa(y)
		}
	}
	indicatorValues(ctx, "it", tables.Technical)
	indicatorValues(ctx, "ie", tables.Economic)
	for i, c := range tables.Expansion {
		p := fmt.Sprintf("me_%d", i+1)
		ctx[p+"_nombre"] = c.Label
		ctx[p+"_unidad"] = c.Unit
		ctx[p+"_plan"] = quantity(c.Planned, c.Unit)
		ctx[p+"_ejec"] = quantity(c.Executed, c.Unit)
		ctx[p+"_dif"] = quantity(c.Difference, c.Unit)
		ctx[p+"_p"] = format.NullPercent(c.Percentage)
	}
	ctx[KeyTechnicalAnalysis] = Paragraphs(n.Technical)
	ctx[KeyEconomicAnalysis] = Paragraphs(n.Economic)
	ctx[KeyExpansionAnalysis] = Paragraphs(n.Expansion)
	return ctx, nil
}

var yearKeys = []string{"y1", "y2", "y3"}

// expansionRows is the number of planned vs executed rows of the annual report.
const expansionRows = 11

func indicatorKeys(prefix string, n int) []string {
	var keys []string
	for i := 1; i <= n; i++ {
		p := fmt.Sprintf("%s_%d", prefix, i)
		keys = append(keys, p+"_nombre", p+"_unidad", p+"_par")
		for _, y := range yearKeys {
			keys = append(keys, p+"_"+y)
		}
	}
	return keys
}

func expansionKeys(n int) []string {
	var keys []string
	for i := 1; i <= n; i++ {
		p := fmt.Sprintf("me_%d", i)
		keys = append(keys, p+"_nombre", p+"_unidad", p+"_plan", p+"_ejec", p+"_dif", p+"_p")
	}
	return keys
}

func indicatorValues(ctx Context, prefix string, windows []domain.IndicatorWindow) {
	for i, w := range windows {
		p := fmt.Sprintf("%s_%d", prefix, i+1)
		ctx[p+"_nombre"] = w.Indicator.Name
		ctx[p+"_unidad"] = w.Indicator.Unit
		ctx[p+"_par"] = w.Range
		for j, v := range w.Values {
			if j < len(yearKeys) {
				ctx[p+"_"+yearKeys[j]] = format.NullMoney(v)
			}
		}
	}
}

// quantity renders percentages with two decimals and counts as whole numbers.
func quantity(d decimal.NullDecimal, unit string) string {
	if unit == "%" || !d.Valid {
		return format.NullMoney(d)
	}
	return format.Count(d.Decimal)
}

// Check reports the required keys that ctx does not define.
func Check(id TemplateID, ctx Context, required []string) error {
	var missing []string
	seen := map[string]bool{}
	for _, k := range required {
		if _, ok := ctx[k]; !ok && !seen[k] {
			seen[k] = true
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &domain.IncompleteContextError{Template: string(id), Missing: missing}
	}
	return nil
}
