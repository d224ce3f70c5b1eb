package domain

import "github.com/shopspring/decimal"

type IndicatorKind string

const (
	IndicatorTechnical IndicatorKind = "technical"
	IndicatorEconomic  IndicatorKind = "economic"
)

// Indicator is a catalogued performance indicator.
type Indicator struct {
	Code string // IT01
	Name string
	Unit string
	Kind IndicatorKind
}

// ParamRange is the acceptable range of an indicator for one entity category.
type ParamRange struct {
	Min decimal.NullDecimal
	Max decimal.NullDecimal
}

// IndicatorWindow is a trailing window of measured values for one indicator.
type IndicatorWindow struct {
	Indicator Indicator
	Range     string // descriptor, e.g. "entre 80 y 100"
	Years     []int
	Values    []decimal.NullDecimal
}

// ExpansionComparison is one planned-vs-executed expansion goal row.
type ExpansionComparison struct {
	Field      string
	Label      string
	Unit       string
	Planned    decimal.NullDecimal
	Executed   decimal.NullDecimal
	Difference decimal.NullDecimal
	Percentage decimal.NullDecimal
}

// AnnualTables is the derived content of an annual compliance report.
type AnnualTables struct {
	Entity    Entity
	Year      int
	Years     []int
	Technical []IndicatorWindow
	Economic  []IndicatorWindow
	Expansion []ExpansionComparison
}

// AnnualNarrative carries the free-text analysis blocks of an annual compliance report.
type AnnualNarrative struct {
	Technical string
	Economic  string
	Expansion string
}
