package adapters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
	"github.com/shopspring/decimal"
)

// ToDecimal converts a decoded cell to a decimal. ok is false for empty cells.
func ToDecimal(v any) (d decimal.Decimal, ok bool, err error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case json.Number:
		d, err = decimal.NewFromString(n.String())
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	case decimal.Decimal:
		d = n
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err = decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	default:
		err = fmt.Errorf("unsupported cell type %T", v)
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// ToNullDecimal converts a decoded cell, mapping empty cells to an invalid value.
func ToNullDecimal(v any) (decimal.NullDecimal, error) {
	d, ok, err := ToDecimal(v)
	if err != nil || !ok {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// MapStoreRowToSectionData extracts the listed numeric fields of a row. Empty cells
// are left out so the derivation reports them as missing.
func MapStoreRowToSectionData(row store.Row, fields []string) (domain.SectionData, error) {
	data := domain.SectionData{}
	for _, f := range fields {
		v, present := row.Values[f]
		if !present {
			continue
		}
		d, ok, err := ToDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f, err)
		}
		if ok {
			data[f] = d
		}
	}
	return data, nil
}

func MapStoreRowToEntity(row store.Row) (domain.Entity, error) {
	str := func(k string) string {
		if v, ok := row.Values[k]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return ""
	}
	code := str(store.ColumnEPSA)
	if code == "" {
		return domain.Entity{}, fmt.Errorf("entity row %d has no code", row.Index)
	}
	category, err := domain.ParseCategory(str("categoria"))
	if err != nil {
		return domain.Entity{}, fmt.Errorf("entity %s: %w", code, err)
	}
	return domain.Entity{
		Code:     code,
		Name:     str("nombre"),
		Category: category,
		State:    str("departamento"),
		Type:     str("tipo"),
	}, nil
}

// MapSectionDataToStoreValues renders edited values for write-back.
func MapSectionDataToStoreValues(values map[string]decimal.Decimal, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := values[f]; ok {
			out[f] = json.Number(v.String())
		}
	}
	return out
}
