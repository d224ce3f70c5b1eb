package adapters

import (
	"github.com/aapslab/report-atlas/pkg/format"
	"github.com/aapslab/report-atlas/pkg/models/api"
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/reconcile"
)

func MapDomainEntityToApi(e domain.Entity) api.Entity {
	return api.Entity{
		Code:     e.Code,
		Name:     e.Name,
		Category: string(e.Category),
		State:    e.State,
		Type:     e.Type,
		Regime:   string(e.Regime()),
	}
}

// MapDomainTableToApi renders a table with the same text shown in the report.
func MapDomainTableToApi(t *domain.LineItemTable) api.Table {
	out := api.Table{
		Section: string(t.Section),
		Rows:    make([]api.LineItem, len(t.Rows)),
		Edited:  t.Edited,
	}
	for i, r := range t.Rows {
		item := api.LineItem{Field: r.Field, Label: r.Label, Value: reconcile.CellText(t, r), Unit: r.Unit}
		if t.HasShares {
			item.Percentage = format.NullPercent(r.Share)
		}
		out.Rows[i] = item
	}
	for _, g := range t.Groups {
		out.Groups = append(out.Groups, api.Group{
			Key: g.Key, Label: g.Label, Value: format.Money(g.Value), Percentage: format.NullPercent(g.Share),
		})
	}
	if t.HasShares {
		out.Total = format.Money(t.Total)
	}
	return out
}

func MapDomainProfileToApi(p domain.Profile) api.Profile {
	return api.Profile{
		Name:             p.Name,
		Qualification:    string(p.Qualification),
		Specialty:        p.Specialty,
		City:             p.City,
		LastReportNumber: p.LastReportNumber,
	}
}

func MapApiProfileToDomain(p api.Profile) domain.Profile {
	return domain.Profile{
		Name:             p.Name,
		Qualification:    domain.Qualification(p.Qualification),
		Specialty:        p.Specialty,
		City:             p.City,
		LastReportNumber: p.LastReportNumber,
	}
}

// MapApiAuthorToDomain maps an optional request author; nil stays nil.
func MapApiAuthorToDomain(p *api.Profile) *domain.Profile {
	if p == nil {
		return nil
	}
	author := MapApiProfileToDomain(*p)
	return &author
}

func MapApiNarrativeToDomain(n api.Narrative) domain.Narrative {
	return domain.Narrative{
		Income:      n.Income,
		Expenses:    n.Expenses,
		Investments: n.Investments,
		Expansion:   n.Expansion,
	}
}

func MapApiAnnualNarrativeToDomain(n api.AnnualNarrative) domain.AnnualNarrative {
	return domain.AnnualNarrative{
		Technical: n.Technical,
		Economic:  n.Economic,
		Expansion: n.Expansion,
	}
}
