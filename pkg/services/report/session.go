package report

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/services/reconcile"
)

// Selection picks one operating plan submission.
type Selection struct {
	EPSA  string `json:"epsa" validate:"required"`
	Year  int    `json:"year" validate:"gt=1990"`
	Order int    `json:"order" validate:"gt=0"`
}

func (s Selection) Key() domain.PlanKey {
	return domain.PlanKey{EPSA: s.EPSA, Year: s.Year, Order: s.Order}
}

// Session holds the editable tables of one opened plan.
type Session struct {
	ID     string
	Entity domain.Entity
	Key    domain.PlanKey
	Legal  domain.LegalReferences

	mu     sync.Mutex
	tables *domain.PlanTables
}

func NewSession(id string, entity domain.Entity, key domain.PlanKey, legal domain.LegalReferences, tables *domain.PlanTables) *Session {
	return &Session{ID: id, Entity: entity, Key: key, Legal: legal, tables: tables}
}

// ApplyEdit applies edit to the table of section. The section is always explicit so
// edits never leak across tables.
func (s *Session) ApplyEdit(section domain.SectionKind, edit domain.CellEdit) (domain.EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.tables.Table(section)
	if table == nil {
		return domain.EditResult{}, fmt.Errorf("plan %s has no %s section", s.Key, section)
	}
	return reconcile.ApplyEdit(table, edit), nil
}

// Tables returns a copy of the current tables.
func (s *Session) Tables() *domain.PlanTables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePlan(s.tables)
}

// clearEdits drops the edit marks that written carried, except for fields whose value
// changed again after written was taken.
func (s *Session) clearEdits(written *domain.PlanTables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range written.All() {
		live := s.tables.Table(w.Section)
		if live == nil || len(w.Edited) == 0 {
			continue
		}
		saved, current := w.Values(), live.Values()
		var kept []string
		for _, field := range live.Edited {
			if slices.Contains(w.Edited, field) && current[field].Equal(saved[field]) {
				continue
			}
			kept = append(kept, field)
		}
		live.Edited = kept
	}
}

func clonePlan(p *domain.PlanTables) *domain.PlanTables {
	return &domain.PlanTables{
		Income:      p.Income.Clone(),
		Expenses:    p.Expenses.Clone(),
		Investments: p.Investments.Clone(),
		Expansion:   p.Expansion.Clone(),
	}
}
