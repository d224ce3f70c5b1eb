// Package schema holds the versioned field descriptors of operating plan sections.
package schema

import (
	"fmt"

	"github.com/aapslab/report-atlas/pkg/models/domain"
)

type Version int

const (
	V1 Version = 1 // income, expenses, investments
	V2 Version = 2 // V1 plus expansion goals

	Latest = V2
)

// Field describes one numeric column of a section.
type Field struct {
	ID          string
	Label       string // empty keeps the raw identifier
	Placeholder string
	Unit        string
	Bounded     bool
}

// DisplayLabel is the verbose label, or the identifier when none is mapped.
func (f Field) DisplayLabel() string {
	if f.Label == "" {
		return f.ID
	}
	return f.Label
}

// Group is a named subtotal over a fixed subset of fields.
type Group struct {
	Key         string
	Label       string
	Placeholder string
	Members     []string
}

// Section is the full descriptor of one section for a regime.
type Section struct {
	Kind      domain.SectionKind
	Sheet     string
	Prefix    string // placeholder prefix, e.g. "in"
	Fields    []Field
	Groups    []Group
	HasShares bool
}

func (s Section) FieldIDs() []string {
	ids := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ids[i] = f.ID
	}
	return ids
}

// Schema is the set of sections available in one dataset version.
type Schema struct {
	Version  Version
	sections map[domain.SectionKind]map[domain.Regime]Section
}

// Section returns the descriptor for kind and regime.
func (s *Schema) Section(kind domain.SectionKind, regime domain.Regime) (Section, error) {
	byRegime, ok := s.sections[kind]
	if !ok {
		return Section{}, fmt.Errorf("section %s is not part of schema v%d", kind, s.Version)
	}
	sec, ok := byRegime[regime]
	if !ok {
		return Section{}, fmt.Errorf("section %s has no layout for regime %s", kind, regime)
	}
	return sec, nil
}

// Kinds lists the sections of this version in report order.
func (s *Schema) Kinds() []domain.SectionKind {
	kinds := []domain.SectionKind{domain.SectionIncome, domain.SectionExpenses, domain.SectionInvestments}
	if _, ok := s.sections[domain.SectionExpansion]; ok {
		kinds = append(kinds, domain.SectionExpansion)
	}
	return kinds
}

// Placeholders enumerates every row and group placeholder key for a regime.
func (s *Schema) Placeholders(regime domain.Regime) []string {
	var keys []string
	for _, kind := range s.Kinds() {
		sec, err := s.Section(kind, regime)
		if err != nil {
			continue
		}
		for _, f := range sec.Fields {
			keys = append(keys, f.Placeholder)
			if sec.HasShares {
				keys = append(keys, f.Placeholder+"_p")
			}
		}
		for _, g := range sec.Groups {
			keys = append(keys, g.Placeholder, g.Placeholder+"_p")
		}
	}
	return keys
}

// Lookup returns the schema registered for a version.
func Lookup(v Version) (*Schema, error) {
	s, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("unsupported schema version %d", v)
	}
	return s, nil
}

var registry = map[Version]*Schema{}

var allRegimes = []domain.Regime{domain.RegimeCooperative, domain.RegimeMunicipal}

type layout struct {
	regimes []domain.Regime
	section Section
}

func shared(sec Section) layout {
	return layout{regimes: allRegimes, section: sec}
}

func only(regime domain.Regime, sec Section) layout {
	return layout{regimes: []domain.Regime{regime}, section: sec}
}

func register(v Version, layouts ...layout) {
	s := &Schema{Version: v, sections: map[domain.SectionKind]map[domain.Regime]Section{}}
	for _, l := range layouts {
		kind := l.section.Kind
		if _, ok := s.sections[kind]; !ok {
			s.sections[kind] = map[domain.Regime]Section{}
		}
		for _, r := range l.regimes {
			s.sections[kind][r] = l.section
		}
	}
	registry[v] = s
}
