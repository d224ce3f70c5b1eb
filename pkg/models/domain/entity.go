package domain

import (
	"fmt"
	"strings"
)

// Regime selects the expense schema an entity reports under.
type Regime string

const (
	RegimeCooperative Regime = "cooperative"
	RegimeMunicipal   Regime = "municipal"
)

// Category is the utility size classification (A-D) used for indicator thresholds.
type Category string

const (
	CategoryA Category = "A"
	CategoryB Category = "B"
	CategoryC Category = "C"
	CategoryD Category = "D"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryA, CategoryB, CategoryC, CategoryD:
		return c, nil
	default:
		return "", fmt.Errorf("unknown entity category %q", s)
	}
}

// Entity is a regulated water/sanitation utility (EPSA).
type Entity struct {
	Code     string   // SAGUAPAC
	Name     string   // Cooperativa de Servicios Públicos Santa Cruz
	Category Category // A
	State    string   // Santa Cruz
	Type     string   // Cooperativa
}

// Regime derives the financial reporting regime from the entity type. Cooperatives,
// associations and committees report under the cooperative schema, every other
// type (municipal companies, municipal governments, commonwealths) as municipal.
func (e Entity) Regime() Regime {
	t := strings.ToLower(e.Type)
	for _, prefix := range []string{"coop", "asoc", "comit"} {
		if strings.HasPrefix(t, prefix) {
			return RegimeCooperative
		}
	}
	return RegimeMunicipal
}

// PlanKey identifies one operating plan submission.
type PlanKey struct {
	EPSA  string
	Year  int
	Order int
}

func (k PlanKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.EPSA, k.Year, k.Order)
}

// LegalReferences are the auxiliary registry rows that add boilerplate paragraphs.
type LegalReferences struct {
	License  string // licensing resolution reference, empty if none
	Circular string // reporting-obligation circular reference, empty if none
}
