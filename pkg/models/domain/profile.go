package domain

import "fmt"

type Qualification string

const (
	QualificationEngineer  Qualification = "engineer"
	QualificationEconomist Qualification = "economist"
)

var qualificationDenominations = map[Qualification]string{
	QualificationEngineer:  "Ing.",
	QualificationEconomist: "Lic.",
}

var qualificationTitles = map[Qualification]string{
	QualificationEngineer:  "Ingeniero",
	QualificationEconomist: "Económico",
}

// Denomination returns the honorific abbreviation printed before the author name.
func (q Qualification) Denomination() (string, error) {
	d, ok := qualificationDenominations[q]
	if !ok {
		return "", fmt.Errorf("unknown qualification %q", q)
	}
	return d, nil
}

func (q Qualification) Title() string {
	return qualificationTitles[q]
}

// Profile is the persisted report author identity.
type Profile struct {
	Name             string        `validate:"required"`
	Qualification    Qualification `validate:"required,oneof=engineer economist"`
	Specialty        string
	City             string
	LastReportNumber int `validate:"gte=0,lte=999"`
}
