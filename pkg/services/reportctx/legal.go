package reportctx

import (
	"fmt"

	"github.com/aapslab/report-atlas/pkg/models/domain"
)

// directlyRegulated lists the entities reporting under a granted operating licence.
var directlyRegulated = map[string]bool{
	"AAPOS":         true,
	"COOPAGUAS":     true,
	"COSAALT":       true,
	"COSMOL":        true,
	"COSPHUL":       true,
	"ELAPAS":        true,
	"EMAPYC":        true,
	"EMSABAV":       true,
	"EPSA MANCHACO": true,
	"EPSAS":         true,
	"SAGUAPAC":      true,
	"SEAPAS":        true,
	"SELA":          true,
	"SEMAPA":        true,
}

const (
	paragraphRegulated = "La EPSA %s se encuentra bajo regulación directa de la Autoridad de Fiscalización " +
		"y Control Social de Agua Potable y Saneamiento Básico (AAPS), en el marco de la Ley N° 2066 de " +
		"Prestación y Utilización de Servicios de Agua Potable y Alcantarillado Sanitario."
	paragraphAdequacy = "La EPSA %s se encuentra en proceso de adecuación ante la Autoridad de Fiscalización " +
		"y Control Social de Agua Potable y Saneamiento Básico (AAPS), por lo que el presente informe forma " +
		"parte del seguimiento regulatorio a los operadores que aún no cuentan con licencia."
	paragraphLicense = "Mediante Resolución Administrativa Regulatoria %s, la AAPS otorgó Licencia a la EPSA %s " +
		"para la prestación de los servicios de agua potable y alcantarillado sanitario."
	paragraphCircular = "En cumplimiento de la Circular %s, la EPSA %s remitió a la AAPS la información " +
		"requerida para el seguimiento regulatorio de la gestión."
)

// LegalParagraphs returns the boilerplate paragraphs of an entity: the regulation
// status paragraph, then the licence and circular paragraphs when references exist.
func LegalParagraphs(code string, refs domain.LegalReferences) []string {
	out := make([]string, 0, 3)
	if directlyRegulated[code] {
		out = append(out, fmt.Sprintf(paragraphRegulated, code))
	} else {
		out = append(out, fmt.Sprintf(paragraphAdequacy, code))
	}
	if refs.License != "" {
		out = append(out, fmt.Sprintf(paragraphLicense, refs.License, code))
	}
	if refs.Circular != "" {
		out = append(out, fmt.Sprintf(paragraphCircular, refs.Circular, code))
	}
	return out
}
