package compliance

import (
	"github.com/aapslab/report-atlas/pkg/models/domain"
	"github.com/aapslab/report-atlas/pkg/models/store"
)

func technical(code, name, unit string) domain.Indicator {
	return domain.Indicator{Code: code, Name: name, Unit: unit, Kind: domain.IndicatorTechnical}
}

func economic(code, name, unit string) domain.Indicator {
	return domain.Indicator{Code: code, Name: name, Unit: unit, Kind: domain.IndicatorEconomic}
}

// Technical lists the technical indicators in report order.
var Technical = []domain.Indicator{
	technical("IT01", "Cobertura del servicio de agua potable", "%"),
	technical("IT02", "Cobertura del servicio de alcantarillado sanitario", "%"),
	technical("IT03", "Calidad del agua potable suministrada", "%"),
	technical("IT04", "Continuidad por racionamiento", "hr/día"),
	technical("IT05", "Cobertura de micromedición", "%"),
	technical("IT06", "Dotación", "l/hab/día"),
	technical("IT07", "Agua no contabilizada en producción", "%"),
	technical("IT08", "Agua no contabilizada en red", "%"),
	technical("IT09", "Uso eficiente del recurso", "%"),
	technical("IT10", "Capacidad instalada de potabilización", "%"),
	technical("IT11", "Capacidad instalada de tratamiento de aguas residuales", "%"),
	technical("IT12", "Tratamiento de aguas residuales", "%"),
	technical("IT13", "Densidad de fallas en tuberías de agua potable", "fallas/100 km"),
	technical("IT14", "Densidad de fallas en conexiones de agua potable", "fallas/1000 conex."),
	technical("IT15", "Densidad de fallas en colectores de alcantarillado", "fallas/100 km"),
	technical("IT16", "Densidad de fallas en conexiones de alcantarillado", "fallas/1000 conex."),
	technical("IT17", "Presión del servicio", "%"),
	technical("IT18", "Atención de reclamos", "%"),
	technical("IT19", "Personal por cada mil conexiones", "emp./1000 conex."),
	technical("IT20", "Control de calidad del agua", "%"),
	technical("IT21", "Rehabilitación de redes de agua potable", "%"),
	technical("IT22", "Rehabilitación de redes de alcantarillado", "%"),
}

// Economic lists the economic indicators in report order.
var Economic = []domain.Indicator{
	economic("IE01", "Eficiencia de recaudación", "%"),
	economic("IE02", "Prueba ácida", "veces"),
	economic("IE03", "Endeudamiento", "%"),
	economic("IE04", "Costo operativo unitario", "Bs/m3"),
	economic("IE05", "Tarifa media", "Bs/m3"),
	economic("IE06", "Margen operativo", "%"),
	economic("IE07", "Índice de operación", "%"),
	economic("IE08", "Periodo de cobro", "días"),
	economic("IE09", "Rentabilidad sobre activos", "%"),
	economic("IE10", "Cobertura del servicio de la deuda", "veces"),
}

// executedSource maps an expansion goal to the measurement column that holds its
// executed value.
type executedSource struct {
	workbook string
	sheet    string
	column   string
}

var executedSources = map[string]executedSource{
	"pob_total":       {store.WorkbookMeasurements, store.SheetVariables, "pob_total"},
	"pob_serv_agua":   {store.WorkbookMeasurements, store.SheetVariables, "pob_agua"},
	"pob_serv_alc":    {store.WorkbookMeasurements, store.SheetVariables, "pob_alc"},
	"con_agua":        {store.WorkbookMeasurements, store.SheetVariables, "con_agua"},
	"con_alc":         {store.WorkbookMeasurements, store.SheetVariables, "con_alc"},
	"con_agua_nuevas": {store.WorkbookReports, store.SheetHistorical, "con_agua_nuevas"},
	"con_alc_nuevas":  {store.WorkbookReports, store.SheetHistorical, "con_alc_nuevas"},
	"cob_agua":        {store.WorkbookMeasurements, store.SheetComputedIndicators, "IT01"},
	"cob_alc":         {store.WorkbookMeasurements, store.SheetComputedIndicators, "IT02"},
	"micromedicion":   {store.WorkbookMeasurements, store.SheetComputedIndicators, "IT05"},
	"anc":             {store.WorkbookMeasurements, store.SheetComputedIndicators, "IT07"},
}
