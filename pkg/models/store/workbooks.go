package store

// Workbooks of the local dataset cache.
const (
	WorkbookRegistry     = "registro"
	WorkbookCooperatives = "poa_cooperativas"
	WorkbookMunicipal    = "poa_municipales"
	WorkbookIndicators   = "indicadores"
	WorkbookMeasurements = "mediciones"
	WorkbookReports      = "reportes"
)

// Sheets outside the operating plan workbooks.
const (
	SheetEntities           = "epsas"
	SheetLicenses           = "licencias"
	SheetCirculars          = "circulares"
	SheetTechnical          = "tecnicos"
	SheetEconomic           = "economicos"
	SheetParameters         = "parametros"
	SheetVariables          = "variables"
	SheetComputedIndicators = "indicadores_calculados"
	SheetHistorical         = "historico"
)
