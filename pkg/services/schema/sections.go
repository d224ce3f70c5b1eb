package schema

import "github.com/aapslab/report-atlas/pkg/models/domain"

// Sheet names inside an operating plan workbook.
const (
	SheetGeneral     = "general"
	SheetIncome      = "ingresos"
	SheetExpenses    = "gastos"
	SheetInvestments = "inversiones"
	SheetExpansion   = "metas_expansion"
)

// Group keys.
const (
	GroupOperatingIncome     = "operating_income"
	GroupNonOperatingIncome  = "non_operating_income"
	GroupTotalIncome         = "total_income"
	GroupOperatingCosts      = "operating_costs"
	GroupAdministrativeCosts = "administrative_costs"
	GroupPersonnelServices   = "personnel_services"
	GroupTotalExpenses       = "total_expenses"
	GroupTotalInvestment     = "total_investment"
)

var income = Section{
	Kind:      domain.SectionIncome,
	Sheet:     SheetIncome,
	Prefix:    "in",
	HasShares: true,
	Fields: []Field{
		{ID: "ing_op_ap", Label: "Servicio de agua potable", Placeholder: "in_1"},
		{ID: "ing_op_alc", Label: "Servicio de alcantarillado sanitario", Placeholder: "in_2"},
		{ID: "ing_op_alc_pozo", Label: "Vaciado de cámaras sépticas y pozos", Placeholder: "in_3"},
		{ID: "ing_op_otros", Label: "Otros ingresos operativos", Placeholder: "in_4"},
		{ID: "ing_no_op_financiero", Label: "Ingresos financieros", Placeholder: "in_5"},
		{ID: "ing_no_op_otros", Label: "Otros ingresos no operativos", Placeholder: "in_6"},
	},
	Groups: []Group{
		{
			Key: GroupOperatingIncome, Label: "Ingresos operativos", Placeholder: "in_op",
			Members: []string{"ing_op_ap", "ing_op_alc", "ing_op_alc_pozo", "ing_op_otros"},
		},
		{
			Key: GroupNonOperatingIncome, Label: "Ingresos no operativos", Placeholder: "in_no_op",
			Members: []string{"ing_no_op_financiero", "ing_no_op_otros"},
		},
		{
			Key: GroupTotalIncome, Label: "Total ingresos", Placeholder: "in_total",
			Members: []string{
				"ing_op_ap", "ing_op_alc", "ing_op_alc_pozo", "ing_op_otros",
				"ing_no_op_financiero", "ing_no_op_otros",
			},
		},
	},
}

var cooperativeExpenses = Section{
	Kind:      domain.SectionExpenses,
	Sheet:     SheetExpenses,
	Prefix:    "out",
	HasShares: true,
	Fields: []Field{
		{ID: "costo_operacion", Label: "Costos de operación", Placeholder: "out_1"},
		{ID: "costo_mantenimiento", Label: "Costos de mantenimiento", Placeholder: "out_2"},
		{ID: "gasto_administrativo", Label: "Gastos administrativos", Placeholder: "out_3"},
		{ID: "gasto_comercial", Label: "Gastos comerciales", Placeholder: "out_4"},
		{ID: "gasto_financiero", Label: "Gastos financieros", Placeholder: "out_5"},
	},
	Groups: []Group{
		{
			Key: GroupOperatingCosts, Label: "Costos operativos", Placeholder: "costos",
			Members: []string{"costo_operacion", "costo_mantenimiento"},
		},
		{
			Key: GroupAdministrativeCosts, Label: "Gastos de administración, comercialización y financieros",
			Placeholder: "gastos_adm",
			Members:     []string{"gasto_administrativo", "gasto_comercial", "gasto_financiero"},
		},
		{
			Key: GroupTotalExpenses, Label: "Total gastos", Placeholder: "gastos",
			Members: []string{
				"costo_operacion", "costo_mantenimiento",
				"gasto_administrativo", "gasto_comercial", "gasto_financiero",
			},
		},
	},
}

var municipalExpenses = Section{
	Kind:      domain.SectionExpenses,
	Sheet:     SheetExpenses,
	Prefix:    "out",
	HasShares: true,
	Fields: []Field{
		{ID: "serv_pers_permanente", Label: "Personal permanente", Placeholder: "out_1"},
		{ID: "serv_pers_eventual", Label: "Personal eventual", Placeholder: "out_2"},
		{ID: "serv_pers_aportes", Label: "Previsión social y aportes", Placeholder: "out_3"},
		{ID: "serv_no_personales", Label: "Servicios no personales", Placeholder: "out_4"},
		{ID: "materiales_suministros", Label: "Materiales y suministros", Placeholder: "out_5"},
		{ID: "activos_reales", Label: "Activos reales", Placeholder: "out_6"},
		{ID: "deuda_publica", Label: "Servicio de la deuda pública", Placeholder: "out_7"},
		{ID: "transferencias", Label: "Transferencias", Placeholder: "out_8"},
		{ID: "impuestos", Label: "Impuestos, regalías y tasas", Placeholder: "out_9"},
		{ID: "otros_gastos", Label: "Otros gastos", Placeholder: "out_10"},
	},
	Groups: []Group{
		{
			Key: GroupPersonnelServices, Label: "Servicios personales", Placeholder: "serv_pers",
			Members: []string{"serv_pers_permanente", "serv_pers_eventual", "serv_pers_aportes"},
		},
		{
			Key: GroupTotalExpenses, Label: "Total gastos", Placeholder: "gastos",
			Members: []string{
				"serv_pers_permanente", "serv_pers_eventual", "serv_pers_aportes",
				"serv_no_personales", "materiales_suministros", "activos_reales",
				"deuda_publica", "transferencias", "impuestos", "otros_gastos",
			},
		},
	},
}

var investments = Section{
	Kind:      domain.SectionInvestments,
	Sheet:     SheetInvestments,
	Prefix:    "inv",
	HasShares: true,
	Fields: []Field{
		{ID: "inv_agua", Label: "Infraestructura de agua potable", Placeholder: "inv_1"},
		{ID: "inv_alcantarillado", Label: "Infraestructura de alcantarillado sanitario", Placeholder: "inv_2"},
		{ID: "inv_equipamiento", Label: "Equipamiento", Placeholder: "inv_3"},
		{ID: "inv_estudios", Label: "Estudios y diseños", Placeholder: "inv_4"},
		{ID: "inv_otros", Label: "Otras inversiones", Placeholder: "inv_5"},
	},
	Groups: []Group{
		{
			Key: GroupTotalInvestment, Label: "Total inversiones", Placeholder: "inversiones",
			Members: []string{"inv_agua", "inv_alcantarillado", "inv_equipamiento", "inv_estudios", "inv_otros"},
		},
	},
}

var expansion = Section{
	Kind:   domain.SectionExpansion,
	Sheet:  SheetExpansion,
	Prefix: "met",
	Fields: []Field{
		{ID: "pob_total", Label: "Población total del área de servicio", Placeholder: "met_1", Unit: "hab."},
		{ID: "pob_serv_agua", Label: "Población servida con agua potable", Placeholder: "met_2", Unit: "hab."},
		{ID: "pob_serv_alc", Label: "Población servida con alcantarillado", Placeholder: "met_3", Unit: "hab."},
		{ID: "con_agua", Label: "Conexiones de agua potable", Placeholder: "met_4", Unit: "conex."},
		{ID: "con_alc", Label: "Conexiones de alcantarillado", Placeholder: "met_5", Unit: "conex."},
		{ID: "con_agua_nuevas", Label: "Nuevas conexiones de agua potable", Placeholder: "met_6", Unit: "conex."},
		{ID: "con_alc_nuevas", Label: "Nuevas conexiones de alcantarillado", Placeholder: "met_7", Unit: "conex."},
		{ID: "cob_agua", Label: "Cobertura de agua potable", Placeholder: "met_8", Unit: "%", Bounded: true},
		{ID: "cob_alc", Label: "Cobertura de alcantarillado", Placeholder: "met_9", Unit: "%", Bounded: true},
		{ID: "micromedicion", Label: "Índice de micromedición", Placeholder: "met_10", Unit: "%", Bounded: true},
		{ID: "anc", Label: "Agua no contabilizada", Placeholder: "met_11", Unit: "%", Bounded: true},
	},
}

func init() {
	register(V1,
		shared(income),
		only(domain.RegimeCooperative, cooperativeExpenses),
		only(domain.RegimeMunicipal, municipalExpenses),
		shared(investments),
	)
	register(V2,
		shared(income),
		only(domain.RegimeCooperative, cooperativeExpenses),
		only(domain.RegimeMunicipal, municipalExpenses),
		shared(investments),
		shared(expansion),
	)
}
