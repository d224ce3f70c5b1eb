package api

type Entity struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	State    string `json:"state"`
	Type     string `json:"type"`
	Regime   string `json:"regime"`
}

type SessionRequest struct {
	EPSA  string `json:"epsa"`
	Year  int    `json:"year"`
	Order int    `json:"order"`
}

type LineItem struct {
	Field      string `json:"field"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	Percentage string `json:"percentage,omitempty"`
	Unit       string `json:"unit,omitempty"`
}

type Group struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	Percentage string `json:"percentage"`
}

type Table struct {
	Section string     `json:"section"`
	Rows    []LineItem `json:"rows"`
	Groups  []Group    `json:"groups,omitempty"`
	Total   string     `json:"total,omitempty"`
	Edited  []string   `json:"edited,omitempty"`
}

type Session struct {
	ID     string  `json:"id"`
	Entity Entity  `json:"entity"`
	Year   int     `json:"year"`
	Order  int     `json:"order"`
	Tables []Table `json:"tables"`
}

type EditRequest struct {
	Section string `json:"section"`
	Column  string `json:"column"`
	Row     string `json:"row"`
	Old     string `json:"old"`
	New     string `json:"new"`
}

type EditResponse struct {
	Applied bool   `json:"applied"`
	Text    string `json:"text"`
	Reason  string `json:"reason,omitempty"`
	Table   Table  `json:"table"`
}

type Narrative struct {
	Income      string `json:"income"`
	Expenses    string `json:"expenses"`
	Investments string `json:"investments"`
	Expansion   string `json:"expansion"`
}

type ReportRequest struct {
	Date      string    `json:"date,omitempty"` // YYYY-MM-DD
	Number    int       `json:"number,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Author    *Profile  `json:"author,omitempty"`
	Narrative Narrative `json:"narrative"`
}

type ReportResponse struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Number   int    `json:"number"`
}

type Profile struct {
	Name             string `json:"name"`
	Qualification    string `json:"qualification"`
	Specialty        string `json:"specialty"`
	City             string `json:"city"`
	LastReportNumber int    `json:"last_report_number"`
}

type Error struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

type AnnualNarrative struct {
	Technical string `json:"technical"`
	Economic  string `json:"economic"`
	Expansion string `json:"expansion"`
}

type AnnualReportRequest struct {
	EPSA      string          `json:"epsa"`
	Year      int             `json:"year"`
	Date      string          `json:"date,omitempty"` // YYYY-MM-DD
	Number    int             `json:"number,omitempty"`
	Filename  string          `json:"filename,omitempty"`
	Author    *Profile        `json:"author,omitempty"`
	Narrative AnnualNarrative `json:"narrative"`
}
