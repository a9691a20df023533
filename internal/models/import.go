package models

// ImportRow is one parsed spreadsheet row of the bulk project upload.
// Date cells keep their raw text so validation can report what was actually
// written; list-valued cells (students, advisors) are semicolon separated.
type ImportRow struct {
	Index      int
	Title      string
	Modality   string
	StatusName string
	Program    string
	StartDate  string
	EndDate    string
	Summary    string
	Objectives string
	Company    string
	Students   []string
	Advisors   []string
}

// ImportRowOutcome is the transient per-row result of a bulk import. It is
// produced and consumed within a single import invocation and never persisted.
type ImportRowOutcome struct {
	Row      int      `json:"row"`
	Success  bool     `json:"success"`
	Title    string   `json:"title,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

// ImportSummary aggregates the outcome of one bulk import invocation. Row
// ordering always matches the input file.
type ImportSummary struct {
	TotalRows int                `json:"total_rows"`
	Imported  int                `json:"imported"`
	Failed    int                `json:"failed"`
	Rows      []ImportRowOutcome `json:"rows"`
}
