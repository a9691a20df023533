package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
	"github.com/unigrado/grado-api/pkg/export"
)

// importColumns is the exact header the bulk upload file must carry, in order.
var importColumns = []string{
	"titulo",
	"modalidad",
	"estado",
	"programa",
	"fecha_inicio",
	"fecha_fin",
	"resumen",
	"objetivos",
	"empresa",
	"estudiantes",
	"directores",
}

const (
	importDateLayout = "2006-01-02"
	maxPeoplePerCell = 2
)

type importProjectRepository interface {
	CreateWithGraph(ctx context.Context, project *models.Project, actors []models.Actor, entry *models.AuditEntry) error
	ExistsByTitle(ctx context.Context, title string) (bool, error)
}

type importPersonRepository interface {
	FindByDocumentID(ctx context.Context, documentID string) (*models.Person, error)
	Create(ctx context.Context, person *models.Person) error
}

type importCatalogRepository interface {
	FindStatusByName(ctx context.Context, name string) (*models.Status, error)
	FindProgramByName(ctx context.Context, name string) (*models.Program, error)
	FindDegreeOptionByName(ctx context.Context, programID, name string) (*models.DegreeOption, error)
}

// ImportOptions tunes one bulk import invocation.
type ImportOptions struct {
	// CreateMissingPersons controls whether unknown document IDs become new
	// person records or fail the row.
	CreateMissingPersons bool
	// MaxRows caps the accepted file size in data rows; 0 means no cap.
	MaxRows int
}

// ImportService runs the bulk project upload: it parses the CSV file,
// validates and resolves each row against the catalogs and person registry,
// and persists each valid row in its own transaction. One bad row never
// rolls back its neighbours, and the summary preserves file order.
type ImportService struct {
	projects importProjectRepository
	persons  importPersonRepository
	catalogs importCatalogRepository
	table    *TransitionTable
	opts     ImportOptions
	logger   *zap.Logger
}

// NewImportService constructs an ImportService.
func NewImportService(
	projects importProjectRepository,
	persons importPersonRepository,
	catalogs importCatalogRepository,
	table *TransitionTable,
	opts ImportOptions,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		projects: projects,
		persons:  persons,
		catalogs: catalogs,
		table:    table,
		opts:     opts,
		logger:   logger,
	}
}

// Import processes the uploaded CSV and returns the per-row summary. Rows are
// processed strictly in file order; a failed row is reported and skipped.
func (s *ImportService) Import(ctx context.Context, file io.Reader) (*models.ImportSummary, error) {
	rows, err := s.parse(file)
	if err != nil {
		return nil, err
	}

	summary := &models.ImportSummary{
		TotalRows: len(rows),
		Rows:      make([]models.ImportRowOutcome, 0, len(rows)),
	}

	for _, row := range rows {
		outcome := s.importRow(ctx, row)
		if outcome.Success {
			summary.Imported++
		} else {
			summary.Failed++
		}
		summary.Rows = append(summary.Rows, outcome)
	}

	s.logger.Info("bulk import finished",
		zap.Int("total", summary.TotalRows),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// Template returns the downloadable upload template with the expected header
// and one illustrative row.
func (s *ImportService) Template() *export.Dataset {
	return &export.Dataset{
		Headers: importColumns,
		Rows: []map[string]string{{
			"titulo":       "Sistema de monitoreo de cultivos",
			"modalidad":    "Investigación",
			"estado":       "Propuesta",
			"programa":     "Ingeniería de Sistemas",
			"fecha_inicio": "2026-02-01",
			"fecha_fin":    "",
			"resumen":      "Monitoreo IoT para cultivos de café",
			"objetivos":    "Diseñar e implementar la red de sensores",
			"empresa":      "",
			"estudiantes":  "1098765432:Ana María Rojas",
			"directores":   "79456123:Carlos Pérez",
		}},
	}
}

func (s *ImportService) parse(file io.Reader) ([]models.ImportRow, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = len(importColumns)

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty or not a valid CSV")
	}
	for i, col := range importColumns {
		if normalizeHeader(header[i]) != col {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("unexpected column %q at position %d, expected %q", header[i], i+1, col))
		}
	}

	var rows []models.ImportRow
	for index := 1; ; index++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("malformed CSV at data row %d: %v", index, err))
		}
		if s.opts.MaxRows > 0 && len(rows) >= s.opts.MaxRows {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("file exceeds the maximum of %d rows", s.opts.MaxRows))
		}

		row := models.ImportRow{
			Index:      index,
			Title:      strings.TrimSpace(record[0]),
			Modality:   strings.TrimSpace(record[1]),
			StatusName: strings.TrimSpace(record[2]),
			Program:    strings.TrimSpace(record[3]),
			Summary:    strings.TrimSpace(record[6]),
			Objectives: strings.TrimSpace(record[7]),
			Company:    strings.TrimSpace(record[8]),
			StartDate:  strings.TrimSpace(record[4]),
			EndDate:    strings.TrimSpace(record[5]),
			Students:   splitPeopleCell(record[9]),
			Advisors:   splitPeopleCell(record[10]),
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// importRow validates, resolves and persists one row. All failures of a row
// are collected before giving up so the summary reports everything at once.
func (s *ImportService) importRow(ctx context.Context, row models.ImportRow) models.ImportRowOutcome {
	outcome := models.ImportRowOutcome{Row: row.Index, Title: row.Title}

	var problems []string
	if row.Title == "" {
		problems = append(problems, "titulo is required")
	}
	if row.Modality == "" {
		problems = append(problems, "modalidad is required")
	}
	if row.Program == "" {
		problems = append(problems, "programa is required")
	}
	var startDate time.Time
	var endDate *time.Time
	if row.StartDate == "" {
		problems = append(problems, "fecha_inicio is required in YYYY-MM-DD format")
	} else if parsed, err := time.Parse(importDateLayout, row.StartDate); err != nil {
		problems = append(problems, fmt.Sprintf("fecha_inicio %q is not a valid YYYY-MM-DD date", row.StartDate))
	} else {
		startDate = parsed
	}
	if row.EndDate != "" {
		parsed, err := time.Parse(importDateLayout, row.EndDate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("fecha_fin %q is not a valid YYYY-MM-DD date", row.EndDate))
		} else {
			endDate = &parsed
		}
	}
	if endDate != nil && !startDate.IsZero() && endDate.Before(startDate) {
		problems = append(problems, "fecha_fin precedes fecha_inicio")
	}
	if len(row.Students) == 0 {
		problems = append(problems, "estudiantes requires at least one entry")
	}
	if len(row.Students) > maxPeoplePerCell {
		problems = append(problems, fmt.Sprintf("estudiantes accepts at most %d entries", maxPeoplePerCell))
	}
	if len(row.Advisors) > maxPeoplePerCell {
		problems = append(problems, fmt.Sprintf("directores accepts at most %d entries", maxPeoplePerCell))
	}
	if len(problems) > 0 {
		outcome.Messages = problems
		return outcome
	}

	status := s.table.InitialStatus()
	if row.StatusName != "" {
		resolved, err := s.catalogs.FindStatusByName(ctx, row.StatusName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				outcome.Messages = append(outcome.Messages, fmt.Sprintf("unknown status %q", row.StatusName))
				return outcome
			}
			outcome.Messages = append(outcome.Messages, "failed to resolve status")
			return outcome
		}
		status = resolved.ID
	}

	program, err := s.catalogs.FindProgramByName(ctx, row.Program)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			outcome.Messages = append(outcome.Messages, fmt.Sprintf("unknown program %q", row.Program))
		} else {
			outcome.Messages = append(outcome.Messages, "failed to resolve program")
		}
		return outcome
	}

	option, err := s.catalogs.FindDegreeOptionByName(ctx, program.ID, row.Modality)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			outcome.Messages = append(outcome.Messages,
				fmt.Sprintf("modality %q is not offered by program %q", row.Modality, row.Program))
		} else {
			outcome.Messages = append(outcome.Messages, "failed to resolve modality")
		}
		return outcome
	}

	exists, err := s.projects.ExistsByTitle(ctx, row.Title)
	if err != nil {
		outcome.Messages = append(outcome.Messages, "failed to check for duplicate title")
		return outcome
	}
	if exists {
		outcome.Messages = append(outcome.Messages, fmt.Sprintf("a project titled %q already exists", row.Title))
		return outcome
	}

	var actors []models.Actor
	for _, cell := range row.Students {
		person, msg := s.resolvePerson(ctx, cell)
		if msg != "" {
			outcome.Messages = append(outcome.Messages, msg)
			continue
		}
		actors = append(actors, models.Actor{PersonID: person.ID, Role: models.ActorStudent, Active: true})
	}
	for _, cell := range row.Advisors {
		person, msg := s.resolvePerson(ctx, cell)
		if msg != "" {
			outcome.Messages = append(outcome.Messages, msg)
			continue
		}
		actors = append(actors, models.Actor{PersonID: person.ID, Role: models.ActorAdvisor, Active: true})
	}
	if len(outcome.Messages) > 0 {
		return outcome
	}

	var company *string
	if row.Company != "" {
		company = &row.Company
	}
	project := &models.Project{
		Title:           row.Title,
		Summary:         row.Summary,
		Objectives:      row.Objectives,
		Company:         company,
		StartDate:       startDate,
		EndDate:         endDate,
		CurrentStatusID: status,
		DegreeOptionID:  option.ID,
		ProgramID:       program.ID,
	}
	entry := &models.AuditEntry{
		ActionType:  models.ActionCreate,
		NewStatusID: &status,
		Description: fmt.Sprintf("Proyecto importado (fila %d)", row.Index),
	}

	if err := s.projects.CreateWithGraph(ctx, project, actors, entry); err != nil {
		outcome.Messages = append(outcome.Messages, "failed to persist project: "+err.Error())
		return outcome
	}

	outcome.Success = true
	return outcome
}

// resolvePerson turns a "document:full name" cell token into a person record,
// creating it when the import policy allows. Returns a row message on failure.
func (s *ImportService) resolvePerson(ctx context.Context, cell string) (*models.Person, string) {
	document, fullName := splitPersonToken(cell)
	if document == "" {
		return nil, fmt.Sprintf("invalid person entry %q, expected documento:nombre", cell)
	}

	person, err := s.persons.FindByDocumentID(ctx, document)
	if err == nil {
		return person, ""
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Sprintf("failed to resolve person %q", document)
	}

	if !s.opts.CreateMissingPersons {
		return nil, fmt.Sprintf("person with document %q is not registered", document)
	}
	if fullName == "" {
		return nil, fmt.Sprintf("person %q is new and needs a name (documento:nombre)", document)
	}

	created := &models.Person{DocumentID: document, FullName: fullName}
	if err := s.persons.Create(ctx, created); err != nil {
		return nil, fmt.Sprintf("failed to register person %q", document)
	}
	return created, ""
}

func splitPeopleCell(cell string) []string {
	var out []string
	for _, token := range strings.Split(cell, ";") {
		if t := strings.TrimSpace(token); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func splitPersonToken(token string) (document, fullName string) {
	parts := strings.SplitN(token, ":", 2)
	document = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		fullName = strings.TrimSpace(parts[1])
	}
	return document, fullName
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
}
