package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unigrado/grado-api/internal/models"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

const importHeader = "titulo,modalidad,estado,programa,fecha_inicio,fecha_fin,resumen,objetivos,empresa,estudiantes,directores\n"

type stubImportProjectRepo struct {
	created   []*models.Project
	titles    map[string]bool
	createErr map[string]error
}

func (s *stubImportProjectRepo) CreateWithGraph(_ context.Context, project *models.Project, _ []models.Actor, _ *models.AuditEntry) error {
	if err, ok := s.createErr[project.Title]; ok {
		return err
	}
	s.created = append(s.created, project)
	return nil
}

func (s *stubImportProjectRepo) ExistsByTitle(_ context.Context, title string) (bool, error) {
	return s.titles[strings.ToLower(title)], nil
}

type stubImportPersonRepo struct {
	byDocument map[string]*models.Person
	created    []*models.Person
}

func (s *stubImportPersonRepo) FindByDocumentID(_ context.Context, documentID string) (*models.Person, error) {
	if p, ok := s.byDocument[documentID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubImportPersonRepo) Create(_ context.Context, person *models.Person) error {
	person.ID = "per-" + person.DocumentID
	if s.byDocument == nil {
		s.byDocument = map[string]*models.Person{}
	}
	s.byDocument[person.DocumentID] = person
	s.created = append(s.created, person)
	return nil
}

type stubImportCatalogRepo struct {
	statuses map[string]*models.Status
	programs map[string]*models.Program
	options  map[string]*models.DegreeOption
}

func (s *stubImportCatalogRepo) FindStatusByName(_ context.Context, name string) (*models.Status, error) {
	if st, ok := s.statuses[strings.ToLower(name)]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubImportCatalogRepo) FindProgramByName(_ context.Context, name string) (*models.Program, error) {
	if p, ok := s.programs[strings.ToLower(name)]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubImportCatalogRepo) FindDegreeOptionByName(_ context.Context, programID, name string) (*models.DegreeOption, error) {
	if o, ok := s.options[programID+"/"+strings.ToLower(name)]; ok {
		return o, nil
	}
	return nil, sql.ErrNoRows
}

func newImportFixture(opts ImportOptions) (*ImportService, *stubImportProjectRepo, *stubImportPersonRepo) {
	projects := &stubImportProjectRepo{titles: map[string]bool{}, createErr: map[string]error{}}
	persons := &stubImportPersonRepo{byDocument: map[string]*models.Person{
		"100": {ID: "per-100", DocumentID: "100", FullName: "Laura Gómez"},
		"200": {ID: "per-200", DocumentID: "200", FullName: "Jorge Díaz"},
	}}
	catalogs := &stubImportCatalogRepo{
		statuses: map[string]*models.Status{
			"propuesta":     {ID: models.StatusPropuesta, Name: "Propuesta"},
			"en desarrollo": {ID: models.StatusEnDesarrollo, Name: "En Desarrollo"},
		},
		programs: map[string]*models.Program{
			"ingeniería de sistemas": {ID: "prog-1", Name: "Ingeniería de Sistemas"},
		},
		options: map[string]*models.DegreeOption{
			"prog-1/investigación": {ID: "opt-1", Name: "Investigación", ProgramID: "prog-1"},
		},
	}
	svc := NewImportService(projects, persons, catalogs, NewTransitionTable(), opts, nil)
	return svc, projects, persons
}

func importRowCSV(title string) string {
	return title + ",Investigación,Propuesta,Ingeniería de Sistemas,2026-02-01,,resumen,objetivos,,100:Laura Gómez,200:Jorge Díaz\n"
}

func TestImportSingleValidRow(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+importRowCSV("Proyecto A")))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRows)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, projects.created, 1)
	assert.Equal(t, models.StatusPropuesta, projects.created[0].CurrentStatusID)
	assert.Equal(t, "prog-1", projects.created[0].ProgramID)
	assert.Equal(t, "opt-1", projects.created[0].DegreeOptionID)
}

func TestImportRowIsolation(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})
	projects.createErr["Proyecto B"] = errors.New("unique constraint violated")

	file := importHeader +
		importRowCSV("Proyecto A") +
		importRowCSV("Proyecto B") +
		importRowCSV("Proyecto C")

	summary, err := svc.Import(context.Background(), strings.NewReader(file))

	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Rows, 3)
	assert.True(t, summary.Rows[0].Success)
	assert.False(t, summary.Rows[1].Success)
	assert.True(t, summary.Rows[2].Success)
	// Row order in the summary matches file order.
	assert.Equal(t, []int{1, 2, 3}, []int{summary.Rows[0].Row, summary.Rows[1].Row, summary.Rows[2].Row})
	assert.Len(t, projects.created, 2)
}

func TestImportCreatesMissingPersons(t *testing.T) {
	svc, projects, persons := newImportFixture(ImportOptions{CreateMissingPersons: true})

	row := "Proyecto Nuevo,Investigación,Propuesta,Ingeniería de Sistemas,2026-02-01,,res,obj,,999:Nueva Persona,200:Jorge Díaz\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	require.Len(t, persons.created, 1)
	assert.Equal(t, "999", persons.created[0].DocumentID)
	assert.Equal(t, "Nueva Persona", persons.created[0].FullName)
	assert.Len(t, projects.created, 1)
}

func TestImportRejectsMissingPersonsWhenPolicyOff(t *testing.T) {
	svc, projects, persons := newImportFixture(ImportOptions{CreateMissingPersons: false})

	row := "Proyecto Nuevo,Investigación,Propuesta,Ingeniería de Sistemas,2026-02-01,,res,obj,,999:Nueva Persona,200:Jorge Díaz\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, persons.created)
	assert.Empty(t, projects.created)
	require.Len(t, summary.Rows, 1)
	assert.Contains(t, summary.Rows[0].Messages[0], "999")
}

func TestImportCollectsAllRowProblems(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	// Missing title, modality and students at once.
	row := ",,Propuesta,Ingeniería de Sistemas,2026-02-01,,res,obj,,,\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Rows, 1)
	assert.GreaterOrEqual(t, len(summary.Rows[0].Messages), 3)
	assert.Empty(t, projects.created)
}

func TestImportUnknownCatalogValues(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	row := "Proyecto X,Pasantía,Propuesta,Ingeniería de Sistemas,2026-02-01,,res,obj,,100:Laura Gómez,\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Rows[0].Messages[0], "Pasantía")
	assert.Empty(t, projects.created)
}

func TestImportRejectsOvercrowdedRow(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	// Three students in one cell exceeds the per-row bound.
	row := "Proyecto Lleno,Investigación,Propuesta,Ingeniería de Sistemas,2026-02-01,,res,obj,,100:Laura Gómez;200:Jorge Díaz;300:Otro Más,\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Rows[0].Messages[0], "estudiantes")
	assert.Empty(t, projects.created)
}

func TestImportRejectsMalformedEndDate(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	// An optional fecha_fin in the wrong layout fails the row instead of
	// importing the project with the end date silently dropped.
	row := "Proyecto Fechas,Investigación,Propuesta,Ingeniería de Sistemas,2026-02-01,31/12/2026,res,obj,,100:Laura Gómez,200:Jorge Díaz\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Rows, 1)
	require.NotEmpty(t, summary.Rows[0].Messages)
	assert.Contains(t, summary.Rows[0].Messages[0], "fecha_fin")
	assert.Contains(t, summary.Rows[0].Messages[0], "31/12/2026")
	assert.Empty(t, projects.created)
}

func TestImportRejectsMalformedStartDate(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	row := "Proyecto Fechas,Investigación,Propuesta,Ingeniería de Sistemas,01-02-2026,,res,obj,,100:Laura Gómez,200:Jorge Díaz\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Rows, 1)
	require.NotEmpty(t, summary.Rows[0].Messages)
	// A present-but-invalid date reports the offending value, not "required".
	assert.Contains(t, summary.Rows[0].Messages[0], `"01-02-2026"`)
	assert.NotContains(t, summary.Rows[0].Messages[0], "required")
	assert.Empty(t, projects.created)
}

func TestImportDuplicateTitle(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})
	projects.titles["proyecto a"] = true

	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+importRowCSV("Proyecto A")))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, projects.created)
}

func TestImportImportedStatusKept(t *testing.T) {
	svc, projects, _ := newImportFixture(ImportOptions{CreateMissingPersons: true})

	row := "Proyecto Avanzado,Investigación,En Desarrollo,Ingeniería de Sistemas,2025-08-01,,res,obj,,100:Laura Gómez,200:Jorge Díaz\n"
	summary, err := svc.Import(context.Background(), strings.NewReader(importHeader+row))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	require.Len(t, projects.created, 1)
	assert.Equal(t, models.StatusEnDesarrollo, projects.created[0].CurrentStatusID)
}

func TestImportRejectsBadHeader(t *testing.T) {
	svc, _, _ := newImportFixture(ImportOptions{})

	_, err := svc.Import(context.Background(), strings.NewReader("nombre,otra\nx,y\n"))

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestImportMaxRows(t *testing.T) {
	svc, _, _ := newImportFixture(ImportOptions{CreateMissingPersons: true, MaxRows: 1})

	file := importHeader + importRowCSV("Proyecto A") + importRowCSV("Proyecto B")
	_, err := svc.Import(context.Background(), strings.NewReader(file))

	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestImportTemplateMatchesColumns(t *testing.T) {
	svc, _, _ := newImportFixture(ImportOptions{})

	tpl := svc.Template()
	assert.Equal(t, importColumns, tpl.Headers)
	require.Len(t, tpl.Rows, 1)
	for _, col := range tpl.Headers {
		_, ok := tpl.Rows[0][col]
		assert.True(t, ok, "template row missing column %s", col)
	}
}
