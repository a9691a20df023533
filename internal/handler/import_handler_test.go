package handler

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unigrado/grado-api/internal/middleware"
	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/internal/service"
)

type importProjectsStub struct{ created int }

func (s *importProjectsStub) CreateWithGraph(_ context.Context, _ *models.Project, _ []models.Actor, _ *models.AuditEntry) error {
	s.created++
	return nil
}

func (s *importProjectsStub) ExistsByTitle(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type importPersonsStub struct{}

func (importPersonsStub) FindByDocumentID(_ context.Context, documentID string) (*models.Person, error) {
	return &models.Person{ID: "per-" + documentID, DocumentID: documentID}, nil
}

func (importPersonsStub) Create(_ context.Context, _ *models.Person) error { return nil }

type importCatalogsStub struct{}

func (importCatalogsStub) FindStatusByName(_ context.Context, name string) (*models.Status, error) {
	if name == "Propuesta" {
		return &models.Status{ID: models.StatusPropuesta, Name: name}, nil
	}
	return nil, sql.ErrNoRows
}

func (importCatalogsStub) FindProgramByName(_ context.Context, name string) (*models.Program, error) {
	return &models.Program{ID: "prog-1", Name: name}, nil
}

func (importCatalogsStub) FindDegreeOptionByName(_ context.Context, programID, name string) (*models.DegreeOption, error) {
	return &models.DegreeOption{ID: "opt-1", Name: name, ProgramID: programID}, nil
}

type gateActorsStub struct{}

func (gateActorsStub) FindActive(_ context.Context, _, _ string) (*models.Actor, error) {
	return nil, sql.ErrNoRows
}

func newImportHandlerFixture() (*ImportHandler, *importProjectsStub) {
	projects := &importProjectsStub{}
	svc := service.NewImportService(projects, importPersonsStub{}, importCatalogsStub{},
		service.NewTransitionTable(), service.ImportOptions{CreateMissingPersons: true}, nil)
	gate := service.NewAuthorizationGate(gateActorsStub{}, service.NewTransitionTable())
	return NewImportHandler(svc, gate, nil, 0), projects
}

func uploadRequest(t *testing.T, csvContent string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "proyectos.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/projects/bulk-upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.Request = req
	return w, c
}

const uploadCSV = "titulo,modalidad,estado,programa,fecha_inicio,fecha_fin,resumen,objetivos,empresa,estudiantes,directores\n" +
	"Proyecto A,Investigación,Propuesta,Ingeniería de Sistemas,2026-02-01,,res,obj,,100:Laura Gómez,200:Jorge Díaz\n"

func TestImportUploadHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, projects := newImportHandlerFixture()

	w, c := uploadRequest(t, uploadCSV)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleCoordinator})

	handler.Upload(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, projects.created)
	assert.Contains(t, w.Body.String(), `"imported":1`)
}

func TestImportUploadHandlerForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, projects := newImportHandlerFixture()

	w, c := uploadRequest(t, uploadCSV)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleUser})

	handler.Upload(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, projects.created)
}

func TestImportTemplateHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newImportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/projects/bulk-template", nil)
	c.Request = req

	handler.Template(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "titulo,modalidad,estado,programa")
}
