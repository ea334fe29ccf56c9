package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/transcript-api/internal/models"
	"github.com/noah-isme/transcript-api/internal/service"
	"github.com/noah-isme/transcript-api/pkg/response"
)

type fakeStudentStore struct {
	students map[string]*models.Student
}

func (f *fakeStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *student
	return &copied, nil
}

func (f *fakeStudentStore) Update(ctx context.Context, student *models.Student) error {
	f.students[student.ID] = student
	return nil
}

func newTranscriptHandlerFixture() (*TranscriptHandler, *fakeStudentStore) {
	store := &fakeStudentStore{students: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Abebe Kebede", Template: models.TemplateG12},
	}}
	svc := service.NewTranscriptService(store, nil, service.NewViewService(), nil, nil, nil, 0)
	return NewTranscriptHandler(svc), store
}

func TestTranscriptHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTranscriptHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/s1/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestTranscriptHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTranscriptHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/missing/transcript", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranscriptHandlerUpdateCell(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newTranscriptHandlerFixture()

	body := `{"subject_index":0,"grade_level":"G12","field":"semester1","value":"85"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/students/s1/transcript/cells", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.UpdateCell(c)

	require.Equal(t, http.StatusOK, rec.Code)
	stored := store.students["s1"]
	assert.Equal(t, 85.0, stored.Grades[0].Cells[models.GradeLevelG12].Semester1)
}

func TestTranscriptHandlerUpdateCellBadLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTranscriptHandlerFixture()

	body := `{"subject_index":0,"grade_level":"G9","field":"semester1","value":"85"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/students/s1/transcript/cells", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.UpdateCell(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTranscriptHandlerUpdateCellMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTranscriptHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/students/s1/transcript/cells", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.UpdateCell(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranscriptHandlerView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newTranscriptHandlerFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/s1/transcript/view", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.View(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.TranscriptView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Abebe Kebede", envelope.Data.StudentName)
	assert.Len(t, envelope.Data.Rows, len(models.Subjects))
}
