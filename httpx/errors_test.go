package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-forms/model"
)

func TestStatus(t *testing.T) {
	q := model.Question{ID: "q1", Title: "Name"}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", model.Invalid("title", "title is required"), http.StatusBadRequest},
		{"required field", model.RequiredField(q), http.StatusBadRequest},
		{"required image", model.RequiredImage(q), http.StatusBadRequest},
		{"accumulated", multierror.Append(nil, model.RequiredField(q), model.Invalid("title", "x")), http.StatusBadRequest},
		{"not found", model.NotFound("form", "f1"), http.StatusNotFound},
		{"conflict", &model.ConflictError{Resource: "form", ID: "f1", Version: 2}, http.StatusConflict},
		{"upload", &model.ImageUploadError{QuestionID: "q1", Err: errors.New("down")}, http.StatusInternalServerError},
		{"persistence", &model.PersistenceError{Op: "db.insert_form", Err: errors.New("disk full")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestWriteErrorListsEveryQuestion(t *testing.T) {
	q1 := model.Question{ID: "q1", Title: "Name"}
	q2 := model.Question{ID: "q2", Title: "Photo"}
	err := multierror.Append(nil, model.RequiredField(q1), model.RequiredImage(q2))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/forms/f1/responses", nil)
	WriteError(w, r, "submit.validate", err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "q1", body.Errors[0].QuestionID)
	assert.Equal(t, "q2", body.Errors[1].QuestionID)
}

func TestWriteErrorHidesInternals(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/forms", nil)
	WriteError(w, r, "db.get_forms", &model.PersistenceError{Op: "db.get_forms", Err: errors.New("secret path /var/db")})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "/var/db")
}

func TestRecorderFlush(t *testing.T) {
	rec := NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	rec.WriteHeader(http.StatusUnauthorized)
	rec.WriteHeader(http.StatusOK)
	rec.Write([]byte(`{"error":"nope"}`))

	var body map[string]string
	require.NoError(t, rec.DecodeJSON(&body))
	assert.Equal(t, "nope", body["error"])

	w := httptest.NewRecorder()
	require.NoError(t, rec.Flush(w))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"nope"}`, w.Body.String())
}
