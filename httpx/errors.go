package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError is a single validation failure. QuestionID is empty for
// form-level fields.
type FieldError struct {
	QuestionID string `json:"questionId,omitempty"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
}

// WriteError translates err into a status code and ErrorBody. code names
// the failed operation in the log.
func WriteError(w http.ResponseWriter, r *http.Request, code string, err error) {
	body := ErrorBody{Status: Status(err)}

	switch body.Status {
	case http.StatusBadRequest:
		body.Message = "validation failed"
		body.Errors = fieldErrors(err)
		log.Debugf("%s: %s", code, err)
	case http.StatusInternalServerError:
		body.Message = http.StatusText(body.Status)
		var uerr *model.ImageUploadError
		if errors.As(err, &uerr) {
			body.Message = fmt.Sprintf("could not store the upload for question %s", uerr.QuestionID)
		}
		log.Errorf("%s: %+v", code, err)
	default:
		body.Message = err.Error()
		log.Debugf("%s: %s", code, err)
	}

	render.Status(r, body.Status)
	render.JSON(w, r, body)
}

// Status maps an error onto its HTTP status code.
func Status(err error) int {
	var (
		verr     *model.ValidationError
		notFound *model.NotFoundError
		conflict *model.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fieldErrors(err error) []FieldError {
	errs := []error{err}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	}

	fields := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		var verr *model.ValidationError
		if !errors.As(e, &verr) {
			continue
		}
		fields = append(fields, FieldError{QuestionID: verr.QuestionID, Field: verr.Field, Message: verr.Message})
	}
	return fields
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}
