package routes

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/answer"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

const (
	responsesPart   = "responses"
	imagePartPrefix = "image-"
	maxMemory       = 8 << 20
)

// PublicGetForm serves a form to respondents, without ownership checks.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := app.GetForm(r.Context(), chi.URLParam(r, "id"), "")
		if err != nil {
			httpx.WriteError(w, r, "public_get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

// SubmitResponse records one response. The body is either a JSON object
// keyed by question id, or a multipart form with that object in the
// "responses" part and one "image-{questionId}" file per uploaded image.
func SubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := app.GetForm(r.Context(), chi.URLParam(r, "id"), "")
		if err != nil {
			httpx.WriteError(w, r, "submit.get_form", err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadBytes)
		sub, closeFiles, err := readSubmission(r)
		if err != nil {
			httpx.WriteError(w, r, "request.parse_body", err)
			return
		}
		defer closeFiles()

		accepted, err := app.Answers.ValidateSubmission(r.Context(), form.ID, form.Questions, sub)
		if err != nil {
			httpx.WriteError(w, r, "submit.validate", err)
			return
		}

		respondentID := model.Anonymous
		if userID, ok := middlewares.UserID(r.Context()); ok {
			respondentID = userID
		}

		response, err := app.CreateResponse(r.Context(), form.ID, respondentID, accepted.Answers)
		if err != nil {
			accepted.Discard(r.Context())
			httpx.WriteError(w, r, "submit.insert_response", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"responseId": response.ID,
		})
	}
}

func readSubmission(r *http.Request) (answer.Submission, func(), error) {
	noop := func() {}
	sub := answer.Submission{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := render.DecodeJSON(r.Body, &sub); err != nil {
			return nil, noop, model.Invalid("body", "malformed submission: %v", err)
		}
		return sub, noop, nil
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, noop, model.Invalid("body", "malformed submission: %v", err)
	}
	mf := r.MultipartForm

	var files []multipart.File
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
		if err := mf.RemoveAll(); err != nil {
			log.WithError(err).Warn("request.multipart.remove_all")
		}
	}

	responses, err := responsesJSON(mf)
	if err != nil {
		closeFiles()
		return nil, noop, model.Invalid(responsesPart, "unreadable part: %v", err)
	}
	if f, ok := responses.(multipart.File); ok {
		files = append(files, f)
	}
	if responses != nil {
		if err = render.DecodeJSON(responses, &sub); err != nil {
			closeFiles()
			return nil, noop, model.Invalid(responsesPart, "malformed submission: %v", err)
		}
	}

	for name, headers := range mf.File {
		questionID, ok := strings.CutPrefix(name, imagePartPrefix)
		if !ok || len(headers) == 0 || headers[0].Size == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			closeFiles()
			return nil, noop, model.Invalid(name, "unreadable file: %v", err)
		}
		files = append(files, f)

		raw := sub[questionID]
		raw.Image = &answer.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		}
		sub[questionID] = raw
	}

	return sub, closeFiles, nil
}

// responsesJSON finds the answers object, sent either as a plain field or
// as a file part.
func responsesJSON(mf *multipart.Form) (io.Reader, error) {
	if values := mf.Value[responsesPart]; len(values) > 0 {
		return strings.NewReader(values[0]), nil
	}
	if headers := mf.File[responsesPart]; len(headers) > 0 {
		return headers[0].Open()
	}
	return nil, nil
}
