package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"

	"github.com/mbolis/quick-forms/aggregate"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

const dateLayout = "2006-01-02"

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		draft := model.FormDraft{}
		err := render.DecodeJSON(r.Body, &draft)
		if err != nil {
			httpx.WriteError(w, r, "request.parse_body", model.Invalid("body", "malformed form: %v", err))
			return
		}

		prepared, err := draft.Prepare()
		if err != nil {
			httpx.WriteError(w, r, "create_form.validate", err)
			return
		}

		form, err := app.CreateForm(r.Context(), userID, prepared)
		if err != nil {
			httpx.WriteError(w, r, "create_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": form.ID,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		forms, err := app.ListForms(r.Context(), userID)
		if err != nil {
			httpx.WriteError(w, r, "get_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		form, err := app.GetForm(r.Context(), chi.URLParam(r, "id"), userID)
		if err != nil {
			httpx.WriteError(w, r, "get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

// SaveForm replaces the whole form, reconciling its questions with the
// submitted list.
func SaveForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		draft := model.FormDraft{}
		err := render.DecodeJSON(r.Body, &draft)
		if err != nil {
			httpx.WriteError(w, r, "request.parse_body", model.Invalid("body", "malformed form: %v", err))
			return
		}

		prepared, err := draft.Prepare()
		if err != nil {
			httpx.WriteError(w, r, "update_form.validate", err)
			return
		}

		form, err := app.SaveForm(r.Context(), chi.URLParam(r, "id"), userID, prepared)
		if err != nil {
			httpx.WriteError(w, r, "update_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func PatchForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		patch := model.FormPatch{}
		err := render.DecodeJSON(r.Body, &patch)
		if err != nil {
			httpx.WriteError(w, r, "request.parse_body", model.Invalid("body", "malformed form: %v", err))
			return
		}

		patch, err = patch.Prepare()
		if err != nil {
			httpx.WriteError(w, r, "patch_form.validate", err)
			return
		}

		form, err := app.PatchForm(r.Context(), chi.URLParam(r, "id"), userID, patch)
		if err != nil {
			httpx.WriteError(w, r, "patch_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())
		formID := chi.URLParam(r, "id")

		err := app.DeleteForm(r.Context(), formID, userID)
		if err != nil {
			httpx.WriteError(w, r, "delete_form", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id": formID,
		})
	}
}

// ListResponses returns the form, its responses within the optional
// from/to day range, and every day that received a response.
func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		filter, err := parseDayRange(r)
		if err != nil {
			httpx.WriteError(w, r, "request.parse_query", err)
			return
		}

		form, err := app.GetForm(r.Context(), chi.URLParam(r, "id"), userID)
		if err != nil {
			httpx.WriteError(w, r, "get_responses.get_form", err)
			return
		}

		responses, err := app.Store.ListResponses(r.Context(), form.ID, filter)
		if err != nil {
			httpx.WriteError(w, r, "get_responses", err)
			return
		}

		all := responses
		if filter != (database.ResponseFilter{}) {
			all, err = app.Store.ListResponses(r.Context(), form.ID, database.ResponseFilter{})
			if err != nil {
				httpx.WriteError(w, r, "get_responses.days", err)
				return
			}
		}

		render.JSON(w, r, map[string]any{
			"form":      form,
			"responses": responses,
			"days":      responseDays(all),
		})
	}
}

func FormSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewares.UserID(r.Context())

		filter, err := parseDayRange(r)
		if err != nil {
			httpx.WriteError(w, r, "request.parse_query", err)
			return
		}

		form, err := app.GetForm(r.Context(), chi.URLParam(r, "id"), userID)
		if err != nil {
			httpx.WriteError(w, r, "get_summary.get_form", err)
			return
		}

		responses, err := app.Store.ListResponses(r.Context(), form.ID, filter)
		if err != nil {
			httpx.WriteError(w, r, "get_summary.responses", err)
			return
		}

		render.JSON(w, r, aggregate.Aggregate(*form, responses))
	}
}

// parseDayRange reads the inclusive from/to days of the query string as
// UTC calendar days.
func parseDayRange(r *http.Request) (database.ResponseFilter, error) {
	var (
		filter database.ResponseFilter
		errs   *multierror.Error
	)

	query := r.URL.Query()
	if from := query.Get("from"); from != "" {
		day, err := time.Parse(dateLayout, from)
		if err != nil {
			errs = multierror.Append(errs, model.Invalid("from", "expected a YYYY-MM-DD day"))
		}
		filter.From = day
	}
	if to := query.Get("to"); to != "" {
		day, err := time.Parse(dateLayout, to)
		if err != nil {
			errs = multierror.Append(errs, model.Invalid("to", "expected a YYYY-MM-DD day"))
		} else {
			filter.To = day.AddDate(0, 0, 1)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return database.ResponseFilter{}, err
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return database.ResponseFilter{}, model.Invalid("from", "from must not be after to")
	}
	return filter, nil
}

// responseDays lists the distinct UTC days of responses, which are sorted
// by submission time.
func responseDays(responses []model.Response) []string {
	days := []string{}
	for _, resp := range responses {
		day := resp.SubmittedAt.UTC().Format(dateLayout)
		if len(days) == 0 || days[len(days)-1] != day {
			days = append(days, day)
		}
	}
	return days
}
