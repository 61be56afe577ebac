package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/imagestore"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, log.RequestLogger(), middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Get("/healthz", Health(app))

	if disk, ok := app.Images.(*imagestore.Disk); ok && strings.HasPrefix(app.UploadBaseURL, "/") {
		base := strings.TrimSuffix(app.UploadBaseURL, "/")
		root.Handle(base+"/*", serveUploads(base, disk.BaseDir()))
	}

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	auth := middlewares.Authenticated(app.TokenSecret)

	api.Post("/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Get("/public/forms/{id}", PublicGetForm(app))
	api.With(middlewares.Optional(auth)).Post("/forms/{id}/responses", SubmitResponse(app))

	api.Group(func(r chi.Router) {
		r.Use(auth)

		// CRUD form
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetForm(app))
		r.Put("/forms/{id}", SaveForm(app))
		r.Patch("/forms/{id}", PatchForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Get("/forms/{id}/responses", ListResponses(app))
		r.Get("/forms/{id}/summary", FormSummary(app))
	})

	return api
}

func serveUploads(prefix, dir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
}
