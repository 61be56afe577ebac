package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-forms/answer"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/imagestore"
)

// App carries the process-wide dependencies shared by every handler.
type App struct {
	*database.Store
	*oauth.BearerServer
	Answers *answer.Validator
	Images  imagestore.Store
	config.Config
}

func New(store *database.Store, images imagestore.Store, cfg config.Config, bearerServer *oauth.BearerServer) App {
	return App{
		Store:        store,
		BearerServer: bearerServer,
		Answers:      answer.NewValidator(images),
		Images:       images,
		Config:       cfg,
	}
}
