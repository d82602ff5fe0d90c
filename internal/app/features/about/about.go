// internal/app/features/about/about.go
package about

import (
	"net/http"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /about.
type Handler struct {
	content *sitecontent.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a new about Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		content: sitecontent.New(db),
		errLog:  errLog,
		logger:  logger,
	}
}

// AboutVM is the view model for the about page.
type AboutVM struct {
	viewdata.BaseVM
	About models.AboutContent
}

// Routes returns a chi.Router with the about page mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	return r
}

// Show renders the saved about content, or the defaults when none has been
// saved or the read fails.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	about := models.DefaultAbout()
	found, err := sitecontent.Get[models.AboutContent](r.Context(), h.content, models.ContentKeyAbout)
	if err != nil {
		h.errLog.Log(r, "failed to load about content", err)
	} else {
		about = found.Or(about)
	}

	vm := AboutVM{
		BaseVM: viewdata.New(r).WithTitle("About"),
		About:  about,
	}
	templates.Render(w, r, "about/show", vm)
}
