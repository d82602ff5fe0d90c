// internal/app/features/projects/public.go
package projects

import (
	"errors"
	"html/template"
	"net/http"

	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

// StatusGroup is one section of the projects page.
type StatusGroup struct {
	Status   string
	Heading  string
	Projects []models.Project
}

// ListVM is the public projects page.
type ListVM struct {
	viewdata.BaseVM
	Groups []StatusGroup
}

// ShowVM is one project's detail page.
type ShowVM struct {
	viewdata.BaseVM
	Project     models.Project
	Description template.HTML
}

var headings = map[string]string{
	models.ProjectActive:    "Current programs",
	models.ProjectPlanned:   "Coming soon",
	models.ProjectCompleted: "Completed",
}

// List renders projects grouped by status. Empty groups are skipped.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.projects.Grouped(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list projects", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := ListVM{BaseVM: viewdata.New(r).WithTitle("Projects")}
	for _, status := range models.AllProjectStatuses() {
		if ps := grouped[status]; len(ps) > 0 {
			vm.Groups = append(vm.Groups, StatusGroup{Status: status, Heading: headings[status], Projects: ps})
		}
	}
	templates.Render(w, r, "projects/list", vm)
}

// Show renders a project by slug.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, projectstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to load project", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := ShowVM{
		BaseVM:      viewdata.NewBaseVM(r, p.Title, "/projects"),
		Project:     p,
		Description: htmlsanitize.PrepareForDisplay(p.Description),
	}
	templates.Render(w, r, "projects/show", vm)
}
