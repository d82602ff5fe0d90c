// internal/app/features/projects/admin.go
package projects

import (
	"errors"
	"net/http"
	"strings"

	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/store/storeutil"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/uploads"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

// AdminListVM lists every project.
type AdminListVM struct {
	viewdata.BaseVM
	Projects []models.Project
	Success  string
}

// FormVM is the create/edit project form.
type FormVM struct {
	formutil.Base
	Action     string
	Form       projectForm
	Statuses   []string
	CanUpload  bool
	IsExisting bool
}

type projectForm struct {
	Title       string `validate:"required,max=200" label:"Title"`
	Slug        string `validate:"max=120" label:"Slug"`
	Summary     string `validate:"max=500" label:"Summary"`
	Description string `validate:"max=100000" label:"Description"`
	Status      string `validate:"required,oneof=active planned completed" label:"Status"`
	ImageURL    string `validate:"max=500,linkurl" label:"Image URL"`
	Impact      string `validate:"max=5000" label:"Impact stats"`
	Order       string
}

func formFromProject(p models.Project) projectForm {
	return projectForm{
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Summary,
		Description: p.Description,
		Status:      p.Status,
		ImageURL:    p.ImageURL,
		Impact:      formutil.FormatImpact(p.ImpactStats),
		Order:       formutil.FormatOptionalInt(&p.Order),
	}
}

func readForm(r *http.Request) projectForm {
	return projectForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Slug:        strings.TrimSpace(r.FormValue("slug")),
		Summary:     strings.TrimSpace(r.FormValue("summary")),
		Description: r.FormValue("description"),
		Status:      strings.TrimSpace(r.FormValue("status")),
		ImageURL:    strings.TrimSpace(r.FormValue("image_url")),
		Impact:      r.FormValue("impact"),
		Order:       r.FormValue("order"),
	}
}

func (f projectForm) input() (projectstore.Input, string) {
	if res := inputval.Validate(f); res.HasErrors() {
		return projectstore.Input{}, res.First()
	}
	if f.Slug != "" && !inputval.IsValidSlug(f.Slug) {
		return projectstore.Input{}, "Slug may contain only lowercase letters, numbers and hyphens."
	}
	order, err := formutil.ParseOptionalInt(f.Order)
	if err != nil {
		return projectstore.Input{}, "Order must be a whole number."
	}
	in := projectstore.Input{
		Title:       f.Title,
		Slug:        f.Slug,
		Summary:     f.Summary,
		Description: htmlsanitize.Sanitize(f.Description),
		Status:      f.Status,
		ImpactStats: formutil.ParseImpact(f.Impact),
		ImageURL:    f.ImageURL,
	}
	if order != nil {
		in.Order = *order
	}
	return in, ""
}

// parse reads the form, storing an uploaded image when one was sent. An
// upload replaces the image URL field. It returns a form message on failure.
func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (projectForm, string) {
	r.Body = http.MaxBytesReader(w, r.Body, uploads.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(uploads.MaxImageSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return readForm(r), uploads.Message(uploads.ErrTooLarge)
		}
		return readForm(r), "The form could not be read."
	}
	form := readForm(r)

	file, header, err := r.FormFile("image")
	if err != nil {
		return form, ""
	}
	defer file.Close()
	if h.storage == nil {
		return form, uploads.Message(uploads.ErrNoStorage)
	}
	stored, err := uploads.Put(r.Context(), h.storage, file, header, "projects", h.now().UTC())
	if err != nil {
		if !errors.Is(err, uploads.ErrNotImage) && !errors.Is(err, uploads.ErrTooLarge) {
			h.errLog.Log(r, "failed to store project image", err)
		}
		return form, uploads.Message(err)
	}
	form.ImageURL = stored.URL
	return form, ""
}

// AdminList shows all projects.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	ps, err := h.projects.List(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list projects", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := AdminListVM{BaseVM: viewdata.NewBaseVM(r, "Projects", "/admin"), Projects: ps}
	switch r.URL.Query().Get("success") {
	case "created":
		vm.Success = "Project created."
	case "saved":
		vm.Success = "Project saved."
	case "deleted":
		vm.Success = "Project deleted."
	}
	templates.Render(w, r, "projects/admin_list", vm)
}

func (h *Handler) formVM(r *http.Request, title, action string) FormVM {
	return FormVM{
		Base:      formutil.NewBase(r, title, "/admin/projects"),
		Action:    action,
		Statuses:  models.AllProjectStatuses(),
		CanUpload: h.storage != nil,
	}
}

// New shows an empty project form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	vm := h.formVM(r, "New Project", "/admin/projects")
	vm.Form.Status = models.ProjectActive
	templates.Render(w, r, "projects/form", vm)
}

// Create saves a new project.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	vm := h.formVM(r, "New Project", "/admin/projects")
	var msg string
	vm.Form, msg = h.parse(w, r)
	if msg == "" {
		var in projectstore.Input
		in, msg = vm.Form.input()
		if msg == "" {
			p, err := h.projects.Create(r.Context(), in)
			if err == nil {
				h.audit.Admin(r, audit.ActionCreated, "project", p.ID.Hex(), map[string]string{"title": p.Title})
				http.Redirect(w, r, "/admin/projects?success=created", http.StatusSeeOther)
				return
			}
			msg = h.saveError(r, err)
		}
	}
	vm.SetError(msg)
	templates.Render(w, r, "projects/form", vm)
}

// Edit shows the form for an existing project.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	p, ok := h.byID(w, r)
	if !ok {
		return
	}
	vm := h.formVM(r, "Edit "+p.Title, "/admin/projects/"+p.ID.Hex())
	vm.IsExisting = true
	vm.Form = formFromProject(p)
	templates.Render(w, r, "projects/form", vm)
}

// Update saves changes to a project.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.byID(w, r)
	if !ok {
		return
	}
	vm := h.formVM(r, "Edit "+p.Title, "/admin/projects/"+p.ID.Hex())
	vm.IsExisting = true
	var msg string
	vm.Form, msg = h.parse(w, r)
	if msg == "" {
		var in projectstore.Input
		in, msg = vm.Form.input()
		if msg == "" {
			err := h.projects.Update(r.Context(), p.ID, in)
			if err == nil {
				h.audit.Admin(r, audit.ActionUpdated, "project", p.ID.Hex(), nil)
				http.Redirect(w, r, "/admin/projects?success=saved", http.StatusSeeOther)
				return
			}
			msg = h.saveError(r, err)
		}
	}
	vm.SetError(msg)
	templates.Render(w, r, "projects/form", vm)
}

// Delete removes a project.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.byID(w, r)
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), p.ID); err != nil && !errors.Is(err, projectstore.ErrNotFound) {
		h.errLog.Log(r, "failed to delete project", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionDeleted, "project", p.ID.Hex(), map[string]string{"title": p.Title})
	http.Redirect(w, r, "/admin/projects?success=deleted", http.StatusSeeOther)
}

func (h *Handler) saveError(r *http.Request, err error) string {
	switch {
	case errors.Is(err, projectstore.ErrDuplicateSlug):
		return "Another project already uses this slug. Choose a different one."
	case errors.Is(err, projectstore.ErrBadStatus):
		return "Status must be one of: active, planned, completed."
	}
	h.errLog.Log(r, "failed to save project", err)
	return formutil.GenericError
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	id, err := storeutil.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errPages.NotFound(w, r)
		return models.Project{}, false
	}
	p, err := h.projects.GetByID(r.Context(), id)
	if errors.Is(err, projectstore.ErrNotFound) {
		h.errPages.NotFound(w, r)
		return models.Project{}, false
	}
	if err != nil {
		h.errLog.Log(r, "failed to load project", err)
		h.errPages.InternalError(w, r)
		return models.Project{}, false
	}
	return p, true
}
