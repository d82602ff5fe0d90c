// internal/app/features/pages/edit.go
package pages

import (
	"net/http"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
)

// ListVM lists every editable page with its last save.
type ListVM struct {
	viewdata.BaseVM
	Pages []pageRow
}

type pageRow struct {
	Slug          string
	Title         string
	UpdatedAt     *time.Time
	UpdatedByName string
}

// EditVM is the page editor form.
type EditVM struct {
	formutil.Base
	Slug      string
	PageTitle string
	Content   string
}

type pageInput struct {
	Title string `validate:"required,max=200" label:"Title"`
}

// List shows all editable pages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bySlug, err := h.pageStore.BySlug(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list pages", err)
		h.errPages.InternalError(w, r)
		return
	}

	vm := ListVM{BaseVM: viewdata.NewBaseVM(r, "Pages", "/admin")}
	for _, slug := range models.AllPageSlugs() {
		row := pageRow{Slug: slug, Title: models.DefaultPageTitle(slug)}
		if p, ok := bySlug[slug]; ok {
			row.Title = p.Title
			row.UpdatedAt = p.UpdatedAt
			row.UpdatedByName = p.UpdatedByName
		}
		vm.Pages = append(vm.Pages, row)
	}
	templates.Render(w, r, "pages/list", vm)
}

// Edit shows the editor for one page.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !models.IsValidPageSlug(slug) {
		h.errPages.NotFound(w, r)
		return
	}

	found, err := h.pageStore.GetBySlug(r.Context(), slug)
	if err != nil {
		h.errLog.Log(r, "failed to load page for edit", err)
		h.errPages.InternalError(w, r)
		return
	}

	vm := h.editVM(r, slug)
	vm.PageTitle = models.DefaultPageTitle(slug)
	if page, ok := found.Get(); ok {
		vm.PageTitle = page.Title
		vm.Content = page.Content
	}
	if r.URL.Query().Get("success") == "1" {
		vm.SetSuccess("Page saved.")
	}
	templates.Render(w, r, "pages/edit", vm)
}

// Update saves a page intro. The content is sanitized before it is stored.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !models.IsValidPageSlug(slug) {
		h.errPages.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}

	vm := h.editVM(r, slug)
	vm.PageTitle = r.FormValue("title")
	vm.Content = r.FormValue("content")

	if res := inputval.Validate(pageInput{Title: vm.PageTitle}); res.HasErrors() {
		vm.SetError(res.First())
		templates.Render(w, r, "pages/edit", vm)
		return
	}
	if len(vm.Content) > MaxContentLength {
		vm.SetError("Content is too long. Maximum length is 100,000 characters.")
		templates.Render(w, r, "pages/edit", vm)
		return
	}

	_, name, userID, _ := authz.UserCtx(r)
	page := models.Page{
		Slug:          slug,
		Title:         vm.PageTitle,
		Content:       htmlsanitize.Sanitize(vm.Content),
		UpdatedByName: name,
	}
	if !userID.IsZero() {
		page.UpdatedByID = &userID
	}

	if err := h.pageStore.Upsert(r.Context(), page); err != nil {
		h.errLog.Log(r, "failed to save page", err)
		vm.SetError(formutil.GenericError)
		w.WriteHeader(http.StatusInternalServerError)
		templates.Render(w, r, "pages/edit", vm)
		return
	}
	h.audit.Admin(r, audit.ActionUpdated, "page", slug, nil)

	http.Redirect(w, r, "/admin/pages/"+slug+"/edit?success=1", http.StatusSeeOther)
}

func (h *Handler) editVM(r *http.Request, slug string) EditVM {
	return EditVM{
		Base: formutil.NewBase(r, "Edit "+models.DefaultPageTitle(slug), "/admin/pages"),
		Slug: slug,
	}
}
