// internal/app/features/pages/show.go
package pages

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// PageVM is the view model for a static page. Only the section matching
// Slug is filled: FAQs for get-involved, Gallery for media and Stories for
// success-stories.
type PageVM struct {
	viewdata.BaseVM
	Slug    string
	Content template.HTML

	FAQs    []models.FAQ
	Gallery []GalleryItem
	Stories []models.Project
}

// GalleryItem is one image on /media with the event it came from.
type GalleryItem struct {
	models.GalleryImage
	EventTitle string
	EventSlug  string
}

// Show returns the handler for the page stored under slug. A page never
// saved renders its default title with no body.
func (h *Handler) Show(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		found, err := h.pageStore.GetBySlug(ctx, slug)
		if err != nil {
			h.errLog.Log(r, "failed to load page", err)
			h.errPages.InternalError(w, r)
			return
		}

		vm := PageVM{
			BaseVM: viewdata.New(r).WithTitle(models.DefaultPageTitle(slug)),
			Slug:   slug,
		}
		if page, ok := found.Get(); ok {
			vm.Title = page.Title
			vm.Content = htmlsanitize.PrepareForDisplay(page.Content)
		}

		switch slug {
		case models.PageSlugGetInvolved:
			vm.FAQs, err = h.faqs.List(ctx, true)
		case models.PageSlugMedia:
			vm.Gallery, err = h.gallery(r)
		case models.PageSlugSuccessStories:
			vm.Stories, err = h.projects.ListByStatus(ctx, models.ProjectCompleted)
		}
		if err != nil {
			h.errLog.Log(r, "failed to load page section", err)
			h.errPages.InternalError(w, r)
			return
		}

		templates.Render(w, r, "pages/show", vm)
	}
}

// gallery flattens the images of every published event, newest event first.
func (h *Handler) gallery(r *http.Request) ([]GalleryItem, error) {
	evs, err := h.events.ListWithGallery(r.Context())
	if err != nil {
		return nil, err
	}
	var items []GalleryItem
	for _, ev := range evs {
		for _, img := range ev.Gallery {
			items = append(items, GalleryItem{GalleryImage: img, EventTitle: ev.Title, EventSlug: ev.Slug})
		}
	}
	return items, nil
}
