// internal/app/features/events/gallery.go
package events

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/system/uploads"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.uber.org/zap"
)

// Upload failures travel to the edit page as a short code in the query.
var uploadErrorCodes = map[string]error{
	"nofile":    uploads.ErrNoFile,
	"toolarge":  uploads.ErrTooLarge,
	"notimage":  uploads.ErrNotImage,
	"nostorage": uploads.ErrNoStorage,
}

func uploadErrorCode(err error) string {
	for code, target := range uploadErrorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return "failed"
}

func uploadErrorText(code string) string {
	return uploads.Message(uploadErrorCodes[code])
}

// UploadImage adds an image to the event's gallery.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	editURL := "/admin/events/" + ev.ID.Hex() + "/edit"

	stored, err := uploads.Image(r.Context(), h.opts.Storage, r, "image", "events/"+ev.ID.Hex())
	if err != nil {
		code := uploadErrorCode(err)
		if code == "failed" {
			h.errLog.Log(r, "failed to upload gallery image", err)
		}
		http.Redirect(w, r, editURL+"?error="+code+"#gallery", http.StatusSeeOther)
		return
	}

	img := models.GalleryImage{
		URL:     stored.URL,
		Path:    stored.Path,
		Caption: strings.TrimSpace(r.FormValue("caption")),
	}
	if err := h.events.AddGalleryImage(r.Context(), ev.ID, img); err != nil {
		if rmErr := uploads.Remove(r.Context(), h.opts.Storage, stored.Path); rmErr != nil {
			h.logger.Warn("failed to remove orphaned upload", zap.String("path", stored.Path), zap.Error(rmErr))
		}
		h.errLog.Log(r, "failed to add gallery image", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.opts.Audit.Admin(r, audit.ActionUpdated, "event", ev.ID.Hex(), map[string]string{"gallery_added": stored.Path})
	http.Redirect(w, r, editURL+"?success=image#gallery", http.StatusSeeOther)
}

// RemoveImage removes one gallery image, by URL, and deletes its file.
func (h *Handler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.byID(w, r)
	if !ok {
		return
	}
	url := r.FormValue("url")
	var target *models.GalleryImage
	for i := range ev.Gallery {
		if ev.Gallery[i].URL == url {
			target = &ev.Gallery[i]
			break
		}
	}
	if target == nil {
		h.errPages.BadRequest(w, r, "That image is not in this event's gallery.")
		return
	}

	if err := h.events.RemoveGalleryImage(r.Context(), ev.ID, url); err != nil {
		h.errLog.Log(r, "failed to remove gallery image", err)
		h.errPages.InternalError(w, r)
		return
	}
	if err := uploads.Remove(r.Context(), h.opts.Storage, target.Path); err != nil {
		h.logger.Warn("failed to delete gallery file", zap.String("path", target.Path), zap.Error(err))
	}
	h.opts.Audit.Admin(r, audit.ActionUpdated, "event", ev.ID.Hex(), map[string]string{"gallery_removed": target.Path})
	http.Redirect(w, r, "/admin/events/"+ev.ID.Hex()+"/edit?success=removed#gallery", http.StatusSeeOther)
}
