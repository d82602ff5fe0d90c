// internal/app/features/content/content.go
package content

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/strataimpact/internal/app/features/errors"
	"github.com/dalemusser/strataimpact/internal/app/store/audit"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/auditlog"
	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/app/system/authz"
	"github.com/dalemusser/strataimpact/internal/app/system/contentschema"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/jsonutil"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxImportSize caps a JSON import.
const MaxImportSize = 256 << 10

// ConflictMessage is shown when the form was loaded from an older version.
const ConflictMessage = "This content was changed by someone else. Reload and try again."

// Handler serves the site content screens under /admin/content.
type Handler struct {
	store    *sitecontent.Store
	audit    *auditlog.Logger
	errLog   *errorsfeature.ErrorLogger
	errPages *errorsfeature.Handler
	logger   *zap.Logger
}

// NewHandler creates a new content Handler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		store:    sitecontent.New(db),
		audit:    audit,
		errLog:   errLog,
		errPages: errorsfeature.NewHandler(),
		logger:   logger,
	}
}

// AdminRoutes returns the content screens, mounted at /admin/content.
func AdminRoutes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(authz.ContentRoles...))
	r.Get("/", h.Index)
	r.Get("/{key}", h.Edit)
	r.Post("/{key}", h.Update)
	r.Get("/{key}/export", h.Export)
	r.Post("/{key}/import", h.Import)
	r.Post("/{key}/reset", h.Reset)
	return r
}

// IndexRow is one content screen in the index.
type IndexRow struct {
	Key     string
	Title   string
	Version int64
}

// IndexVM lists the content screens.
type IndexVM struct {
	viewdata.BaseVM
	Rows []IndexRow
}

// EditVM is one content screen.
type EditVM struct {
	formutil.Base
	Key       string
	Section   string
	Fields    Fields
	Version   int64
	UpdatedAt time.Time
	UpdatedBy string
	Saved     bool
	Import    string
}

// Index lists the content screens with their stored versions.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	versions, err := h.store.Versions(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to load content versions", err)
		h.errPages.InternalError(w, r)
		return
	}
	vm := IndexVM{BaseVM: viewdata.NewBaseVM(r, "Site content", "/admin")}
	for _, key := range models.AllContentKeys() {
		vm.Rows = append(vm.Rows, IndexRow{Key: key, Title: sections[key].Title(), Version: versions[key]})
	}
	templates.Render(w, r, "content/index", vm)
}

// Edit shows the form for one content document, filled with the defaults
// when it has never been saved.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(w, r)
	if !ok {
		return
	}
	vm, err := h.editVM(r, sec)
	if err != nil {
		h.errLog.Log(r, "failed to load content", err)
		h.errPages.InternalError(w, r)
		return
	}
	switch r.URL.Query().Get("success") {
	case "saved":
		vm.SetSuccess("Saved.")
	case "imported":
		vm.SetSuccess("Imported.")
	case "reset":
		vm.SetSuccess("Restored the default content.")
	}
	templates.Render(w, r, "content/edit", vm)
}

// Update saves the typed form. The hidden version must match the stored
// version.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}
	expected, _ := strconv.ParseInt(r.FormValue("version"), 10, 64)

	fields, version, err := sec.save(r.Context(), h.store, r.PostFormValue, expected, editorName(r))
	if err != nil {
		vm := h.failedVM(r, sec, expected, fields)
		h.renderSaveError(w, r, vm, err)
		return
	}
	h.audit.Admin(r, audit.ActionUpdated, "content", sec.Key(), map[string]string{"version": strconv.FormatInt(version, 10)})
	http.Redirect(w, r, "/admin/content/"+sec.Key()+"?success=saved", http.StatusSeeOther)
}

// Export downloads the content document as JSON.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(w, r)
	if !ok {
		return
	}
	v, err := sec.export(r.Context(), h.store)
	if err != nil {
		h.errLog.Log(r, "failed to export content", err)
		h.errPages.InternalError(w, r)
		return
	}
	if err := jsonutil.Download(w, sec.Key()+".json", v); err != nil {
		h.errLog.Log(r, "failed to write content export", err)
		return
	}
	h.audit.Admin(r, audit.ActionExported, "content", sec.Key(), nil)
}

// Import replaces the content document with uploaded JSON. The document is
// checked against the schema and saved with the version check.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportSize+64<<10)
	if err := r.ParseMultipartForm(MaxImportSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errPages.BadRequest(w, r, "The import could not be read.")
		return
	}
	expected, _ := strconv.ParseInt(r.FormValue("version"), 10, 64)

	raw, err := importBody(r)
	if err == nil && len(strings.TrimSpace(string(raw))) == 0 {
		err = fmt.Errorf("%w: paste JSON or choose a file", errBadImport)
	}
	if err == nil {
		err = contentschema.ValidateJSON(sec.Key(), raw)
	}
	var version int64
	if err == nil {
		version, err = sec.importJSON(r.Context(), h.store, raw, expected, editorName(r))
	}
	if err != nil {
		vm, lerr := h.editVM(r, sec)
		if lerr != nil {
			h.errLog.Log(r, "failed to load content", lerr)
			h.errPages.InternalError(w, r)
			return
		}
		vm.Version = expected
		vm.Import = string(raw)
		h.renderSaveError(w, r, vm, err)
		return
	}
	h.audit.Admin(r, audit.ActionImported, "content", sec.Key(), map[string]string{"version": strconv.FormatInt(version, 10)})
	http.Redirect(w, r, "/admin/content/"+sec.Key()+"?success=imported", http.StatusSeeOther)
}

// Reset deletes the stored document so the defaults show again.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.section(w, r)
	if !ok {
		return
	}
	if err := h.store.Reset(r.Context(), sec.Key()); err != nil {
		h.errLog.Log(r, "failed to reset content", err)
		h.errPages.InternalError(w, r)
		return
	}
	h.audit.Admin(r, audit.ActionDeleted, "content", sec.Key(), nil)
	http.Redirect(w, r, "/admin/content/"+sec.Key()+"?success=reset", http.StatusSeeOther)
}

// importBody returns the uploaded file when there is one, else the pasted text.
func importBody(r *http.Request) ([]byte, error) {
	if r.MultipartForm != nil {
		if file, _, err := r.FormFile("file"); err == nil {
			defer file.Close()
			return jsonutil.ReadLimited(file, MaxImportSize)
		}
	}
	return jsonutil.ReadLimited(strings.NewReader(r.FormValue("json")), MaxImportSize)
}

func (h *Handler) renderSaveError(w http.ResponseWriter, r *http.Request, vm EditVM, err error) {
	var schemaErr *contentschema.SchemaError
	switch {
	case errors.Is(err, sitecontent.ErrVersionConflict):
		vm.SetError(ConflictMessage)
		w.WriteHeader(http.StatusConflict)
	case errors.As(err, &schemaErr):
		vm.SetError("Please correct the following: " + strings.Join(schemaErr.Problems, "; "))
		w.WriteHeader(http.StatusUnprocessableEntity)
	case errors.Is(err, jsonutil.ErrTooLarge):
		vm.SetError("The import is too large.")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	case errors.Is(err, errBadImport):
		vm.SetError("The import is not valid for this screen: " + err.Error() + ".")
		w.WriteHeader(http.StatusBadRequest)
	default:
		h.errLog.Log(r, "failed to save content", err)
		vm.SetError(formutil.GenericError)
		w.WriteHeader(http.StatusInternalServerError)
	}
	templates.Render(w, r, "content/edit", vm)
}

func (h *Handler) section(w http.ResponseWriter, r *http.Request) (section, bool) {
	sec, ok := sections[chi.URLParam(r, "key")]
	if !ok {
		h.errPages.NotFound(w, r)
		return nil, false
	}
	return sec, true
}

func (h *Handler) editVM(r *http.Request, sec section) (EditVM, error) {
	doc, err := sec.load(r.Context(), h.store)
	if err != nil {
		return EditVM{}, err
	}
	return EditVM{
		Base:      formutil.NewBase(r, sec.Title(), "/admin/content"),
		Key:       sec.Key(),
		Section:   sec.Title(),
		Fields:    doc.Fields,
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
		UpdatedBy: doc.UpdatedBy,
		Saved:     doc.Saved,
	}, nil
}

// failedVM keeps the submitted fields and the version the form was loaded
// with so the editor can copy their work before reloading.
func (h *Handler) failedVM(r *http.Request, sec section, expected int64, fields Fields) EditVM {
	return EditVM{
		Base:    formutil.NewBase(r, sec.Title(), "/admin/content"),
		Key:     sec.Key(),
		Section: sec.Title(),
		Fields:  fields,
		Version: expected,
		Saved:   expected > 0,
	}
}

func editorName(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		if u.Name != "" {
			return u.Name
		}
		return u.LoginID
	}
	return ""
}
