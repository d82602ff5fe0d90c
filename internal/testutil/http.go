package testutil

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/strataimpact/internal/app/system/auth"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the back-office user a request is made as.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// AdminUser returns a fresh admin with a random ID.
func AdminUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Admin", Email: "admin@test.com", Role: models.RoleAdmin}
}

// EditorUser returns a fresh editor with a random ID.
func EditorUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Editor", Email: "editor@test.com", Role: models.RoleEditor}
}

// WithUser puts user in the request context the way LoadSessionUser does,
// without a session cookie.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:      user.ID,
		Name:    user.Name,
		LoginID: user.Email,
		Role:    user.Role,
	})
}

// csrfTokenKey is the context key gorilla/csrf reads in csrf.Token.
const csrfTokenKey = "gorilla.csrf.Token"

// WithCSRFToken gives templates a token to render in csrf_field. The CSRF
// middleware itself is not in the handler chain under test.
func WithCSRFToken(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), csrfTokenKey, "test-csrf-token"))
}

// NewRequest is an anonymous request.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewFormRequest is an anonymous url-encoded POST, as the public forms
// (contact, newsletter, event registration) send.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return WithCSRFToken(req)
}

// NewAuthenticatedRequest is a request made as user.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewAuthenticatedRequestWithCSRF is NewAuthenticatedRequest for pages
// that render forms.
func NewAuthenticatedRequestWithCSRF(method, target string, user TestUser) *http.Request {
	return WithCSRFToken(NewAuthenticatedRequest(method, target, user))
}

// NewAuthenticatedForm is NewFormRequest made as user.
func NewAuthenticatedForm(target string, form url.Values, user TestUser) *http.Request {
	return WithUser(NewFormRequest(target, form), user)
}

// Upload is one file part of a multipart form.
type Upload struct {
	Field    string
	Filename string
	Content  []byte
}

// NewUploadForm is a multipart POST made as user, carrying fields and one
// file: gallery images, project images and settings imports.
func NewUploadForm(target string, fields url.Values, file Upload, user TestUser) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			_ = mw.WriteField(name, v)
		}
	}
	if fw, err := mw.CreateFormFile(file.Field, file.Filename); err == nil {
		_, _ = fw.Write(file.Content)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return WithUser(WithCSRFToken(req), user)
}

// ResponseRecorder adds assertions to httptest.ResponseRecorder.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

type errorer interface{ Errorf(string, ...any) }

func (r *ResponseRecorder) AssertStatus(t errorer, want int) {
	if r.Code != want {
		t.Errorf("status = %d, want %d", r.Code, want)
	}
}

// AssertRedirect accepts 301, 302 and 303.
func (r *ResponseRecorder) AssertRedirect(t errorer, want string) {
	switch r.Code {
	case http.StatusSeeOther, http.StatusFound, http.StatusMovedPermanently:
	default:
		t.Errorf("status = %d, want a redirect", r.Code)
	}
	if got := r.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func (r *ResponseRecorder) AssertContains(t errorer, s string) {
	if !strings.Contains(r.Body.String(), s) {
		t.Errorf("body does not contain %q", s)
	}
}

func (r *ResponseRecorder) AssertNotContains(t errorer, s string) {
	if strings.Contains(r.Body.String(), s) {
		t.Errorf("body unexpectedly contains %q", s)
	}
}
