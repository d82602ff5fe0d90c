// Package formutil holds the shared fields of pages that re-render a form
// with the visitor's input and an error message.
package formutil

import (
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
)

// GenericError is shown when a form fails for a reason the visitor cannot fix.
const GenericError = "Something went wrong. Please try again."

// Base is embedded by form view models.
//
//	type faqForm struct {
//	    formutil.Base
//	    Question string
//	}
type Base struct {
	viewdata.BaseVM
	Error   string
	Success string
}

// NewBase builds a Base for a form page.
func NewBase(r *http.Request, title, backDefault string) Base {
	return Base{BaseVM: viewdata.NewBaseVM(r, title, backDefault)}
}

// SetError sets the message shown above the form.
func (b *Base) SetError(msg string) { b.Error = msg }

// SetSuccess sets the confirmation shown above the form.
func (b *Base) SetSuccess(msg string) { b.Success = msg }
