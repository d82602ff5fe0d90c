// internal/app/features/contact/contact.go
package contact

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	contactstore "github.com/dalemusser/strataimpact/internal/app/store/contacts"
	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/inputval"
	"github.com/dalemusser/strataimpact/internal/app/system/mailer"
	"github.com/dalemusser/strataimpact/internal/app/system/metrics"
	"github.com/dalemusser/strataimpact/internal/app/system/network"
	"github.com/dalemusser/strataimpact/internal/app/system/timeouts"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// MaxMessageLength caps the message body.
const MaxMessageLength = 5000

// contactInput is the typed contact form.
type contactInput struct {
	Name        string `validate:"required,max=120" label:"Name"`
	Email       string `validate:"required,mailaddr,max=254" label:"Email"`
	Subject     string `validate:"required,max=200" label:"Subject"`
	Message     string `validate:"required,max=5000" label:"Message"`
	InquiryType string `validate:"required,oneof=general volunteer partnership donation media" label:"Inquiry type"`
	Urgency     string `validate:"required,oneof=low normal high" label:"Urgency"`
}

// ContactVM is the contact page: settings, FAQs and the form.
type ContactVM struct {
	formutil.Base
	Settings     models.ContactSettings
	FAQs         []models.FAQ
	Form         contactInput
	InquiryTypes []string
	Urgencies    []string
	Sent         bool
}

func (h *Handler) newVM(r *http.Request) ContactVM {
	vm := ContactVM{
		Base:         formutil.NewBase(r, "Contact", "/"),
		Settings:     models.DefaultContact(),
		InquiryTypes: models.AllInquiryTypes(),
		Urgencies:    models.AllUrgencies(),
		Form:         contactInput{InquiryType: models.InquiryGeneral, Urgency: models.UrgencyNormal},
	}
	found, err := sitecontent.Get[models.ContactSettings](r.Context(), h.content, models.ContentKeyContact)
	if err != nil {
		h.errLog.Log(r, "failed to load contact settings", err)
	} else {
		vm.Settings = found.Or(vm.Settings)
	}
	faqs, err := h.faqs.List(r.Context(), true)
	if err != nil {
		h.errLog.Log(r, "failed to load faqs", err)
	}
	vm.FAQs = faqs
	return vm
}

// Show renders the contact page. ?sent=1 shows the thank-you note.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	vm := h.newVM(r)
	if r.URL.Query().Get("sent") == "1" {
		vm.Sent = true
		vm.SetSuccess("Thank you! Your message has been sent. We'll get back to you soon.")
	}
	templates.Render(w, r, "contact/show", vm)
}

// Submit validates and stores a contact message, then notifies staff.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errPages.BadRequest(w, r, "The form could not be read.")
		return
	}
	in := contactInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Subject:     strings.TrimSpace(r.FormValue("subject")),
		Message:     strings.TrimSpace(r.FormValue("message")),
		InquiryType: strings.TrimSpace(r.FormValue("inquiry_type")),
		Urgency:     strings.TrimSpace(r.FormValue("urgency")),
	}
	if in.InquiryType == "" {
		in.InquiryType = models.InquiryGeneral
	}
	if in.Urgency == "" {
		in.Urgency = models.UrgencyNormal
	}

	vm := h.newVM(r)
	vm.Form = in

	res, err := h.opts.Limiter.Hit(r.Context(), ThrottleScope, network.GetClientIP(r))
	if err != nil {
		h.logger.Warn("contact throttle unavailable", zap.Error(err))
	}
	if !res.Allowed {
		metrics.ContactMessages.WithLabelValues(metrics.ResultThrottled).Inc()
		vm.SetError("You've sent several messages in a short time. Please wait a few minutes and try again.")
		w.WriteHeader(http.StatusTooManyRequests)
		templates.Render(w, r, "contact/show", vm)
		return
	}

	if v := inputval.Validate(in); v.HasErrors() {
		metrics.ContactMessages.WithLabelValues(metrics.ResultInvalid).Inc()
		vm.SetError(v.First())
		templates.Render(w, r, "contact/show", vm)
		return
	}

	msg, err := h.contacts.Create(r.Context(), contactstore.CreateInput{
		Name:        in.Name,
		Email:       in.Email,
		Subject:     in.Subject,
		Message:     in.Message,
		InquiryType: in.InquiryType,
		Urgency:     in.Urgency,
	})
	if err != nil {
		metrics.ContactMessages.WithLabelValues(metrics.ResultError).Inc()
		h.errLog.Log(r, "failed to save contact message", err)
		vm.SetError(formutil.GenericError)
		templates.Render(w, r, "contact/show", vm)
		return
	}
	metrics.ContactMessages.WithLabelValues(metrics.ResultOK).Inc()

	h.notify(r.Context(), vm, msg)
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

// notify emails staff about msg. Delivery failures are logged by the mailer
// and never reach the visitor.
func (h *Handler) notify(ctx context.Context, vm ContactVM, msg models.ContactMessage) {
	if h.opts.Mailer == nil {
		return
	}
	to := h.opts.NotifyTo
	if to == "" {
		to = vm.Settings.Email
	}
	if to == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Medium())
	defer cancel()

	email := mailer.ContactNotificationEmail(to, mailer.ContactNotificationData{
		SiteName:    vm.SiteName,
		Name:        msg.Name,
		Email:       msg.Email,
		Subject:     msg.Subject,
		Message:     msg.Message,
		InquiryType: msg.InquiryType,
		Urgency:     msg.Urgency,
		AdminURL:    fmt.Sprintf("%s/admin/messages/%s", strings.TrimRight(h.opts.BaseURL, "/"), msg.ID.Hex()),
	})
	metrics.RecordEmail("contact", h.opts.Mailer.Notify(ctx, email))
}
