// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

// ContactNotificationData describes a new contact form message for staff.
type ContactNotificationData struct {
	SiteName    string
	Name        string
	Email       string
	Subject     string
	Message     string
	InquiryType string
	Urgency     string
	AdminURL    string
}

// ContactNotificationEmail builds the staff notification for a contact
// message. Replies go straight to the visitor.
func ContactNotificationEmail(to string, d ContactNotificationData) Email {
	subject := "[" + d.SiteName + "] " + d.Subject
	if d.Urgency == "high" {
		subject = "[" + d.SiteName + "] URGENT: " + d.Subject
	}
	var text strings.Builder
	text.WriteString("New " + d.InquiryType + " message from " + d.Name + " <" + d.Email + ">\n")
	text.WriteString("Urgency: " + d.Urgency + "\n\n")
	text.WriteString(d.Message + "\n\n")
	if d.AdminURL != "" {
		text.WriteString("View in admin: " + d.AdminURL + "\n")
	}
	return Email{
		To:       to,
		ReplyTo:  d.Email,
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: render(contactHTML, d),
	}
}

// RegistrationConfirmationData describes a new event registration for the attendee.
type RegistrationConfirmationData struct {
	SiteName         string
	Name             string
	EventTitle       string
	EventWhen        string
	Location         string
	ConfirmationCode string
	EventURL         string
}

// RegistrationConfirmationEmail builds the attendee's confirmation.
func RegistrationConfirmationEmail(to string, d RegistrationConfirmationData) Email {
	text := "Hi " + d.Name + ",\n\n" +
		"You're registered for " + d.EventTitle + ".\n\n" +
		"When: " + d.EventWhen + "\n" +
		"Where: " + d.Location + "\n" +
		"Confirmation code: " + d.ConfirmationCode + "\n\n" +
		"Event details: " + d.EventURL + "\n\n" +
		"Thank you for supporting " + d.SiteName + "."
	return Email{
		To:       to,
		Subject:  "You're registered: " + d.EventTitle,
		TextBody: text,
		HTMLBody: render(registrationHTML, d),
	}
}

// WelcomeSubscriberData describes a new newsletter subscription.
type WelcomeSubscriberData struct {
	SiteName string
	Name     string
	SiteURL  string
}

// WelcomeSubscriberEmail builds the newsletter welcome message.
func WelcomeSubscriberEmail(to string, d WelcomeSubscriberData) Email {
	greeting := "Hello"
	if d.Name != "" {
		greeting = "Hi " + d.Name
	}
	text := greeting + ",\n\nThanks for subscribing to news from " + d.SiteName + ".\n" +
		"We'll write when there are new events and stories to share.\n\n" + d.SiteURL
	return Email{
		To:       to,
		Subject:  "Welcome to the " + d.SiteName + " newsletter",
		TextBody: text,
		HTMLBody: render(welcomeHTML, struct {
			WelcomeSubscriberData
			Greeting string
		}{d, greeting}),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

const layoutTop = `<!DOCTYPE html><html><body style="margin:0;padding:24px;background:#f5f5f4;font-family:Helvetica,Arial,sans-serif;color:#1c1917">
<div style="max-width:560px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">`

const layoutBottom = `</div></body></html>`

var contactHTML = template.Must(template.New("contact").Parse(layoutTop + `
<h2 style="margin-top:0">New {{.InquiryType}} message</h2>
<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt;{{if eq .Urgency "high"}} <span style="color:#b91c1c">(urgent)</span>{{end}}</p>
<p><strong>{{.Subject}}</strong></p>
<p style="white-space:pre-wrap">{{.Message}}</p>
{{if .AdminURL}}<p><a href="{{.AdminURL}}">Open in admin</a></p>{{end}}
` + layoutBottom))

var registrationHTML = template.Must(template.New("registration").Parse(layoutTop + `
<h2 style="margin-top:0">You're registered!</h2>
<p>Hi {{.Name}}, thanks for signing up for <strong>{{.EventTitle}}</strong>.</p>
<table style="border-collapse:collapse">
<tr><td style="padding:4px 12px 4px 0">When</td><td>{{.EventWhen}}</td></tr>
<tr><td style="padding:4px 12px 4px 0">Where</td><td>{{.Location}}</td></tr>
<tr><td style="padding:4px 12px 4px 0">Confirmation code</td><td><code>{{.ConfirmationCode}}</code></td></tr>
</table>
<p><a href="{{.EventURL}}">Event details</a></p>
<p>Thank you for supporting {{.SiteName}}.</p>
` + layoutBottom))

var welcomeHTML = template.Must(template.New("welcome").Parse(layoutTop + `
<h2 style="margin-top:0">{{.Greeting}},</h2>
<p>Thanks for subscribing to news from {{.SiteName}}. We'll write when there are new events and stories to share.</p>
<p><a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
` + layoutBottom))
