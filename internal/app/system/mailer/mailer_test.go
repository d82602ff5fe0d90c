package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type recordingSender struct {
	sent []Email
	err  error
}

func (r *recordingSender) Send(_ context.Context, e Email) error {
	r.sent = append(r.sent, e)
	return r.err
}

func TestSES_Send(t *testing.T) {
	fake := &fakeSES{}
	s := NewSESWithClient(fake, SESConfig{From: "no-reply@example.org", FromName: "StrataImpact"})

	err := s.Send(context.Background(), Email{
		To:       "ana@example.org",
		ReplyTo:  "visitor@example.org",
		Subject:  "Hello",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)
	require.NotNil(t, fake.input)

	assert.Equal(t, []string{"ana@example.org"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "StrataImpact <no-reply@example.org>", *fake.input.Source)
	assert.Equal(t, "Hello", *fake.input.Message.Subject.Data)
	assert.Equal(t, "plain", *fake.input.Message.Body.Text.Data)
	assert.Equal(t, "<p>html</p>", *fake.input.Message.Body.Html.Data)
	assert.Equal(t, []string{"visitor@example.org"}, fake.input.ReplyToAddresses)
}

func TestSES_SendTextOnlyAndError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	s := NewSESWithClient(fake, SESConfig{From: "no-reply@example.org"})

	err := s.Send(context.Background(), Email{To: "a@example.org", Subject: "x", TextBody: "y"})
	assert.ErrorContains(t, err, "throttled")
	assert.Nil(t, fake.input.Message.Body.Html)
	assert.Equal(t, "no-reply@example.org", *fake.input.Source)
}

func TestSMTP_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s := NewSMTP(SMTPConfig{Host: "mail.example.org", Port: 2525, From: "site@example.org", FromName: "Site"})
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), Email{To: "ana@example.org", Subject: "Hi", TextBody: "body"})
	require.NoError(t, err)
	assert.Equal(t, "mail.example.org:2525", gotAddr)
	assert.Equal(t, "site@example.org", gotFrom)
	assert.Equal(t, []string{"ana@example.org"}, gotTo)
	assert.Contains(t, string(gotMsg), "From: Site <site@example.org>\r\n")
	assert.Contains(t, string(gotMsg), "Content-Type: text/plain; charset=UTF-8")
}

func TestSMTP_CanceledContext(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "localhost", Port: 25, From: "a@b.org"})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Email{To: "x@y.org"}), context.Canceled)
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := string(buildMessage("Site <s@example.org>", Email{
		To:       "ana@example.org\r\nBcc: victim@example.org",
		Subject:  "Hello\nBcc: x@example.org",
		TextBody: "plain",
		HTMLBody: "<p>rich</p>",
	}, now))

	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "text/plain; charset=UTF-8\r\n\r\nplain")
	assert.Contains(t, msg, "text/html; charset=UTF-8\r\n\r\n<p>rich</p>")
	assert.Contains(t, msg, "Date: Sun, 01 Mar 2026 10:00:00 +0000")
	assert.True(t, strings.HasSuffix(msg, "--\r\n"))
}

func TestMailer_Notify(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, "Site", zap.NewNop())
	assert.True(t, m.Notify(context.Background(), Email{To: "a@example.org"}))
	assert.Len(t, rec.sent, 1)

	rec.err = errors.New("down")
	assert.False(t, m.Notify(context.Background(), Email{To: "a@example.org"}))

	assert.False(t, New(nil, "Site", nil).Notify(context.Background(), Email{To: "a@example.org"}))

	var nilMailer *Mailer
	assert.False(t, nilMailer.Notify(context.Background(), Email{}))
}

func TestEmailBuilders(t *testing.T) {
	c := ContactNotificationEmail("staff@example.org", ContactNotificationData{
		SiteName: "StrataImpact", Name: "Ana", Email: "ana@example.org",
		Subject: "Volunteering", Message: "<b>hi</b>", InquiryType: "volunteer", Urgency: "high",
	})
	assert.Equal(t, "ana@example.org", c.ReplyTo)
	assert.Contains(t, c.Subject, "URGENT")
	assert.Contains(t, c.HTMLBody, "&lt;b&gt;hi&lt;/b&gt;")

	r := RegistrationConfirmationEmail("ana@example.org", RegistrationConfirmationData{
		SiteName: "StrataImpact", Name: "Ana", EventTitle: "Park Cleanup", ConfirmationCode: "AB12CD34",
	})
	assert.Equal(t, "You're registered: Park Cleanup", r.Subject)
	assert.Contains(t, r.TextBody, "AB12CD34")
	assert.Contains(t, r.HTMLBody, "AB12CD34")

	w := WelcomeSubscriberEmail("pat@example.org", WelcomeSubscriberData{SiteName: "StrataImpact"})
	assert.Contains(t, w.TextBody, "Hello,")
	assert.Contains(t, w.HTMLBody, "Hello,")
}
