package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of the SES client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESConfig configures the SES transport. Credentials come from the
// default AWS chain.
type SESConfig struct {
	Region   string
	From     string
	FromName string
}

// SES sends mail with Amazon SES.
type SES struct {
	client SESAPI
	source string
}

// NewSES loads the AWS configuration for region and creates an SES sender.
func NewSES(ctx context.Context, cfg SESConfig) (*SES, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESWithClient(ses.NewFromConfig(awsCfg), cfg), nil
}

// NewSESWithClient creates an SES sender over an existing client.
func NewSESWithClient(client SESAPI, cfg SESConfig) *SES {
	return &SES{client: client, source: formatFrom(cfg.FromName, cfg.From)}
}

// Send implements Sender.
func (s *SES) Send(ctx context.Context, email Email) error {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(email.TextBody), Charset: aws.String("UTF-8")},
	}
	if email.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(email.HTMLBody), Charset: aws.String("UTF-8")}
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{headerSafe(email.To)}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(headerSafe(email.Subject)), Charset: aws.String("UTF-8")},
			Body:    body,
		},
		Source: aws.String(s.source),
	}
	if email.ReplyTo != "" {
		input.ReplyToAddresses = []string{headerSafe(email.ReplyTo)}
	}
	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
