// internal/notify/email.go
package notify

import (
	"context"
	"errors"
	"fmt"

	awsclients "job-snatcher/internal/common/aws"
	"job-snatcher/internal/jobs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var ErrNoRecipients = errors.New("NO_RECIPIENTS")

// EmailSink sends one SES digest per batch.
type EmailSink struct {
	client awsclients.SESService
	from   string
	to     []string
}

func NewEmailSink(client awsclients.SESService, from string, to []string) *EmailSink {
	return &EmailSink{client: client, from: from, to: to}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Notify(ctx context.Context, drafts []*jobs.Record) error {
	if len(s.to) == 0 {
		return ErrNoRecipients
	}
	body := Digest(drafts)
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: s.to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(Subject(drafts))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}
	return nil
}
