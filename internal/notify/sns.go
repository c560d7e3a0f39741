// internal/notify/sns.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	awsclients "job-snatcher/internal/common/aws"
	"job-snatcher/internal/jobs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSSink publishes a JSON event with the drafted ids to a topic.
type SNSSink struct {
	client   awsclients.SNSService
	topicARN string
}

func NewSNSSink(client awsclients.SNSService, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

func (s *SNSSink) Name() string { return "sns" }

type draftedEvent struct {
	Event  string   `json:"event"`
	JobIDs []string `json:"job_ids"`
	Count  int      `json:"count"`
}

func (s *SNSSink) Notify(ctx context.Context, drafts []*jobs.Record) error {
	msg, err := json.Marshal(draftedEvent{Event: "jobs.drafted", JobIDs: ids(drafts), Count: len(drafts)})
	if err != nil {
		return err
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(Subject(drafts)),
		Message:  aws.String(string(msg)),
	})
	if err != nil {
		return fmt.Errorf("publish drafted event: %w", err)
	}
	return nil
}
