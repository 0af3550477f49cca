// Package notify publishes analysis-trigger notifications to an SNS topic.
// An external worker subscribes to the topic and produces the analysis
// documents the read API serves.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/hyperlog/hyperlog/internal/apperror"
)

// SNSAPI is the slice of the SNS client the publisher uses. Tests
// substitute a fake; production wiring passes *sns.Client.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends analysis requests for a user to the configured topic.
type Publisher struct {
	client   SNSAPI
	topicARN string
	logger   *slog.Logger
	now      func() time.Time
}

// NewPublisher creates a Publisher for the given topic.
func NewPublisher(client SNSAPI, topicARN string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:   client,
		topicARN: topicARN,
		logger:   logger,
		now:      time.Now,
	}
}

// Publish requests an analysis run for the user. The message body is the
// publish timestamp; the identifying payload travels in the user_id and
// github_token attributes, which is what the worker reads.
func (p *Publisher) Publish(ctx context.Context, userID, githubToken string) error {
	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(strconv.FormatInt(p.now().Unix(), 10)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"user_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(userID),
			},
			"github_token": {
				DataType:    aws.String("String"),
				StringValue: aws.String(githubToken),
			},
		},
	})
	if err != nil {
		return apperror.External("sns", fmt.Errorf("publishing analysis request: %w", err))
	}

	p.logger.Info("published analysis request",
		slog.String("user_id", userID),
		slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
