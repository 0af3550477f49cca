package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlog/hyperlog/internal/apperror"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestPublish(t *testing.T) {
	fake := &fakeSNS{}
	pub := NewPublisher(fake, "arn:aws:sns:us-east-1:123456789012:analysis", slog.New(slog.NewTextHandler(io.Discard, nil)))
	frozen := time.Unix(1700000000, 0)
	pub.now = func() time.Time { return frozen }

	err := pub.Publish(context.Background(), "user-1", "gho_abc")
	require.NoError(t, err)

	in := fake.in
	require.NotNil(t, in)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:analysis", *in.TopicArn)
	assert.Equal(t, strconv.FormatInt(frozen.Unix(), 10), *in.Message)

	userAttr := in.MessageAttributes["user_id"]
	assert.Equal(t, "String", *userAttr.DataType)
	assert.Equal(t, "user-1", *userAttr.StringValue)

	tokenAttr := in.MessageAttributes["github_token"]
	assert.Equal(t, "String", *tokenAttr.DataType)
	assert.Equal(t, "gho_abc", *tokenAttr.StringValue)
}

func TestPublish_Error(t *testing.T) {
	pub := NewPublisher(&fakeSNS{err: errors.New("topic gone")}, "arn", slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := pub.Publish(context.Background(), "user-1", "gho_abc")
	assert.ErrorIs(t, err, apperror.ErrExternal)
}
