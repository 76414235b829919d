package queue

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"recruit-backend/internal/shared/util"
)

type sqsSender interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSClient publishes messages to one SQS queue. FIFO queues get a group per
// entity so events about the same record stay ordered.
type SQSClient struct {
	api      sqsSender
	queueURL string
	fifo     bool
}

// NewSQSClient loads the default AWS config for region and targets queueURL.
func NewSQSClient(ctx context.Context, region, queueURL string) (*SQSClient, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSQSClient(sqs.NewFromConfig(cfg), queueURL)
}

func newSQSClient(api sqsSender, queueURL string) (*SQSClient, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required")
	}
	return &SQSClient{
		api:      api,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}, nil
}

// Send publishes msg with its event and request id as message attributes.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	attrs := map[string]types.MessageAttributeValue{"event": stringAttr(msg.Event)}
	if msg.RequestID != "" {
		attrs["request_id"] = stringAttr(msg.RequestID)
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		in.MessageGroupId = aws.String(groupID(msg))
		in.MessageDeduplicationId = aws.String(util.HashKey(string(payload)))
	}

	if _, err := s.api.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs send message event=%s: %w", msg.Event, err)
	}
	return nil
}

func stringAttr(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}

// groupID picks the entity a message is about, preferring the application.
func groupID(msg Message) string {
	for _, key := range []string{"applicationId", "jobId"} {
		if id := msg.EntityIDs[key]; id != "" {
			return key + ":" + id
		}
	}
	keys := make([]string, 0, len(msg.EntityIDs))
	for k := range msg.EntityIDs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if id := msg.EntityIDs[k]; id != "" {
			return k + ":" + id
		}
	}
	return msg.Event
}

var _ Client = (*SQSClient)(nil)
