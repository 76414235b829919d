package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeNotifyDeliver is the asynq task type carrying a notification Message.
const TypeNotifyDeliver = "notify:deliver"

// NewNotifyTask wraps msg into an asynq task.
func NewNotifyTask(msg Message) (*asynq.Task, error) {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotifyDeliver, payload), nil
}

// AsynqClient sends queue messages through Redis using asynq.
type AsynqClient struct {
	client   *asynq.Client
	maxRetry int
}

// NewAsynqClient connects to Redis at addr.
func NewAsynqClient(addr string, maxRetry int) *AsynqClient {
	if maxRetry <= 0 {
		maxRetry = 5
	}
	return &AsynqClient{
		client:   asynq.NewClient(asynq.RedisClientOpt{Addr: addr}),
		maxRetry: maxRetry,
	}
}

// Send enqueues msg as a notify task.
func (a *AsynqClient) Send(ctx context.Context, msg Message) error {
	task, err := NewNotifyTask(msg)
	if err != nil {
		return fmt.Errorf("encode asynq task: %w", err)
	}
	if _, err := a.client.EnqueueContext(ctx, task, asynq.MaxRetry(a.maxRetry)); err != nil {
		return fmt.Errorf("asynq enqueue event=%s: %w", msg.Event, err)
	}
	return nil
}

// Close releases the Redis connection.
func (a *AsynqClient) Close() error {
	return a.client.Close()
}

var _ Client = (*AsynqClient)(nil)
