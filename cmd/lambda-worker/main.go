package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"recruit-backend/internal/bootstrap"
	"recruit-backend/internal/notify"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	telemetry.Configure(os.Stdout, cfg.LogLevel)
	app, initErr = bootstrap.Build(cfg)
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		// Failing the invocation returns the whole batch to the queue.
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr})
		return events.SQSEventResponse{}, fmt.Errorf("bootstrap: %w", initErr)
	}
	return processRecords(ctx, app.Deliverer, event.Records), nil
}

// processRecords delivers each record and reports the ones SQS should
// redeliver. Records that can never succeed are acknowledged and dropped.
func processRecords(ctx context.Context, d notify.Deliverer, records []events.SQSMessage) events.SQSEventResponse {
	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	for _, record := range records {
		metrics.IncWorkerMessage("received")
		err := workerproc.HandleMessage(ctx, d, record.Body)
		if err == nil {
			metrics.IncWorkerMessage("completed")
			continue
		}

		fields := map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()}
		if attr, ok := record.MessageAttributes["request_id"]; ok && attr.StringValue != nil {
			fields["request_id"] = *attr.StringValue
		}
		if workerproc.Unrecoverable(err) {
			telemetry.Error("worker.message.dropped", fields)
			metrics.IncWorkerMessage("dropped")
			continue
		}
		telemetry.Warn("worker.message.failed", fields)
		metrics.IncWorkerMessage("failed")
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return resp
}

func main() {
	lambda.Start(handler)
}
