package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// URLResolver looks up a queue URL from its name
type URLResolver interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
}

// Sender publishes message batches
type Sender interface {
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// ResolveQueueURL returns the URL of the queue called name
func ResolveQueueURL(ctx context.Context, client URLResolver, name string) (string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve queue %s: %w", name, err)
	}
	if out.QueueUrl == nil || *out.QueueUrl == "" {
		return "", fmt.Errorf("queue %s has no url", name)
	}
	return *out.QueueUrl, nil
}

// Enqueue sends bodies to the queue in batches of DefaultBatchSize and returns the
// number of messages accepted. Used by the operator CLI to replay webhook payloads.
func Enqueue(ctx context.Context, client Sender, queueURL string, bodies []string) (int, error) {
	logger := zerolog.Ctx(ctx)
	batch := int(DefaultBatchSize)

	sent := 0
	for i := 0; i < len(bodies); i += batch {
		end := min(i+batch, len(bodies))

		entries := make([]sqstypes.SendMessageBatchRequestEntry, 0, end-i)
		for j, body := range bodies[i:end] {
			entries = append(entries, sqstypes.SendMessageBatchRequestEntry{
				Id:          aws.String(strconv.Itoa(j + 1)),
				MessageBody: aws.String(body),
			})
		}

		out, err := client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(queueURL),
			Entries:  entries,
		})
		if err != nil {
			return sent, fmt.Errorf("failed to send messages %d-%d to %s: %w", i, end, queueURL, err)
		}
		sent += len(out.Successful)
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return sent, fmt.Errorf("sqs send failed: %d of %d entries, first id=%s code=%s message=%s",
				len(out.Failed), len(entries), aws.ToString(f.Id), aws.ToString(f.Code), aws.ToString(f.Message))
		}

		logger.Debug().Int("from", i).Int("to", end).Msg("Sent message batch")
	}
	return sent, nil
}
