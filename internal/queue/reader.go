// Package queue drains webhook payloads from SQS in bounded batches and
// acknowledges them once they have been stored.
package queue

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/rs/zerolog"
)

const (
	// DefaultPollingLimit caps the messages received per invocation when unset
	DefaultPollingLimit = 100

	// DefaultBatchSize is used for receive and delete requests when unset.
	// It is also the SQS maximum for both.
	DefaultBatchSize int32 = 10
)

// API is the subset of the SQS client used by Reader
type API interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// Message is a received SQS message
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Body returns the message body; handy with slicex.Map
func Body(m Message) string {
	return m.Body
}

// Config controls polling and deletion
type Config struct {
	MaxBatchSize int32 // messages per receive/delete request; 0 uses DefaultBatchSize
	MaxWaitTime  int32 // long poll seconds; 0 short polls
	PollingLimit int   // max messages per Receive; 0 uses DefaultPollingLimit
}

// Validate checks the values against SQS limits
func (c Config) Validate() error {
	if c.MaxBatchSize < 0 || c.MaxBatchSize > 10 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidBatchSize, c.MaxBatchSize)
	}
	if c.MaxWaitTime < 0 || c.MaxWaitTime > 20 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidWaitTime, c.MaxWaitTime)
	}
	if c.PollingLimit < 0 {
		return fmt.Errorf("%w: got %d", errors.ErrInvalidPollingLimit, c.PollingLimit)
	}
	return nil
}

func (c Config) batchSize() int32 {
	if c.MaxBatchSize > 0 {
		return c.MaxBatchSize
	}
	return DefaultBatchSize
}

func (c Config) pollingLimit() int {
	if c.PollingLimit > 0 {
		return c.PollingLimit
	}
	return DefaultPollingLimit
}

// Reader receives and deletes messages from a single queue
type Reader struct {
	client   API
	queueURL string
	cfg      Config
	acked    map[string]struct{}
}

// New returns a Reader for queueURL
func New(client API, queueURL string, cfg Config) *Reader {
	if client == nil {
		panic("sqs client is required")
	}
	if queueURL == "" {
		panic("queue url is required")
	}
	return &Reader{
		client:   client,
		queueURL: queueURL,
		cfg:      cfg,
		acked:    map[string]struct{}{},
	}
}

// QueueURL returns the queue the reader is bound to
func (r *Reader) QueueURL() string {
	return r.queueURL
}

// Receive polls the queue until the polling limit is reached or a poll returns no
// messages. Each request asks for at most the number of messages still allowed, so
// the result never exceeds the limit. Any transport error aborts the session.
func (r *Reader) Receive(ctx context.Context) ([]Message, error) {
	logger := zerolog.Ctx(ctx)
	limit := r.cfg.pollingLimit()

	var messages []Message
	for len(messages) < limit {
		n := r.cfg.batchSize()
		if remaining := limit - len(messages); int(n) > remaining {
			n = int32(remaining)
		}

		logger.Debug().
			Str("queue", r.queueURL).
			Int32("max_messages", n).
			Int("received", len(messages)).
			Msg("Beginning message poll")

		input := &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(r.queueURL),
			MaxNumberOfMessages: n,
		}
		if r.cfg.MaxWaitTime > 0 {
			input.WaitTimeSeconds = r.cfg.MaxWaitTime
		}

		out, err := r.client.ReceiveMessage(ctx, input)
		if err != nil {
			logAPIError(logger, err, "ReceiveMessage failed")
			return nil, fmt.Errorf("failed to receive messages from %s: %w", r.queueURL, err)
		}
		if len(out.Messages) == 0 {
			logger.Info().Str("queue", r.queueURL).Msg("No messages received during poll")
			break
		}

		for _, m := range out.Messages {
			messages = append(messages, Message{
				ID:            aws.ToString(m.MessageId),
				Body:          aws.ToString(m.Body),
				ReceiptHandle: aws.ToString(m.ReceiptHandle),
			})
		}
	}

	logger.Info().
		Str("queue", r.queueURL).
		Int("count", len(messages)).
		Msg("Total messages received")
	return messages, nil
}

// Delete acknowledges messages in sequential batches. A failed batch stops the
// deletion; batches already sent stay deleted.
func (r *Reader) Delete(ctx context.Context, messages []Message) error {
	logger := zerolog.Ctx(ctx)
	if len(messages) == 0 {
		return nil
	}

	pending := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		if _, ok := r.acked[m.ReceiptHandle]; ok {
			return fmt.Errorf("%w: message %s", errors.ErrAlreadyAcknowledged, m.ID)
		}
		if _, ok := pending[m.ReceiptHandle]; ok {
			return fmt.Errorf("%w: message %s listed twice", errors.ErrAlreadyAcknowledged, m.ID)
		}
		pending[m.ReceiptHandle] = struct{}{}
	}

	batch := int(r.cfg.batchSize())
	for i := 0; i < len(messages); i += batch {
		end := min(i+batch, len(messages))

		logger.Debug().
			Int("from", i).
			Int("to", end).
			Msg("Deleting message batch")

		entries := make([]sqstypes.DeleteMessageBatchRequestEntry, 0, end-i)
		for j, m := range messages[i:end] {
			entries = append(entries, sqstypes.DeleteMessageBatchRequestEntry{
				Id:            aws.String(strconv.Itoa(j + 1)),
				ReceiptHandle: aws.String(m.ReceiptHandle),
			})
		}

		out, err := r.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(r.queueURL),
			Entries:  entries,
		})
		if err != nil {
			logAPIError(logger, err, "DeleteMessageBatch failed")
			return fmt.Errorf("failed to delete messages %d-%d from %s: %w", i, end, r.queueURL, err)
		}
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return fmt.Errorf("%w: %d of %d entries, first id=%s code=%s message=%s",
				errors.ErrDeleteFailed, len(out.Failed), len(entries),
				aws.ToString(f.Id), aws.ToString(f.Code), aws.ToString(f.Message))
		}

		for _, m := range messages[i:end] {
			r.acked[m.ReceiptHandle] = struct{}{}
		}
	}

	logger.Info().
		Str("queue", r.queueURL).
		Int("count", len(messages)).
		Msg("Successfully deleted messages")
	return nil
}

func logAPIError(logger *zerolog.Logger, err error, msg string) {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		logger.Error().
			Err(err).
			Str("error_code", apiErr.ErrorCode()).
			Str("fault", apiErr.ErrorFault().String()).
			Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}
