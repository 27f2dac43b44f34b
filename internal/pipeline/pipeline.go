// Package pipeline moves webhook payloads from SQS to S3.
//
// One Run drains the queue up to the polling limit, decodes every message body,
// groups the records by RecordType, writes one CSV object per group and, only after
// every write succeeded, deletes all received messages. Any failure aborts the run
// with nothing deleted; SQS redelivers the messages after the visibility timeout and
// the next run writes them to new keys.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dataops-lab/pipeline-lambdas/internal/dao/ledgerdao"
	"github.com/dataops-lab/pipeline-lambdas/internal/objectstore"
	"github.com/dataops-lab/pipeline-lambdas/internal/queue"
	"github.com/dataops-lab/pipeline-lambdas/internal/records"
	"github.com/rs/zerolog"
	"github.com/savaki/gox/slicex"
	"github.com/segmentio/ksuid"
)

// Reader receives and acknowledges queue messages
type Reader interface {
	Receive(ctx context.Context) ([]queue.Message, error)
	Delete(ctx context.Context, messages []queue.Message) error
}

// Writer stores one partition
type Writer interface {
	Write(ctx context.Context, recordType string, rows []records.Record) (objectstore.WriteResult, error)
}

// Ledger records written partitions. Optional.
type Ledger interface {
	Create(ctx context.Context, input ledgerdao.CreateInput) (ledgerdao.Record, error)
	MarkAcknowledged(ctx context.Context, invocationID string, recordTypes ...string) error
}

// Result summarizes a run
type Result struct {
	InvocationID string
	Received     int
	Written      []objectstore.WriteResult
	Deleted      int
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLedger records every written partition in ledger
func WithLedger(ledger Ledger) Option {
	return func(p *Pipeline) {
		p.ledger = ledger
	}
}

// WithQueueURL labels ledger entries with the source queue
func WithQueueURL(url string) Option {
	return func(p *Pipeline) {
		p.queueURL = url
	}
}

// WithPartitionKey overrides the discriminant field and default bucket
func WithPartitionKey(key, defaultValue string) Option {
	return func(p *Pipeline) {
		p.partitionKey = key
		p.defaultBucket = defaultValue
	}
}

// Pipeline wires a Reader to a Writer
type Pipeline struct {
	reader        Reader
	writer        Writer
	ledger        Ledger
	queueURL      string
	partitionKey  string
	defaultBucket string
}

// New returns a Pipeline partitioning on RecordType with default bucket inbound
func New(reader Reader, writer Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		reader:        reader,
		writer:        writer,
		partitionKey:  records.RecordTypeKey,
		defaultBucket: records.DefaultRecordType,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes receive, decode, partition, write and acknowledge in order
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	result := Result{InvocationID: ksuid.New().String()}

	logger := zerolog.Ctx(ctx).With().Str("invocation_id", result.InvocationID).Logger()
	ctx = logger.WithContext(ctx)

	messages, err := p.reader.Receive(ctx)
	if err != nil {
		return result, err
	}
	result.Received = len(messages)

	if len(messages) == 0 {
		logger.Info().Msg("Queue is empty, nothing to process")
		return result, nil
	}

	rows := make([]records.Record, 0, len(messages))
	for i, body := range slicex.Map(messages, queue.Body) {
		row, err := records.Decode(body)
		if err != nil {
			return result, fmt.Errorf("failed to decode message %s: %w", messages[i].ID, err)
		}
		rows = append(rows, row)
	}

	partitions := records.Partition(rows, p.partitionKey, p.defaultBucket)
	logger.Info().
		Int("messages", len(messages)).
		Strs("record_types", partitions.Keys()).
		Msg("Partitioned messages by record type")

	for _, recordType := range partitions.Keys() {
		written, err := p.writer.Write(ctx, recordType, partitions.Get(recordType))
		if err != nil {
			return result, fmt.Errorf("failed to write %s records: %w", recordType, err)
		}
		result.Written = append(result.Written, written)

		if p.ledger != nil {
			_, err := p.ledger.Create(ctx, ledgerdao.CreateInput{
				InvocationID: result.InvocationID,
				RecordType:   recordType,
				QueueURL:     p.queueURL,
				Bucket:       written.Bucket,
				Key:          written.Key,
				Rows:         written.Rows,
				Bytes:        written.Bytes,
				Messages:     len(messages),
			})
			if err != nil {
				return result, fmt.Errorf("failed to record %s write: %w", recordType, err)
			}
		}
	}

	if err := p.reader.Delete(ctx, messages); err != nil {
		return result, err
	}
	result.Deleted = len(messages)

	if p.ledger != nil {
		if err := p.ledger.MarkAcknowledged(ctx, result.InvocationID, partitions.Keys()...); err != nil {
			// messages are already gone; the ledger entry stays WRITTEN
			logger.Warn().Err(err).Msg("Failed to mark ledger entries acknowledged")
		}
	}

	logger.Info().
		Int("received", result.Received).
		Int("objects", len(result.Written)).
		Int("deleted", result.Deleted).
		Msg("Webhook batch processed")
	return result, nil
}
