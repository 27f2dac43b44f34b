// Package objectstore writes record-type partitions to S3 as CSV objects.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dataops-lab/pipeline-lambdas/internal/records"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// DefaultPathFormat places each partition under its record type and day.
// $ID keeps keys distinct when two writes share a second.
const DefaultPathFormat = "webhooks/$RECORD_TYPE/$DATE/$TIMESTAMP-$ID.csv"

const (
	dateLayout  = "02-01-06" // dd-mm-yy
	contentType = "text/csv"
)

// API is the subset of the S3 client used by Writer
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// WriteResult describes a stored partition
type WriteResult struct {
	RecordType string
	Bucket     string
	Key        string
	Rows       int
	Bytes      int
	ETag       string
}

// Option configures a Writer
type Option func(*Writer)

// WithPathFormat overrides DefaultPathFormat
func WithPathFormat(format string) Option {
	return func(w *Writer) {
		if format != "" {
			w.pathFormat = format
		}
	}
}

// WithClock overrides the time source used for key generation
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// WithIDGenerator overrides the $ID generator
func WithIDGenerator(fn func() string) Option {
	return func(w *Writer) {
		w.newID = fn
	}
}

// Writer stores partitions in a single bucket
type Writer struct {
	client     API
	bucket     string
	pathFormat string
	now        func() time.Time
	newID      func() string
}

// New returns a Writer for bucket
func New(client API, bucket string, opts ...Option) *Writer {
	if client == nil {
		panic("s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		panic("bucket is required")
	}

	w := &Writer{
		client:     client,
		bucket:     bucket,
		pathFormat: DefaultPathFormat,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return ksuid.New().String() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Bucket returns the destination bucket
func (w *Writer) Bucket() string {
	return w.bucket
}

// FormatPath expands the $RECORD_TYPE, $DATE, $TIMESTAMP and $ID placeholders
func FormatPath(format, recordType string, now time.Time, id string) string {
	return strings.NewReplacer(
		"$RECORD_TYPE", recordType,
		"$DATE", now.Format(dateLayout),
		"$TIMESTAMP", strconv.FormatInt(now.Unix(), 10),
		"$ID", id,
	).Replace(format)
}

// Write serializes rows as CSV and puts them under a fresh key for recordType.
// Empty rows produce a zero-byte object.
func (w *Writer) Write(ctx context.Context, recordType string, rows []records.Record) (WriteResult, error) {
	logger := zerolog.Ctx(ctx)

	data, err := records.EncodeCSV(rows)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to encode %s records: %w", recordType, err)
	}

	key := FormatPath(w.pathFormat, recordType, w.now(), w.newID())

	logger.Info().
		Str("bucket", w.bucket).
		Str("key", key).
		Str("record_type", recordType).
		Int("rows", len(rows)).
		Msg("Uploading csv data")

	out, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(w.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return WriteResult{}, fmt.Errorf("put s3 object key=%q: %w", key, err)
	}

	return WriteResult{
		RecordType: recordType,
		Bucket:     w.bucket,
		Key:        key,
		Rows:       len(rows),
		Bytes:      len(data),
		ETag:       aws.ToString(out.ETag),
	}, nil
}
