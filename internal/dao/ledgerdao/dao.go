package ledgerdao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
)

const ttlDays = 30

// TableName returns the ledger table for env
func TableName(env string) string {
	return fmt.Sprintf("%s-pipeline-webhook-ledger", env)
}

// PK is the invocation KSUID
type PK string

func (pk PK) String() string {
	return string(pk)
}

// ID identifies a ledger entry in format {invocation}:{record_type}
// Example: 2HFj3kLmNoPqRsTuVwXy:Bounce
type ID string

func (id ID) String() string {
	return string(id)
}

// NewID builds an ID from invocation ID and record type
func NewID(invocationID, recordType string) ID {
	return ID(fmt.Sprintf("%s:%s", invocationID, recordType))
}

// ParseID splits an ID into invocation ID and record type
func ParseID(id ID) (invocationID, recordType string, err error) {
	s := string(id)
	invocationID, recordType, ok := strings.Cut(s, ":")
	if !ok || invocationID == "" || recordType == "" {
		return "", "", fmt.Errorf("invalid ledger ID format: %s, expected {invocation}:{record_type}", s)
	}
	return invocationID, recordType, nil
}

// Status of a written partition
type Status string

const (
	StatusWritten      Status = "WRITTEN"
	StatusAcknowledged Status = "ACKNOWLEDGED"
)

// Record is one partition written by one invocation
type Record struct {
	PK        PK     `ddb:"hash" dynamodbav:"pk"`  // invocation KSUID
	SK        string `ddb:"range" dynamodbav:"sk"` // record type
	QueueURL  string `dynamodbav:"queue_url,omitempty"`
	Bucket    string `dynamodbav:"bucket"`
	Key       string `dynamodbav:"key"`
	Rows      int    `dynamodbav:"rows"`
	Bytes     int    `dynamodbav:"bytes"`
	Messages  int    `dynamodbav:"messages"` // messages received by the invocation
	Status    Status `dynamodbav:"status"`
	CreatedAt int64  `dynamodbav:"created_at"`
	UpdatedAt int64  `dynamodbav:"updated_at"`
	TTL       int64  `dynamodbav:"ttl"`
}

// GetID returns the ledger ID of the record
func (r *Record) GetID() ID {
	return NewID(r.PK.String(), r.SK)
}

// CreateInput describes a written partition
type CreateInput struct {
	InvocationID string
	RecordType   string
	QueueURL     string
	Bucket       string
	Key          string
	Rows         int
	Bytes        int
	Messages     int
}

// DAO provides access to the write ledger
type DAO struct {
	db    *ddb.DDB
	table *ddb.Table
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{
		db:    db,
		table: table,
	}
}

// Create stores a WRITTEN entry for a partition
func (d *DAO) Create(ctx context.Context, input CreateInput) (Record, error) {
	now := time.Now()

	record := Record{
		PK:        PK(input.InvocationID),
		SK:        input.RecordType,
		QueueURL:  input.QueueURL,
		Bucket:    input.Bucket,
		Key:       input.Key,
		Rows:      input.Rows,
		Bytes:     input.Bytes,
		Messages:  input.Messages,
		Status:    StatusWritten,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
		TTL:       now.Add(ttlDays * 24 * time.Hour).Unix(),
	}

	if err := d.table.Put(&record).RunWithContext(ctx); err != nil {
		return Record{}, fmt.Errorf("failed to create ledger record: %w", err)
	}
	return record, nil
}

// MarkAcknowledged flags the invocation's entries once its messages are deleted
func (d *DAO) MarkAcknowledged(ctx context.Context, invocationID string, recordTypes ...string) error {
	now := time.Now().Unix()
	for _, recordType := range recordTypes {
		err := d.table.Update(invocationID).
			Range(recordType).
			Set("#Status = ?", string(StatusAcknowledged)).
			Set("#UpdatedAt = ?", now).
			RunWithContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to acknowledge ledger record %s: %w", NewID(invocationID, recordType), err)
		}
	}
	return nil
}

// Find retrieves a ledger entry; returns nil when absent
func (d *DAO) Find(ctx context.Context, id ID) (*Record, error) {
	invocationID, recordType, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var record Record
	err = d.table.Get(invocationID).
		Range(recordType).
		ConsistentRead(true).
		ScanWithContext(ctx, &record)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "item not found") || strings.Contains(errStr, "ItemNotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ledger record: %w", err)
	}

	if record.PK == "" && record.SK == "" {
		return nil, nil
	}
	return &record, nil
}

// Query returns every entry written by an invocation
func (d *DAO) Query(ctx context.Context, invocationID string) ([]Record, error) {
	var records []Record
	err := d.table.Query("#PK = ?", invocationID).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	return records, nil
}
