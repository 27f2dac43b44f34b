package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dataops-lab/pipeline-lambdas/internal/records"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3API struct {
	puts   []*s3.PutObjectInput
	bodies [][]byte
	putErr error
}

func (f *fakeS3API) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return logger.WithContext(context.Background())
}

var fixedTime = time.Date(2026, 3, 7, 14, 30, 0, 0, time.UTC)

func TestFormatPath(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		recordType string
		id         string
		want       string
	}{
		{
			name:       "default format",
			format:     DefaultPathFormat,
			recordType: "inbound",
			id:         "abc",
			want:       "webhooks/inbound/07-03-26/1772893800-abc.csv",
		},
		{
			name:       "custom format without id",
			format:     "raw/$RECORD_TYPE/$DATE/$TIMESTAMP.csv",
			recordType: "Bounce",
			want:       "raw/Bounce/07-03-26/1772893800.csv",
		},
		{
			name:       "repeated placeholders",
			format:     "$RECORD_TYPE/$RECORD_TYPE-$TIMESTAMP",
			recordType: "SpamComplaint",
			want:       "SpamComplaint/SpamComplaint-1772893800",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPath(tt.format, tt.recordType, fixedTime, tt.id)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriter_Write(t *testing.T) {
	f := &fakeS3API{}
	w := New(f, "test_bucket",
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "id1" }),
	)

	rows := []records.Record{
		records.FromPairs("name", "abc"),
		records.FromPairs("name", "xyz"),
	}

	got, err := w.Write(testContext(), "inbound", rows)
	require.NoError(t, err)

	assert.Equal(t, WriteResult{
		RecordType: "inbound",
		Bucket:     "test_bucket",
		Key:        "webhooks/inbound/07-03-26/1772893800-id1.csv",
		Rows:       2,
		Bytes:      len("name\r\nabc\r\nxyz\r\n"),
		ETag:       `"etag"`,
	}, got)

	require.Len(t, f.puts, 1)
	assert.Equal(t, "test_bucket", aws.ToString(f.puts[0].Bucket))
	assert.Equal(t, got.Key, aws.ToString(f.puts[0].Key))
	assert.Equal(t, "text/csv", aws.ToString(f.puts[0].ContentType))
	assert.Equal(t, "name\r\nabc\r\nxyz\r\n", string(f.bodies[0]))
}

func TestWriter_Write_Empty(t *testing.T) {
	f := &fakeS3API{}
	w := New(f, "bkt")

	got, err := w.Write(testContext(), "inbound", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Bytes)
	require.Len(t, f.puts, 1)
	assert.Equal(t, int64(0), aws.ToInt64(f.puts[0].ContentLength))
	assert.Empty(t, f.bodies[0])
}

func TestWriter_Write_DistinctKeysWithinSameSecond(t *testing.T) {
	f := &fakeS3API{}
	w := New(f, "bkt", WithClock(func() time.Time { return fixedTime }))

	a, err := w.Write(testContext(), "inbound", nil)
	require.NoError(t, err)
	b, err := w.Write(testContext(), "inbound", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
}

func TestWriter_Write_CustomFormat(t *testing.T) {
	f := &fakeS3API{}
	w := New(f, "bkt",
		WithPathFormat("raw/$RECORD_TYPE/$TIMESTAMP.csv"),
		WithClock(func() time.Time { return fixedTime }),
	)

	got, err := w.Write(testContext(), "Bounce", nil)
	require.NoError(t, err)
	assert.Equal(t, "raw/Bounce/1772893800.csv", got.Key)
}

func TestWriter_Write_Error(t *testing.T) {
	boom := errors.New("access denied")
	f := &fakeS3API{putErr: boom}
	w := New(f, "bkt", WithIDGenerator(func() string { return "x" }))

	_, err := w.Write(testContext(), "inbound", []records.Record{records.FromPairs("a", "1")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "webhooks/inbound/")
}

func TestNew_Panics(t *testing.T) {
	assert.Panics(t, func() { New(nil, "bkt") })
	assert.Panics(t, func() { New(&fakeS3API{}, "  ") })
}
