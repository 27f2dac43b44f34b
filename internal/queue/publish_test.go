package queue

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveQueueURL(t *testing.T) {
	f := newFakeSQS(0)

	url, err := ResolveQueueURL(testContext(), f, "webhooks")
	require.NoError(t, err)
	assert.Equal(t, testQueueURL, url)

	_, err = ResolveQueueURL(testContext(), f, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestEnqueue(t *testing.T) {
	f := newFakeSQS(0)

	var bodies []string
	for i := 0; i < 23; i++ {
		bodies = append(bodies, fmt.Sprintf(`{"i": %d}`, i))
	}

	sent, err := Enqueue(testContext(), f, testQueueURL, bodies)
	require.NoError(t, err)
	assert.Equal(t, 23, sent)

	require.Len(t, f.sendBatches, 3)
	assert.Len(t, f.sendBatches[0], 10)
	assert.Len(t, f.sendBatches[1], 10)
	assert.Len(t, f.sendBatches[2], 3)
	assert.Equal(t, "1", aws.ToString(f.sendBatches[2][0].Id))
	assert.Equal(t, `{"i": 20}`, aws.ToString(f.sendBatches[2][0].MessageBody))
}

func TestEnqueue_Failed(t *testing.T) {
	f := newFakeSQS(0)
	f.sendFail = true

	sent, err := Enqueue(testContext(), f, testQueueURL, []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Equal(t, 2, sent)
	assert.Contains(t, err.Error(), "InvalidMessageContents")
}
