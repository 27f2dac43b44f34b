package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dataops-lab/pipeline-lambdas/internal/dao/ledgerdao"
	errs "github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBodies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		validate bool
		want     []string
		wantErr  error
	}{
		{
			name:     "json lines",
			input:    "{\"name\": \"abc\"}\n\n  {\"name\": \"xyz\"}  \n",
			validate: true,
			want:     []string{`{"name": "abc"}`, `{"name": "xyz"}`},
		},
		{
			name:     "empty input",
			input:    "",
			validate: true,
		},
		{
			name:     "invalid line",
			input:    "{\"a\": 1}\ninvalid_msg_body\n",
			validate: true,
			wantErr:  errs.ErrInvalidMessageBody,
		},
		{
			name:  "invalid line without validation",
			input: "invalid_msg_body\n",
			want:  []string{"invalid_msg_body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readBodies(strings.NewReader(tt.input), tt.validate)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBodies_ReportsLine(t *testing.T) {
	_, err := readBodies(strings.NewReader("{}\n\n[1]\n"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadDagConfig(t *testing.T) {
	config, err := readDagConfig(strings.NewReader(`{"dag_name": "orders", "retries": 3, "rate": 0.10}`))
	require.NoError(t, err)
	assert.Equal(t, "orders", config["dag_name"])
	assert.Equal(t, json.Number("3"), config["retries"])
	assert.Equal(t, json.Number("0.10"), config["rate"])

	_, err = readDagConfig(strings.NewReader(`null`))
	assert.Error(t, err)

	_, err = readDagConfig(strings.NewReader(`[1, 2]`))
	assert.Error(t, err)
}

func TestPrintLedger(t *testing.T) {
	var buf bytes.Buffer
	err := printLedger(&buf, []ledgerdao.Record{
		{
			PK:        "inv1",
			SK:        "Bounce",
			Bucket:    "raw",
			Key:       "webhooks/Bounce/07-03-26/1772893800-x.csv",
			Rows:      2,
			Bytes:     40,
			Status:    ledgerdao.StatusAcknowledged,
			CreatedAt: time.Date(2026, 3, 7, 14, 30, 0, 0, time.UTC).Unix(),
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "inv1:Bounce")
	assert.Contains(t, lines[1], "ACKNOWLEDGED")
	assert.Contains(t, lines[1], "2026-03-07T14:30:00Z")
	assert.Contains(t, lines[1], "s3://raw/webhooks/Bounce/07-03-26/1772893800-x.csv")
}
