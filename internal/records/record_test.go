package records

import (
	"errors"
	"testing"

	errs "github.com/dataops-lab/pipeline-lambdas/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantKeys   []string
		wantValues []string
	}{
		{
			name:       "single string field",
			body:       `{"name": "abc"}`,
			wantKeys:   []string{"name"},
			wantValues: []string{"abc"},
		},
		{
			name:       "keeps document key order",
			body:       `{"zeta": "1", "alpha": "2", "mid": "3"}`,
			wantKeys:   []string{"zeta", "alpha", "mid"},
			wantValues: []string{"1", "2", "3"},
		},
		{
			name:       "scalar values rendered as text",
			body:       `{"count": 42, "ratio": 1.50, "ok": true, "spam": false, "missing": null}`,
			wantKeys:   []string{"count", "ratio", "ok", "spam", "missing"},
			wantValues: []string{"42", "1.50", "true", "false", ""},
		},
		{
			name:       "nested values rendered as compact json",
			body:       `{"tags": ["a", "b"], "meta": {"x": 1}}`,
			wantKeys:   []string{"tags", "meta"},
			wantValues: []string{`["a","b"]`, `{"x":1}`},
		},
		{
			name:       "escaped strings are unescaped",
			body:       `{"Subject": "hello \"world\"\n", "café": "ok"}`,
			wantKeys:   []string{"Subject", "café"},
			wantValues: []string{"hello \"world\"\n", "ok"},
		},
		{
			name:       "duplicate key keeps first position and last value",
			body:       `{"a": "1", "b": "2", "a": "3"}`,
			wantKeys:   []string{"a", "b"},
			wantValues: []string{"3", "2"},
		},
		{
			name:       "empty object",
			body:       `{}`,
			wantKeys:   []string{},
			wantValues: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, got.Keys())
			assert.Equal(t, tt.wantValues, got.Values())
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "invalid_msg_body"},
		{name: "truncated object", body: `{"name": "abc"`},
		{name: "array", body: `[{"name": "abc"}]`},
		{name: "string", body: `"abc"`},
		{name: "empty", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.body)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrInvalidMessageBody))
		})
	}
}

func TestRecord_Set(t *testing.T) {
	r := FromPairs("id", "1", "name", "abc")
	r.Set("name", "xyz")
	r.Set("extra", "e")

	assert.Equal(t, []string{"id", "name", "extra"}, r.Keys())
	assert.Equal(t, []string{"1", "xyz", "e"}, r.Values())
	assert.Equal(t, 3, r.Len())

	v, ok := r.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "xyz", v)

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestFromPairs_OddArguments(t *testing.T) {
	r := FromPairs("a", "1", "b")
	assert.Equal(t, []string{"a", "b"}, r.Keys())
	assert.Equal(t, []string{"1", ""}, r.Values())
}
