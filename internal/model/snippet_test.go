package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCloudRef(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    CloudRef
		wantErr bool
	}{
		{name: "composite", in: "abc:def", want: CloudRef{SnippetUUID: "abc", BlobUUID: "def"}},
		{name: "empty", in: "", want: CloudRef{}},
		{name: "whitespace", in: "  ", want: CloudRef{}},
		{name: "missing blob", in: "abc:", wantErr: true},
		{name: "missing snippet", in: ":def", wantErr: true},
		{name: "no separator", in: "abc", wantErr: true},
		{name: "too many parts", in: "a:b:c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCloudRef(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCloudRefString(t *testing.T) {
	assert.Equal(t, "abc:def", CloudRef{SnippetUUID: "abc", BlobUUID: "def"}.String())
	assert.Equal(t, "", CloudRef{}.String())
	assert.True(t, CloudRef{}.IsZero())
}

func TestCloudRefJSON(t *testing.T) {
	s := Snippet{Name: "hello", CloudRef: CloudRef{SnippetUUID: "abc", BlobUUID: "def"}}

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"cloudRef":"abc:def"`)

	var back Snippet
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s.CloudRef, back.CloudRef)
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy("1"))
	assert.True(t, Truthy("true"))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy("0"))
}
