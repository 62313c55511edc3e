package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataKeepsUnknownKeys(t *testing.T) {
	in := `{"discoveryTopic":"focus","sourceAgent":"scout-v2","confidenceScore":0.8,"urlVerified":true,"pages":296,"extra":{"a":[1,2]}}`

	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(in), &m))

	assert.Equal(t, "focus", m.DiscoveryTopic)
	assert.Equal(t, "scout-v2", m.SourceAgent)
	require.NotNil(t, m.ConfidenceScore)
	assert.InDelta(t, 0.8, *m.ConfidenceScore, 1e-9)
	require.NotNil(t, m.URLVerified)
	assert.True(t, *m.URLVerified)
	assert.JSONEq(t, `296`, string(m.Extra["pages"]))

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestMetadataKeepsBlankKnownKeys(t *testing.T) {
	in := `{"discoveryTopic":"","notes":null,"sourceAgent":"a","x":1}`

	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	assert.Empty(t, m.DiscoveryTopic)
	assert.Equal(t, "a", m.SourceAgent)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestMetadataRejectsWrongTypes(t *testing.T) {
	var m Metadata
	err := json.Unmarshal([]byte(`{"confidenceScore":"high"}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.confidenceScore")

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
}

func TestMetadataValidate(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	assert.NoError(t, (*Metadata)(nil).Validate())
	assert.NoError(t, (&Metadata{ConfidenceScore: score(0)}).Validate())
	assert.NoError(t, (&Metadata{ConfidenceScore: score(1)}).Validate())
	assert.ErrorIs(t, (&Metadata{ConfidenceScore: score(1.2)}).Validate(), ErrConfidenceRange)
	assert.ErrorIs(t, (&Metadata{ConfidenceScore: score(-0.1)}).Validate(), ErrConfidenceRange)
}

func TestEncodeDecodeMetadataNull(t *testing.T) {
	raw, err := EncodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)

	m, err := DecodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = DecodeMetadata([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = DecodeMetadata([]byte(`{"sourceAgent":"admin-extract-ui"}`))
	require.NoError(t, err)
	assert.Equal(t, "admin-extract-ui", m.SourceAgent)
}

func TestResourceTypeValid(t *testing.T) {
	assert.True(t, ResourceTypeYouTubeSeries.Valid())
	assert.False(t, ResourceType("VIDEO").Valid())
	assert.False(t, ResourceType("book").Valid())
}

func TestSubmissionStatusTerminal(t *testing.T) {
	assert.False(t, SubmissionPending.Terminal())
	assert.True(t, SubmissionApproved.Terminal())
	assert.True(t, SubmissionRejected.Terminal())
}
