package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Metadata is the agent-supplied extension record carried by submissions and copied
// verbatim onto the resource they become. Known keys are typed; anything else an agent
// sends is kept in Extra and written back unchanged. A known key sent as null or "" has
// no typed value, so its raw form is kept in Extra as well.
type Metadata struct {
	DiscoveryTopic  string
	SourceAgent     string
	ConfidenceScore *float64
	URLVerified     *bool
	Notes           string
	Extra           map[string]json.RawMessage
}

const (
	metaDiscoveryTopic  = "discoveryTopic"
	metaSourceAgent     = "sourceAgent"
	metaConfidenceScore = "confidenceScore"
	metaURLVerified     = "urlVerified"
	metaNotes           = "notes"
)

// ErrConfidenceRange is returned for a confidence score outside [0, 1].
var ErrConfidenceRange = errors.New("confidenceScore must be between 0 and 1")

// Validate checks the typed keys.
func (m *Metadata) Validate() error {
	if m == nil || m.ConfidenceScore == nil {
		return nil
	}
	if s := *m.ConfidenceScore; s < 0 || s > 1 {
		return ErrConfidenceRange
	}
	return nil
}

// MarshalJSON flattens the typed keys and Extra into one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.DiscoveryTopic != "" {
		out[metaDiscoveryTopic] = m.DiscoveryTopic
	}
	if m.SourceAgent != "" {
		out[metaSourceAgent] = m.SourceAgent
	}
	if m.ConfidenceScore != nil {
		out[metaConfidenceScore] = *m.ConfidenceScore
	}
	if m.URLVerified != nil {
		out[metaURLVerified] = *m.URLVerified
	}
	if m.Notes != "" {
		out[metaNotes] = m.Notes
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a JSON object into typed keys and Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("metadata must be an object: %w", err)
	}
	*m = Metadata{}
	for k, v := range raw {
		var err error
		switch k {
		case metaDiscoveryTopic:
			err = json.Unmarshal(v, &m.DiscoveryTopic)
		case metaSourceAgent:
			err = json.Unmarshal(v, &m.SourceAgent)
		case metaConfidenceScore:
			err = json.Unmarshal(v, &m.ConfidenceScore)
		case metaURLVerified:
			err = json.Unmarshal(v, &m.URLVerified)
		case metaNotes:
			err = json.Unmarshal(v, &m.Notes)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]json.RawMessage)
			}
			m.Extra[k] = v
		}
		if err != nil {
			return fmt.Errorf("metadata.%s: %w", k, err)
		}
		if isKnownKey(k) && isBlankJSON(v) {
			if m.Extra == nil {
				m.Extra = make(map[string]json.RawMessage)
			}
			m.Extra[k] = v
		}
	}
	return nil
}

func isKnownKey(k string) bool {
	switch k {
	case metaDiscoveryTopic, metaSourceAgent, metaConfidenceScore, metaURLVerified, metaNotes:
		return true
	}
	return false
}

func isBlankJSON(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}

// EncodeMetadata returns the jsonb column value for m; nil stores NULL.
func EncodeMetadata(m *Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// DecodeMetadata parses a jsonb column value; NULL yields nil.
func DecodeMetadata(raw []byte) (*Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
