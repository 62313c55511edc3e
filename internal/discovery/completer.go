package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CompletionRequest is one structured-output prompt.
type CompletionRequest struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     map[string]any
}

// Completer answers a prompt with JSON matching the request's schema.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// decodeJSON unmarshals a model answer, tolerating a surrounding markdown code fence.
func decodeJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
