// Package tools defines the contract shared by agent-facing tools.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Tool represents a capability an agent can invoke. Arguments arrive as a JSON
// object matching Schema.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "browser_open")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the given JSON arguments.
	// Returns: (result string, metadata map, error)
	// Metadata is optional and can be nil.
	Execute(ctx context.Context, argumentsJSON []byte) (string, map[string]interface{}, error)
}

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// DecodeArguments unmarshals a JSON argument object into v. Empty input and
// "null" leave v untouched.
func DecodeArguments(data []byte, v interface{}) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
