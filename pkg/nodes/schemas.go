package nodes

import (
	"fmt"
	"strings"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Per-type configuration schemas, enforced at publish time. Execution-time
// defaults (models, timeouts, retry counts) stay optional here so existing
// flows keep working when new knobs are added.
var nodeSchemas = map[models.NodeType]string{
	models.NodeTypeStart: `{
		"type": "object",
		"properties": {
			"label": {"type": "string"}
		}
	}`,
	models.NodeTypeMessage: `{
		"type": "object",
		"anyOf": [
			{"required": ["message"]},
			{"required": ["text"]}
		],
		"properties": {
			"message": {"type": "string", "minLength": 1},
			"text": {"type": "string", "minLength": 1},
			"voice_id": {"type": "string", "minLength": 1}
		}
	}`,
	models.NodeTypeCondition: `{
		"type": "object",
		"properties": {
			"condition_type": {"type": "string", "enum": ["user_input", "ai_analysis", "custom"]},
			"expected_values": {"type": "array", "items": {"type": "string"}},
			"evaluation_prompt": {"type": "string"},
			"analysis_value": {"type": "string"},
			"expression": {"type": "string"},
			"model": {"type": "string"}
		}
	}`,
	models.NodeTypeAIResponse: `{
		"type": "object",
		"required": ["prompt"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1},
			"model": {"type": "string"},
			"max_tokens": {"type": "integer", "minimum": 1}
		}
	}`,
	models.NodeTypeCollectInput: `{
		"type": "object",
		"properties": {
			"input_type": {"type": "string", "enum": ["speech", "dtmf"]},
			"timeout": {"type": "integer", "minimum": 1},
			"max_retries": {"type": "integer", "minimum": 0},
			"variable_name": {"type": "string", "minLength": 1}
		}
	}`,
	models.NodeTypeTransfer: `{
		"type": "object",
		"required": ["transfer_number"],
		"properties": {
			"transfer_number": {"type": "string", "minLength": 1},
			"transfer_type": {"type": "string", "enum": ["warm", "cold"]}
		}
	}`,
	models.NodeTypeEnd: `{
		"type": "object",
		"properties": {
			"end_reason": {"type": "string"}
		}
	}`,
}

func validateNodeData(nodeType models.NodeType, data map[string]any) error {
	schema, ok := nodeSchemas[nodeType]
	if !ok {
		return fmt.Errorf("no configuration schema for node type %s", nodeType)
	}

	if data == nil {
		data = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validating %s node configuration: %w", nodeType, err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}

	return fmt.Errorf("invalid %s node configuration: %s", nodeType, strings.Join(messages, "; "))
}
