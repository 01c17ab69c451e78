package catalog

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// Trigger payload schemas. Payloads are optional overrides on top of what
// the nodes read from the detection source, so every property is optional
// but typed when present.
var payloadSchemas = map[models.WorkflowType]map[string]any{
	models.WorkflowOvercrowding: {
		"type": "object",
		"properties": map[string]any{
			"person_count": map[string]any{"type": "integer", "minimum": 0},
			"camera_id":    map[string]any{"type": "string"},
		},
		"additionalProperties": true,
	},
	models.WorkflowQueue: {
		"type": "object",
		"properties": map[string]any{
			"queue_people":          map[string]any{"type": "integer", "minimum": 0},
			"throughput_per_minute": map[string]any{"type": "number", "minimum": 0},
		},
		"additionalProperties": true,
	},
	models.WorkflowPeakHour: {
		"type": "object",
		"properties": map[string]any{
			"visitor_count": map[string]any{"type": "integer", "minimum": 0},
		},
		"additionalProperties": true,
	},
	models.WorkflowPopularity: {
		"type": "object",
		"properties": map[string]any{
			"visits": map[string]any{"type": "integer", "minimum": 0},
		},
		"additionalProperties": true,
	},
	models.WorkflowDemographics: {
		"type":                 "object",
		"additionalProperties": true,
	},
}

func validatePayload(workflowType models.WorkflowType, payload map[string]any) error {
	if payload == nil {
		return nil
	}

	schema, ok := payloadSchemas[workflowType]
	if !ok {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("payload schema validation failed: %w", err)
	}

	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid %s payload: %s", workflowType, errs[0].String())
		}

		return fmt.Errorf("invalid %s payload", workflowType)
	}

	return nil
}
