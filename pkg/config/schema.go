package config

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchema constrains the shape of a loaded config regardless of the
// source format. Dates are checked here so a typo fails before any group
// is processed.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "groups": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "alias_mapping_by_group": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "additionalProperties": {"type": "string", "minLength": 1}
          }
        },
        "excluded_members": {
          "type": "array",
          "items": {"type": "string", "minLength": 1}
        },
        "excluded_members_by_group": {
          "type": "object",
          "additionalProperties": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    },
    "window": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "project_start_date": {
          "type": "string",
          "pattern": "^(\\d{4}-\\d{2}-\\d{2})?$"
        },
        "analysis_days": {"type": "integer", "minimum": 0},
        "timezone": {"type": "string"}
      }
    },
    "thresholds": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "low": {"type": "integer", "minimum": 0},
        "medium": {"type": "integer", "minimum": 0},
        "high": {"type": "integer", "minimum": 0}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "format": {"enum": ["text", "json", "markdown", "toon"]},
        "color": {"type": "boolean"},
        "top_n": {"type": "integer", "minimum": 1}
      }
    }
  }
}`

// validateRaw checks a koanf raw map against the config schema. The map is
// round-tripped through JSON so every scalar carries a JSON type.
func validateRaw(raw map[string]any) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchema))
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("groupstat-config.json", schemaDoc); err != nil {
		return err
	}
	schema, err := compiler.Compile("groupstat-config.json")
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	return schema.Validate(instance)
}
