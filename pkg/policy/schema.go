package policy

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "policy.schema.json"

const policySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["defaults", "themes"],
  "additionalProperties": false,
  "definitions": {
    "bucketList": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "termList": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    }
  },
  "properties": {
    "defaults": {
      "type": "object",
      "required": ["include_buckets"],
      "additionalProperties": false,
      "properties": {
        "include_buckets": {"$ref": "#/definitions/bucketList"},
        "exclude_groups": {
          "type": "array",
          "items": {"enum": ["unique", "exclude"]}
        },
        "block_terms": {"$ref": "#/definitions/termList"}
      }
    },
    "themes": {
      "type": "object",
      "minProperties": 1,
      "propertyNames": {"pattern": "^[a-z0-9_]+$"},
      "additionalProperties": {
        "type": ["object", "null"],
        "additionalProperties": false,
        "properties": {
          "include_only_buckets": {"$ref": "#/definitions/bucketList"},
          "also_allow_buckets": {"$ref": "#/definitions/bucketList"},
          "extra_block_terms": {"$ref": "#/definitions/termList"}
        }
      }
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiledSchema, compiledSchemaErr = jsonschema.CompileString(schemaURL, policySchema)
	})
	return compiledSchema, compiledSchemaErr
}

// validateDocument checks a decoded YAML document against the policy schema.
func validateDocument(doc interface{}) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("failed to compile policy schema: %w", err)
	}

	// Round-trip through JSON so numbers and maps have the shapes the validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("policy is not representable as JSON: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("failed to normalize policy: %w", err)
	}

	if err := s.Validate(normalized); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}
