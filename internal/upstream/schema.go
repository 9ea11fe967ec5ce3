package upstream

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// progressSchema is the contract the progress endpoint is supposed to honor.
// Validation is warn-only: a deviating payload is logged, never rejected,
// because the resolver tolerates malformed records on its own.
const progressSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"oneOf": [
		{"$ref": "#/$defs/records"},
		{
			"type": "object",
			"properties": {"data": {"$ref": "#/$defs/records"}},
			"required": ["data"]
		}
	],
	"$defs": {
		"records": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"status": {"type": "string"},
					"is_assigned": {"type": "boolean"},
					"score": {"type": "number"},
					"attempts": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var compiledProgressSchema = jsonschema.MustCompileString("progress.json", progressSchema)

func validateProgressPayload(payload []byte) error {
	var instance interface{}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(&instance); err != nil {
		return err
	}
	return compiledProgressSchema.Validate(instance)
}
