// Package schema provides JSON schema generation for oracle documents and
// session configuration.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
)

// OracleRecordSchemaID is the resource name of the oracle record schema.
const OracleRecordSchemaID = "oracle-record.json"

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
	}
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

// OracleRecordSchema returns the schema of one oracle record. Unknown keys
// are rejected so that misspelled facets do not silently go unchecked.
func OracleRecordSchema() ([]byte, error) {
	b, err := GenerateSchema(&entities.ExpectedClass{})
	if err != nil {
		return nil, &errors.SchemaError{Err: err, Type: "ExpectedClass"}
	}
	return b, nil
}
