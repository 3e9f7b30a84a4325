// Package validation checks raw oracle documents against the oracle record
// schema before they are parsed, so that misspelled keys and wrongly typed
// values surface as configuration errors with a location.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/reglet-dev/reglet-verify/application/schema"
	"github.com/reglet-dev/reglet-verify/domain/entities"
	domainerrors "github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/ports"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var _ ports.OracleValidator = (*OracleValidator)(nil)

// OracleValidator implements validation using the generated JSON schema.
// The schema is compiled once, on first use.
type OracleValidator struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// NewOracleValidator creates a new validator.
func NewOracleValidator() *OracleValidator {
	return &OracleValidator{}
}

func (v *OracleValidator) compile() {
	raw, err := schema.OracleRecordSchema()
	if err != nil {
		v.err = err
		return
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schema.OracleRecordSchemaID, strings.NewReader(string(raw))); err != nil {
		v.err = &domainerrors.SchemaError{Err: fmt.Errorf("failed to add schema resource: %w", err), Type: "ExpectedClass"}
		return
	}
	v.schema, v.err = compiler.Compile(schema.OracleRecordSchemaID)
	if v.err != nil {
		v.err = &domainerrors.SchemaError{Err: v.err, Type: "ExpectedClass"}
	}
}

// Validate checks every record of a JSON or YAML oracle document. The
// document is either a list of records or a mapping with a "classes"
// list. An error is returned only when the schema itself is unusable.
func (v *OracleValidator) Validate(data []byte) (*entities.ValidationResult, error) {
	v.once.Do(v.compile)
	if v.err != nil {
		return nil, v.err
	}

	result := &entities.ValidationResult{Valid: true}
	fail := func(field, msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, entities.ValidationError{Field: field, Message: msg})
	}

	doc, err := toJSONValue(data)
	if err != nil {
		fail("", err.Error())
		return result, nil
	}

	records, ok := recordsOf(doc)
	if !ok {
		fail("", "oracle document must be a list of class records or a mapping with a classes list")
		return result, nil
	}

	for i, rec := range records {
		if err := v.schema.Validate(rec); err != nil {
			var ve *jsonschema.ValidationError
			if !errors.As(err, &ve) {
				fail(fmt.Sprintf("[%d]", i), err.Error())
				continue
			}
			for _, leaf := range leaves(ve) {
				fail(fmt.Sprintf("[%d]%s", i, pointerToPath(leaf.InstanceLocation)), leaf.Message)
			}
		}
	}
	return result, nil
}

// toJSONValue decodes YAML (a superset of JSON) and normalizes it through
// encoding/json so that numbers and maps have the shapes the schema
// validator expects.
func toJSONValue(data []byte) (interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse oracle document: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("oracle document is not JSON compatible: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	return out, nil
}

func recordsOf(doc interface{}) ([]interface{}, bool) {
	switch d := doc.(type) {
	case []interface{}:
		return d, true
	case map[string]interface{}:
		classes, ok := d["classes"].([]interface{})
		return classes, ok
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

// leaves returns the innermost causes of a validation error.
func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// pointerToPath turns "/attributes/0/type" into ".attributes[0].type".
func pointerToPath(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	var b strings.Builder
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		b.WriteString("." + seg)
	}
	return b.String()
}
