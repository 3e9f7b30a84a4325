// Package parser reads oracle documents. JSON is accepted as a subset of
// YAML, so one parser serves both formats.
package parser

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/errors"
	"github.com/reglet-dev/reglet-verify/domain/ports"
	"gopkg.in/yaml.v3"
)

var _ ports.OracleParser = (*YamlOracleParser)(nil)

// YamlOracleParser implements OracleParser for YAML and JSON documents.
type YamlOracleParser struct {
	validate *validator.Validate
}

// NewYamlOracleParser creates a new YamlOracleParser.
func NewYamlOracleParser() *YamlOracleParser {
	return &YamlOracleParser{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Parse unmarshals a document into an Oracle. The document is either a
// sequence of records or a mapping with a "classes" sequence. Struct
// validation failures and duplicate identities are *errors.ParseError.
func (p *YamlOracleParser) Parse(data []byte) (*entities.Oracle, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &errors.ParseError{Err: err}
	}

	oracle := &entities.Oracle{}
	if len(node.Content) == 0 {
		return oracle, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&oracle.Classes); err != nil {
			return nil, &errors.ParseError{Err: err, Line: root.Line}
		}
	case yaml.MappingNode:
		if err := root.Decode(oracle); err != nil {
			return nil, &errors.ParseError{Err: err, Line: root.Line}
		}
	default:
		return nil, &errors.ParseError{
			Err:  fmt.Errorf("oracle document must be a sequence of records or a mapping with classes"),
			Line: root.Line,
		}
	}

	if err := p.validate.Struct(oracle); err != nil {
		return nil, &errors.ParseError{Err: describe(err)}
	}
	if err := oracle.Validate(); err != nil {
		return nil, &errors.ParseError{Err: err}
	}
	return oracle, nil
}

// describe flattens validator field errors into one readable error.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Oracle."), fe.Tag()))
	}
	return fmt.Errorf("invalid oracle: %s", strings.Join(msgs, "; "))
}
