package ports

import "github.com/reglet-dev/reglet-verify/domain/entities"

// OracleValidator validates a raw oracle document before it is parsed.
type OracleValidator interface {
	// Validate checks the document against the oracle record schema.
	Validate(data []byte) (*entities.ValidationResult, error)
}
