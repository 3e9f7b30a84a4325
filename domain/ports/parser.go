package ports

import "github.com/reglet-dev/reglet-verify/domain/entities"

// OracleParser parses a raw oracle document.
type OracleParser interface {
	// Parse unmarshals document bytes into an Oracle.
	Parse(data []byte) (*entities.Oracle, error)
}
