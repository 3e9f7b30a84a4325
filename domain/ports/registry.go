package ports

import (
	"context"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// RuleRegistry loads named capability rule sets on demand and caches them.
// Implementations must be safe for concurrent use.
type RuleRegistry interface {
	// Load returns the rule set for category, reading storage at most once
	// per registry instance. Failures are configuration errors.
	Load(ctx context.Context, category entities.Category) (*entities.RuleSet, error)
}
