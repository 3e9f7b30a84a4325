package ports

import "github.com/reglet-dev/reglet-verify/domain/entities"

// ViolationHandler is called whenever a check records a capability or
// dependency violation. Implementations can log or collect metrics; they
// must not alter the verdict.
type ViolationHandler interface {
	// OnViolation is called for each capability violation found.
	OnViolation(v entities.Violation)

	// OnDependencyViolation is called for each forbidden dependency found.
	OnDependencyViolation(v entities.DependencyViolation)
}
