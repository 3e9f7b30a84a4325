package entities

import (
	"time"
)

// ResultStatus represents the outcome status of one check.
type ResultStatus string

const (
	// ResultStatusSuccess indicates the check ran and found nothing wrong.
	ResultStatusSuccess ResultStatus = "success"

	// ResultStatusFailure indicates the check ran and found violations.
	ResultStatusFailure ResultStatus = "failure"

	// ResultStatusError indicates the check could not run (configuration error).
	ResultStatusError ResultStatus = "error"
)

// ClassReport aggregates the structural results for one oracle record.
type ClassReport struct {
	// ID is a stable check identifier such as "structure[Penguin]".
	ID string `json:"id"`

	Identity ClassIdentity `json:"identity"`

	// Found is false when the resolver has no observed counterpart.
	Found bool `json:"found"`

	// Class is the class-level result; nil when the facet was not checked
	// and the class was found.
	Class *MatchResult `json:"class,omitempty"`

	Attributes   []MatchResult `json:"attributes,omitempty"`
	Constructors []MatchResult `json:"constructors,omitempty"`
	Methods      []MatchResult `json:"methods,omitempty"`
	Enum         *EnumResult   `json:"enum,omitempty"`

	// Error is set when the record could not be checked at all.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Status summarizes the report.
func (r *ClassReport) Status() ResultStatus {
	if r.Error != nil && !r.Error.IsNotFound {
		return ResultStatusError
	}
	if !r.Found {
		return ResultStatusFailure
	}
	if r.Class != nil && !r.Class.Passed() {
		return ResultStatusFailure
	}
	for _, group := range [][]MatchResult{r.Attributes, r.Constructors, r.Methods} {
		for _, m := range group {
			if !m.Passed() {
				return ResultStatusFailure
			}
		}
	}
	if r.Enum != nil && !r.Enum.Passed() {
		return ResultStatusFailure
	}
	return ResultStatusSuccess
}

// CategoryReport holds the capability verdict for one category.
type CategoryReport struct {
	// ID is a stable check identifier such as "capability[network]".
	ID         string       `json:"id"`
	Category   Category     `json:"category"`
	Rules      int          `json:"rules"`
	Roots      int          `json:"roots"`
	Violations []Violation  `json:"violations,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

// Status summarizes the report.
func (r *CategoryReport) Status() ResultStatus {
	if r.Error != nil {
		return ResultStatusError
	}
	if len(r.Violations) > 0 {
		return ResultStatusFailure
	}
	return ResultStatusSuccess
}

// Report is the outcome of one verification session.
type Report struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Classes      []ClassReport         `json:"classes,omitempty"`
	Capabilities []CategoryReport      `json:"capabilities,omitempty"`
	Dependencies []DependencyViolation `json:"dependencies,omitempty"`

	// Error is set for suite-level configuration errors.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Passed reports whether every check in the session succeeded.
func (r *Report) Passed() bool {
	if r.Error != nil || len(r.Dependencies) > 0 {
		return false
	}
	for i := range r.Classes {
		if r.Classes[i].Status() != ResultStatusSuccess {
			return false
		}
	}
	for i := range r.Capabilities {
		if r.Capabilities[i].Status() != ResultStatusSuccess {
			return false
		}
	}
	return true
}

// Duration returns how long the session ran.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
