package ports

import "context"

// RuleSource provides the raw forbidden-signature lists, one per category.
type RuleSource interface {
	// ReadRules returns the non-empty signature lines of the rule document
	// for category. A missing or unreadable document is an error.
	ReadRules(ctx context.Context, category string) ([]string, error)

	// Location describes where the documents live (for user messaging).
	Location() string
}
