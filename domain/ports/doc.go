// Package ports defines the interfaces the verification core depends on.
// Rule storage, oracle parsing, program introspection and result delivery
// are external collaborators; infrastructure adapters implement these
// interfaces so that domain logic depends on abstractions only.
package ports
