// Package entities provides the core domain entities of the verifier.
// These are plain value types shared by every layer: the oracle model,
// observed program snapshots, call and dependency graphs, rule sets, and
// the results handed to the reporting layer.
package entities
