package entities

// ValidationResult represents the outcome of validating an oracle document.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	// Field locates the offending value, e.g. "[2].attributes[0].type".
	Field   string
	Message string
}
