package entities

// MemberKind names the kind of entity a MatchResult is about.
type MemberKind string

const (
	MemberClass       MemberKind = "class"
	MemberAttribute   MemberKind = "attribute"
	MemberConstructor MemberKind = "constructor"
	MemberMethod      MemberKind = "method"
)

// Reason is one independent way an expected entity can fail to match.
type Reason string

const (
	ReasonName        Reason = "name"
	ReasonType        Reason = "type"
	ReasonModifiers   Reason = "modifiers"
	ReasonAnnotations Reason = "annotations"
)

// MatchResult is the outcome of matching one expected entity. The four
// flags are independent so that every failing reason can be reported.
type MatchResult struct {
	Kind MemberKind `json:"kind"`

	// Owner is the class the entity belongs to.
	Owner ClassIdentity `json:"owner"`

	// Expected identifies the expected entity (name or signature).
	Expected string `json:"expected"`

	// Observed identifies the observed entity the flags were computed
	// against; empty when no candidate with the expected name exists.
	Observed string `json:"observed,omitempty"`

	NameFound          bool `json:"nameFound"`
	TypeCorrect        bool `json:"typeCorrect"`
	ModifiersCorrect   bool `json:"modifiersCorrect"`
	AnnotationsCorrect bool `json:"annotationsCorrect"`
}

// Passed reports whether all four checks hold.
func (r MatchResult) Passed() bool {
	return r.NameFound && r.TypeCorrect && r.ModifiersCorrect && r.AnnotationsCorrect
}

// FailedReasons lists the failing reasons in precedence order.
func (r MatchResult) FailedReasons() []Reason {
	var out []Reason
	if !r.NameFound {
		out = append(out, ReasonName)
	}
	if !r.TypeCorrect {
		out = append(out, ReasonType)
	}
	if !r.ModifiersCorrect {
		out = append(out, ReasonModifiers)
	}
	if !r.AnnotationsCorrect {
		out = append(out, ReasonAnnotations)
	}
	return out
}

// EnumResult is the outcome of the enum-values check. Only the first
// divergence in each direction is reported.
type EnumResult struct {
	Owner ClassIdentity `json:"owner"`

	// IsEnum is false when the observed class is not an enumeration;
	// Missing and Unexpected are empty in that case.
	IsEnum bool `json:"isEnum"`

	// Missing is the first expected value absent from the observed class.
	Missing string `json:"missing,omitempty"`

	// Unexpected is the first observed value absent from the oracle.
	Unexpected string `json:"unexpected,omitempty"`
}

// Passed reports whether the observed enum has exactly the expected values.
func (r EnumResult) Passed() bool {
	return r.IsEnum && r.Missing == "" && r.Unexpected == ""
}
