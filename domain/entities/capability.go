package entities

import (
	"fmt"
	"sort"
)

// Category is one class of restricted runtime behaviour.
type Category string

const (
	CategoryFilesystem         Category = "filesystem"
	CategoryNetwork            Category = "network"
	CategoryReflection         Category = "reflection"
	CategoryProcessTermination Category = "process-termination"
	CategoryCommandExecution   Category = "command-execution"
)

// AllCategories returns every capability category in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryFilesystem,
		CategoryNetwork,
		CategoryReflection,
		CategoryProcessTermination,
		CategoryCommandExecution,
	}
}

// ParseCategory converts a category name into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability category %q", s)
}

// Description is the short verb phrase used in check identifiers.
func (c Category) Description() string {
	switch c {
	case CategoryFilesystem:
		return "accesses file system"
	case CategoryNetwork:
		return "accesses network"
	case CategoryReflection:
		return "uses reflection"
	case CategoryProcessTermination:
		return "terminates process"
	case CategoryCommandExecution:
		return "executes commands"
	default:
		return string(c)
	}
}

// SignatureMatcher decides whether a fully qualified callable name is
// covered by a rule entry.
type SignatureMatcher interface {
	// Strategy names the matching strategy ("prefix", "exact", "glob").
	Strategy() string

	// Matches reports whether fullName is covered by rule.
	Matches(rule, fullName string) bool
}

// RuleSet is the immutable set of forbidden signatures for one category.
type RuleSet struct {
	category   Category
	signatures []string
	matcher    SignatureMatcher
}

// NewRuleSet builds a rule set. The signatures are copied, de-duplicated
// and sorted so that matching is deterministic.
func NewRuleSet(category Category, signatures []string, matcher SignatureMatcher) *RuleSet {
	uniq := make(map[string]struct{}, len(signatures))
	sigs := make([]string, 0, len(signatures))
	for _, s := range signatures {
		if _, ok := uniq[s]; ok {
			continue
		}
		uniq[s] = struct{}{}
		sigs = append(sigs, s)
	}
	sort.Strings(sigs)
	return &RuleSet{category: category, signatures: sigs, matcher: matcher}
}

// Category returns the capability category of the set.
func (r *RuleSet) Category() Category {
	return r.category
}

// Strategy returns the name of the matching strategy.
func (r *RuleSet) Strategy() string {
	if r.matcher == nil {
		return ""
	}
	return r.matcher.Strategy()
}

// Signatures returns a copy of the forbidden signatures.
func (r *RuleSet) Signatures() []string {
	return append([]string(nil), r.signatures...)
}

// Len returns the number of distinct signatures.
func (r *RuleSet) Len() int {
	return len(r.signatures)
}

// Match returns the first rule (in sorted order) covering fullName.
func (r *RuleSet) Match(fullName string) (string, bool) {
	if r == nil || r.matcher == nil {
		return "", false
	}
	for _, s := range r.signatures {
		if r.matcher.Matches(s, fullName) {
			return s, true
		}
	}
	return "", false
}
