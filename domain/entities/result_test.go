package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(kind MemberKind, expected string) MatchResult {
	return MatchResult{Kind: kind, Expected: expected, NameFound: true, TypeCorrect: true, ModifiersCorrect: true, AnnotationsCorrect: true}
}

func TestClassReportStatus(t *testing.T) {
	tests := []struct {
		name   string
		report ClassReport
		want   ResultStatus
	}{
		{"All facets pass", ClassReport{Found: true, Attributes: []MatchResult{passing(MemberAttribute, "a")}}, ResultStatusSuccess},
		{"Nothing checked", ClassReport{Found: true}, ResultStatusSuccess},
		{"Failing method", ClassReport{Found: true, Methods: []MatchResult{{Expected: "m()", NameFound: true}}}, ResultStatusFailure},
		{"Failing class facet", ClassReport{Found: true, Class: &MatchResult{}}, ResultStatusFailure},
		{"Failing enum", ClassReport{Found: true, Enum: &EnumResult{IsEnum: true, Missing: "GREEN"}}, ResultStatusFailure},
		{"Class not found", ClassReport{Error: &ErrorDetail{Type: "not_found", IsNotFound: true}}, ResultStatusFailure},
		{"Configuration error", ClassReport{Error: NewErrorDetail("config", "record has no facets")}, ResultStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.Status())
		})
	}
}

func TestCategoryReportStatus(t *testing.T) {
	assert.Equal(t, ResultStatusSuccess, (&CategoryReport{Category: CategoryNetwork}).Status())
	assert.Equal(t, ResultStatusFailure, (&CategoryReport{Violations: []Violation{{Category: CategoryNetwork}}}).Status())
	assert.Equal(t, ResultStatusError, (&CategoryReport{Error: NewErrorDetail("config", "rules missing")}).Status())
}

func TestReportPassed(t *testing.T) {
	start := time.Now()
	report := &Report{
		StartedAt:    start,
		FinishedAt:   start.Add(250 * time.Millisecond),
		Classes:      []ClassReport{{Found: true}},
		Capabilities: []CategoryReport{{Category: CategoryReflection}},
	}

	assert.True(t, report.Passed())
	assert.Equal(t, 250*time.Millisecond, report.Duration())

	report.Dependencies = []DependencyViolation{{Root: "core.A", Dependency: "other.B", Package: "other"}}
	assert.False(t, report.Passed())

	report.Dependencies = nil
	report.Capabilities = append(report.Capabilities, CategoryReport{Violations: []Violation{{}}})
	assert.False(t, report.Passed())

	assert.False(t, (&Report{Error: NewErrorDetail("config", "empty oracle")}).Passed())
}

func TestMatchResultFailedReasons(t *testing.T) {
	res := MatchResult{NameFound: true, ModifiersCorrect: true}

	assert.False(t, res.Passed())
	assert.Equal(t, []Reason{ReasonType, ReasonAnnotations}, res.FailedReasons())
	assert.Empty(t, passing(MemberMethod, "m()").FailedReasons())
}

func TestEnumResultPassed(t *testing.T) {
	assert.True(t, EnumResult{IsEnum: true}.Passed())
	assert.False(t, EnumResult{}.Passed())
	assert.False(t, EnumResult{IsEnum: true, Unexpected: "BLUE"}.Passed())
}

func TestErrorDetail(t *testing.T) {
	err := NewErrorDetail("config", "cannot read rules").WithCode("network")
	err.Wrapped = NewErrorDetail("internal", "file does not exist")
	err.WithDetails(map[string]any{"path": "rules/network.txt"})

	assert.Equal(t, "config: cannot read rules [network]: file does not exist", err.Error())
	require.NotNil(t, err.Details)
	assert.Equal(t, "rules/network.txt", err.Details["path"])

	var nilErr *ErrorDetail
	assert.Empty(t, nilErr.Error())
}
