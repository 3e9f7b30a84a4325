package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-verify/application/report"
	"github.com/reglet-dev/reglet-verify/domain/entities"
)

var (
	penguin = entities.ClassIdentity{Name: "Penguin", Package: "zoo"}
	walrus  = entities.ClassIdentity{Name: "Walrus", Package: "zoo"}
	color   = entities.ClassIdentity{Name: "Color", Package: "zoo"}
)

func node(owner, sig string) entities.NodeID {
	return entities.NodeID{Owner: owner, Signature: sig}
}

func passed(kind entities.MemberKind, owner entities.ClassIdentity, expected string) entities.MatchResult {
	return entities.MatchResult{
		Kind: kind, Owner: owner, Expected: expected, Observed: expected,
		NameFound: true, TypeCorrect: true, ModifiersCorrect: true, AnnotationsCorrect: true,
	}
}

func zooReport() *entities.Report {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	class := passed(entities.MemberClass, penguin, "zoo.Penguin")
	name := passed(entities.MemberAttribute, penguin, "name")
	name.Observed = "name int"
	name.TypeCorrect = false
	name.AnnotationsCorrect = false

	return &entities.Report{
		ID:         "r1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Classes: []entities.ClassReport{
			{ID: "structure[zoo.Penguin]", Identity: penguin, Found: true, Class: &class, Attributes: []entities.MatchResult{name}},
			{
				ID: "structure[zoo.Walrus]", Identity: walrus,
				Class: &entities.MatchResult{Kind: entities.MemberClass, Owner: walrus, Expected: "zoo.Walrus"},
				Error: &entities.ErrorDetail{Type: "not_found", Message: "class zoo.Walrus not found", IsNotFound: true},
			},
			{ID: "structure[zoo.Color]", Identity: color, Found: true, Enum: &entities.EnumResult{Owner: color, IsEnum: true, Missing: "BLUE"}},
		},
		Capabilities: []entities.CategoryReport{
			{ID: "capability[network]", Category: entities.CategoryNetwork, Rules: 2, Roots: 3},
			{
				ID: "capability[filesystem]", Category: entities.CategoryFilesystem, Rules: 4, Roots: 3,
				Violations: []entities.Violation{{
					Category: entities.CategoryFilesystem,
					Root:     node("zoo.Penguin", "swim"),
					Target:   node("java.io.File", "delete"),
					Rule:     "java.io.File.",
					Path: []entities.NodeID{
						node("zoo.Penguin", "swim"),
						node("zoo.util.Helper", "run"),
						node("java.io.File", "delete"),
					},
				}},
			},
		},
		Dependencies: []entities.DependencyViolation{
			{Root: "zoo.Penguin", Dependency: "java.io.File", Package: "java.io"},
		},
	}
}

const zooText = `verification r1 failed in 1.5s
FAIL structure[zoo.Penguin]
  attribute zoo.Penguin.name: wrong type, annotations (observed name int)
FAIL structure[zoo.Walrus]
  not_found: class zoo.Walrus not found
FAIL structure[zoo.Color]
  enum zoo.Color: missing value BLUE
PASS capability[network] (2 rules, 3 roots)
FAIL capability[filesystem] (4 rules, 3 roots)
  zoo.Penguin.swim reaches java.io.File.delete (java.io.File.) via zoo.Penguin.swim -> zoo.util.Helper.run -> java.io.File.delete
FAIL dependency[zoo.Penguin] uses java.io.File from package java.io
`

func TestRenderer_Render(t *testing.T) {
	t.Run("Default Template", func(t *testing.T) {
		out, err := report.NewRenderer().Render(zooReport())
		require.NoError(t, err)
		assert.Equal(t, zooText, string(out))
	})

	t.Run("Passing Report", func(t *testing.T) {
		r := &entities.Report{ID: "r2"}
		r.Capabilities = []entities.CategoryReport{{ID: "capability[reflection]", Rules: 1}}
		out, err := report.NewRenderer().Render(r)
		require.NoError(t, err)
		assert.Equal(t, "verification r2 passed in 0s\nPASS capability[reflection] (1 rules, 0 roots)\n", string(out))
	})

	t.Run("Suite Error", func(t *testing.T) {
		r := &entities.Report{ID: "r3", Error: &entities.ErrorDetail{Type: "config", Message: "no program to verify", Code: "session"}}
		out, err := report.NewRenderer().Render(r)
		require.NoError(t, err)
		assert.Equal(t, "verification r3 failed in 0s\n  error: config: no program to verify [session]\n", string(out))
	})

	t.Run("Custom Template", func(t *testing.T) {
		out, err := report.NewRenderer(report.WithTemplate(`{{range .Classes}}{{status .}} {{end}}`)).Render(zooReport())
		require.NoError(t, err)
		assert.Equal(t, "FAIL FAIL FAIL ", string(out))
	})

	t.Run("Invalid Template Syntax", func(t *testing.T) {
		_, err := report.NewRenderer(report.WithTemplate(`{{.ID`)).Render(zooReport())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse report template")
	})

	t.Run("Unknown Field Fails", func(t *testing.T) {
		_, err := report.NewRenderer(report.WithTemplate(`{{.Nope}}`)).Render(zooReport())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute report template")
	})

	t.Run("Status Of Unsupported Value", func(t *testing.T) {
		_, err := report.NewRenderer(report.WithTemplate(`{{status .}}`)).Render(zooReport())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported value")
	})

	t.Run("Missing Map Key", func(t *testing.T) {
		r := zooReport()
		r.Error = &entities.ErrorDetail{Details: map[string]any{"file": "oracle.yaml"}}
		tmpl := `{{.Error.Details.line}}`

		_, err := report.NewRenderer(report.WithTemplate(tmpl)).Render(r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "map has no entry for key")

		out, err := report.NewRenderer(report.WithTemplate(tmpl), report.WithStrict(false)).Render(r)
		require.NoError(t, err)
		assert.Equal(t, "<no value>", string(out))
	})
}

func TestFailures(t *testing.T) {
	wrongHierarchy := passed(entities.MemberClass, penguin, "zoo.Penguin")
	wrongHierarchy.TypeCorrect = false
	missingMethod := entities.MatchResult{Kind: entities.MemberMethod, Owner: penguin, Expected: "dive(int)"}
	ctor := passed(entities.MemberConstructor, penguin, "Penguin(String)")
	ctor.ModifiersCorrect = false
	ctor.Observed = "Penguin(String)"

	tests := []struct {
		name   string
		report entities.ClassReport
		want   []string
	}{
		{
			name:   "not found",
			report: entities.ClassReport{Identity: walrus, Class: &entities.MatchResult{Kind: entities.MemberClass}},
		},
		{
			name:   "all passed",
			report: entities.ClassReport{Identity: penguin, Found: true, Methods: []entities.MatchResult{passed(entities.MemberMethod, penguin, "swim()")}},
		},
		{
			name:   "class hierarchy",
			report: entities.ClassReport{Identity: penguin, Found: true, Class: &wrongHierarchy},
			want:   []string{"class zoo.Penguin: wrong type (observed zoo.Penguin)"},
		},
		{
			name: "members in facet order",
			report: entities.ClassReport{
				Identity: penguin, Found: true,
				Constructors: []entities.MatchResult{ctor},
				Methods:      []entities.MatchResult{missingMethod},
			},
			want: []string{
				"constructor zoo.Penguin.Penguin(String): wrong modifiers (observed Penguin(String))",
				"method zoo.Penguin.dive(int): not found",
			},
		},
		{
			name:   "not an enumeration",
			report: entities.ClassReport{Identity: color, Found: true, Enum: &entities.EnumResult{Owner: color}},
			want:   []string{"enum zoo.Color: not an enumeration"},
		},
		{
			name:   "enum divergence both ways",
			report: entities.ClassReport{Identity: color, Found: true, Enum: &entities.EnumResult{Owner: color, IsEnum: true, Missing: "BLUE", Unexpected: "PINK"}},
			want:   []string{"enum zoo.Color: missing value BLUE", "enum zoo.Color: unexpected value PINK"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.Failures(tt.report))
		})
	}
}
