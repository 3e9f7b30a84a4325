// Package report turns session reports into human-readable text and
// delivers them through result sinks.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// DefaultTemplate renders one line per check followed by its failures.
const DefaultTemplate = `verification {{.ID}} {{if .Passed}}passed{{else}}failed{{end}} in {{.Duration}}
{{- with .Error}}
  error: {{.Error}}
{{- end}}
{{- range .Classes}}
{{status .}} {{.ID}}
{{- with .Error}}
  {{.Error}}
{{- end}}
{{- range failures .}}
  {{.}}
{{- end}}
{{- end}}
{{- range .Capabilities}}
{{status .}} {{.ID}} ({{.Rules}} rules, {{.Roots}} roots)
{{- with .Error}}
  {{.Error}}
{{- end}}
{{- range .Violations}}
  {{.Root}} reaches {{.Target}} ({{.Rule}}) via {{path .Path}}
{{- end}}
{{- end}}
{{- range .Dependencies}}
FAIL dependency[{{.Root}}] uses {{.Dependency}} from package {{.Package}}
{{- end}}
`

// rendererConfig holds configuration for the Renderer.
type rendererConfig struct {
	strict bool // Fail on missing keys
	text   string
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		strict: true,
		text:   DefaultTemplate,
	}
}

// RendererOption configures a Renderer.
type RendererOption func(*rendererConfig)

// WithStrict enables/disables strict mode for missing keys.
// When enabled (default), rendering fails if a referenced map key is missing.
func WithStrict(enabled bool) RendererOption {
	return func(c *rendererConfig) {
		c.strict = enabled
	}
}

// WithTemplate replaces the default template. The template receives the
// *entities.Report and may use the status, failures and path functions.
func WithTemplate(text string) RendererOption {
	return func(c *rendererConfig) {
		if text != "" {
			c.text = text
		}
	}
}

// Renderer renders reports with text/template.
type Renderer struct {
	config rendererConfig
}

// NewRenderer creates a new Renderer.
func NewRenderer(opts ...RendererOption) *Renderer {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Renderer{config: cfg}
}

// Render formats report.
func (r *Renderer) Render(report *entities.Report) ([]byte, error) {
	tmpl := template.New("report").Funcs(template.FuncMap{
		"status":   status,
		"failures": Failures,
		"path":     path,
	})
	if r.config.strict {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err := tmpl.Parse(r.config.text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// Failures lists one message per failing structural result of c, such as
// "attribute zoo.Penguin.name: wrong type, modifiers". A class that was not
// found yields no messages; its error says so.
func Failures(c entities.ClassReport) []string {
	if !c.Found {
		return nil
	}
	var out []string
	add := func(m entities.MatchResult) {
		if m.Passed() {
			return
		}
		out = append(out, matchMessage(m))
	}
	if c.Class != nil {
		add(*c.Class)
	}
	for _, group := range [][]entities.MatchResult{c.Attributes, c.Constructors, c.Methods} {
		for _, m := range group {
			add(m)
		}
	}
	if e := c.Enum; e != nil && !e.Passed() {
		name := e.Owner.QualifiedName()
		switch {
		case !e.IsEnum:
			out = append(out, "enum "+name+": not an enumeration")
		default:
			if e.Missing != "" {
				out = append(out, "enum "+name+": missing value "+e.Missing)
			}
			if e.Unexpected != "" {
				out = append(out, "enum "+name+": unexpected value "+e.Unexpected)
			}
		}
	}
	return out
}

func matchMessage(m entities.MatchResult) string {
	subject := m.Expected
	if m.Kind != entities.MemberClass {
		subject = m.Owner.QualifiedName() + "." + m.Expected
	}
	if !m.NameFound {
		return fmt.Sprintf("%s %s: not found", m.Kind, subject)
	}
	var wrong []string
	for _, reason := range m.FailedReasons() {
		wrong = append(wrong, string(reason))
	}
	msg := fmt.Sprintf("%s %s: wrong %s", m.Kind, subject, strings.Join(wrong, ", "))
	if m.Observed != "" {
		msg += " (observed " + m.Observed + ")"
	}
	return msg
}

func status(v any) (string, error) {
	var s entities.ResultStatus
	switch r := v.(type) {
	case entities.ClassReport:
		s = r.Status()
	case *entities.ClassReport:
		s = r.Status()
	case entities.CategoryReport:
		s = r.Status()
	case *entities.CategoryReport:
		s = r.Status()
	default:
		return "", fmt.Errorf("status: unsupported value %T", v)
	}
	switch s {
	case entities.ResultStatusSuccess:
		return "PASS", nil
	case entities.ResultStatusFailure:
		return "FAIL", nil
	default:
		return "ERROR", nil
	}
}

func path(nodes []entities.NodeID) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.FullName()
	}
	return strings.Join(parts, " -> ")
}
