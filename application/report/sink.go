package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/ports"
)

// Ensure implementations satisfy the interface.
var _ ports.ResultSink = (*WriterSink)(nil)
var _ ports.ResultSink = (*TestSink)(nil)

// Format selects the WriterSink encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// sinkConfig holds configuration for the WriterSink.
type sinkConfig struct {
	format   Format
	renderer *Renderer
}

func defaultSinkConfig() sinkConfig {
	return sinkConfig{
		format: FormatText,
	}
}

// SinkOption configures a WriterSink.
type SinkOption func(*sinkConfig)

// WithFormat selects text or JSON output.
func WithFormat(f Format) SinkOption {
	return func(c *sinkConfig) {
		c.format = f
	}
}

// WithRenderer sets the renderer used for text output.
func WithRenderer(r *Renderer) SinkOption {
	return func(c *sinkConfig) {
		c.renderer = r
	}
}

// WriterSink writes each report to an io.Writer. Writes are serialized.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	config sinkConfig
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer, opts ...SinkOption) *WriterSink {
	cfg := defaultSinkConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.renderer == nil {
		cfg.renderer = NewRenderer()
	}
	return &WriterSink{w: w, config: cfg}
}

// Consume implements ports.ResultSink.
func (s *WriterSink) Consume(ctx context.Context, report *entities.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var out []byte
	var err error
	switch s.config.format {
	case FormatText:
		out, err = s.config.renderer.Render(report)
	case FormatJSON:
		out, err = json.MarshalIndent(report, "", "  ")
		out = append(out, '\n')
	default:
		err = fmt.Errorf("unknown report format %q", s.config.format)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(out)
	return err
}

// TB is the subset of testing.TB used by TestSink.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
}

// TestSink turns every failing check into a test failure, so that a
// verification run can back a Go test.
type TestSink struct {
	t TB
}

// NewTestSink creates a sink reporting to t.
func NewTestSink(t TB) *TestSink {
	return &TestSink{t: t}
}

// Consume implements ports.ResultSink.
func (s *TestSink) Consume(_ context.Context, report *entities.Report) error {
	s.t.Helper()
	if report.Error != nil {
		s.t.Errorf("verification %s: %s", report.ID, report.Error.Error())
	}
	for _, c := range report.Classes {
		if c.Error != nil {
			s.t.Errorf("%s: %s", c.ID, c.Error.Error())
		}
		for _, msg := range Failures(c) {
			s.t.Errorf("%s: %s", c.ID, msg)
		}
	}
	for _, c := range report.Capabilities {
		if c.Error != nil {
			s.t.Errorf("%s: %s", c.ID, c.Error.Error())
		}
		for _, v := range c.Violations {
			s.t.Errorf("%s: %s reaches %s via %s", c.ID, v.Root, v.Target, path(v.Path))
		}
	}
	for _, d := range report.Dependencies {
		s.t.Errorf("dependency[%s]: uses %s from package %s", d.Root, d.Dependency, d.Package)
	}
	return nil
}
