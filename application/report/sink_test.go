package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-verify/application/report"
	"github.com/reglet-dev/reglet-verify/domain/entities"
)

func TestWriterSink_Consume(t *testing.T) {
	ctx := context.Background()

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.NewWriterSink(&buf).Consume(ctx, zooReport()))
		assert.Equal(t, zooText, buf.String())
	})

	t.Run("Custom Renderer", func(t *testing.T) {
		var buf bytes.Buffer
		sink := report.NewWriterSink(&buf, report.WithRenderer(report.NewRenderer(report.WithTemplate("{{.ID}}\n"))))
		require.NoError(t, sink.Consume(ctx, zooReport()))
		require.NoError(t, sink.Consume(ctx, &entities.Report{ID: "r2"}))
		assert.Equal(t, "r1\nr2\n", buf.String())
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.NewWriterSink(&buf, report.WithFormat(report.FormatJSON)).Consume(ctx, zooReport()))

		var got entities.Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "r1", got.ID)
		require.Len(t, got.Capabilities, 2)
		assert.Len(t, got.Capabilities[1].Violations, 1)
		assert.False(t, got.Passed())
	})

	t.Run("Unknown Format", func(t *testing.T) {
		var buf bytes.Buffer
		err := report.NewWriterSink(&buf, report.WithFormat("xml")).Consume(ctx, zooReport())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown report format "xml"`)
		assert.Zero(t, buf.Len())
	})

	t.Run("Canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		var buf bytes.Buffer
		err := report.NewWriterSink(&buf).Consume(canceled, zooReport())
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, buf.Len())
	})
}

type recordingTB struct {
	errors []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTestSink_Consume(t *testing.T) {
	t.Run("Failures", func(t *testing.T) {
		tb := &recordingTB{}
		require.NoError(t, report.NewTestSink(tb).Consume(context.Background(), zooReport()))
		assert.Equal(t, []string{
			"structure[zoo.Penguin]: attribute zoo.Penguin.name: wrong type, annotations (observed name int)",
			"structure[zoo.Walrus]: not_found: class zoo.Walrus not found",
			"structure[zoo.Color]: enum zoo.Color: missing value BLUE",
			"capability[filesystem]: zoo.Penguin.swim reaches java.io.File.delete via zoo.Penguin.swim -> zoo.util.Helper.run -> java.io.File.delete",
			"dependency[zoo.Penguin]: uses java.io.File from package java.io",
		}, tb.errors)
	})

	t.Run("Passing Report", func(t *testing.T) {
		tb := &recordingTB{}
		r := &entities.Report{ID: "ok", Capabilities: []entities.CategoryReport{{ID: "capability[network]"}}}
		require.NoError(t, report.NewTestSink(tb).Consume(context.Background(), r))
		assert.Empty(t, tb.errors)
	})

	t.Run("Suite Error", func(t *testing.T) {
		tb := &recordingTB{}
		r := &entities.Report{ID: "bad", Error: &entities.ErrorDetail{Type: "config", Message: "oracle has no checkable facet", Code: "oracle"}}
		require.NoError(t, report.NewTestSink(tb).Consume(context.Background(), r))
		assert.Equal(t, []string{"verification bad: config: oracle has no checkable facet [oracle]"}, tb.errors)
	})
}
