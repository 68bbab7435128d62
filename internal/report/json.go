package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
)

// JSONWriter outputs the full analysis as JSON for tool integration.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is shorthand for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the analysis in JSON format.
func (w *JSONWriter) Write(a *model.Analysis) (int, error) {
	return w.writeJSON(a)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// ExportWriter writes the downloadable export document.
// Exports are always pretty-printed with two-space indentation.
type ExportWriter struct {
	*JSONWriter

	now func() time.Time
}

// NewExportWriter creates an ExportWriter. A nil now uses time.Now.
func NewExportWriter(output io.Writer, now func() time.Time) *ExportWriter {
	if now == nil {
		now = time.Now
	}
	return &ExportWriter{
		JSONWriter: NewJSONWriter(output, WithPrettyPrint()),
		now:        now,
	}
}

// Write converts the analysis to its export form and writes it.
func (w *ExportWriter) Write(a *model.Analysis) (int, error) {
	return w.WriteExport(model.NewExportReport(a, w.now()))
}

// WriteExport writes an already built export document.
func (w *ExportWriter) WriteExport(r *model.ExportReport) (int, error) {
	return w.writeJSON(r)
}
