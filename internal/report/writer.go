package report

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/surfacescore/surfacescore/internal/model"
)

// Writer writes an analysis in some output format.
type Writer interface {
	// Write outputs the analysis and returns the number of bytes written.
	Write(a *model.Analysis) (int, error)
}

// MultiWriter writes the same analysis to several Writers.
// Unlike io.MultiWriter it fans out analyses, not bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the analysis to every Writer, stopping on the first error.
func (m *MultiWriter) Write(a *model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(a)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var unsafeFileChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// ExportFileName returns the download name for an export of domain taken
// at t, e.g. "surfacescore-example-com-1700000000000.json".
func ExportFileName(domain string, t time.Time) string {
	return fmt.Sprintf("surfacescore-%s-%d.json", unsafeFileChars.ReplaceAllString(domain, "-"), t.UnixMilli())
}
