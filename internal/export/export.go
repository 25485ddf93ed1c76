// Package export serializes processing results into downloadable
// tabular formats.
//
// Exports carry one row per question record. Per-page failure notes are
// not written into the tabular output; the API surfaces them as a sidecar
// list in the JSON response instead. Every writer is atomic:
// a serialization error fails the whole export with no partial bytes.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// Format identifies a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Header is the column layout shared by all tabular writers, one column
// per QuestionRecord attribute.
var Header = []string{
	"Document",
	"Page",
	"Seq",
	"Content",
	"Type",
	"Knowledge Points",
	"Grade Level",
	"Difficulty",
	"Answer",
	"Notes",
	"Confidence",
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string) (domain.Exporter, error) {
	switch Format(strings.ToLower(format)) {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatXLSX:
		return NewXLSXExporter(), nil
	default:
		return nil, domain.ExportError(fmt.Sprintf("unsupported export format %q", format), nil)
	}
}

// row flattens one record into the shared column layout.
func row(q *domain.QuestionRecord) []string {
	confidence := ""
	if q.Confidence > 0 {
		confidence = strconv.FormatFloat(q.Confidence, 'f', 2, 64)
	}
	return []string{
		q.Document,
		strconv.Itoa(q.PageIndex),
		strconv.Itoa(q.Seq),
		q.Content,
		q.Type,
		strings.Join(q.KnowledgePoints, ", "),
		q.GradeLevel,
		q.Difficulty,
		q.Answer,
		q.Notes,
		confidence,
	}
}
