package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// CSVExporter writes question records as UTF-8 comma-separated values.
type CSVExporter struct{}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export serializes the result into a CSV byte stream. The whole export
// fails on any row error so callers never receive a truncated file.
func (e *CSVExporter) Export(result *domain.ProcessingResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, domain.ExportError("failed to write CSV header", err)
	}
	for i := range result.Records {
		if err := w.Write(row(&result.Records[i])); err != nil {
			return nil, domain.ExportError(
				fmt.Sprintf("failed to write CSV row %d", i+1), err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, domain.ExportError("failed to flush CSV output", err)
	}
	return buf.Bytes(), nil
}

func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (e *CSVExporter) Extension() string {
	return "csv"
}
