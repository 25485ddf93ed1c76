package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/insightpdf/insightpdf/internal/domain"
)

const sheetName = "Questions"

// XLSXExporter writes question records as an Excel workbook.
type XLSXExporter struct{}

// NewXLSXExporter creates an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Export serializes the result into an XLSX byte stream. Any cell error
// fails the whole export.
func (e *XLSXExporter) Export(result *domain.ProcessingResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, domain.ExportError("failed to create worksheet", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, domain.ExportError("failed to remove default worksheet", err)
	}

	if err := setRow(f, 1, Header); err != nil {
		return nil, domain.ExportError("failed to write header row", err)
	}
	for i := range result.Records {
		if err := setRow(f, i+2, row(&result.Records[i])); err != nil {
			return nil, domain.ExportError(
				fmt.Sprintf("failed to write row %d", i+1), err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, domain.ExportError("failed to serialize workbook", err)
	}
	return buf.Bytes(), nil
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Extension() string {
	return "xlsx"
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &cells)
}
