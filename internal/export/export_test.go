package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/insightpdf/insightpdf/internal/domain"
)

func sampleResult() *domain.ProcessingResult {
	return &domain.ProcessingResult{
		Document:   "math-g2.pdf",
		TotalPages: 2,
		Records: []domain.QuestionRecord{
			{
				Document:        "math-g2.pdf",
				PageIndex:       1,
				Seq:             1,
				Content:         "小明买了3个苹果，每个2元，一共花了多少钱？",
				Type:            "arithmetic",
				KnowledgePoints: []string{"multiplication", "unit price"},
				GradeLevel:      "grade 2",
				Difficulty:      "easy",
				Answer:          "6元",
				Notes:           "3 × 2 = 6",
				Confidence:      0.95,
			},
			{
				Document:  "math-g2.pdf",
				PageIndex: 2,
				Seq:       1,
				Content:   "content with, comma and \"quotes\"",
			},
		},
		Failures: []domain.FailureNote{
			{PageIndex: 2, Reason: domain.ErrModelTimeout, Detail: "timed out"},
		},
		Outcome: domain.OutcomePartial,
	}
}

func TestForFormat(t *testing.T) {
	csvExp, err := ForFormat("csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVExporter{}, csvExp)

	xlsxExp, err := ForFormat("XLSX")
	require.NoError(t, err)
	assert.IsType(t, &XLSXExporter{}, xlsxExp)

	_, err = ForFormat("pdf")
	assert.Equal(t, domain.ErrExportError, domain.CodeOf(err))
}

func TestCSVExportRoundTrip(t *testing.T) {
	data, err := NewCSVExporter().Export(sampleResult())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, Header, rows[0])

	first := rows[1]
	assert.Equal(t, "math-g2.pdf", first[0])
	assert.Equal(t, "1", first[1])
	assert.Equal(t, "1", first[2])
	assert.Equal(t, "小明买了3个苹果，每个2元，一共花了多少钱？", first[3])
	assert.Equal(t, "multiplication, unit price", first[5])
	assert.Equal(t, "easy", first[7])
	assert.Equal(t, "0.95", first[10])

	second := rows[2]
	assert.Equal(t, "content with, comma and \"quotes\"", second[3], "CSV quoting survives the round trip")
	assert.Equal(t, "", second[10], "zero confidence renders empty")
}

func TestCSVExportNoFailureNotes(t *testing.T) {
	data, err := NewCSVExporter().Export(sampleResult())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ModelTimeout", "failure notes never appear in spreadsheets")
}

func TestCSVExportDeterministic(t *testing.T) {
	result := sampleResult()
	a, err := NewCSVExporter().Export(result)
	require.NoError(t, err)
	b, err := NewCSVExporter().Export(result)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCSVExportEmptyResult(t *testing.T) {
	data, err := NewCSVExporter().Export(&domain.ProcessingResult{Document: "empty.pdf"})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestXLSXExportRoundTrip(t *testing.T) {
	data, err := NewXLSXExporter().Export(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList(), "default sheet is removed")

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "math-g2.pdf", rows[1][0])
	assert.Equal(t, "小明买了3个苹果，每个2元，一共花了多少钱？", rows[1][3])
	assert.Equal(t, "0.95", rows[1][10])
}

func TestExporterMetadata(t *testing.T) {
	c := NewCSVExporter()
	assert.Equal(t, "text/csv; charset=utf-8", c.ContentType())
	assert.Equal(t, "csv", c.Extension())

	x := NewXLSXExporter()
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", x.ContentType())
	assert.Equal(t, "xlsx", x.Extension())
}
