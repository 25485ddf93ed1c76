package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightpdf/insightpdf/internal/domain"
	"github.com/insightpdf/insightpdf/internal/observability"
)

const validResponse = `{
  "questions": [
    {
      "id": 1,
      "content": "小明买了3个苹果，每个2元，一共花了多少钱？",
      "type": "arithmetic",
      "knowledge_points": ["multiplication", " unit price "],
      "grade_level": "grade 2",
      "difficulty": "Easy",
      "answer": "6元",
      "explanation": "3 × 2 = 6",
      "confidence": 0.95,
      "source": "model-invented-citation"
    },
    {
      "id": 2,
      "content": "一辆汽车每小时行驶60千米，行驶3小时共多少千米？",
      "difficulty": "medium",
      "confidence": 1.4
    }
  ]
}`

func TestNormalizeValidResponse(t *testing.T) {
	n := NewNormalizer(observability.Nop())

	records, note := n.Normalize(validResponse, "math-g2.pdf", 3)
	require.Nil(t, note)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "math-g2.pdf", first.Document)
	assert.Equal(t, 3, first.PageIndex)
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "arithmetic", first.Type)
	assert.Equal(t, []string{"multiplication", "unit price"}, first.KnowledgePoints)
	assert.Equal(t, "easy", first.Difficulty)
	assert.Equal(t, "6元", first.Answer)
	assert.Equal(t, "3 × 2 = 6", first.Notes)
	assert.Equal(t, 0.95, first.Confidence)

	second := records[1]
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, "medium", second.Difficulty)
	assert.Equal(t, 1.0, second.Confidence, "confidence is clamped to [0, 1]")
}

func TestNormalizeIgnoresModelSource(t *testing.T) {
	n := NewNormalizer(observability.Nop())

	records, note := n.Normalize(validResponse, "upload.pdf", 7)
	require.Nil(t, note)
	for _, r := range records {
		assert.Equal(t, "upload.pdf", r.Document)
		assert.Equal(t, 7, r.PageIndex)
	}
}

func TestNormalizeFencedResponse(t *testing.T) {
	n := NewNormalizer(observability.Nop())

	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n{\"questions\": [{\"content\": \"q\"}]}\n```"},
		{"bare fence", "```\n{\"questions\": [{\"content\": \"q\"}]}\n```"},
		{"unterminated fence", "```json\n{\"questions\": [{\"content\": \"q\"}]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, note := n.Normalize(tt.raw, "doc.pdf", 1)
			require.Nil(t, note)
			require.Len(t, records, 1)
			assert.Equal(t, "q", records[0].Content)
		})
	}
}

func TestNormalizeMalformedTopLevel(t *testing.T) {
	n := NewNormalizer(observability.Nop())

	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "I could not find any questions on this page."},
		{"truncated json", `{"questions": [{"content": "q"`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, note := n.Normalize(tt.raw, "doc.pdf", 5)
			assert.Nil(t, records)
			require.NotNil(t, note)
			assert.Equal(t, 5, note.PageIndex)
			assert.Equal(t, domain.ErrMalformedModelResponse, note.Reason)
		})
	}
}

func TestNormalizePartialKeep(t *testing.T) {
	n := NewNormalizer(observability.Nop())

	raw := `{"questions": [
		{"content": "first valid"},
		{"content": "   "},
		{"content": "second valid"},
		{"answer": "orphan answer with no content"}
	]}`

	records, note := n.Normalize(raw, "doc.pdf", 2)
	require.Nil(t, note)
	require.Len(t, records, 2)

	assert.Equal(t, "first valid", records[0].Content)
	assert.Equal(t, 1, records[0].Seq)
	assert.Equal(t, "second valid", records[1].Content)
	assert.Equal(t, 2, records[1].Seq, "seq counts kept records only")
}

func TestNormalizeEmptyQuestions(t *testing.T) {
	n := NewNormalizer(observability.Nop())

	records, note := n.Normalize(`{"questions": []}`, "doc.pdf", 1)
	assert.Nil(t, note, "a page with no questions is not a failure")
	assert.Empty(t, records)
}
