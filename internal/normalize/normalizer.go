// Package normalize validates raw model output and shapes it into
// question records.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// codeFence matches a markdown code block wrapping the whole response.
// Models frequently ignore the no-fences instruction.
var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// envelope is the expected top-level shape of a model response.
type envelope struct {
	Questions []entry `json:"questions"`
}

// entry is one raw problem object as emitted by the model.
type entry struct {
	ID              int      `json:"id"`
	Content         string   `json:"content"`
	Type            string   `json:"type"`
	KnowledgePoints []string `json:"knowledge_points"`
	GradeLevel      string   `json:"grade_level"`
	Difficulty      string   `json:"difficulty"`
	Answer          string   `json:"answer"`
	Explanation     string   `json:"explanation"`
	Confidence      float64  `json:"confidence"`
	Source          string   `json:"source"` // ignored, citation is injected
}

// Normalizer turns raw model text into question records.
type Normalizer struct {
	logger zerolog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With().Str("component", "normalize").Logger(),
	}
}

// Normalize parses one page's raw output. An invalid top-level structure
// fails the whole page with a MalformedModelResponse note. A valid structure
// with individually broken entries keeps the valid entries and drops the rest.
// The source citation on every record comes from the arguments, never from
// the model.
func (n *Normalizer) Normalize(raw string, document string, pageIndex int) ([]domain.QuestionRecord, *domain.FailureNote) {
	cleaned := stripFences(raw)

	var env envelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		n.logger.Warn().
			Str("document", document).
			Int("page", pageIndex).
			Err(err).
			Msg("model response is not valid JSON")
		return nil, &domain.FailureNote{
			PageIndex: pageIndex,
			Reason:    domain.ErrMalformedModelResponse,
			Detail:    "response is not valid JSON: " + err.Error(),
		}
	}

	records := make([]domain.QuestionRecord, 0, len(env.Questions))
	dropped := 0
	for _, e := range env.Questions {
		content := strings.TrimSpace(e.Content)
		if content == "" {
			dropped++
			continue
		}

		records = append(records, domain.QuestionRecord{
			Document:        document,
			PageIndex:       pageIndex,
			Seq:             len(records) + 1,
			Content:         content,
			Type:            strings.TrimSpace(e.Type),
			KnowledgePoints: trimAll(e.KnowledgePoints),
			GradeLevel:      strings.TrimSpace(e.GradeLevel),
			Difficulty:      domain.NormalizeDifficulty(e.Difficulty),
			Answer:          strings.TrimSpace(e.Answer),
			Notes:           strings.TrimSpace(e.Explanation),
			Confidence:      domain.ClampConfidence(e.Confidence),
		})
	}

	if dropped > 0 {
		n.logger.Warn().
			Str("document", document).
			Int("page", pageIndex).
			Int("dropped", dropped).
			Msg("dropped entries missing required fields")
	}

	return records, nil
}

// stripFences unwraps a response enclosed in a markdown code block.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	if m := codeFence.FindStringSubmatch(cleaned); m != nil {
		return m[1]
	}
	// Unterminated fence: drop the opening marker line.
	if _, rest, ok := strings.Cut(cleaned, "\n"); ok {
		return strings.TrimSpace(rest)
	}
	return cleaned
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
