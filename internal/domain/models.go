package domain

import (
	"strings"
	"time"
)

// Difficulty labels emitted by the model. Anything else is normalized away.
var SupportedDifficulties = []string{
	"easy",
	"medium",
	"hard",
}

// Page is one PDF page rendered as a single raster image.
// Created by the extractor, consumed once by the model client.
type Page struct {
	Index    int    // 1-based page number
	Image    []byte // JPEG payload
	Document string // source document name (upload filename)
}

// QuestionRecord is the normalized representation of one extracted
// application problem with classification and answer fields.
type QuestionRecord struct {
	Document        string   `json:"document"`
	PageIndex       int      `json:"page_index"`
	Seq             int      `json:"seq"` // within-page emission order, 1-based
	Content         string   `json:"content"`
	Type            string   `json:"type,omitempty"`
	KnowledgePoints []string `json:"knowledge_points,omitempty"`
	GradeLevel      string   `json:"grade_level,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
	Answer          string   `json:"answer,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
}

// FailureNote records a per-page processing error that did not abort the run.
type FailureNote struct {
	PageIndex int       `json:"page_index"`
	Reason    ErrorCode `json:"reason"`
	Detail    string    `json:"detail,omitempty"`
}

// Outcome classifies how a run finished.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed" // every page processed, no failure notes
	OutcomePartial   Outcome = "partial"   // some pages failed, results for the rest
	OutcomeFailed    Outcome = "failed"    // fatal error, no usable result
)

// ProcessingResult is the ordered output of one pipeline run.
// Records preserve (page index, within-page emission order).
type ProcessingResult struct {
	Document   string `json:"document"`
	TotalPages int    `json:"total_pages"`
	// Processed counts pages that completed normalization. Pages that
	// failed, or were never attempted after an aborted run, are excluded.
	Processed int              `json:"processed_pages"`
	Records   []QuestionRecord `json:"questions"`
	Failures  []FailureNote    `json:"failures"`
	Outcome   Outcome          `json:"outcome"`
	Elapsed   time.Duration    `json:"-"`
}

// Statistics summarizes a ProcessingResult for API responses.
type Statistics struct {
	TotalPages     int            `json:"total_pages"`
	ProcessedPages int            `json:"processed_pages"`
	FailedPages    int            `json:"failed_pages"`
	TotalQuestions int            `json:"total_questions"`
	ByDifficulty   map[string]int `json:"by_difficulty,omitempty"`
	SuccessRate    float64        `json:"success_rate"`
	ElapsedMs      int64          `json:"elapsed_ms"`
}

// Stats computes summary statistics for the result.
func (r *ProcessingResult) Stats() Statistics {
	s := Statistics{
		TotalPages:     r.TotalPages,
		FailedPages:    len(r.Failures),
		ProcessedPages: r.Processed,
		TotalQuestions: len(r.Records),
		ElapsedMs:      r.Elapsed.Milliseconds(),
	}
	if r.TotalPages > 0 {
		s.SuccessRate = float64(s.ProcessedPages) / float64(r.TotalPages)
	}
	for _, q := range r.Records {
		if q.Difficulty == "" {
			continue
		}
		if s.ByDifficulty == nil {
			s.ByDifficulty = make(map[string]int)
		}
		s.ByDifficulty[q.Difficulty]++
	}
	return s
}

// ClassifyOutcome derives the run outcome from the accumulated failures.
func (r *ProcessingResult) ClassifyOutcome() Outcome {
	if len(r.Failures) == 0 {
		return OutcomeCompleted
	}
	return OutcomePartial
}

// ModelConfig identifies the active LLM provider, endpoint and call policy.
// Values are immutable; the process-wide current config lives behind an
// atomic store and is replaced wholesale, never field-by-field.
type ModelConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration // per-attempt request deadline
	MaxAttempts int
}

// NormalizeDifficulty maps a model-emitted difficulty to a supported label,
// or "" when it matches none.
func NormalizeDifficulty(difficulty string) string {
	d := strings.ToLower(strings.TrimSpace(difficulty))
	for _, s := range SupportedDifficulties {
		if d == s {
			return s
		}
	}
	return ""
}

// ClampConfidence bounds a model-emitted confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
