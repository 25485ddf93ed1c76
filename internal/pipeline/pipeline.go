// Package pipeline orchestrates the PDF-to-question-records extraction run.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/internal/domain"
	"github.com/insightpdf/insightpdf/internal/llm"
)

// Phase names one stage of a run. Pages move through Invoking and
// Normalizing strictly in ascending index order.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseExtracting  Phase = "extracting"
	PhaseInvoking    Phase = "invoking"
	PhaseNormalizing Phase = "normalizing"
	PhaseAggregating Phase = "aggregating"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// Progress describes the current position of a run for observers.
type Progress struct {
	Phase      Phase
	PageIndex  int // 0 outside per-page phases
	TotalPages int
}

// ProgressFunc receives phase transitions. It must not block.
type ProgressFunc func(Progress)

// Opener turns raw PDF bytes into a lazy page source.
type Opener interface {
	Open(raw []byte, document string) (domain.PageSource, error)
}

// Pipeline runs the sequential extraction workflow: open the document once,
// then for each page invoke the model and normalize its response.
type Pipeline struct {
	opener     Opener
	client     domain.ModelClient
	normalizer domain.Normalizer
	logger     zerolog.Logger
}

// New creates a pipeline.
func New(opener Opener, client domain.ModelClient, normalizer domain.Normalizer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		opener:     opener,
		client:     client,
		normalizer: normalizer,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run processes one PDF start to finish. Fatal document errors abort the run
// with an error; per-page failures become failure notes and the run continues.
// A ModelAuthError stops further model calls, since later pages would fail the
// same way, and the partial result carries what was extracted before it.
func (p *Pipeline) Run(ctx context.Context, raw []byte, document string, cfg domain.ModelConfig, customPrompt string, progress ProgressFunc) (*domain.ProcessingResult, error) {
	start := time.Now()
	emit(progress, Progress{Phase: PhaseExtracting})

	source, err := p.opener.Open(raw, document)
	if err != nil {
		emit(progress, Progress{Phase: PhaseFailed})
		return nil, err
	}
	defer source.Close()

	total := source.TotalPages()
	prompt := llm.BuildPrompt(document, customPrompt)
	result := &domain.ProcessingResult{
		Document:   document,
		TotalPages: total,
	}

	p.logger.Info().
		Str("document", document).
		Int("pages", total).
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting extraction run")

	for {
		if err := ctx.Err(); err != nil {
			emit(progress, Progress{Phase: PhaseFailed})
			return nil, err
		}

		page, err := source.Next(ctx)
		if err != nil {
			emit(progress, Progress{Phase: PhaseFailed})
			return nil, err
		}
		if page == nil {
			break
		}

		emit(progress, Progress{Phase: PhaseInvoking, PageIndex: page.Index, TotalPages: total})

		raw, err := p.client.Analyze(ctx, page, cfg, prompt)
		if err != nil {
			if ctx.Err() != nil {
				emit(progress, Progress{Phase: PhaseFailed})
				return nil, ctx.Err()
			}

			code := domain.CodeOf(err)
			p.logger.Error().
				Str("document", document).
				Int("page", page.Index).
				Str("reason", string(code)).
				Err(err).
				Msg("page failed")

			result.Failures = append(result.Failures, domain.FailureNote{
				PageIndex: page.Index,
				Reason:    code,
				Detail:    err.Error(),
			})

			// Credentials won't start working on the next page.
			if code == domain.ErrModelAuthError {
				p.logger.Warn().
					Str("document", document).
					Int("page", page.Index).
					Msg("credential rejection, skipping remaining pages")
				break
			}
			continue
		}

		emit(progress, Progress{Phase: PhaseNormalizing, PageIndex: page.Index, TotalPages: total})

		records, note := p.normalizer.Normalize(raw, document, page.Index)
		if note != nil {
			result.Failures = append(result.Failures, *note)
			continue
		}
		result.Records = append(result.Records, records...)
		result.Processed++
	}

	emit(progress, Progress{Phase: PhaseAggregating, TotalPages: total})

	result.Elapsed = time.Since(start)
	result.Outcome = result.ClassifyOutcome()

	p.logger.Info().
		Str("document", document).
		Str("outcome", string(result.Outcome)).
		Int("questions", len(result.Records)).
		Int("failed_pages", len(result.Failures)).
		Dur("elapsed", result.Elapsed).
		Msg("extraction run finished")

	emit(progress, Progress{Phase: PhaseDone, TotalPages: total})
	return result, nil
}

func emit(progress ProgressFunc, p Progress) {
	if progress != nil {
		progress(p)
	}
}
