package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/internal/config"
	"github.com/insightpdf/insightpdf/internal/domain"
	"github.com/insightpdf/insightpdf/internal/export"
	"github.com/insightpdf/insightpdf/internal/pipeline"
)

// ProcessHandler handles PDF uploads and runs the extraction pipeline.
type ProcessHandler struct {
	logger   zerolog.Logger
	pipeline *pipeline.Pipeline
	store    *config.Store
	maxBytes int64
}

// NewProcessHandler creates a process handler.
func NewProcessHandler(logger zerolog.Logger, p *pipeline.Pipeline, store *config.Store, maxBytes int64) *ProcessHandler {
	return &ProcessHandler{
		logger:   logger,
		pipeline: p,
		store:    store,
		maxBytes: maxBytes,
	}
}

// ProcessResponse is the JSON result of one extraction run.
type ProcessResponse struct {
	Document   string                  `json:"document"`
	TotalPages int                     `json:"total_pages"`
	Outcome    domain.Outcome          `json:"outcome"`
	Questions  []domain.QuestionRecord `json:"questions"`
	Failures   []domain.FailureNote    `json:"failures"`
	Statistics domain.Statistics       `json:"statistics"`
}

// Process handles POST /api/v01/process. The multipart field "file" carries
// one PDF; the optional field "prompt" overrides the extraction prompt. The
// "format" query parameter selects json (default), csv or xlsx output.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	var exporter domain.Exporter
	if format != "json" {
		var err error
		if exporter, err = export.ForFormat(format); err != nil {
			writeError(w, http.StatusBadRequest, domain.ErrExportError,
				fmt.Sprintf("unsupported format %q, expected json, csv or xlsx", format), "")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrInvalidDocument,
				fmt.Sprintf("upload exceeds size limit of %d bytes", h.maxBytes), "")
			return
		}
		writeError(w, http.StatusBadRequest, domain.ErrInvalidDocument,
			"multipart field \"file\" is required", err.Error())
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrInvalidDocument,
				fmt.Sprintf("upload exceeds size limit of %d bytes", h.maxBytes), "")
			return
		}
		writeError(w, http.StatusInternalServerError, domain.ErrInvalidDocument,
			"failed to read upload", err.Error())
		return
	}

	document := filepath.Base(header.Filename)
	customPrompt := r.FormValue("prompt")
	requestID := uuid.NewString()

	logger := h.logger.With().
		Str("request_id", requestID).
		Str("document", document).
		Logger()
	logger.Info().
		Int("bytes", len(raw)).
		Str("format", format).
		Msg("processing upload")

	result, err := h.pipeline.Run(ctx, raw, document, h.store.Current(), customPrompt, nil)
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; nothing useful to write.
			logger.Warn().Msg("request canceled mid-pipeline")
			return
		}
		code := domain.CodeOf(err)
		if domain.IsFatal(err) {
			writeError(w, http.StatusBadRequest, code, "document cannot be processed", err.Error())
			return
		}
		logger.Error().Err(err).Msg("pipeline failed")
		writeError(w, http.StatusInternalServerError, code, "extraction failed", err.Error())
		return
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, ProcessResponse{
			Document:   result.Document,
			TotalPages: result.TotalPages,
			Outcome:    result.Outcome,
			Questions:  result.Records,
			Failures:   result.Failures,
			Statistics: result.Stats(),
		})
		return
	}

	payload, err := exporter.Export(result)
	if err != nil {
		// Extraction succeeded; the caller can still fetch format=json.
		logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, domain.ErrExportError,
			"export failed, retry with format=json to retrieve results", err.Error())
		return
	}

	base := strings.TrimSuffix(document, filepath.Ext(document))
	filename := fmt.Sprintf("%s-questions.%s", base, exporter.Extension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
