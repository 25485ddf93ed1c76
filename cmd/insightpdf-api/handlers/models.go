package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/internal/config"
	"github.com/insightpdf/insightpdf/internal/domain"
)

// ModelsHandler serves the provider list and the model configuration swap.
type ModelsHandler struct {
	logger zerolog.Logger
	cfg    *config.Config
	store  *config.Store
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(logger zerolog.Logger, cfg *config.Config, store *config.Store) *ModelsHandler {
	return &ModelsHandler{
		logger: logger,
		cfg:    cfg,
		store:  store,
	}
}

// ModelInfo describes one configured provider.
type ModelInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Active   bool   `json:"active"`
}

// ModelsResponse is the body of GET /api/v01/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ConfigRequest is the body of POST /api/v01/config/model.
type ConfigRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"` // optional override of the provider default
}

// ConfigResponse echoes the new effective configuration. The API key is
// never included.
type ConfigResponse struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	BaseURL   string `json:"base_url"`
	TimeoutMs int64  `json:"timeout_ms"`
	Attempts  int    `json:"max_attempts"`
}

// List handles GET /api/v01/models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	active := h.store.Current()

	models := make([]ModelInfo, 0, len(h.cfg.Providers))
	for name, p := range h.cfg.Providers {
		model := p.Model
		if name == active.Provider {
			model = active.Model
		}
		models = append(models, ModelInfo{
			Provider: name,
			Model:    model,
			Active:   name == active.Provider,
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Provider < models[j].Provider })

	writeJSON(w, http.StatusOK, ModelsResponse{Models: models})
}

// Configure handles POST /api/v01/config/model. The replacement is an atomic
// swap; readers never observe a half-updated configuration.
func (h *ModelsHandler) Configure(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownProvider,
			"invalid request body", err.Error())
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownProvider,
			"provider is required", "")
		return
	}

	next, err := h.cfg.ModelConfigFor(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownProvider,
			"unrecognized provider", err.Error())
		return
	}
	if req.Model != "" {
		next.Model = req.Model
	}

	prev := h.store.Replace(next)
	h.logger.Info().
		Str("provider", next.Provider).
		Str("model", next.Model).
		Str("previous_provider", prev.Provider).
		Msg("model configuration replaced")

	writeJSON(w, http.StatusOK, ConfigResponse{
		Provider:  next.Provider,
		Model:     next.Model,
		BaseURL:   next.BaseURL,
		TimeoutMs: next.Timeout.Milliseconds(),
		Attempts:  next.MaxAttempts,
	})
}
