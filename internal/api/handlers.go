package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/genscript/internal/generator"
	"github.com/hyperengineering/genscript/internal/prompt"
	"github.com/hyperengineering/genscript/internal/store"
	"github.com/hyperengineering/genscript/internal/types"
	"github.com/hyperengineering/genscript/internal/validation"
)

const (
	maxBodyBytes           = 4 << 20
	defaultGenerationLimit = 50
	maxGenerationLimit     = 500
)

// IdeaGenerator is the generation pipeline as seen by the HTTP layer.
type IdeaGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
	Save(ctx context.Context, ideas []types.Idea) (*types.SaveResult, error)
	Backend() string
}

// Handler implements the API handlers
type Handler struct {
	gen     IdeaGenerator
	store   store.Store
	apiKey  string
	version string
}

// NewHandler creates a new Handler. An empty apiKey disables authentication.
func NewHandler(g IdeaGenerator, s store.Store, apiKey, version string) *Handler {
	return &Handler{
		gen:     g,
		store:   s,
		apiKey:  apiKey,
		version: version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody decodes a JSON request body into v, writing a problem response
// and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteProblem(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		WriteProblem(w, r, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		loggerFromContext(r.Context()).Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:         "healthy",
		Version:        h.version,
		GatewayBackend: h.gen.Backend(),
		IdeaCount:      stats.IdeaCount,
		SchemaVersion:  stats.SchemaVersion,
	})
}

// Modes handles GET /api/modes
func (h *Handler) Modes(w http.ResponseWriter, r *http.Request) {
	profiles := prompt.Profiles()
	modes := make([]types.ModeInfo, 0, len(profiles))
	for _, p := range profiles {
		modes = append(modes, p.Info())
	}
	writeJSON(w, http.StatusOK, map[string][]types.ModeInfo{"modes": modes})
}

// Generate handles POST /api/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.gen.Generate(r.Context(), generator.Request{
		Mode:  req.Mode,
		Topic: req.Topic,
		Count: req.Count,
		Save:  req.Save,
	})
	if err != nil {
		loggerFromContext(r.Context()).Warn("generation failed", "error", err, "mode", req.Mode)
		MapGenerateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res.Response())
}

// ValidateAndSave handles POST /api/validate-and-save
func (h *Handler) ValidateAndSave(w http.ResponseWriter, r *http.Request) {
	var raw struct {
		Ideas json.RawMessage `json:"ideas"`
	}
	if !decodeBody(w, r, &raw) {
		return
	}

	trimmed := bytes.TrimSpace(raw.Ideas)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		WriteProblem(w, r, http.StatusBadRequest, "ideas must be an array")
		return
	}

	var ideas []types.Idea
	if err := json.Unmarshal(trimmed, &ideas); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid ideas: %s", err.Error()))
		return
	}

	var errs []validation.ValidationError
	for i, idea := range ideas {
		errs = append(errs, validation.ValidateIdea(i, idea)...)
	}
	if len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Ideas contain invalid fields", errs)
		return
	}

	result, err := h.gen.Save(r.Context(), ideas)
	if err != nil {
		loggerFromContext(r.Context()).Error("save failed", "error", err, "count", len(ideas))
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListIdeas handles GET /api/ideas
func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.store.ListIdeas(r.Context())
	if err != nil {
		loggerFromContext(r.Context()).Error("list ideas failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.IdeaList{Ideas: ideas})
}

// GetIdea handles GET /api/ideas/{id}
func (h *Handler) GetIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := h.store.GetIdea(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// DeleteIdea handles DELETE /api/ideas/{id}
func (h *Handler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteIdea(r.Context(), id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			loggerFromContext(r.Context()).Error("delete idea failed", "error", err, "idea_id", id)
		}
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGenerations handles GET /api/generations
func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := defaultGenerationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		if verr := validation.ValidateIntRange("limit", n, 1, maxGenerationLimit); verr != nil {
			WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{*verr})
			return
		}
		limit = n
	}

	gens, err := h.store.ListGenerations(r.Context(), limit)
	if err != nil {
		loggerFromContext(r.Context()).Error("list generations failed", "error", err)
		MapStoreError(w, r, err)
		return
	}
	if gens == nil {
		gens = []types.Generation{}
	}
	writeJSON(w, http.StatusOK, map[string][]types.Generation{"generations": gens})
}
